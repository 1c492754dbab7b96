package ingest

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/mkalens/airwatch-core/internal/airquality"
	"github.com/mkalens/airwatch-core/internal/infrastructure/logging"
)

// trendLabelLayout formats the wall-clock label shown on the live chart.
const trendLabelLayout = "15:04:05"

// SampleArchiver persists meaningful live samples locally.
// Satisfied by *archive.Repository.
type SampleArchiver interface {
	InsertSample(ctx context.Context, r airquality.Reading) error
}

// MetricsMirror forwards samples to the optional time-series store.
// Satisfied by *influxdb.Client. Writes are non-blocking fire-and-forget.
type MetricsMirror interface {
	WriteAirQuality(r airquality.Reading)
}

// Poller reads the mailbox on a fixed cadence and maintains the trend buffer.
//
// Each tick takes exactly one mailbox snapshot, classifies it, and appends
// it to the buffer if it passes the meaningful-sample filter. The poller is
// the buffer's only writer. There is no mid-cycle cancellation; suspension
// is simply waiting for the next tick.
type Poller struct {
	mailbox  *Mailbox
	buffer   *TrendBuffer
	archiver SampleArchiver // optional
	mirror   MetricsMirror  // optional
	interval time.Duration
	loc      *time.Location
	logger   *logging.Logger

	appended atomic.Uint64
	skipped  atomic.Uint64

	now func() time.Time // stubbed in tests
}

// PollerDeps holds the poller's collaborators.
type PollerDeps struct {
	Mailbox  *Mailbox
	Buffer   *TrendBuffer
	Archiver SampleArchiver // may be nil
	Mirror   MetricsMirror  // may be nil
	Interval time.Duration
	Location *time.Location // display zone for trend labels, may be nil
	Logger   *logging.Logger
}

// NewPoller creates a poller. Interval must be positive.
func NewPoller(deps PollerDeps) *Poller {
	return &Poller{
		mailbox:  deps.Mailbox,
		buffer:   deps.Buffer,
		archiver: deps.Archiver,
		mirror:   deps.Mirror,
		interval: deps.Interval,
		loc:      deps.Location,
		logger:   deps.Logger,
		now:      time.Now,
	}
}

// Run drives the poll loop until the context is cancelled.
//
// Parameters:
//   - ctx: Cancellation context; Run returns ctx.Err() on cancellation
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("poller started", "interval", p.interval.String())

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopped")
			return ctx.Err()
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// tick processes one poll cycle: a single mailbox snapshot, classify,
// filter, append, archive, mirror.
func (p *Poller) tick(ctx context.Context) {
	reading, ok := p.mailbox.Snapshot()
	if !ok {
		// No message has arrived yet this session.
		return
	}

	severity := airquality.Classify(reading.AQI)

	if !reading.Meaningful() {
		// Zero-valued startup noise before the first real message.
		p.skipped.Add(1)
		return
	}

	now := airquality.ToDisplay(p.now(), p.loc)
	p.buffer.Append(TrendPoint{
		Time:        now,
		Label:       now.Format(trendLabelLayout),
		AQI:         reading.AQI,
		RawGasIndex: reading.RawGasIndex,
	})
	p.appended.Add(1)

	p.logger.Debug("live sample appended",
		"aqi", reading.AQI,
		"severity", severity.Label,
		"raw_gas_index", reading.RawGasIndex,
	)

	if p.archiver != nil {
		if err := p.archiver.InsertSample(ctx, reading); err != nil {
			// Archive failures degrade silently; the store remains the
			// lossless source.
			p.logger.Warn("archiving live sample failed", "error", err)
		}
	}

	if p.mirror != nil {
		p.mirror.WriteAirQuality(reading)
	}
}

// Appended returns the number of samples appended to the trend buffer.
func (p *Poller) Appended() uint64 {
	return p.appended.Load()
}

// Skipped returns the number of snapshots rejected by the meaningful filter.
func (p *Poller) Skipped() uint64 {
	return p.skipped.Load()
}
