package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mkalens/airwatch-core/internal/airquality"
	"github.com/mkalens/airwatch-core/internal/infrastructure/logging"
)

type fakeArchiver struct {
	samples []airquality.Reading
	err     error
}

func (f *fakeArchiver) InsertSample(_ context.Context, r airquality.Reading) error {
	if f.err != nil {
		return f.err
	}
	f.samples = append(f.samples, r)
	return nil
}

type fakeMirror struct {
	writes []airquality.Reading
}

func (f *fakeMirror) WriteAirQuality(r airquality.Reading) {
	f.writes = append(f.writes, r)
}

func newTestPoller(t *testing.T, mailbox *Mailbox, buffer *TrendBuffer, arch SampleArchiver, mirror MetricsMirror) *Poller {
	t.Helper()
	p := NewPoller(PollerDeps{
		Mailbox:  mailbox,
		Buffer:   buffer,
		Archiver: arch,
		Mirror:   mirror,
		Interval: time.Second,
		Location: time.UTC,
		Logger:   logging.Default(),
	})
	p.now = func() time.Time {
		return time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)
	}
	return p
}

func TestPollerTickEmptyMailbox(t *testing.T) {
	mailbox := NewMailbox()
	buffer := NewTrendBuffer(50)
	p := newTestPoller(t, mailbox, buffer, nil, nil)

	p.tick(context.Background())

	if buffer.Len() != 0 {
		t.Errorf("buffer Len() = %d after empty-mailbox tick, want 0", buffer.Len())
	}
}

func TestPollerMeaningfulSampleFilter(t *testing.T) {
	tests := []struct {
		name       string
		reading    airquality.Reading
		wantAppend bool
	}{
		{
			name:       "all-zero startup noise rejected",
			reading:    airquality.Reading{AQI: 0, RawGasIndex: 0},
			wantAppend: false,
		},
		{
			name:       "raw gas alone accepted",
			reading:    airquality.Reading{AQI: 0, RawGasIndex: 5},
			wantAppend: true,
		},
		{
			name:       "aqi alone accepted",
			reading:    airquality.Reading{AQI: 80},
			wantAppend: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailbox := NewMailbox()
			buffer := NewTrendBuffer(50)
			p := newTestPoller(t, mailbox, buffer, nil, nil)

			mailbox.Put(tt.reading)
			p.tick(context.Background())

			got := buffer.Len() == 1
			if got != tt.wantAppend {
				t.Errorf("appended = %v, want %v", got, tt.wantAppend)
			}
		})
	}
}

func TestPollerTickAppendsTrendPoint(t *testing.T) {
	mailbox := NewMailbox()
	buffer := NewTrendBuffer(50)
	arch := &fakeArchiver{}
	mirror := &fakeMirror{}
	p := newTestPoller(t, mailbox, buffer, arch, mirror)

	mailbox.Put(airquality.Reading{AQI: 120, RawGasIndex: 300})
	p.tick(context.Background())

	points := buffer.Snapshot()
	if len(points) != 1 {
		t.Fatalf("buffer Len() = %d, want 1", len(points))
	}
	if points[0].AQI != 120 {
		t.Errorf("point AQI = %d, want 120", points[0].AQI)
	}
	if points[0].Label != "10:30:00" {
		t.Errorf("point Label = %q, want %q", points[0].Label, "10:30:00")
	}

	if len(arch.samples) != 1 {
		t.Errorf("archived samples = %d, want 1", len(arch.samples))
	}
	if len(mirror.writes) != 1 {
		t.Errorf("mirrored writes = %d, want 1", len(mirror.writes))
	}
}

func TestPollerRepeatedSnapshotAppendsAgain(t *testing.T) {
	// The poller running faster than new messages arrive re-appends the
	// same payload as a new point; the label distinguishes samples.
	mailbox := NewMailbox()
	buffer := NewTrendBuffer(50)
	p := newTestPoller(t, mailbox, buffer, nil, nil)

	mailbox.Put(airquality.Reading{AQI: 60})
	p.tick(context.Background())
	p.tick(context.Background())

	if buffer.Len() != 2 {
		t.Errorf("buffer Len() = %d, want 2 (no deduplication)", buffer.Len())
	}
	if got := p.Appended(); got != 2 {
		t.Errorf("Appended() = %d, want 2", got)
	}
}

func TestPollerArchiveFailureDegradesSilently(t *testing.T) {
	mailbox := NewMailbox()
	buffer := NewTrendBuffer(50)
	arch := &fakeArchiver{err: errors.New("disk full")}
	p := newTestPoller(t, mailbox, buffer, arch, nil)

	mailbox.Put(airquality.Reading{AQI: 60})
	p.tick(context.Background())

	// Archive failure must not block the trend buffer.
	if buffer.Len() != 1 {
		t.Errorf("buffer Len() = %d, want 1 despite archive failure", buffer.Len())
	}
}

func TestPollerRunCancellation(t *testing.T) {
	mailbox := NewMailbox()
	buffer := NewTrendBuffer(50)
	p := newTestPoller(t, mailbox, buffer, nil, nil)
	p.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- p.Run(ctx)
	}()

	mailbox.Put(airquality.Reading{AQI: 42})
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after cancellation")
	}

	if buffer.Len() == 0 {
		t.Error("buffer empty after Run(), want at least one tick appended")
	}
}
