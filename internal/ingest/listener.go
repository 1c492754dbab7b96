package ingest

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/mkalens/airwatch-core/internal/airquality"
	"github.com/mkalens/airwatch-core/internal/infrastructure/logging"
)

// ConnState describes the listener's transport state.
//
// The transport client retries disconnects on its own; the state only feeds
// the "connecting" indicator, which must show whenever not Subscribed.
type ConnState int32

const (
	StateDisconnected ConnState = iota
	StateConnected
	StateSubscribed
)

// String returns the lowercase state name used in API responses.
func (s ConnState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateSubscribed:
		return "subscribed"
	default:
		return "disconnected"
	}
}

// Subscriber is the MQTT client surface the listener needs.
// Satisfied by *mqtt.Client.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error
	SetOnConnect(func())
	SetOnDisconnect(func(err error))
	IsConnected() bool
}

// sensorPayload mirrors the push topic's JSON object. Missing keys decode to
// zero, so a snapshot of the mailbox is always fully formed. Both the legacy
// mq135 key and raw_gas_index are accepted.
type sensorPayload struct {
	AQI         float64 `json:"aqi"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	MQ135       float64 `json:"mq135"`
	RawGasIndex float64 `json:"raw_gas_index"`
}

// Listener subscribes to the sensor push topic and feeds the mailbox.
//
// It is the mailbox's only writer. It never touches the trend buffer; that
// belongs to the poller. The listener lives for the process lifetime and is
// handed to consumers explicitly rather than looked up globally.
type Listener struct {
	client  Subscriber
	mailbox *Mailbox
	topic   string
	qos     byte
	logger  *logging.Logger

	state atomic.Int32

	// Counters for the metrics endpoint.
	received  atomic.Uint64
	malformed atomic.Uint64

	now func() time.Time // stubbed in tests
}

// NewListener creates a listener bound to the given client and mailbox.
//
// Parameters:
//   - client: Connected MQTT client (or one that will connect)
//   - mailbox: Slot the listener writes each parsed reading into
//   - topic: Sensor topic to subscribe to
//   - qos: Subscription QoS level
//   - logger: Structured logger
func NewListener(client Subscriber, mailbox *Mailbox, topic string, qos byte, logger *logging.Logger) *Listener {
	l := &Listener{
		client:  client,
		mailbox: mailbox,
		topic:   topic,
		qos:     qos,
		logger:  logger,
		now:     time.Now,
	}
	if client.IsConnected() {
		l.state.Store(int32(StateConnected))
	}
	return l
}

// Start registers connection callbacks and subscribes to the sensor topic.
//
// Start is called once. Every reconnect re-asserts the subscription: the
// client wrapper only restores subscriptions it managed to register, so a
// failed initial subscribe would otherwise leave nothing to restore and the
// listener deaf forever. Subscribing to an already-subscribed topic is
// idempotent at the broker.
//
// Returns:
//   - error: If the initial subscription fails (reconnects keep retrying)
func (l *Listener) Start() error {
	l.client.SetOnConnect(func() {
		l.state.Store(int32(StateConnected))
		l.logger.Info("sensor transport connected", "topic", l.topic)
		if err := l.subscribe(); err != nil {
			l.logger.Warn("resubscribing to sensor topic failed",
				"topic", l.topic,
				"error", err,
			)
		}
	})
	l.client.SetOnDisconnect(func(err error) {
		l.state.Store(int32(StateDisconnected))
		l.logger.Warn("sensor transport disconnected", "error", err)
	})

	l.state.Store(int32(StateConnected))

	if err := l.subscribe(); err != nil {
		return fmt.Errorf("subscribing to %s: %w", l.topic, err)
	}

	return nil
}

// subscribe registers the message handler and, only on success, moves the
// state to Subscribed. The Subscribed state therefore always reflects a
// subscribe call that actually succeeded.
func (l *Listener) subscribe() error {
	if err := l.client.Subscribe(l.topic, l.qos, l.handleMessage); err != nil {
		return err
	}
	l.state.Store(int32(StateSubscribed))
	l.logger.Info("subscribed to sensor topic", "topic", l.topic, "qos", l.qos)
	return nil
}

// handleMessage parses one inbound payload and replaces the mailbox slot.
// Malformed JSON is logged and discarded; the listener never crashes on bad
// input and never propagates the error beyond the transport's warn log.
func (l *Listener) handleMessage(topic string, payload []byte) error {
	l.received.Add(1)

	reading, err := parsePayload(payload, l.now())
	if err != nil {
		l.malformed.Add(1)
		l.logger.Warn("discarding malformed sensor payload",
			"topic", topic,
			"error", err,
		)
		return nil
	}

	l.mailbox.Put(reading)
	return nil
}

// parsePayload decodes a sensor payload into a fully-formed reading.
// Missing keys default to zero; mq135 is the legacy alias for raw_gas_index.
func parsePayload(payload []byte, receivedAt time.Time) (airquality.Reading, error) {
	var p sensorPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return airquality.Reading{}, fmt.Errorf("decoding payload: %w", err)
	}

	rawGas := p.MQ135
	if p.RawGasIndex != 0 {
		rawGas = p.RawGasIndex
	}

	return airquality.Reading{
		Timestamp:   receivedAt.UTC(),
		AQI:         int(p.AQI),
		Temperature: p.Temperature,
		Humidity:    p.Humidity,
		RawGasIndex: rawGas,
	}, nil
}

// State returns the current transport state.
func (l *Listener) State() ConnState {
	return ConnState(l.state.Load())
}

// Received returns the total number of messages handled.
func (l *Listener) Received() uint64 {
	return l.received.Load()
}

// Malformed returns the number of discarded payloads.
func (l *Listener) Malformed() uint64 {
	return l.malformed.Load()
}
