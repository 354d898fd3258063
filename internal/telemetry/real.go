package telemetry

import (
	"fmt"
	"time"

	"condensing_unit/internal/models"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// Options configures the broker connection.
type Options struct {
	Broker   string
	ClientID string
	Topic    string
}

// RealPublisher publishes to an MQTT broker.
type RealPublisher struct {
	client      paho.Client
	stateTopic  string
	eventsTopic string
}

// NewRealPublisher connects to the broker. The state topic is retained so
// late subscribers see the latest snapshot straight away.
func NewRealPublisher(o Options) (*RealPublisher, error) {
	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("connect to %s: timeout", o.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	state, events := Topics(o.Topic)
	return &RealPublisher{client: client, stateTopic: state, eventsTopic: events}, nil
}

// PublishState sends the snapshot with QoS 0, retained.
func (p *RealPublisher) PublishState(s models.UnitState) error {
	payload, err := FormatState(s)
	if err != nil {
		return fmt.Errorf("format state payload: %w", err)
	}
	return p.publish(p.stateTopic, 0, true, payload)
}

// PublishEvent sends a journal event with QoS 1.
func (p *RealPublisher) PublishEvent(e models.UnitEvent) error {
	payload, err := FormatEvent(e)
	if err != nil {
		return fmt.Errorf("format event payload: %w", err)
	}
	return p.publish(p.eventsTopic, 1, false, payload)
}

func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// IsConnected reports the client's connection state.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Close disconnects, allowing one second for in-flight messages.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000)
	return nil
}

// New returns a broker-backed publisher, or Nop when no broker is configured.
func New(o Options) (Publisher, error) {
	if o.Broker == "" {
		return Nop{}, nil
	}
	return NewRealPublisher(o)
}
