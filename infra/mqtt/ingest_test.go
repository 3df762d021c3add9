package mqtt

import (
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/spicev2g/core/events"
)

type mockClient struct {
	connected   bool
	subscribed  string
	subCallback paho.MessageHandler
}

func (m *mockClient) Connect() paho.Token {
	m.connected = true
	return &mockToken{}
}
func (m *mockClient) Disconnect(uint)    { m.connected = false }
func (m *mockClient) IsConnected() bool  { return m.connected }

type mockToken struct{}

func (t *mockToken) Wait() bool                      { return true }
func (t *mockToken) WaitTimeout(time.Duration) bool  { return true }
func (t *mockToken) Error() error                    { return nil }
func (t *mockToken) Done() <-chan struct{}           { return make(chan struct{}) }

type fakeMessage struct{ payload []byte }

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return "grid/gc1/signal" }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

func TestNewIngestorRejectsEmptyBroker(t *testing.T) {
	if _, err := NewIngestor(Config{Topic: "t"}, events.New()); err == nil {
		t.Fatalf("expected error for empty broker")
	}
}

func TestNewIngestorRejectsEmptyTopic(t *testing.T) {
	if _, err := NewIngestor(Config{Broker: "tcp://localhost:1883"}, events.New()); err == nil {
		t.Fatalf("expected error for empty topic")
	}
}

func TestIngestorOnMessageAppendsGridOperatorSignal(t *testing.T) {
	mc := &mockClient{}
	newMQTTClient = func(*paho.ClientOptions) pahoClient { return mc }
	defer func() { newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) } }()

	sink := events.New()
	ing, err := NewIngestor(Config{Broker: "tcp://localhost:1883", ClientID: "id", Topic: "grid/+/signal"}, sink)
	if err != nil {
		t.Fatalf("NewIngestor: %v", err)
	}
	fixedNow := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ing.now = func() time.Time { return fixedNow }

	maxPower := 50.0
	ing.onMessage(nil, fakeMessage{payload: []byte(`{"grid_connector":"gc1","max_power":50}`)})

	if sink.Len() != 1 {
		t.Fatalf("expected 1 event appended, got %d", sink.Len())
	}
	active := sink.ActiveAt(fixedNow)
	if len(active) != 1 {
		t.Fatalf("expected 1 active event, got %d", len(active))
	}
	sig, ok := active[0].(events.GridOperatorSignal)
	if !ok {
		t.Fatalf("expected GridOperatorSignal, got %T", active[0])
	}
	if sig.GridConnector != "gc1" || sig.MaxPower == nil || *sig.MaxPower != maxPower {
		t.Fatalf("unexpected signal: %+v", sig)
	}
}

func TestIngestorOnMessageDropsMalformedPayload(t *testing.T) {
	mc := &mockClient{}
	newMQTTClient = func(*paho.ClientOptions) pahoClient { return mc }
	defer func() { newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) } }()

	sink := events.New()
	ing, err := NewIngestor(Config{Broker: "tcp://localhost:1883", Topic: "grid/+/signal"}, sink)
	if err != nil {
		t.Fatalf("NewIngestor: %v", err)
	}
	ing.onMessage(nil, fakeMessage{payload: []byte(`not json`)})
	if sink.Len() != 0 {
		t.Fatalf("expected malformed payload to be dropped, got %d events", sink.Len())
	}
}

func TestIngestorOnMessageRequiresGridConnector(t *testing.T) {
	mc := &mockClient{}
	newMQTTClient = func(*paho.ClientOptions) pahoClient { return mc }
	defer func() { newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) } }()

	sink := events.New()
	ing, err := NewIngestor(Config{Broker: "tcp://localhost:1883", Topic: "grid/+/signal"}, sink)
	if err != nil {
		t.Fatalf("NewIngestor: %v", err)
	}
	ing.onMessage(nil, fakeMessage{payload: []byte(`{"max_power":10}`)})
	if sink.Len() != 0 {
		t.Fatalf("expected missing grid_connector to be dropped, got %d events", sink.Len())
	}
}

func TestIngestorClose(t *testing.T) {
	mc := &mockClient{connected: true}
	newMQTTClient = func(*paho.ClientOptions) pahoClient { return mc }
	defer func() { newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) } }()

	sink := events.New()
	ing, err := NewIngestor(Config{Broker: "tcp://localhost:1883", Topic: "grid/+/signal"}, sink)
	if err != nil {
		t.Fatalf("NewIngestor: %v", err)
	}
	ing.Close()
	if mc.connected {
		t.Fatalf("expected Close to disconnect the client")
	}
}
