// Package mqtt provides optional live ingestion of grid-operator signals
// into a core/events.Events collection, using Eclipse Paho. It lets a real
// grid-operator feed (price changes, max_power revisions, charging-window
// toggles) drive the same stepper that batch scenarios use, without the
// core ever depending on a transport library.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/spicev2g/core/events"
	"github.com/kilianp07/spicev2g/infra/logger"
)

// Config configures the Paho client used to subscribe to grid-operator
// signals. Topic may use MQTT wildcards (e.g. "grid/+/signal") to ingest
// signals for every grid connector on a single subscription.
type Config struct {
	Broker   string `json:"broker"`
	ClientID string `json:"client_id"`
	Topic    string `json:"topic"`
	Username string `json:"username"`
	Password string `json:"password"`
	QoS      byte   `json:"qos"`
}

// pahoClient is the subset of paho.Client Ingestor depends on, so tests can
// substitute a fake without a live broker.
type pahoClient interface {
	Connect() paho.Token
	Disconnect(quiesce uint)
	IsConnected() bool
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// wireSignal is the JSON payload expected on Config.Topic. GridConnector
// identifies which GC the signal targets; StartTime defaults to the time
// the message is received when absent, matching an operator pushing an
// immediate change rather than a scheduled one.
type wireSignal struct {
	GridConnector  string             `json:"grid_connector"`
	StartTime      *time.Time         `json:"start_time"`
	MaxPower       *float64           `json:"max_power"`
	Cost           *events.CostSignal `json:"cost"`
	ChargingWindow *bool              `json:"charging_window"`
	Schedule       *float64           `json:"schedule"`
}

// Ingestor subscribes to Config.Topic and appends each decoded message as a
// events.GridOperatorSignal into Sink. Sink must be safe for concurrent Add
// (core/events.Events is) since messages arrive on Paho's own goroutine,
// independent of the stepper loop.
type Ingestor struct {
	cfg  Config
	cli  pahoClient
	sink *events.Events
	log  logger.Logger
	now  func() time.Time
}

// NewIngestor connects to cfg.Broker and subscribes to cfg.Topic, decoding
// every message into a GridOperatorSignal appended to sink.
func NewIngestor(cfg Config, sink *events.Events) (*Ingestor, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqtt: broker is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("mqtt: topic is required")
	}
	log := logger.New("mqtt_ingest")
	ing := &Ingestor{cfg: cfg, sink: sink, log: log, now: time.Now}

	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.OnConnect = func(c paho.Client) {
		log.Infof("mqtt: connected, subscribing to %s", cfg.Topic)
		if token := c.Subscribe(cfg.Topic, cfg.QoS, ing.onMessage); token.Wait() && token.Error() != nil {
			log.Errorf("mqtt: subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("mqtt: connection lost: %v", err)
	}

	cli := newMQTTClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	ing.cli = cli
	return ing, nil
}

// onMessage decodes one wireSignal and appends the corresponding
// GridOperatorSignal to the sink. Malformed payloads are logged and
// dropped; a single bad message must not stop ingestion of the rest.
func (i *Ingestor) onMessage(_ paho.Client, msg paho.Message) {
	var w wireSignal
	if err := json.Unmarshal(msg.Payload(), &w); err != nil {
		i.log.Errorf("mqtt: decode grid-operator signal: %v", err)
		return
	}
	if w.GridConnector == "" {
		i.log.Errorf("mqtt: grid-operator signal missing grid_connector")
		return
	}
	now := i.now()
	start := now
	if w.StartTime != nil {
		start = *w.StartTime
	}
	i.sink.Add(events.NewGridOperatorSignal(now, start, w.GridConnector, w.MaxPower, w.Cost, w.ChargingWindow, w.Schedule))
}

// Close disconnects the underlying MQTT client.
func (i *Ingestor) Close() {
	if i.cli != nil && i.cli.IsConnected() {
		i.cli.Disconnect(250)
	}
}
