// Package test holds integration tests that need a real external
// dependency (a Docker-backed MQTT broker here) rather than the mocked
// collaborators unit tests use elsewhere in the module.
package test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/spicev2g/core/events"
	"github.com/kilianp07/spicev2g/infra/mqtt"
)

func startMosquitto(ctx context.Context, t *testing.T) (tc.Container, string) {
	t.Helper()
	conf := `listener 1883
allow_anonymous true
persistence false
log_dest stdout
`
	dir := t.TempDir()
	path := filepath.Join(dir, "mosquitto.conf")
	if err := os.WriteFile(path, []byte(conf), 0644); err != nil {
		t.Fatalf("write conf: %v", err)
	}

	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:2.0",
		ExposedPorts: []string{"1883/tcp"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
		Files: []tc.ContainerFile{
			{HostFilePath: path, ContainerFilePath: "/mosquitto/config/mosquitto.conf", FileMode: 0644},
		},
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Fatalf("container start: %v", err)
	}
	host, err := cont.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := cont.MappedPort(ctx, "1883")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	broker := fmt.Sprintf("tcp://%s:%s", host, port.Port())
	if err := waitForMQTTReady(broker, 5*time.Second); err != nil {
		t.Logf("mosquitto not ready at %s: %v", broker, err)
		t.Skip("mosquitto not ready after retries")
	}
	return cont, broker
}

func waitForMQTTReady(broker string, timeout time.Duration) error {
	opts := paho.NewClientOptions().AddBroker(broker).SetClientID("probe")
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		cli := paho.NewClient(opts)
		token := cli.Connect()
		token.Wait()
		if token.Error() == nil {
			cli.Disconnect(100)
			return nil
		}
		lastErr = token.Error()
		time.Sleep(100 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for broker")
	}
	return lastErr
}

// TestMQTTIngestorAppliesGridOperatorSignal publishes a grid-operator signal
// onto a live Mosquitto broker and asserts infra/mqtt.Ingestor decodes it
// into an events.Events collection a stepper could consume, exercising the
// same live-feed path §3.2's domain stack claims for infra/mqtt.
func TestMQTTIngestorAppliesGridOperatorSignal(t *testing.T) {
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not installed")
	}
	ctx := context.Background()

	cont, broker := startMosquitto(ctx, t)
	defer func() { _ = cont.Terminate(ctx) }()

	sink := events.New()
	ing, err := mqtt.NewIngestor(mqtt.Config{
		Broker:   broker,
		ClientID: "ingest-test",
		Topic:    "grid/+/signal",
	}, sink)
	if err != nil {
		t.Fatalf("new ingestor: %v", err)
	}
	defer ing.Close()

	pubOpts := paho.NewClientOptions().AddBroker(broker).SetClientID("publisher")
	pub := paho.NewClient(pubOpts)
	if token := pub.Connect(); token.Wait() && token.Error() != nil {
		t.Fatalf("publisher connect: %v", token.Error())
	}
	defer pub.Disconnect(100)

	payload, _ := json.Marshal(map[string]any{
		"grid_connector": "gc1",
		"max_power":      30.0,
	})
	if token := pub.Publish("grid/gc1/signal", 0, false, payload); token.Wait() && token.Error() != nil {
		t.Fatalf("publish: %v", token.Error())
	}

	deadline := time.Now().Add(5 * time.Second)
	for sink.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if sink.Len() != 1 {
		t.Fatalf("expected 1 ingested event, got %d", sink.Len())
	}
	active := sink.ActiveAt(time.Now().Add(time.Second))
	if len(active) != 1 {
		t.Fatalf("expected 1 active event, got %d", len(active))
	}
	sig, ok := active[0].(events.GridOperatorSignal)
	if !ok {
		t.Fatalf("expected GridOperatorSignal, got %T", active[0])
	}
	if sig.GridConnector != "gc1" || sig.MaxPower == nil || *sig.MaxPower != 30.0 {
		t.Fatalf("unexpected signal: %+v", sig)
	}
}
