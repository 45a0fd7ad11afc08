package ramp

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

const publishTimeout = 2 * time.Second

// MQTTConfig selects the broker ramp samples are published to.
type MQTTConfig struct {
	Broker    string // e.g. tcp://localhost:1883
	Username  string
	Password  string
	TopicRoot string
}

// sampleMsg is the JSON payload published for every poll.
type sampleMsg struct {
	Time      time.Time `json:"time"`
	Slot      uint16    `json:"slot"`
	Channels  []uint16  `json:"channels"`
	VMon      []float32 `json:"vmon"`
	Target    float32   `json:"target"`
	Tolerance float32   `json:"tol"`
	Converged bool      `json:"converged"`
	Poll      int       `json:"poll"`
}

// createMQTTClient connects a new MQTT client to the configured broker.
func createMQTTClient(cfg MQTTConfig) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.SetClientID(fmt.Sprintf("hvctl-%d", time.Now().UnixNano()))
	opts.AddBroker(cfg.Broker)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetConnectTimeout(5 * time.Second)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return client, nil
}

// MQTTReporter publishes samples to <root>/slot/<slot>/ramp. Publication
// problems are logged and never interrupt the ramp.
type MQTTReporter struct {
	client mqtt.Client
	root   string
	logger log.FieldLogger
}

// NewMQTTReporter connects to the broker. Close must be called when done.
func NewMQTTReporter(cfg MQTTConfig, logger log.FieldLogger) (*MQTTReporter, error) {
	client, err := createMQTTClient(cfg)
	if err != nil {
		return nil, err
	}
	return newMQTTReporter(client, cfg.TopicRoot, logger), nil
}

func newMQTTReporter(client mqtt.Client, root string, logger log.FieldLogger) *MQTTReporter {
	if root == "" {
		root = "hvctl"
	}
	return &MQTTReporter{
		client: client,
		root:   root,
		logger: logger.WithField("component", "mqtt"),
	}
}

func (r *MQTTReporter) topic(slot uint16) string {
	return fmt.Sprintf("%s/slot/%d/ramp", r.root, slot)
}

func (r *MQTTReporter) Report(s Sample) {
	payload, err := json.Marshal(sampleMsg{
		Time:      s.Time,
		Slot:      s.Slot,
		Channels:  s.Channels,
		VMon:      s.VMon,
		Target:    s.Target,
		Tolerance: s.Tolerance,
		Converged: s.Converged,
		Poll:      s.Poll,
	})
	if err != nil {
		r.logger.Warnf("Failed to encode sample: %v", err)
		return
	}

	topic := r.topic(s.Slot)
	token := r.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		r.logger.Warnf("Timeout publishing to %s", topic)
		return
	}
	if err := token.Error(); err != nil {
		r.logger.Warnf("Failed to publish to %s: %v", topic, err)
	}
}

// Close disconnects from the broker.
func (r *MQTTReporter) Close() {
	r.client.Disconnect(250)
	r.logger.Debug("Disconnected from MQTT broker")
}
