// Package mqtt connects the optimizer to an MQTT broker: vehicle telemetry
// flows in on the telemetry topic, committed epoch results flow out on the
// results topic. Both directions are optional collaborators; the core never
// depends on them.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/greenmove/evcharge/core/fleet"
	"github.com/greenmove/evcharge/core/model"
	"github.com/greenmove/evcharge/core/optimizer"
	"github.com/greenmove/evcharge/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Enabled        bool   `json:"enabled"`
	Broker         string `json:"broker"`
	ClientID       string `json:"client_id"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	TelemetryTopic string `json:"telemetry_topic"`
	ResultsTopic   string `json:"results_topic"`
	QoS            byte   `json:"qos"`
	ConnectTimeout int    `json:"connect_timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "evcharge-" + uuid.NewString()[:8]
	}
	if c.TelemetryTopic == "" {
		c.TelemetryTopic = "evcharge/telemetry/+"
	}
	if c.ResultsTopic == "" {
		c.ResultsTopic = "evcharge/assignments"
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 5
	}
}

// Validate checks mandatory fields when the client is enabled.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Broker == "" {
		return fmt.Errorf("mqtt broker is required")
	}
	return nil
}

// telemetryMessage is the wire format of one vehicle update.
type telemetryMessage struct {
	ID      string  `json:"id"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Battery float64 `json:"battery"`
}

// Client bridges the broker and the fleet store.
type Client struct {
	cli   paho.Client
	cfg   Config
	store *fleet.Store
	log   logger.Logger
}

// NewClient connects to the broker and subscribes to telemetry.
func NewClient(cfg Config, store *fleet.Store) (*Client, error) {
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(time.Duration(cfg.ConnectTimeout) * time.Second)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	c := &Client{cfg: cfg, store: store, log: logger.New("mqtt")}
	opts.OnConnect = func(cli paho.Client) {
		if tok := cli.Subscribe(cfg.TelemetryTopic, cfg.QoS, c.handleTelemetry); tok.Wait() && tok.Error() != nil {
			c.log.Errorf("telemetry subscribe: %v", tok.Error())
		}
	}

	c.cli = paho.NewClient(opts)
	if tok := c.cli.Connect(); tok.Wait() && tok.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", tok.Error())
	}
	return c, nil
}

func (c *Client) handleTelemetry(_ paho.Client, msg paho.Message) {
	var tm telemetryMessage
	if err := json.Unmarshal(msg.Payload(), &tm); err != nil {
		c.log.Warnf("telemetry payload on %s rejected: %v", msg.Topic(), err)
		return
	}
	v := model.Vehicle{
		ID:       tm.ID,
		Position: model.Position{Lat: tm.Lat, Lon: tm.Lon},
		Battery:  tm.Battery,
	}
	if err := v.Validate(); err != nil {
		c.log.Warnf("telemetry rejected: %v", err)
		return
	}
	c.store.UpsertVehicle(v)
}

// Publish implements optimizer.ResultSink by publishing epoch results as
// JSON on the results topic.
func (c *Client) Publish(res optimizer.Result) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return err
	}
	tok := c.cli.Publish(c.cfg.ResultsTopic, c.cfg.QoS, false, payload)
	if tok.Wait() && tok.Error() != nil {
		return fmt.Errorf("mqtt publish: %w", tok.Error())
	}
	return nil
}

// Close disconnects from the broker.
func (c *Client) Close() {
	c.cli.Disconnect(250)
}
