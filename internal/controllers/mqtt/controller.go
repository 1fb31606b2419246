package mqttctrl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/Agrid-Dev/thermozone/internal/ports"
	"github.com/Agrid-Dev/thermozone/internal/zone"
)

type Config struct {
	// Identity
	DeviceID string

	// MQTT connection
	BrokerURL string
	ClientID  string

	// Topics
	BaseTopic string

	// Behavior
	QoS             byte
	RetainSnapshot  bool
	PublishInterval time.Duration

	Username string
	Password string
}

type Controller struct {
	zones ports.ZoneDirectory
	cfg   Config
	log   *slog.Logger

	client mqtt.Client
}

func New(zones ports.ZoneDirectory, cfg Config, log *slog.Logger) (*Controller, error) {
	// ---- defaults ----

	if cfg.BrokerURL == "" {
		cfg.BrokerURL = "tcp://localhost:1883"
	}

	if cfg.DeviceID == "" {
		return nil, errors.New("mqtt: DeviceID is required")
	}
	if cfg.BaseTopic == "" {
		cfg.BaseTopic = "thermozone/" + cfg.DeviceID
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "thermozone-" + cfg.DeviceID
	}
	if cfg.PublishInterval <= 0 {
		cfg.PublishInterval = 1 * time.Second
	}
	if cfg.QoS > 1 {
		return nil, errors.New("mqtt: QoS must be 0 or 1")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		zones: zones,
		cfg:   cfg,
		log:   log.With("controller", "mqtt"),
	}, nil
}

func (c *Controller) Run(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(c.cfg.BrokerURL).
		SetClientID(c.cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(2 * time.Second)

	if c.cfg.Username != "" {
		opts.SetUsername(c.cfg.Username)
		opts.SetPassword(c.cfg.Password)
	}

	// Subscribe when connected/reconnected.
	opts.OnConnect = func(cl mqtt.Client) {
		topic := c.topic("+/set/+")
		token := cl.Subscribe(topic, c.cfg.QoS, c.onMessage)
		token.Wait()
		if err := token.Error(); err != nil {
			c.log.Error("subscribe failed", "topic", topic, "err", err)
		}
	}

	c.client = mqtt.NewClient(opts)
	tok := c.client.Connect()
	tok.Wait()
	if err := tok.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}

	// Publish loop: publish each zone snapshot on interval, only when changed.
	ticker := time.NewTicker(c.cfg.PublishInterval)
	defer ticker.Stop()

	last := map[string]zone.Snapshot{}

	// publish immediately once
	c.publishChanged(last)

	for {
		select {
		case <-ctx.Done():
			c.client.Disconnect(250)
			return ctx.Err()

		case <-ticker.C:
			c.publishChanged(last)
		}
	}
}

// publishChanged publishes the zones whose snapshot differs from last and
// records what was sent.
func (c *Controller) publishChanged(last map[string]zone.Snapshot) {
	for _, id := range c.zones.IDs() {
		z, ok := c.zones.Lookup(id)
		if !ok {
			continue
		}
		cur := z.Get()
		if prev, seen := last[id]; seen && prev == cur {
			continue
		}
		c.publishSnapshot(cur)
		last[id] = cur
	}
}

func (c *Controller) publishSnapshot(s zone.Snapshot) {
	dto := snapshotDTO{
		Hour:            s.Hour,
		HeatingSetpoint: s.HeatingSetpoint,
		CoolingSetpoint: s.CoolingSetpoint,
		HeatingMax:      s.HeatingMax,
		CoolingMax:      s.CoolingMax,
		ThetaM:          s.ThetaM,
		ThetaAir:        s.ThetaAir,
		ThetaOp:         s.ThetaOp,
		PhiHCNd:         s.PhiHCNd,
		Demand:          s.Demand.String(),
		Limited:         s.Limited,
	}
	b, _ := json.Marshal(dto)
	c.client.Publish(c.topic(s.ID+"/snapshot"), c.cfg.QoS, c.cfg.RetainSnapshot, b)
}

type snapshotDTO struct {
	Hour            int     `json:"hour"`
	HeatingSetpoint float64 `json:"heating_setpoint"`
	CoolingSetpoint float64 `json:"cooling_setpoint"`
	HeatingMax      float64 `json:"heating_max"`
	CoolingMax      float64 `json:"cooling_max"`
	ThetaM          float64 `json:"theta_m"`
	ThetaAir        float64 `json:"theta_air"`
	ThetaOp         float64 `json:"theta_op"`
	PhiHCNd         float64 `json:"phi_hc_nd"`
	Demand          string  `json:"demand"`
	Limited         bool    `json:"limited"`
}

// Command payload format: {"value": ...}
type valueReq[T any] struct {
	Value *T `json:"value"`
}

func (c *Controller) onMessage(_ mqtt.Client, msg mqtt.Message) {
	// topic format: <base>/<zone>/set/<field>
	prefix := strings.TrimRight(c.cfg.BaseTopic, "/") + "/"
	rest, ok := strings.CutPrefix(msg.Topic(), prefix)
	if !ok {
		return
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[1] != "set" {
		return
	}
	id, field := parts[0], parts[2]

	z, ok := c.zones.Lookup(id)
	if !ok {
		c.log.Warn("command for unknown zone", "zone", id)
		return
	}

	var apply func(float64) error
	switch field {
	case "heating_setpoint":
		apply = z.SetHeatingSetpoint
	case "cooling_setpoint":
		apply = z.SetCoolingSetpoint
	case "heating_max":
		apply = z.SetHeatingMax
	case "cooling_max":
		apply = z.SetCoolingMax
	default:
		return
	}

	v, err := decodeValueStrict[float64](msg.Payload())
	if err != nil {
		c.log.Warn("bad command payload", "zone", id, "field", field, "err", err)
		return
	}
	if err := apply(v); err != nil {
		c.log.Warn("command rejected", "zone", id, "field", field, "value", v, "err", err)
	}
}

func (c *Controller) topic(suffix string) string {
	return strings.TrimRight(c.cfg.BaseTopic, "/") + "/" + suffix
}

func decodeValueStrict[T any](b []byte) (T, error) {
	var zero T
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	var req valueReq[T]
	if err := dec.Decode(&req); err != nil {
		return zero, err
	}
	if req.Value == nil {
		return zero, errors.New("missing field 'value'")
	}
	return *req.Value, nil
}
