package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"

	"github.com/Agrid-Dev/thermozone/internal/provider"
	"github.com/Agrid-Dev/thermozone/internal/zone"
)

const EnvPrefix = "THERMOZONE_"

type Config struct {
	DeviceID    string            `koanf:"device_id" yaml:"device_id"`
	Log         LogConfig         `koanf:"log" yaml:"log"`
	Controllers ControllersConfig `koanf:"controllers" yaml:"controllers"`
	Kafka       KafkaConfig       `koanf:"kafka" yaml:"kafka"`
	Simulation  SimulationConfig  `koanf:"simulation" yaml:"simulation"`
	Zones       []ZoneConfig      `koanf:"zones" yaml:"zones"`
}

type LogConfig struct {
	Level  string `koanf:"level" yaml:"level"`   // "debug" | "info" | "warn" | "error"
	Format string `koanf:"format" yaml:"format"` // "text" | "json"
}

type ControllersConfig struct {
	HTTP   HTTPConfig   `koanf:"http" yaml:"http"`
	MQTT   MQTTConfig   `koanf:"mqtt" yaml:"mqtt"`
	Modbus ModbusConfig `koanf:"modbus" yaml:"modbus"`
}

type HTTPConfig struct {
	Enabled bool   `koanf:"enabled" yaml:"enabled"`
	Addr    string `koanf:"addr" yaml:"addr"`
}

type MQTTConfig struct {
	Enabled         bool          `koanf:"enabled" yaml:"enabled"`
	BrokerURL       string        `koanf:"broker_url" yaml:"broker_url"`
	ClientID        string        `koanf:"client_id" yaml:"client_id"`
	BaseTopic       string        `koanf:"base_topic" yaml:"base_topic"`
	QoS             byte          `koanf:"qos" yaml:"qos"`
	RetainSnapshot  bool          `koanf:"retain_snapshot" yaml:"retain_snapshot"`
	PublishInterval time.Duration `koanf:"publish_interval" yaml:"publish_interval"`
	Username        string        `koanf:"username" yaml:"username"`
	Password        string        `koanf:"password" yaml:"password"`
}

type ModbusConfig struct {
	Enabled bool   `koanf:"enabled" yaml:"enabled"`
	Addr    string `koanf:"addr" yaml:"addr"`
	UnitID  byte   `koanf:"unit_id" yaml:"unit_id"`
	Zone    string `koanf:"zone" yaml:"zone"` // defaults to the first zone
}

type KafkaConfig struct {
	Enabled bool     `koanf:"enabled" yaml:"enabled"`
	Brokers []string `koanf:"brokers" yaml:"brokers"`
	Topic   string   `koanf:"topic" yaml:"topic"`
}

type SimulationConfig struct {
	Hours  int    `koanf:"hours" yaml:"hours"`
	Start  string `koanf:"start" yaml:"start"`   // RFC 3339 timestamp of hour 0
	Output string `koanf:"output" yaml:"output"` // CSV path, "-" for stdout, empty for none

	// Interval is the wall-clock duration of one simulated hour in serve mode.
	Interval time.Duration `koanf:"interval" yaml:"interval"`
}

// ZoneConfig describes one zone. Setpoints and capacity have no defaults.
type ZoneConfig struct {
	ID                     string            `koanf:"id" yaml:"id"`
	FloorArea              float64           `koanf:"floor_area" yaml:"floor_area"`
	InitialMassTemperature *float64          `koanf:"initial_theta_m" yaml:"initial_theta_m"`
	Envelope               provider.Envelope `koanf:"envelope" yaml:"envelope"`
	Boundary               BoundaryConfig    `koanf:"boundary" yaml:"boundary"`
	Setpoints              SetpointsConfig   `koanf:"setpoints" yaml:"setpoints"`
	Capacity               CapacityConfig    `koanf:"capacity" yaml:"capacity"`
	Control                ControlConfig     `koanf:"control" yaml:"control"`
}

// BoundaryConfig points at an hourly CSV, or holds constant conditions when
// CSV is empty.
type BoundaryConfig struct {
	CSV    string  `koanf:"csv" yaml:"csv"`
	ThetaE float64 `koanf:"theta_e" yaml:"theta_e"`
	PhiM   float64 `koanf:"phi_m" yaml:"phi_m"`
	PhiSt  float64 `koanf:"phi_st" yaml:"phi_st"`
	PhiIa  float64 `koanf:"phi_ia" yaml:"phi_ia"`
}

type SetpointsConfig struct {
	Heating *float64 `koanf:"heating" yaml:"heating"`
	Cooling *float64 `koanf:"cooling" yaml:"cooling"`
}

type CapacityConfig struct {
	HeatingMax *float64 `koanf:"heating_max" yaml:"heating_max"`
	CoolingMax *float64 `koanf:"cooling_max" yaml:"cooling_max"`
}

type ControlConfig struct {
	HeatingSystem string        `koanf:"heating_system" yaml:"heating_system"` // "radiative" | "ac"
	CoolingSystem string        `koanf:"cooling_system" yaml:"cooling_system"`
	Heating       *WindowConfig `koanf:"heating" yaml:"heating"` // nil: heating never runs
	Cooling       *WindowConfig `koanf:"cooling" yaml:"cooling"`
}

type WindowConfig struct {
	StartHour int `koanf:"start_hour" yaml:"start_hour"`
	EndHour   int `koanf:"end_hour" yaml:"end_hour"`
}

func defaultConfig() Config {
	return Config{
		DeviceID: "default",
		Log:      LogConfig{Level: "info", Format: "text"},
		Controllers: ControllersConfig{
			HTTP:   HTTPConfig{Enabled: true, Addr: ":8080"},
			MQTT:   MQTTConfig{PublishInterval: 1 * time.Second},
			Modbus: ModbusConfig{Addr: "127.0.0.1:1502", UnitID: 1},
		},
		Kafka: KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "thermozone.steps"},
		Simulation: SimulationConfig{
			Hours:    8760,
			Start:    "2026-01-01T00:00:00Z",
			Output:   "-",
			Interval: 1 * time.Second,
		},
	}
}

// LoadConfig layers defaults, the config file and THERMOZONE_* environment
// variables, in that order. A missing file means defaults.
func LoadConfig(path string) (Config, error) {
	return loadConfig(path, os.Environ)
}

func loadConfig(path string, environ func() []string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			parser, err := parserFor(path)
			if err != nil {
				return Config{}, err
			}
			if err := k.Load(file.Provider(path), parser); err != nil {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	envProvider := env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(k, v string) (string, any) {
			key := envKeyTransform(strings.TrimPrefix(k, EnvPrefix))
			if key == "kafka.brokers" {
				return key, strings.Split(v, ",")
			}
			return key, v
		},
		EnvironFunc: environ,
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Simulation.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (s SimulationConfig) Validate() error {
	if s.Interval <= 0 {
		return fmt.Errorf("simulation.interval %v: %w", s.Interval, zone.ErrInvalidInterval)
	}
	return nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return kyaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config extension %q", ext)
	}
}

// envKeyTransform maps an unprefixed variable name to a config key:
// CONTROLLERS_HTTP_ADDR -> controllers.http.addr, LOG_LEVEL -> log.level.
// Names outside a known section are lowercased as is.
func envKeyTransform(s string) string {
	k := strings.ToLower(strings.TrimSpace(s))
	if k == "" {
		return ""
	}
	if rest, ok := strings.CutPrefix(k, "controllers_"); ok {
		parts := strings.SplitN(rest, "_", 2)
		if len(parts) < 2 {
			return k
		}
		return "controllers." + parts[0] + "." + parts[1]
	}
	for _, section := range []string{"log", "kafka", "simulation"} {
		if rest, ok := strings.CutPrefix(k, section+"_"); ok {
			return section + "." + rest
		}
	}
	return k
}

// StartTime parses Simulation.Start.
func (c Config) StartTime() (time.Time, error) {
	t, err := time.Parse(time.RFC3339, c.Simulation.Start)
	if err != nil {
		return time.Time{}, fmt.Errorf("simulation.start: %w", err)
	}
	return t, nil
}

// YAML renders the effective configuration.
func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// NewLogger builds the process logger from the log section.
func NewLogger(c LogConfig, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}
	switch c.Format {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("log.format: unsupported %q", c.Format)
	}
}
