package app

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Agrid-Dev/thermozone/internal/control"
	"github.com/Agrid-Dev/thermozone/internal/demand"
	"github.com/Agrid-Dev/thermozone/internal/zone"
)

func TestEnvKeyTransform_TopLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"DEVICE_ID", "device_id"},
		{"ZONES", "zones"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		got := envKeyTransform(tt.in)
		if got != tt.want {
			t.Fatalf("envKeyTransform(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEnvKeyTransform_Controllers(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"CONTROLLERS_HTTP_ADDR", "controllers.http.addr"},
		{"CONTROLLERS_MQTT_PUBLISH_INTERVAL", "controllers.mqtt.publish_interval"},
		{"CONTROLLERS_MODBUS_UNIT_ID", "controllers.modbus.unit_id"},
		{"CONTROLLERS_HTTP", "controllers_http"},   // not enough parts -> fallback
		{"CONTROLLERS__ADDR", "controllers..addr"}, // edge case
		{"controllers_HTTP_addr", "controllers.http.addr"},
	}

	for _, tt := range tests {
		got := envKeyTransform(tt.in)
		if got != tt.want {
			t.Fatalf("envKeyTransform(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEnvKeyTransform_Sections(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"LOG_LEVEL", "log.level"},
		{"LOG_FORMAT", "log.format"},
		{"KAFKA_TOPIC", "kafka.topic"},
		{"KAFKA_BROKERS", "kafka.brokers"},
		{"SIMULATION_HOURS", "simulation.hours"},
		{"SIMULATION_INTERVAL", "simulation.interval"},
		{"LOG", "log"},               // not enough parts -> passthrough
		{"SIMULATION", "simulation"}, // not enough parts -> passthrough
	}

	for _, tt := range tests {
		got := envKeyTransform(tt.in)
		if got != tt.want {
			t.Fatalf("envKeyTransform(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

const testYAML = `
device_id: site1
log:
  level: debug
controllers:
  mqtt:
    enabled: true
    publish_interval: 5s
zones:
  - id: office
    floor_area: 100
    initial_theta_m: 19
    envelope: {c_m: 18000000, h_tr_em: 20, h_tr_w: 10, h_ve_adj: 15, h_tr_ms: 25, h_tr_is: 30}
    boundary: {theta_e: 5}
    setpoints: {heating: 20, cooling: 26}
    capacity: {heating_max: 10000, cooling_max: -10000}
    control:
      heating_system: radiative
      heating: {start_hour: 6, end_hour: 22}
  - id: archive
    envelope: {c_m: 9000000, h_tr_em: 10, h_tr_w: 5, h_ve_adj: 5, h_tr_ms: 15, h_tr_is: 20}
    boundary: {csv: weather.csv}
    setpoints: {heating: 16, cooling: 28}
    capacity: {heating_max: 2000, cooling_max: 0}
`

const testCSV = `hour,theta_e,phi_m,phi_st,phi_ia
0,-2,0,0,0
1,-3,0,0,0
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func noEnv() []string { return nil }

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"), noEnv)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DeviceID != "default" {
		t.Fatalf("expected device_id=default, got %q", cfg.DeviceID)
	}
	if !cfg.Controllers.HTTP.Enabled || cfg.Controllers.HTTP.Addr != ":8080" {
		t.Fatalf("unexpected http defaults %+v", cfg.Controllers.HTTP)
	}
	if cfg.Simulation.Hours != 8760 || cfg.Simulation.Interval != time.Second {
		t.Fatalf("unexpected simulation defaults %+v", cfg.Simulation)
	}
	if _, err := cfg.Specs(); !errors.Is(err, ErrNoZones) {
		t.Fatalf("expected ErrNoZones, got %v", err)
	}
}

func TestLoadConfig_YAMLAndEnv(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", testYAML)
	environ := func() []string {
		return []string{
			"THERMOZONE_SIMULATION_HOURS=48",
			"THERMOZONE_CONTROLLERS_HTTP_ADDR=:9090",
			"THERMOZONE_KAFKA_BROKERS=a:9092,b:9092",
			"OTHER_VAR=ignored",
		}
	}

	cfg, err := loadConfig(path, environ)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.DeviceID != "site1" || cfg.Log.Level != "debug" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Log.Format != "text" {
		t.Fatalf("expected default log format kept, got %q", cfg.Log.Format)
	}
	if cfg.Controllers.MQTT.PublishInterval != 5*time.Second {
		t.Fatalf("expected publish_interval=5s, got %v", cfg.Controllers.MQTT.PublishInterval)
	}
	if cfg.Simulation.Hours != 48 {
		t.Fatalf("expected env hours=48, got %d", cfg.Simulation.Hours)
	}
	if cfg.Controllers.HTTP.Addr != ":9090" {
		t.Fatalf("expected env addr, got %q", cfg.Controllers.HTTP.Addr)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "b:9092" {
		t.Fatalf("expected two brokers, got %v", cfg.Kafka.Brokers)
	}
	if len(cfg.Zones) != 2 || cfg.Zones[0].Envelope.HTrIs != 30 {
		t.Fatalf("zones not decoded: %+v", cfg.Zones)
	}
}

func TestLoadConfig_JSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.json", `{"device_id": "j1", "simulation": {"hours": 24}}`)

	cfg, err := loadConfig(path, noEnv)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DeviceID != "j1" || cfg.Simulation.Hours != 24 {
		t.Fatalf("json values not applied: %+v", cfg)
	}
}

func TestLoadConfig_RejectsNonPositiveInterval(t *testing.T) {
	for _, v := range []string{"0s", "-1s"} {
		environ := func() []string { return []string{"THERMOZONE_SIMULATION_INTERVAL=" + v} }
		_, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"), environ)
		if !errors.Is(err, zone.ErrInvalidInterval) {
			t.Fatalf("interval %s: expected ErrInvalidInterval, got %v", v, err)
		}
	}

	path := writeFile(t, t.TempDir(), "config.yaml", "simulation:\n  interval: 0s\n")
	if _, err := loadConfig(path, noEnv); !errors.Is(err, zone.ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval from file, got %v", err)
	}
}

func TestLoadConfig_UnsupportedExtension(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.toml", "device_id = 'x'")

	if _, err := loadConfig(path, noEnv); err == nil {
		t.Fatal("expected error for .toml")
	}
}

func TestSpecs_MissingCapacity(t *testing.T) {
	heat, cool := 20.0, 26.0
	cfg := defaultConfig()
	cfg.Zones = []ZoneConfig{{
		ID:        "office",
		Setpoints: SetpointsConfig{Heating: &heat, Cooling: &cool},
	}}

	_, err := cfg.Specs()
	if !errors.Is(err, demand.ErrMissingCapacity) {
		t.Fatalf("expected ErrMissingCapacity, got %v", err)
	}
}

func TestSchedule_InvalidSystem(t *testing.T) {
	cfg := defaultConfig()
	cfg.Zones = []ZoneConfig{{
		ID:      "office",
		Control: ControlConfig{HeatingSystem: "stove", Heating: &WindowConfig{StartHour: 0, EndHour: 24}},
	}}

	_, err := cfg.Schedule()
	if !errors.Is(err, control.ErrInvalidSystemType) {
		t.Fatalf("expected ErrInvalidSystemType, got %v", err)
	}
}

func TestBuildRegistry(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", testYAML)
	writeFile(t, dir, "weather.csv", testCSV)

	cfg, err := loadConfig(path, noEnv)
	if err != nil {
		t.Fatal(err)
	}
	reg, err := cfg.BuildRegistry(dir, nil)
	if err != nil {
		t.Fatal(err)
	}

	if ids := reg.IDs(); len(ids) != 2 || ids[0] != "archive" || ids[1] != "office" {
		t.Fatalf("unexpected zones %v", ids)
	}

	office, _ := reg.Zone("office")
	if got := office.Get().ThetaM; got != 19 {
		t.Fatalf("expected initial theta_m=19, got %v", got)
	}

	// 00:00 is outside the office heating window: the zone free-floats
	out, err := office.Advance()
	if err != nil {
		t.Fatal(err)
	}
	if out.Demand != demand.DemandHeating || out.Active || out.PhiHCNd != 0 {
		t.Fatalf("expected unanswered heating demand, got %+v", out)
	}

	// no schedule windows at all: archive never runs a system
	archive, _ := reg.Zone("archive")
	out, err = archive.Advance()
	if err != nil {
		t.Fatal(err)
	}
	if out.ThetaE != -2 || out.Active {
		t.Fatalf("expected csv boundary and no system, got %+v", out)
	}
}

func TestYAML(t *testing.T) {
	b, err := defaultConfig().YAML()
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	if !strings.Contains(s, "device_id: default") || !strings.Contains(s, "interval: 1s") {
		t.Fatalf("unexpected yaml:\n%s", s)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger(LogConfig{Level: "warn", Format: "json"}, &buf)
	if err != nil {
		t.Fatal(err)
	}
	log.Info("hidden")
	log.Warn("shown", "zone", "office")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), `"zone":"office"`) {
		t.Fatalf("unexpected log output %q", buf.String())
	}

	if _, err := NewLogger(LogConfig{Level: "loud"}, &buf); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if _, err := NewLogger(LogConfig{Level: "info", Format: "xml"}, &buf); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
