// Package config loads the server configuration from an optional
// yaml or json file with environment overrides. Every section has
// workable defaults; a bare process with no file and no environment
// starts a development server.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces environment overrides, with double underscores
// standing in for section separators: UNIBUS_HTTP__ADDR=:9090.
const envPrefix = "UNIBUS_"

type Config struct {
	Log       LogConfig       `koanf:"log"`
	HTTP      HTTPConfig      `koanf:"http"`
	Tracking  TrackingConfig  `koanf:"tracking"`
	Campus    CampusConfig    `koanf:"campus"`
	Redis     RedisConfig     `koanf:"redis"`
	MQTT      MQTTConfig      `koanf:"mqtt"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	Seed      SeedConfig      `koanf:"seed"`
}

type LogConfig struct {
	Level string `koanf:"level" validate:"omitempty,oneof=trace debug info warn error"`
}

type HTTPConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type TrackingConfig struct {
	HistoryWindow  time.Duration `koanf:"history_window" validate:"required"`
	ObserverBuffer int           `koanf:"observer_buffer" validate:"gt=0"`
	ETALookback    time.Duration `koanf:"eta_lookback"`
}

type CampusConfig struct {
	Latitude        float64 `koanf:"latitude" validate:"gte=-90,lte=90"`
	Longitude       float64 `koanf:"longitude" validate:"gte=-180,lte=180"`
	DefaultRadiusKm float64 `koanf:"default_radius_km" validate:"gt=0"`
	MaxRadiusKm     float64 `koanf:"max_radius_km" validate:"gtefield=DefaultRadiusKm"`
}

type RedisConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Addr        string `koanf:"addr"`
	Password    string `koanf:"password"`
	DB          int    `koanf:"db"`
	HistoryCap  int    `koanf:"history_cap"`
	WarmOnStart bool   `koanf:"warm_on_start"`
}

type MQTTConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Broker   string `koanf:"broker"`
	ClientID string `koanf:"client_id"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	Topic    string `koanf:"topic"`
	QoS      int    `koanf:"qos" validate:"gte=0,lte=2"`
}

type MetricsConfig struct {
	PrometheusEnabled bool   `koanf:"prometheus_enabled"`
	InfluxEnabled     bool   `koanf:"influx_enabled"`
	InfluxURL         string `koanf:"influx_url"`
	InfluxToken       string `koanf:"influx_token"`
	InfluxOrg         string `koanf:"influx_org"`
	InfluxBucket      string `koanf:"influx_bucket"`
}

type RateLimitConfig struct {
	PerWindow int           `koanf:"per_window" validate:"gt=0"`
	Window    time.Duration `koanf:"window" validate:"required"`
	Whitelist []string      `koanf:"whitelist"`
}

type SeedConfig struct {
	Path string `koanf:"path"`
}

func (c *Config) SetDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.ReadTimeout == 0 {
		c.HTTP.ReadTimeout = 10 * time.Second
	}
	if c.HTTP.WriteTimeout == 0 {
		c.HTTP.WriteTimeout = 10 * time.Second
	}
	if c.HTTP.ShutdownTimeout == 0 {
		c.HTTP.ShutdownTimeout = 30 * time.Second
	}
	if c.Tracking.HistoryWindow == 0 {
		c.Tracking.HistoryWindow = 168 * time.Hour
	}
	if c.Tracking.ObserverBuffer == 0 {
		c.Tracking.ObserverBuffer = 256
	}
	if c.Tracking.ETALookback == 0 {
		c.Tracking.ETALookback = 15 * time.Minute
	}
	if c.Campus.Latitude == 0 && c.Campus.Longitude == 0 {
		c.Campus.Latitude = 12.9716
		c.Campus.Longitude = 77.5946
	}
	if c.Campus.DefaultRadiusKm == 0 {
		c.Campus.DefaultRadiusKm = 2.0
	}
	if c.Campus.MaxRadiusKm == 0 {
		c.Campus.MaxRadiusKm = 10.0
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.HistoryCap == 0 {
		c.Redis.HistoryCap = 1000
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "unibus-server"
	}
	if c.MQTT.Topic == "" {
		c.MQTT.Topic = "unibus/vehicle/+/position"
	}
	if c.RateLimit.PerWindow == 0 {
		c.RateLimit.PerWindow = 120
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = time.Minute
	}
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("invalid configuration: mqtt.broker is required when mqtt is enabled")
	}
	if c.Metrics.InfluxEnabled && c.Metrics.InfluxURL == "" {
		return fmt.Errorf("invalid configuration: metrics.influx_url is required when influx is enabled")
	}
	return nil
}

// Load reads the file at path (optional, yaml or json by extension)
// and applies environment overrides on top.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		var parser koanf.Parser
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", path)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
