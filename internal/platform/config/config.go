// Package config loads server configuration from an optional YAML file and
// TOKENGATE_* environment variables. Environment values win.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON string

const schemaURL = "tokengate://config.schema.json"

// Config is the full server configuration.
type Config struct {
	Server   Server         `yaml:"server"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Events   EventsConfig   `yaml:"events"`
	Tracing  TracingConfig  `yaml:"tracing"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `yaml:"addr"`
	Env             string        `yaml:"env"`
	LogLevel        string        `yaml:"log_level"`
	AdminToken      string        `yaml:"admin_token"`
	JWTSigningKey   string        `yaml:"jwt_signing_key"`
	JWTIssuer       string        `yaml:"jwt_issuer"`
	JWTAudience     string        `yaml:"jwt_audience"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// Bootstrap is a deployment file applied at startup.
	Bootstrap string `yaml:"bootstrap"`
}

// PostgresConfig is empty-URL-disabled.
type PostgresConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// RedisConfig is empty-URL-disabled.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// KafkaConfig is disabled when no brokers are listed.
type KafkaConfig struct {
	Brokers       []string `yaml:"brokers"`
	Topic         string   `yaml:"topic"`
	ConsumerGroup string   `yaml:"consumer_group"`
	Partitions    int32    `yaml:"partitions"`
	Replication   int16    `yaml:"replication"`
}

// EventsConfig tunes the outbox relay.
type EventsConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	BatchSize    int           `yaml:"batch_size"`
}

// TracingConfig drives the OTLP trace exporter.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	SampleRate  float64 `yaml:"sample_rate"`
}

// Default returns the development configuration.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			Env:             "development",
			LogLevel:        "info",
			JWTSigningKey:   "dev-secret-key-change-in-production",
			JWTIssuer:       "tokengate",
			JWTAudience:     "tokengate-api",
			RequestTimeout:  15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Postgres: PostgresConfig{MaxOpenConns: 10, MaxIdleConns: 5},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Topic:         "tokengate.events",
			ConsumerGroup: "tokengate-indexer",
			Partitions:    3,
			Replication:   1,
		},
		Events: EventsConfig{PollInterval: time.Second, BatchSize: 100},
		Tracing: TracingConfig{
			ServiceName: "tokengate",
			Endpoint:    "localhost:4317",
			Insecure:    true,
			SampleRate:  1,
		},
	}
}

// FromEnv builds a config from defaults and environment variables so main
// stays lean.
func FromEnv() (Config, error) {
	cfg := Default()
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads a YAML file, validates it against the config schema, and
// applies environment overrides on top.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return parse(raw, os.LookupEnv)
}

func parse(raw []byte, lookup func(string) (string, bool)) (Config, error) {
	if err := validate(raw); err != nil {
		return Config{}, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	if doc == nil {
		return nil
	}
	// The schema validator expects JSON-shaped values.
	buf, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("convert config: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(buf))
	dec.UseNumber()
	var instance any
	if err := dec.Decode(&instance); err != nil {
		return fmt.Errorf("convert config: %w", err)
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
		return fmt.Errorf("add config schema: %w", err)
	}
	schema, err := c.Compile(schemaURL)
	if err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("TOKENGATE_ADDR", &cfg.Server.Addr)
	str("TOKENGATE_ENV", &cfg.Server.Env)
	str("TOKENGATE_LOG_LEVEL", &cfg.Server.LogLevel)
	str("TOKENGATE_ADMIN_TOKEN", &cfg.Server.AdminToken)
	str("TOKENGATE_JWT_SIGNING_KEY", &cfg.Server.JWTSigningKey)
	str("TOKENGATE_BOOTSTRAP", &cfg.Server.Bootstrap)
	str("TOKENGATE_POSTGRES_URL", &cfg.Postgres.URL)
	str("TOKENGATE_REDIS_URL", &cfg.Redis.URL)
	str("TOKENGATE_KAFKA_TOPIC", &cfg.Kafka.Topic)
	str("TOKENGATE_TRACING_SERVICE_NAME", &cfg.Tracing.ServiceName)
	str("TOKENGATE_TRACING_ENDPOINT", &cfg.Tracing.Endpoint)

	if v, ok := lookup("TOKENGATE_KAFKA_BROKERS"); ok && v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}
	if v, ok := lookup("TOKENGATE_TRACING_ENABLED"); ok && v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TOKENGATE_TRACING_ENABLED: %w", err)
		}
		cfg.Tracing.Enabled = enabled
	}
	if v, ok := lookup("TOKENGATE_REQUEST_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TOKENGATE_REQUEST_TIMEOUT: %w", err)
		}
		cfg.Server.RequestTimeout = d
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Development reports whether the server runs in development mode.
func (c Config) Development() bool {
	return c.Server.Env == "development"
}
