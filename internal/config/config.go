// Package config loads the receiver configuration from defaults, an optional
// YAML file and ES1090_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Input modes.
const (
	InputSamples   = "samples"
	InputRecording = "recording"
	InputBeast     = "beast"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "ES1090_"

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("config: invalid configuration")

// InputConfig selects where raw messages come from.
type InputConfig struct {
	Mode      string `yaml:"mode"`
	Path      string `yaml:"path"` // "-" is stdin
	Realtime  bool   `yaml:"realtime"`
	QueueSize int    `yaml:"queue_size"`
}

// LogConfig configures the application logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SBSConfig configures the BaseStation output files.
type SBSConfig struct {
	Dir           string `yaml:"dir"` // empty disables the output
	UTC           bool   `yaml:"utc"`
	Stdout        bool   `yaml:"stdout"`
	RetentionDays int    `yaml:"retention_days"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Listen string `yaml:"listen"` // empty disables the endpoint
}

// NATSConfig configures message publishing.
type NATSConfig struct {
	URL     string `yaml:"url"` // empty disables publishing
	Subject string `yaml:"subject"`
}

// RedisConfig configures the aircraft snapshot store.
type RedisConfig struct {
	Addr string        `yaml:"addr"` // empty disables the store
	TTL  time.Duration `yaml:"ttl"`
}

// Config is the complete receiver configuration.
type Config struct {
	Input      InputConfig   `yaml:"input"`
	AircraftDB string        `yaml:"aircraft_db"`
	RecordPath string        `yaml:"record_path"`
	PurgeAfter time.Duration `yaml:"purge_after"`
	Log        LogConfig     `yaml:"log"`
	SBS        SBSConfig     `yaml:"sbs"`
	Metrics    MetricsConfig `yaml:"metrics"`
	NATS       NATSConfig    `yaml:"nats"`
	Redis      RedisConfig   `yaml:"redis"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			Mode:      InputSamples,
			Path:      "-",
			QueueSize: 1024,
		},
		PurgeAfter: time.Minute,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		SBS: SBSConfig{
			UTC:           true,
			RetentionDays: 30,
		},
		NATS: NATSConfig{
			Subject: "es1090.messages",
		},
		Redis: RedisConfig{
			TTL: 5 * time.Minute,
		},
	}
}

// Load reads the configuration like Read and validates the result.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg, err := Read(path, envFiles...)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read starts from Default, overlays the YAML file at path when path is not
// empty, loads envFiles (".env" when none is given, a missing file is not an
// error) and overlays the environment. The result is not validated so that
// command line flags can still complete it.
func Read(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	_ = godotenv.Load(envFiles...)

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"INPUT_MODE":     &c.Input.Mode,
		"INPUT_PATH":     &c.Input.Path,
		"AIRCRAFT_DB":    &c.AircraftDB,
		"RECORD_PATH":    &c.RecordPath,
		"LOG_LEVEL":      &c.Log.Level,
		"LOG_FORMAT":     &c.Log.Format,
		"SBS_DIR":        &c.SBS.Dir,
		"METRICS_LISTEN": &c.Metrics.Listen,
		"NATS_URL":       &c.NATS.URL,
		"NATS_SUBJECT":   &c.NATS.Subject,
		"REDIS_ADDR":     &c.Redis.Addr,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"REALTIME":   &c.Input.Realtime,
		"SBS_UTC":    &c.SBS.UTC,
		"SBS_STDOUT": &c.SBS.Stdout,
	}
	for name, dst := range bools {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%w: %s%s=%q: %v", ErrInvalid, EnvPrefix, name, v, err)
			}
			*dst = b
		}
	}

	ints := map[string]*int{
		"QUEUE_SIZE":         &c.Input.QueueSize,
		"SBS_RETENTION_DAYS": &c.SBS.RetentionDays,
	}
	for name, dst := range ints {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%w: %s%s=%q: %v", ErrInvalid, EnvPrefix, name, v, err)
			}
			*dst = n
		}
	}

	durations := map[string]*time.Duration{
		"PURGE_AFTER": &c.PurgeAfter,
		"REDIS_TTL":   &c.Redis.TTL,
	}
	for name, dst := range durations {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%w: %s%s=%q: %v", ErrInvalid, EnvPrefix, name, v, err)
			}
			*dst = d
		}
	}
	return nil
}

// Validate checks the configuration for values the receiver cannot run with.
func (c *Config) Validate() error {
	switch c.Input.Mode {
	case InputSamples, InputRecording, InputBeast:
	default:
		return fmt.Errorf("%w: input mode %q must be one of %s, %s, %s", ErrInvalid, c.Input.Mode, InputSamples, InputRecording, InputBeast)
	}
	if c.Input.Path == "" {
		return fmt.Errorf("%w: input path cannot be empty", ErrInvalid)
	}
	if c.Input.Realtime && c.Input.Mode != InputRecording {
		return fmt.Errorf("%w: realtime playback needs the %s input", ErrInvalid, InputRecording)
	}
	if c.Input.QueueSize < 1 {
		return fmt.Errorf("%w: queue size must be at least 1", ErrInvalid)
	}
	if c.PurgeAfter <= 0 {
		return fmt.Errorf("%w: purge_after must be positive", ErrInvalid)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log format %q must be text or json", ErrInvalid, c.Log.Format)
	}
	if c.SBS.Dir != "" && c.SBS.RetentionDays < 0 {
		return fmt.Errorf("%w: sbs retention_days cannot be negative", ErrInvalid)
	}
	if c.Redis.Addr != "" && c.Redis.TTL <= 0 {
		return fmt.Errorf("%w: redis ttl must be positive", ErrInvalid)
	}
	if c.NATS.URL != "" && c.NATS.Subject == "" {
		return fmt.Errorf("%w: nats subject cannot be empty", ErrInvalid)
	}
	return nil
}
