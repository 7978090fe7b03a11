package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the daemon and the control client.
type Config struct {
	// GRPCAddress is the address of the alarm control API.
	GRPCAddress string `yaml:"grpc_addr"`
	// HTTPAddress enables the metrics and line status HTTP endpoints when set.
	HTTPAddress string `yaml:"http_addr,omitempty"`
	// FeedURL is the remote line status endpoint.
	FeedURL string `yaml:"feed_url"`
	// AppKey is passed to the feed as the app_key query parameter.
	AppKey string `yaml:"app_key,omitempty"`
	// Timeout bounds a single HTTP attempt or RPC call.
	Timeout time.Duration `yaml:"timeout"`
	// DispatchTimeout bounds how long a triggered alarm waits for line statuses.
	DispatchTimeout time.Duration `yaml:"dispatch_timeout"`
	// RefreshInterval enables periodic background cache refresh when positive.
	RefreshInterval time.Duration `yaml:"refresh_interval,omitempty"`
	// CacheTTL is how long a cached line status stays fresh.
	CacheTTL time.Duration `yaml:"cache_ttl"`
	// PreciseAlarms requests exact wake-ups; false forces best-effort timing.
	PreciseAlarms *bool `yaml:"precise_alarms,omitempty"`
	// MaxRegistrations caps the number of live timer registrations.
	MaxRegistrations int `yaml:"max_registrations"`
	// Store selects and configures persistence.
	Store StoreConfig `yaml:"store"`
	// Notify configures notification delivery.
	Notify NotifyConfig `yaml:"notify,omitempty"`
	// LogLevel is the minimum log level name.
	LogLevel string `yaml:"log_level,omitempty"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	// Driver is "file" or "postgres".
	Driver string `yaml:"driver"`
	// Dir is where the file driver keeps its JSON files.
	Dir string `yaml:"dir,omitempty"`
	// DSN is the PostgreSQL connection string for the postgres driver.
	DSN string `yaml:"dsn,omitempty"`
}

// NotifyConfig configures notification presenters.
type NotifyConfig struct {
	// WebhookURL receives notifications as JSON when set.
	WebhookURL string `yaml:"webhook_url,omitempty"`
}

const (
	// DefaultConfigFilename is the default settings file name.
	DefaultConfigFilename = "commute-alarm.yaml"

	// DefaultFeedURL is the public tube line status endpoint.
	DefaultFeedURL = "https://api.tfl.gov.uk/Line/Mode/tube/Status"

	// DefaultTimeout bounds a single HTTP attempt or RPC call.
	DefaultTimeout = 15 * time.Second

	// DefaultDispatchTimeout bounds the wait for a terminal line status result.
	DefaultDispatchTimeout = 60 * time.Second

	// DefaultCacheTTL is the cached status lifetime.
	DefaultCacheTTL = 10 * time.Minute

	// DefaultMaxRegistrations caps live timer registrations.
	DefaultMaxRegistrations = 64

	// DriverFile stores data as JSON files.
	DriverFile = "file"
	// DriverPostgres stores data in PostgreSQL.
	DriverPostgres = "postgres"

	// DefaultFilePermissions is used for every file the project writes.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errGRPCAddressRequired is returned when the API address is missing.
	errGRPCAddressRequired = errors.New("grpc address must be provided")
	// errUnknownDriver is returned for an unsupported store driver.
	errUnknownDriver = errors.New("unknown store driver")
	// errDSNRequired is returned when the postgres driver has no DSN.
	errDSNRequired = errors.New("store dsn must be provided for postgres")
)

// Load reads configuration from path and validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save validates cfg and writes it to path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks required fields and fills defaults in place.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.GRPCAddress == "" {
		return errGRPCAddressRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.GRPCAddress); err != nil {
		return fmt.Errorf("invalid grpc address: %w", err)
	}

	if cfg.HTTPAddress != "" {
		if _, _, err := net.SplitHostPort(cfg.HTTPAddress); err != nil {
			return fmt.Errorf("invalid http address: %w", err)
		}
	}

	if cfg.FeedURL == "" {
		cfg.FeedURL = DefaultFeedURL
	}

	if _, err := url.ParseRequestURI(cfg.FeedURL); err != nil {
		return fmt.Errorf("invalid feed url: %w", err)
	}

	if cfg.Notify.WebhookURL != "" {
		if _, err := url.ParseRequestURI(cfg.Notify.WebhookURL); err != nil {
			return fmt.Errorf("invalid webhook url: %w", err)
		}
	}

	setDurationDefaults(cfg)

	if cfg.MaxRegistrations <= 0 {
		cfg.MaxRegistrations = DefaultMaxRegistrations
	}

	return validateStore(&cfg.Store)
}

// Precise reports whether exact wake-ups are requested, true by default.
func (c *Config) Precise() bool {
	return c.PreciseAlarms == nil || *c.PreciseAlarms
}

// setDurationDefaults replaces unset durations with defaults.
func setDurationDefaults(cfg *Config) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.DispatchTimeout <= 0 {
		cfg.DispatchTimeout = DefaultDispatchTimeout
	}

	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}

	if cfg.RefreshInterval < 0 {
		cfg.RefreshInterval = 0
	}
}

// validateStore checks the store section and fills its defaults.
func validateStore(store *StoreConfig) error {
	switch store.Driver {
	case "", DriverFile:
		store.Driver = DriverFile
		if store.Dir == "" {
			store.Dir = "."
		}
	case DriverPostgres:
		if store.DSN == "" {
			return errDSNRequired
		}
	default:
		return fmt.Errorf("%w: %s", errUnknownDriver, store.Driver)
	}

	return nil
}
