// Package config manages nirbhaya configuration
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	apperrors "github.com/lcrostarosa/nirbhaya/internal/errors"
)

// Storage backends
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Alert log backends
const (
	AlertLogFile     = "file"
	AlertLogPostgres = "postgres"
	AlertLogNone     = "none"
)

// Location providers
const (
	LocatorStatic = "static"
	LocatorIP     = "ip"
)

const (
	DefaultCountdownSeconds = 5
	DefaultLocationTimeout  = 10 * time.Second
	DefaultListenAddr       = ":8090"

	DefaultGeocodeURL  = "https://api.bigdatacloud.net/data"
	DefaultIPLocateURL = "http://ip-api.com"
	DefaultNewsURL     = "https://newsapi.org/v2"
)

// StorageConfig selects the key-value backend for the session and contacts
type StorageConfig struct {
	Backend       string `json:"backend"`
	Dir           string `json:"dir,omitempty"`
	RedisAddr     string `json:"redis_addr,omitempty"`
	RedisPassword string `json:"redis_password,omitempty"`
	RedisDB       int    `json:"redis_db,omitempty"`
	// Passphrase enables at-rest encryption of stored records
	Passphrase string `json:"passphrase,omitempty"`
}

// LocationConfig controls how positions are resolved
type LocationConfig struct {
	Provider    string   `json:"provider"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Accuracy    float64  `json:"accuracy,omitempty"`
	IPLocateURL string   `json:"ip_locate_url,omitempty"`
	GeocodeURL  string   `json:"geocode_url,omitempty"`
	TimeoutSec  int      `json:"timeout_seconds,omitempty"`
}

// Timeout returns the lookup bound
func (l LocationConfig) Timeout() time.Duration {
	if l.TimeoutSec <= 0 {
		return DefaultLocationTimeout
	}
	return time.Duration(l.TimeoutSec) * time.Second
}

// SOSConfig tunes the emergency workflow
type SOSConfig struct {
	CountdownSeconds int `json:"countdown_seconds"`
	// Platform is auto, android, ios or web
	Platform string `json:"platform,omitempty"`
	// OpenLinks hands generated wa.me and sms: links to the desktop opener
	OpenLinks bool `json:"open_links,omitempty"`
}

// RelayConfig configures the optional MQTT relay channel
type RelayConfig struct {
	Broker      string `json:"broker,omitempty"`
	ClientID    string `json:"client_id,omitempty"`
	Username    string `json:"username,omitempty"`
	Password    string `json:"password,omitempty"`
	TopicPrefix string `json:"topic_prefix,omitempty"`
}

// Enabled reports whether a broker is configured
func (r RelayConfig) Enabled() bool { return r.Broker != "" }

// AlertLogConfig selects where SOS outcomes are recorded
type AlertLogConfig struct {
	Backend string `json:"backend"`
	DSN     string `json:"dsn,omitempty"`
}

// NewsConfig configures the safety article feed
type NewsConfig struct {
	BaseURL  string `json:"base_url,omitempty"`
	APIKey   string `json:"api_key,omitempty"`
	Schedule string `json:"refresh_schedule,omitempty"`
}

// Config represents the nirbhaya configuration
type Config struct {
	Storage  StorageConfig  `json:"storage"`
	Location LocationConfig `json:"location"`
	SOS      SOSConfig      `json:"sos"`
	Relay    RelayConfig    `json:"relay,omitempty"`
	AlertLog AlertLogConfig `json:"alert_log"`
	News     NewsConfig     `json:"news"`

	// API settings
	ListenAddr        string  `json:"listen_addr,omitempty"`
	RequestsPerSecond float64 `json:"requests_per_second,omitempty"`

	LogLevel string `json:"log_level,omitempty"`
	LogJSON  bool   `json:"log_json,omitempty"`

	// Paths (not serialized)
	ConfigDir string `json:"-"`
}

// DefaultConfigDir returns the default config directory. NIRBHAYA_HOME
// overrides ~/.nirbhaya.
func DefaultConfigDir() string {
	if dir := os.Getenv("NIRBHAYA_HOME"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".nirbhaya")
}

// Default returns a config with every default applied
func Default(configDir string) *Config {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	cfg := &Config{ConfigDir: configDir}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendFile
	}
	if c.Location.Provider == "" {
		c.Location.Provider = LocatorStatic
	}
	if c.Location.GeocodeURL == "" {
		c.Location.GeocodeURL = DefaultGeocodeURL
	}
	if c.Location.IPLocateURL == "" {
		c.Location.IPLocateURL = DefaultIPLocateURL
	}
	if c.SOS.CountdownSeconds == 0 {
		c.SOS.CountdownSeconds = DefaultCountdownSeconds
	}
	if c.SOS.Platform == "" {
		c.SOS.Platform = "auto"
	}
	if c.AlertLog.Backend == "" {
		c.AlertLog.Backend = AlertLogFile
	}
	if c.News.BaseURL == "" {
		c.News.BaseURL = DefaultNewsURL
	}
	if c.News.Schedule == "" {
		c.News.Schedule = "hourly"
	}
	if c.Relay.TopicPrefix == "" {
		c.Relay.TopicPrefix = "nirbhaya/sos"
	}
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.RequestsPerSecond == 0 {
		c.RequestsPerSecond = 10
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) applyEnv() {
	if key := os.Getenv("NIRBHAYA_NEWS_API_KEY"); key != "" {
		c.News.APIKey = key
	}
	if port := os.Getenv("NIRBHAYA_PORT"); port != "" {
		if port[0] != ':' {
			port = ":" + port
		}
		c.ListenAddr = port
	}
}

// Load loads configuration from the config directory. A missing file is
// returned as ErrNotInitialized alongside a usable default config.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	data, err := os.ReadFile(filepath.Join(configDir, "config.json"))
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default(configDir)
			cfg.applyEnv()
			return cfg, apperrors.ErrNotInitialized
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.ConfigDir = configDir
	cfg.applyDefaults()
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Exists checks if a config exists
func Exists(configDir string) bool {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	_, err := os.Stat(filepath.Join(configDir, "config.json"))
	return err == nil
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	if c.ConfigDir == "" {
		c.ConfigDir = DefaultConfigDir()
	}
	if err := c.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(c.ConfigDir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(c.ConfigDir, "config.json"), data, 0600)
}

// Validate rejects values the runtime cannot honor
func (c *Config) Validate() error {
	if c.SOS.CountdownSeconds < 1 {
		return fmt.Errorf("%w: countdown_seconds must be at least 1", apperrors.ErrInvalidConfig)
	}
	switch c.Storage.Backend {
	case BackendFile, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("%w: unknown storage backend %q", apperrors.ErrInvalidConfig, c.Storage.Backend)
	}
	if c.Storage.Backend == BackendRedis && c.Storage.RedisAddr == "" {
		return fmt.Errorf("%w: redis backend needs redis_addr", apperrors.ErrInvalidConfig)
	}
	switch c.AlertLog.Backend {
	case AlertLogFile, AlertLogNone:
	case AlertLogPostgres:
		if c.AlertLog.DSN == "" {
			return fmt.Errorf("%w: postgres alert log needs dsn", apperrors.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown alert log backend %q", apperrors.ErrInvalidConfig, c.AlertLog.Backend)
	}
	switch c.Location.Provider {
	case LocatorStatic, LocatorIP:
	default:
		return fmt.Errorf("%w: unknown location provider %q", apperrors.ErrInvalidConfig, c.Location.Provider)
	}
	if (c.Location.Latitude == nil) != (c.Location.Longitude == nil) {
		return fmt.Errorf("%w: latitude and longitude must be set together", apperrors.ErrInvalidConfig)
	}
	return nil
}

// --- Paths ---

// DataDir holds the file key-value store
func (c *Config) DataDir() string {
	if c.Storage.Dir != "" {
		return c.Storage.Dir
	}
	return filepath.Join(c.ConfigDir, "data")
}

// AlertsDir holds file-backed SOS history
func (c *Config) AlertsDir() string {
	return filepath.Join(c.ConfigDir, "alerts")
}

// Countdown returns the SOS countdown length
func (c *Config) Countdown() int {
	return c.SOS.CountdownSeconds
}

// SetStaticLocation stores fixed coordinates for the static provider
func (c *Config) SetStaticLocation(lat, lng float64) {
	c.Location.Latitude = &lat
	c.Location.Longitude = &lng
}
