package config

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/pkg/history"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "waypoint.json"

	// DefaultPort is the default server port.
	DefaultPort = 3000

	// DefaultHost is the default server host.
	DefaultHost = "localhost"

	// DefaultManifest is the default route manifest path.
	DefaultManifest = "routes.yaml"

	// DefaultMaxRedirects bounds a navigation's redirect chain.
	DefaultMaxRedirects = 10
)

// Config represents the complete waypoint.json configuration.
type Config struct {
	// Name is the application name, used as the shell title.
	Name string `json:"name,omitempty"`

	// Base is the path prefix the app is mounted under, e.g. "/app".
	Base string `json:"base,omitempty"`

	// History selects "browser" or "hash" URLs.
	History string `json:"history,omitempty"`

	// MaxRedirects bounds each navigation's redirect chain.
	MaxRedirects int `json:"maxRedirects,omitempty"`

	// Manifest locates the route manifest.
	Manifest ManifestConfig `json:"manifest"`

	// Server contains HTTP server configuration.
	Server ServerConfig `json:"server"`

	// Session contains session persistence configuration.
	Session SessionConfig `json:"session"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics"`

	// Log contains logging configuration.
	Log LogConfig `json:"log"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ManifestConfig locates the route manifest: a local file or an S3 object.
type ManifestConfig struct {
	// Path is a manifest file, relative to the config file.
	Path string `json:"path,omitempty"`

	// S3 names a manifest object. It takes precedence over Path.
	S3 *S3Config `json:"s3,omitempty"`

	// PollInterval is how often the manifest is checked for changes
	// (e.g. "2s"). "0" disables reloading.
	PollInterval string `json:"pollInterval,omitempty"`
}

// S3Config names a manifest stored in S3 or an S3-compatible store.
type S3Config struct {
	Bucket   string `json:"bucket"`
	Key      string `json:"key"`
	Region   string `json:"region,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty"`

	// Static is a directory of assets served next to the app.
	Static string `json:"static,omitempty"`

	// Shell is an HTML file served for app routes.
	Shell string `json:"shell,omitempty"`
}

// SessionConfig contains session persistence settings.
type SessionConfig struct {
	// Store is "memory" or "redis".
	Store string `json:"store,omitempty"`

	// RedisAddr is the Redis address when Store is "redis".
	RedisAddr string `json:"redisAddr,omitempty"`

	// TTL is how long an idle session can be resumed (e.g. "30m").
	TTL string `json:"ttl,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled exposes /metrics.
	Enabled bool `json:"enabled,omitempty"`

	// Namespace prefixes every metric name.
	Namespace string `json:"namespace,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		History:      "browser",
		MaxRedirects: DefaultMaxRedirects,
		Manifest: ManifestConfig{
			Path:         DefaultManifest,
			PollInterval: "2s",
		},
		Server: ServerConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Session: SessionConfig{
			Store: "memory",
			TTL:   "30m",
		},
		Metrics: MetricsConfig{
			Namespace: "waypoint",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for waypoint.json in the directory.
func Load(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	return LoadFile(configPath)
}

// LoadFile reads configuration from the specified file path. Unknown
// fields are rejected.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("W501").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				WithSuggestion("Create " + ConfigFileName + " or pass --config")
		}
		return nil, errors.New("W501").Wrap(err)
	}

	cfg := New()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		werr := errors.New("W501").Wrap(err)
		var syn *json.SyntaxError
		var typ *json.UnmarshalTypeError
		switch {
		case stderrors.As(err, &syn):
			werr.WithOffset(path, data, syn.Offset)
		case stderrors.As(err, &typ):
			werr.WithOffset(path, data, typ.Offset)
		}
		return nil, werr
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("W501").Wrap(err)
	}

	// Add newline at end of file
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("W501").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	defaults := New()

	if c.History == "" {
		c.History = defaults.History
	}
	if c.MaxRedirects == 0 {
		c.MaxRedirects = defaults.MaxRedirects
	}
	if c.Manifest.Path == "" && c.Manifest.S3 == nil {
		c.Manifest.Path = defaults.Manifest.Path
	}
	if c.Manifest.PollInterval == "" {
		c.Manifest.PollInterval = defaults.Manifest.PollInterval
	}
	if c.Server.Host == "" {
		c.Server.Host = defaults.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaults.Server.Port
	}
	if c.Session.Store == "" {
		c.Session.Store = defaults.Session.Store
	}
	if c.Session.TTL == "" {
		c.Session.TTL = defaults.Session.TTL
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = defaults.Metrics.Namespace
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	invalid := func(field, detail string) error {
		return errors.New("W502").Wrap(fmt.Errorf("%s %s", field, detail))
	}

	if c.Base != "" && !strings.HasPrefix(c.Base, "/") {
		return invalid("base", "must start with \"/\"")
	}
	if _, err := c.HistoryMode(); err != nil {
		return invalid("history", "must be \"browser\" or \"hash\"")
	}
	if c.MaxRedirects < 0 {
		return invalid("maxRedirects", "must not be negative")
	}
	if s3 := c.Manifest.S3; s3 != nil && (s3.Bucket == "" || s3.Key == "") {
		return invalid("manifest.s3", "bucket and key are required")
	}
	if _, err := c.PollInterval(); err != nil {
		return invalid("manifest.pollInterval", err.Error())
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return invalid("server.port", "must be between 0 and 65535")
	}
	switch c.Session.Store {
	case "memory":
	case "redis":
		if c.Session.RedisAddr == "" {
			return invalid("session.redisAddr", "required when session.store is \"redis\"")
		}
	default:
		return invalid("session.store", "must be \"memory\" or \"redis\"")
	}
	if _, err := c.SessionTTL(); err != nil {
		return invalid("session.ttl", err.Error())
	}
	if _, err := c.LogLevel(); err != nil {
		return invalid("log.level", err.Error())
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return invalid("log.format", "must be \"text\" or \"json\"")
	}
	return nil
}

// HistoryMode returns the configured history mode.
func (c *Config) HistoryMode() (history.Mode, error) {
	return history.ParseMode(c.History)
}

// PollInterval returns the manifest poll interval. Zero disables polling.
func (c *Config) PollInterval() (time.Duration, error) {
	return parseDuration(c.Manifest.PollInterval)
}

// SessionTTL returns how long an idle session can be resumed.
func (c *Config) SessionTTL() (time.Duration, error) {
	return parseDuration(c.Session.TTL)
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(c.Log.Level))
	return level, err
}

// Address returns the address string for the server.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// ManifestPath returns the manifest file path resolved against the config
// file's directory.
func (c *Config) ManifestPath() string {
	return c.resolve(c.Manifest.Path)
}

// StaticPath returns the static directory resolved against the config
// file's directory, or "".
func (c *Config) StaticPath() string {
	return c.resolve(c.Server.Static)
}

// ShellPath returns the shell file resolved against the config file's
// directory, or "".
func (c *Config) ShellPath() string {
	return c.resolve(c.Server.Shell)
}

// Title returns the shell title.
func (c *Config) Title() string {
	if c.Name == "" {
		return "waypoint"
	}
	return c.Name
}

func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" || s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration %q is negative", s)
	}
	return d, nil
}
