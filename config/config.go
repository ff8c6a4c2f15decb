// Package config loads the jasper bot configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// TokenEnv is the environment variable the bot token is read from.
const TokenEnv = "DISCORD_AUTH_TOKEN"

// Reminder store backends.
const (
	BackendMemory = "memory"
	BackendNATS   = "nats"
)

// Duration is a time.Duration written as a string such as "10s" in JSON.
type Duration time.Duration

// UnmarshalJSON accepts "1m30s" style strings or a plain number of
// nanoseconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n int64
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("duration must be a string or integer, got %s", b)
		}
		*d = Duration(n)
		return nil
	}

	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalJSON writes the duration in time.Duration.String form.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the bot configuration.
type Config struct {
	BaseURL        string    `json:"base_url"`
	GatewayVersion int       `json:"gateway_version"`
	Timeout        Duration  `json:"timeout"`
	DrainTimeout   Duration  `json:"drain_timeout"`
	LogLevel       string    `json:"log_level"`
	LogFormat      string    `json:"log_format"`
	OpsAddr        string    `json:"ops_addr"`
	Reminders      Reminders `json:"reminders"`

	// Token is never read from the file.
	Token string `json:"-"`
}

// Reminders configures the remindme app.
type Reminders struct {
	Backend      string   `json:"backend"`
	NATSURL      string   `json:"nats_url"`
	Bucket       string   `json:"bucket"`
	PollInterval Duration `json:"poll_interval"`
	Location     string   `json:"location"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		BaseURL:        "https://discordapp.com/api",
		GatewayVersion: 6,
		Timeout:        Duration(10 * time.Second),
		DrainTimeout:   Duration(5 * time.Second),
		LogLevel:       "info",
		LogFormat:      "text",
		OpsAddr:        ":9090",
		Reminders: Reminders{
			Backend:      BackendMemory,
			NATSURL:      "nats://127.0.0.1:4222",
			Bucket:       "jasper_reminders",
			PollInterval: Duration(30 * time.Second),
			Location:     "UTC",
		},
	}
}

// Load reads the file at path over the defaults and takes the token from
// the environment. An empty path loads the defaults alone.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		if err := json.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.Token = os.Getenv(TokenEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Token == "" {
		errs = append(errs, fmt.Errorf("%s is not set", TokenEnv))
	}
	if c.BaseURL == "" {
		errs = append(errs, errors.New("base_url is required"))
	}
	if c.GatewayVersion <= 0 {
		errs = append(errs, fmt.Errorf("gateway_version must be positive, got %d", c.GatewayVersion))
	}
	if c.Timeout <= 0 {
		errs = append(errs, errors.New("timeout must be positive"))
	}
	if c.DrainTimeout < 0 {
		errs = append(errs, errors.New("drain_timeout must not be negative"))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log_level %q", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log_format %q", c.LogFormat))
	}

	r := c.Reminders
	switch r.Backend {
	case BackendMemory:
	case BackendNATS:
		if r.NATSURL == "" || r.Bucket == "" {
			errs = append(errs, errors.New("reminders: nats backend needs nats_url and bucket"))
		}
	default:
		errs = append(errs, fmt.Errorf("reminders: unknown backend %q", r.Backend))
	}
	if r.PollInterval <= 0 {
		errs = append(errs, errors.New("reminders: poll_interval must be positive"))
	}
	if _, err := time.LoadLocation(r.Location); err != nil {
		errs = append(errs, fmt.Errorf("reminders: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: invalid configuration: %w", err)
	}
	return nil
}

// TimeZone returns the time zone reminder dates are read in.
func (r Reminders) TimeZone() *time.Location {
	loc, err := time.LoadLocation(r.Location)
	if err != nil {
		return time.UTC
	}
	return loc
}
