// Package config loads the pulsewatch configuration file.
//
// It lets pulsewatch run as a standalone binary with a configuration file, as
// an alternative to the programmatic SDK. TOML is the default format; files
// ending in .yaml, .yml or .json are decoded accordingly.
//
// Example configuration:
//
//	telegram_token = "${TELEGRAM_TOKEN}"
//	telegram_chat_id = -1001234567890
//	check_interval_success = 60000
//	check_interval_fail = 10000
//	notify_failures = 3
//	rereport = 20
//	addresses = [
//	  "https://api.example.com/health",
//	  "https://example.com",
//	]
//
//	[[address_grids]]
//	url_template = "https://{{.region}}.example.com/health"
//	dimensions = { region = ["us-east", "eu-west"] }
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	// EnvConfigPath names the environment variable consulted by [ResolvePath].
	EnvConfigPath = "PULSEWATCH_CONFIG"

	// DefaultPath is used when neither a flag nor the environment names a file.
	DefaultPath = "pulsewatch.toml"

	defaultProbeTimeout = 10 * time.Second
	minProbeTimeout     = 1 * time.Second
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// Format identifies a configuration file encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Config is the root configuration structure.
//
// Interval fields are whole milliseconds. Use [Load] or [Parse] to create a
// Config; both apply defaults, expand environment variables and validate.
type Config struct {
	// TelegramToken is the bot token. Required unless SlackWebhookURL is set.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	TelegramToken string `toml:"telegram_token" yaml:"telegram_token" json:"telegram_token"`

	// TelegramChatID is the destination chat. Required when a token is set.
	TelegramChatID int64 `toml:"telegram_chat_id" yaml:"telegram_chat_id" json:"telegram_chat_id"`

	// SuccessIntervalMs is the sleep after a check that produced no message.
	SuccessIntervalMs int64 `toml:"check_interval_success" yaml:"check_interval_success" json:"check_interval_success"`

	// FailIntervalMs is the sleep after a check that produced a message.
	FailIntervalMs int64 `toml:"check_interval_fail" yaml:"check_interval_fail" json:"check_interval_fail"`

	// NotifyFailures is the consecutive-failure count that triggers the first alert.
	NotifyFailures int64 `toml:"notify_failures" yaml:"notify_failures" json:"notify_failures"`

	// Rereport re-alerts whenever the consecutive-failure count is a multiple of it.
	Rereport int64 `toml:"rereport" yaml:"rereport" json:"rereport"`

	// Addresses are the URLs to watch, in start order. Individual entries are
	// not validated here; a malformed address only disables its own monitor.
	Addresses []string `toml:"addresses" yaml:"addresses" json:"addresses"`

	// AddressGrids expand into more addresses, appended after Addresses.
	AddressGrids []GridConfig `toml:"address_grids" yaml:"address_grids" json:"address_grids"`

	// ProbeTimeout bounds each request. Defaults to 10s, minimum 1s.
	ProbeTimeout Duration `toml:"probe_timeout" yaml:"probe_timeout" json:"probe_timeout"`

	// MaxConcurrentProbes caps in-flight requests across all endpoints. 0 means no cap.
	MaxConcurrentProbes int `toml:"max_concurrent_probes" yaml:"max_concurrent_probes" json:"max_concurrent_probes"`

	// QuietRecovery suppresses recovery messages for outages that never alerted.
	QuietRecovery bool `toml:"quiet_recovery" yaml:"quiet_recovery" json:"quiet_recovery"`

	// SlackWebhookURL adds a Slack incoming webhook as a second destination.
	// Supports environment variable substitution.
	SlackWebhookURL string `toml:"slack_webhook_url" yaml:"slack_webhook_url" json:"slack_webhook_url"`

	// LogLevel is one of debug, info, warn, error. Defaults to info.
	LogLevel string `toml:"log_level" yaml:"log_level" json:"log_level"`

	// LogFormat is json or text. Defaults to json.
	LogFormat string `toml:"log_format" yaml:"log_format" json:"log_format"`
}

// GridConfig defines a group of addresses generated from a URL template.
//
// With dimensions {env: [prod, staging], svc: [api, web]} the grid expands to
// 4 addresses: prod/api, prod/web, staging/api, staging/web.
type GridConfig struct {
	// URLTemplate is a Go template; dimension keys are available as {{.key}}.
	// Supports environment variable substitution.
	URLTemplate string `toml:"url_template" yaml:"url_template" json:"url_template"`

	// Dimensions maps dimension names to their values.
	Dimensions map[string][]string `toml:"dimensions" yaml:"dimensions" json:"dimensions"`
}

// Validate implements validation.Validatable for GridConfig.
func (g GridConfig) Validate() error {
	return validation.ValidateStruct(&g,
		validation.Field(&g.URLTemplate,
			validation.Required,
			validation.By(validateTemplate),
		),
		validation.Field(&g.Dimensions,
			validation.Required,
			validation.By(validateDimensions),
		),
	)
}

// Duration wraps time.Duration so it can be written as "10s" in any format.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// UnmarshalText implements encoding.TextUnmarshaler, used by the TOML and
// JSON decoders.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// SuccessInterval returns SuccessIntervalMs as a time.Duration.
func (c *Config) SuccessInterval() time.Duration {
	return time.Duration(c.SuccessIntervalMs) * time.Millisecond
}

// FailInterval returns FailIntervalMs as a time.Duration.
func (c *Config) FailInterval() time.Duration {
	return time.Duration(c.FailIntervalMs) * time.Millisecond
}

// ResolvePath picks the configuration file location: override if non-empty,
// else $PULSEWATCH_CONFIG, else pulsewatch.toml in the working directory.
func ResolvePath(override string) string {
	if override != "" {
		return override
	}
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return DefaultPath
}

// FormatFromPath infers the encoding from the file extension.
// Unknown extensions are treated as TOML.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	default:
		return FormatTOML
	}
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		varName := submatches[1]
		hasDefault := submatches[2] != ""
		defaultVal := submatches[3]

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a configuration file, choosing the decoder from the
// file extension.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data, FormatFromPath(path))
}

// Parse decodes configuration data in the given format.
//
// Environment variables are expanded in the Telegram token, the Slack webhook
// URL, every address and every grid template. Defaults are applied for
// ProbeTimeout (10s), LogLevel (info) and LogFormat (json).
func Parse(data []byte, format Format) (*Config, error) {
	var cfg Config
	if err := decode(data, format, &cfg); err != nil {
		return nil, err
	}

	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = Duration(defaultProbeTimeout)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = LogLevelInfo
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = LogFormatJSON
	}

	if err := cfg.expandEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func decode(data []byte, format Format, cfg *Config) error {
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse TOML: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse YAML: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", format)
	}
	return nil
}

// expandEnv substitutes environment variables into the string fields that
// commonly carry secrets or per-deployment hosts.
func (c *Config) expandEnv() error {
	var err error

	if c.TelegramToken, err = expandEnvVars(c.TelegramToken); err != nil {
		return fmt.Errorf("telegram_token: %w", err)
	}
	if c.SlackWebhookURL, err = expandEnvVars(c.SlackWebhookURL); err != nil {
		return fmt.Errorf("slack_webhook_url: %w", err)
	}

	for i := range c.Addresses {
		if c.Addresses[i], err = expandEnvVars(c.Addresses[i]); err != nil {
			return fmt.Errorf("addresses[%d]: %w", i, err)
		}
	}

	for i := range c.AddressGrids {
		g := &c.AddressGrids[i]
		if g.URLTemplate, err = expandEnvVars(g.URLTemplate); err != nil {
			return fmt.Errorf("address_grids[%d]: url_template: %w", i, err)
		}
	}

	return nil
}

// Validate checks field ranges and cross-field requirements.
//
// The returned error is a validation.Errors keyed by the configuration key,
// e.g. "rereport: must be no less than 1".
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TelegramToken,
			validation.When(c.SlackWebhookURL == "",
				validation.Required.Error("is required unless slack_webhook_url is set"),
			),
		),
		validation.Field(&c.TelegramChatID,
			validation.When(c.TelegramToken != "",
				validation.Required.Error("is required when telegram_token is set"),
			),
		),
		validation.Field(&c.SuccessIntervalMs,
			validation.Required,
			validation.Min(int64(1)),
		),
		validation.Field(&c.FailIntervalMs,
			validation.Required,
			validation.Min(int64(1)),
		),
		validation.Field(&c.NotifyFailures,
			validation.Required,
			validation.Min(int64(1)),
		),
		validation.Field(&c.Rereport,
			validation.Required.Error("must be at least 1"),
			validation.Min(int64(1)),
		),
		validation.Field(&c.Addresses,
			validation.When(len(c.AddressGrids) == 0,
				validation.Required.Error("at least one address or address grid is required"),
			),
		),
		validation.Field(&c.AddressGrids),
		validation.Field(&c.ProbeTimeout,
			validation.By(validateMinDuration(minProbeTimeout)),
		),
		validation.Field(&c.MaxConcurrentProbes,
			validation.Min(0),
		),
		validation.Field(&c.SlackWebhookURL,
			is.URL,
		),
		validation.Field(&c.LogLevel,
			validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
		),
		validation.Field(&c.LogFormat,
			validation.In(LogFormatJSON, LogFormatText),
		),
	)
}

func validateMinDuration(min time.Duration) validation.RuleFunc {
	return func(value interface{}) error {
		d, ok := value.(Duration)
		if !ok {
			return validation.NewError("validation_invalid_type", "must be a duration")
		}
		if d.Duration() < min {
			return validation.NewError("validation_duration_too_short",
				fmt.Sprintf("must be at least %s, got %s", min, d.Duration()))
		}
		return nil
	}
}

// validateTemplate fails fast before the SDK tries to use an invalid template.
func validateTemplate(value interface{}) error {
	s, _ := value.(string)
	if _, err := template.New("").Parse(s); err != nil {
		return validation.NewError("validation_invalid_template", fmt.Sprintf("invalid url_template: %v", err))
	}
	return nil
}

func validateDimensions(value interface{}) error {
	dims, _ := value.(map[string][]string)
	for name, values := range dims {
		if len(values) == 0 {
			return validation.NewError("validation_empty_dimension", fmt.Sprintf("dimension %q has no values", name))
		}
		seen := make(map[string]struct{}, len(values))
		for _, v := range values {
			if _, exists := seen[v]; exists {
				return validation.NewError("validation_duplicate_dimension_value",
					fmt.Sprintf("dimension %q has duplicate value %q", name, v))
			}
			seen[v] = struct{}{}
		}
	}
	return nil
}
