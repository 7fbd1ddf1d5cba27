package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	LogLevel string         `mapstructure:"log_level"`
	Server   ServerConfig   `mapstructure:"server"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
}

type ServerConfig struct {
	ListenAddr      string  `mapstructure:"listen_addr"`
	MaxTextBytes    int     `mapstructure:"max_text_bytes"`
	RequestTimeout  int     `mapstructure:"request_timeout"`
	ShutdownTimeout int     `mapstructure:"shutdown_timeout"`
	Workers         int     `mapstructure:"workers"`
	RateLimit       float64 `mapstructure:"rate_limit"`
	RateBurst       int     `mapstructure:"rate_burst"`
	ResponseDelayMS int     `mapstructure:"response_delay_ms"`
}

type AnalysisConfig struct {
	InputFormat  string `mapstructure:"input_format"`
	UnicodeNFC   bool   `mapstructure:"unicode_nfc"`
	Details      bool   `mapstructure:"details"`
	Concurrency  int    `mapstructure:"concurrency"`
	OutputFormat string `mapstructure:"output_format"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Server: ServerConfig{
			ListenAddr:      ":8080",
			MaxTextBytes:    65536,
			RequestTimeout:  10,
			ShutdownTimeout: 30,
			Workers:         4,
			RateLimit:       0,
			RateBurst:       20,
			ResponseDelayMS: 0,
		},
		Analysis: AnalysisConfig{
			InputFormat:  "plain",
			UnicodeNFC:   false,
			Details:      false,
			Concurrency:  4,
			OutputFormat: "text",
		},
	}
}

// flagKeys maps flag names to their config keys.
var flagKeys = map[string]string{
	"log-level":                "log_level",
	"server-listen-addr":       "server.listen_addr",
	"server-max-text-bytes":    "server.max_text_bytes",
	"server-request-timeout":   "server.request_timeout",
	"server-shutdown-timeout":  "server.shutdown_timeout",
	"workers":                  "server.workers",
	"server-rate-limit":        "server.rate_limit",
	"server-rate-burst":        "server.rate_burst",
	"server-response-delay-ms": "server.response_delay_ms",
	"input-format":             "analysis.input_format",
	"nfc":                      "analysis.unicode_nfc",
	"details":                  "analysis.details",
	"concurrency":              "analysis.concurrency",
	"format":                   "analysis.output_format",
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("log-level", defaults.LogLevel, "Log level: debug|info|warn|error")
	fs.String("server-listen-addr", defaults.Server.ListenAddr, "HTTP listen address")
	fs.Int("server-max-text-bytes", defaults.Server.MaxTextBytes, "Maximum request text size in bytes")
	fs.Int("server-request-timeout", defaults.Server.RequestTimeout, "Per-request timeout in seconds")
	fs.Int("server-shutdown-timeout", defaults.Server.ShutdownTimeout, "Graceful shutdown timeout in seconds")
	fs.Int("workers", defaults.Server.Workers, "Max concurrent analyses served over HTTP")
	fs.Float64("server-rate-limit", defaults.Server.RateLimit, "Requests per second allowed per client (0 = unlimited)")
	fs.Int("server-rate-burst", defaults.Server.RateBurst, "Request burst allowed per client")
	fs.Int("server-response-delay-ms", defaults.Server.ResponseDelayMS, "Cosmetic delay before answering /analyze")
	fs.String("input-format", defaults.Analysis.InputFormat, "Input format: plain|markdown")
	fs.Bool("nfc", defaults.Analysis.UnicodeNFC, "Apply Unicode NFC normalization before analysis")
	fs.Bool("details", defaults.Analysis.Details, "Include a per-word breakdown")
	fs.Int("concurrency", defaults.Analysis.Concurrency, "Max inputs analysed in parallel")
	fs.String("format", defaults.Analysis.OutputFormat, "Output format: text|json|tsv")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix("NEUMERNYM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("neumernym")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: log_level %q", ErrInvalid, c.LogLevel)
	}
	switch strings.ToLower(strings.TrimSpace(c.Analysis.InputFormat)) {
	case "", "plain", "text", "markdown", "md":
	default:
		return fmt.Errorf("%w: analysis.input_format %q", ErrInvalid, c.Analysis.InputFormat)
	}
	switch strings.ToLower(strings.TrimSpace(c.Analysis.OutputFormat)) {
	case "", "text", "json", "tsv":
	default:
		return fmt.Errorf("%w: analysis.output_format %q", ErrInvalid, c.Analysis.OutputFormat)
	}
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("%w: server.listen_addr is empty", ErrInvalid)
	}
	for _, lim := range []struct {
		name string
		val  int
		min  int
	}{
		{"server.max_text_bytes", c.Server.MaxTextBytes, 1},
		{"server.request_timeout", c.Server.RequestTimeout, 1},
		{"server.shutdown_timeout", c.Server.ShutdownTimeout, 0},
		{"server.workers", c.Server.Workers, 0},
		{"server.rate_burst", c.Server.RateBurst, 0},
		{"server.response_delay_ms", c.Server.ResponseDelayMS, 0},
		{"analysis.concurrency", c.Analysis.Concurrency, 0},
	} {
		if lim.val < lim.min {
			return fmt.Errorf("%w: %s must be at least %d (got %d)", ErrInvalid, lim.name, lim.min, lim.val)
		}
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("%w: server.rate_limit must not be negative", ErrInvalid)
	}
	return nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("log_level", c.LogLevel)
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.max_text_bytes", c.Server.MaxTextBytes)
	v.SetDefault("server.request_timeout", c.Server.RequestTimeout)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
	v.SetDefault("server.workers", c.Server.Workers)
	v.SetDefault("server.rate_limit", c.Server.RateLimit)
	v.SetDefault("server.rate_burst", c.Server.RateBurst)
	v.SetDefault("server.response_delay_ms", c.Server.ResponseDelayMS)
	v.SetDefault("analysis.input_format", c.Analysis.InputFormat)
	v.SetDefault("analysis.unicode_nfc", c.Analysis.UnicodeNFC)
	v.SetDefault("analysis.details", c.Analysis.Details)
	v.SetDefault("analysis.concurrency", c.Analysis.Concurrency)
	v.SetDefault("analysis.output_format", c.Analysis.OutputFormat)
}

// bindFlags binds every registered config flag present in fs to its key.
// Flags that were not registered are skipped.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}
