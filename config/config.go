// Package config loads pdftools settings from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/wudi/pdftools/engine"
	"github.com/wudi/pdftools/observability"
	"github.com/wudi/pdftools/optimize"
	"github.com/wudi/pdftools/overlay"
	"github.com/wudi/pdftools/recovery"
	"github.com/wudi/pdftools/security"
)

type Config struct {
	Log       Log       `yaml:"log"`
	Engine    Engine    `yaml:"engine"`
	Security  Security  `yaml:"security"`
	Watermark Watermark `yaml:"watermark"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Engine struct {
	// ScaleFactor is applied to every page by compress. 1 disables scaling.
	ScaleFactor float64 `yaml:"scale_factor"`
	// Strategy is "lenient" or "strict".
	Strategy string `yaml:"strategy"`
}

type Security struct {
	KeyLength   int    `yaml:"key_length"`
	UseAES      bool   `yaml:"use_aes"`
	Permissions string `yaml:"permissions"`
	MaxFileSize int64  `yaml:"max_file_size"`
}

type Watermark struct {
	Font      string `yaml:"font"`
	LabelFont string `yaml:"label_font"`
	Disabled  bool   `yaml:"disabled"`
}

// Environment variables that override file values.
const (
	EnvLogLevel  = "PDFTOOLS_LOG_LEVEL"
	EnvLogFormat = "PDFTOOLS_LOG_FORMAT"
	EnvStrategy  = "PDFTOOLS_STRATEGY"
	EnvKeyLength = "PDFTOOLS_KEY_LENGTH"
)

func Default() *Config {
	enc := security.DefaultEncryption()
	ov := overlay.DefaultConfig()
	return &Config{
		Log:    Log{Level: "info", Format: "console"},
		Engine: Engine{ScaleFactor: optimize.DefaultConfig().ScaleFactor, Strategy: "lenient"},
		Security: Security{
			KeyLength:   enc.KeyLength,
			UseAES:      enc.UseAES,
			Permissions: string(enc.Permissions),
			MaxFileSize: security.DefaultLimits().MaxFileSize,
		},
		Watermark: Watermark{Font: ov.Font, LabelFont: ov.LabelFont},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvLogLevel); ok {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvLogFormat); ok {
		c.Log.Format = v
	}
	if v, ok := lookup(EnvStrategy); ok {
		c.Engine.Strategy = v
	}
	if v, ok := lookup(EnvKeyLength); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvKeyLength, err)
		}
		c.Security.KeyLength = n
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or console, got %q", c.Log.Format))
	}
	if c.Engine.ScaleFactor <= 0 {
		errs = append(errs, fmt.Errorf("engine.scale_factor must be positive, got %v", c.Engine.ScaleFactor))
	}
	if _, err := recovery.New(c.Engine.Strategy); err != nil {
		errs = append(errs, fmt.Errorf("engine.strategy: %w", err))
	}
	if err := c.encryption().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("security: %w", err))
	}
	if c.Security.MaxFileSize < 0 {
		errs = append(errs, errors.New("security.max_file_size must not be negative"))
	}
	return errors.Join(errs...)
}

func (c *Config) encryption() security.Encryption {
	return security.Encryption{
		UseAES:      c.Security.UseAES,
		KeyLength:   c.Security.KeyLength,
		Permissions: security.Permissions(c.Security.Permissions),
	}
}

// EngineConfig translates the settings into an engine configuration using
// log for the engine's logger and tracer.
func (c *Config) EngineConfig(log observability.Logger) (engine.Config, error) {
	strategy, err := recovery.New(c.Engine.Strategy)
	if err != nil {
		return engine.Config{}, err
	}

	opt := optimize.DefaultConfig()
	opt.ScaleFactor = c.Engine.ScaleFactor

	ov := overlay.DefaultConfig()
	if c.Watermark.Font != "" {
		ov.Font = c.Watermark.Font
	}
	if c.Watermark.LabelFont != "" {
		ov.LabelFont = c.Watermark.LabelFont
	}

	limits := security.DefaultLimits()
	limits.MaxFileSize = c.Security.MaxFileSize

	return engine.Config{
		Logger:           log,
		Tracer:           observability.NewLogTracer(log),
		Recovery:         strategy,
		Limits:           limits,
		Encryption:       c.encryption(),
		Optimize:         opt,
		Overlay:          ov,
		DisableWatermark: c.Watermark.Disabled,
	}, nil
}
