package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/walma-app/walma/internal/assets"
	"github.com/walma-app/walma/internal/completion"
	"github.com/walma-app/walma/internal/level"
)

// Config holds all runtime configuration.
type Config struct {
	// DBPath is the SQLite event database. Empty resolves via store.DefaultDBPath.
	DBPath string `yaml:"db_path"`

	// LevelsDir is a directory of level documents. Empty uses the bundled levels.
	LevelsDir string `yaml:"levels_dir"`

	// LoadPolicy is "strict" or "skip".
	LoadPolicy string `yaml:"load_policy"`

	// AssetBase is the directory or URL prefix image references resolve against.
	AssetBase string `yaml:"asset_base"`

	Math     MathConfig     `yaml:"math"`
	Renderer RendererConfig `yaml:"renderer"`
	Report   ReportConfig   `yaml:"report"`
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
}

// MathConfig points at the math image service.
type MathConfig struct {
	ImageBaseURL string  `yaml:"image_base_url"`
	Salt         string  `yaml:"salt"`
	Scale        int     `yaml:"scale"`
	WidthPt      float64 `yaml:"width_pt"`
	FontPx       int     `yaml:"font_px"`
}

// RendererConfig describes the external LaTeX renderer process.
type RendererConfig struct {
	Command string        `yaml:"command"`
	Timeout time.Duration `yaml:"timeout"`
}

// ReportConfig controls completion reporting.
type ReportConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"max_attempts"`
	InitialWait time.Duration `yaml:"initial_wait"`
	MaxWait     time.Duration `yaml:"max_wait"`
	Multiplier  float64       `yaml:"multiplier"`
}

// HTTPConfig configures the playback API server.
type HTTPConfig struct {
	Addr         string        `yaml:"addr"`
	SessionTTL   time.Duration `yaml:"session_ttl"`
	CompletedTTL time.Duration `yaml:"completed_ttl"`
}

// LogConfig configures logging.
type LogConfig struct {
	Mode string `yaml:"mode"` // "dev" or "prod"
	File string `yaml:"file"` // used by the terminal player
}

// Default returns a Config with sensible defaults.
func Default() Config {
	retry := completion.DefaultRetryConfig()
	return Config{
		LoadPolicy: "strict",
		AssetBase:  "assets",
		Math: MathConfig{
			Salt:    assets.DefaultSalt,
			Scale:   2,
			WidthPt: 320,
			FontPx:  18,
		},
		Renderer: RendererConfig{
			Timeout: 3 * time.Second,
		},
		Report: ReportConfig{
			Timeout:     30 * time.Second,
			MaxAttempts: retry.MaxAttempts,
			InitialWait: retry.InitialWait,
			MaxWait:     retry.MaxWait,
			Multiplier:  retry.Multiplier,
		},
		HTTP: HTTPConfig{
			Addr:         ":8080",
			SessionTTL:   30 * time.Minute,
			CompletedTTL: 5 * time.Minute,
		},
		Log: LogConfig{
			Mode: "dev",
		},
	}
}

// Load builds a Config from defaults, then the YAML file at path (or
// $WALMA_CONFIG when path is empty), then environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("WALMA_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := ApplyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with any WALMA_* environment variables that are set.
func ApplyEnv(cfg *Config) error {
	str := map[string]*string{
		"WALMA_DB":            &cfg.DBPath,
		"WALMA_LEVELS":        &cfg.LevelsDir,
		"WALMA_LOAD_POLICY":   &cfg.LoadPolicy,
		"WALMA_ASSET_BASE":    &cfg.AssetBase,
		"WALMA_MATH_BASE_URL": &cfg.Math.ImageBaseURL,
		"WALMA_MATH_SALT":     &cfg.Math.Salt,
		"WALMA_RENDERER":      &cfg.Renderer.Command,
		"WALMA_HTTP_ADDR":     &cfg.HTTP.Addr,
		"WALMA_LOG_MODE":      &cfg.Log.Mode,
		"WALMA_LOG_FILE":      &cfg.Log.File,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"WALMA_RENDER_TIMEOUT": &cfg.Renderer.Timeout,
		"WALMA_REPORT_TIMEOUT": &cfg.Report.Timeout,
		"WALMA_SESSION_TTL":    &cfg.HTTP.SessionTTL,
	}
	for key, dst := range durations {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = d
		}
	}

	if v := os.Getenv("WALMA_REPORT_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("WALMA_REPORT_ATTEMPTS: %w", err)
		}
		cfg.Report.MaxAttempts = n
	}
	return nil
}

// Validate checks the configuration for values that cannot work.
func (c Config) Validate() error {
	var errs []error
	if _, err := level.ParsePolicy(c.LoadPolicy); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Log.Mode) {
	case "", "dev", "development", "prod", "production":
	default:
		errs = append(errs, fmt.Errorf("unknown log mode %q", c.Log.Mode))
	}
	if c.Report.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("report.max_attempts must be at least 1, got %d", c.Report.MaxAttempts))
	}
	if c.Report.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("report.timeout must be positive"))
	}
	if c.HTTP.SessionTTL <= 0 || c.HTTP.CompletedTTL <= 0 {
		errs = append(errs, fmt.Errorf("http.session_ttl and http.completed_ttl must be positive"))
	}
	if c.Renderer.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("renderer.timeout must be positive"))
	}
	if err := c.Math.Params("").Validate("x"); err != nil {
		errs = append(errs, fmt.Errorf("math: %w", err))
	}
	return errors.Join(errs...)
}

// Policy returns the parsed load policy.
func (c Config) Policy() level.LoadPolicy {
	p, _ := level.ParsePolicy(c.LoadPolicy)
	return p
}

// RetryConfig converts the report settings for completion.WithRetry.
func (c ReportConfig) RetryConfig() completion.RetryConfig {
	return completion.RetryConfig{
		MaxAttempts: c.MaxAttempts,
		InitialWait: c.InitialWait,
		MaxWait:     c.MaxWait,
		Multiplier:  c.Multiplier,
	}
}

// RendererArgs splits the renderer command line on whitespace.
func (c RendererConfig) RendererArgs() []string {
	return strings.Fields(c.Command)
}

// Params returns the math image parameters for a unit token.
func (c MathConfig) Params(token string) assets.MathParams {
	return assets.MathParams{Token: token, Scale: c.Scale, WidthPt: c.WidthPt, FontPx: c.FontPx}
}
