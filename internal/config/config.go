// Package config provides configuration management for the trading engine.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

const (
	// defaultScanInterval is used when scanner.scan_interval is unset
	defaultScanInterval = time.Minute
	// defaultStrikeCount is the number of strikes requested around the money
	defaultStrikeCount = 40
	// defaultMaxDTE bounds how far out requested chains go
	defaultMaxDTE = 30
	// defaultBatchSize bounds concurrent chain requests
	defaultBatchSize = 4
	// defaultFeedTimeout is used when feed.timeout is unset
	defaultFeedTimeout = 20 * time.Second
	// defaultHedgeSkew leaves delta targets unscaled
	defaultHedgeSkew = 1.0
	// defaultDashboardPort serves the read-only HTTP dashboard
	defaultDashboardPort = 9000
	// replayDateFormat matches the archive's per-day key format
	replayDateFormat = "20060102"
)

// Config represents the complete application configuration.
type Config struct {
	Environment EnvironmentConfig `yaml:"environment"`
	Feed        FeedConfig        `yaml:"feed"`
	Scanner     ScannerConfig     `yaml:"scanner"`
	Portfolio   PortfolioConfig   `yaml:"portfolio"`
	Tickers     []string          `yaml:"tickers"`
	Storage     StorageConfig     `yaml:"storage"`
	Dashboard   DashboardConfig   `yaml:"dashboard"`
	Report      ReportConfig      `yaml:"report"`
}

// EnvironmentConfig defines the environment settings.
type EnvironmentConfig struct {
	LogLevel string `yaml:"log_level"` // debug | info | warn | error
}

// FeedConfig defines market-data API settings.
type FeedConfig struct {
	APIKey      string `yaml:"api_key"`
	APIEndpoint string `yaml:"api_endpoint"`
	Timeout     string `yaml:"timeout"`
}

// ScannerConfig defines snapshot production settings: cadence and chain
// request shape for live mode, and the recording date for replay mode.
type ScannerConfig struct {
	EnableReplay      bool    `yaml:"enable_replay"`
	ReplayDate        string  `yaml:"replay_date"` // YYYYMMDD
	ScanInterval      string  `yaml:"scan_interval"`
	MaxDTE            int     `yaml:"max_dte"`
	StrikeCount       int     `yaml:"strike_count"`
	BatchSize         int     `yaml:"batch_size"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// PortfolioConfig defines trading and hedging parameters.
type PortfolioConfig struct {
	MinVolatility         float64     `yaml:"min_volatility"`
	CommissionPerContract float64     `yaml:"commission_per_contract"`
	RiskFreeRate          float64     `yaml:"risk_free_rate"`
	Hedge                 HedgeConfig `yaml:"hedge"`
}

// HedgeConfig defines delta hedging parameters.
type HedgeConfig struct {
	Enabled bool    `yaml:"enabled"`
	Skew    float64 `yaml:"skew"`
}

// StorageConfig defines storage settings for position and archive data.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// DashboardConfig defines the read-only HTTP dashboard settings.
type DashboardConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// ReportConfig defines the end-of-day report settings.
type ReportConfig struct {
	EODTime  string `yaml:"eod_time"` // "HH:MM"
	Timezone string `yaml:"timezone"` // e.g., "America/New_York"
}

// Load reads and parses the configuration file from the specified path.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- configPath is a user-provided config file path
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var config Config
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate checks that all configuration values are valid and consistent.
func (c *Config) Validate() error {
	c.normalize()

	if len(c.Tickers) == 0 {
		return fmt.Errorf("tickers must list at least one underlying")
	}
	for _, t := range c.Tickers {
		if t == "" {
			return fmt.Errorf("tickers must not contain empty entries")
		}
	}

	// Feed validation. Replay never touches the feed, so credentials are
	// only required in live mode.
	if !c.Scanner.EnableReplay && c.Feed.APIKey == "" {
		return fmt.Errorf("feed.api_key is required in live mode")
	}
	if c.Feed.Timeout != "" {
		if _, err := time.ParseDuration(c.Feed.Timeout); err != nil {
			return fmt.Errorf("feed.timeout invalid: %w", err)
		}
	}

	// Scanner validation
	if c.Scanner.EnableReplay {
		if _, err := time.Parse(replayDateFormat, c.Scanner.ReplayDate); err != nil {
			return fmt.Errorf("scanner.replay_date must be YYYYMMDD: %w", err)
		}
	}
	if c.Scanner.ScanInterval != "" {
		d, err := time.ParseDuration(c.Scanner.ScanInterval)
		if err != nil {
			return fmt.Errorf("scanner.scan_interval invalid: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("scanner.scan_interval must be > 0")
		}
	}
	if c.Scanner.MaxDTE <= 0 {
		return fmt.Errorf("scanner.max_dte must be > 0")
	}
	if c.Scanner.StrikeCount <= 0 {
		return fmt.Errorf("scanner.strike_count must be > 0")
	}
	if c.Scanner.BatchSize <= 0 {
		return fmt.Errorf("scanner.batch_size must be > 0")
	}
	if c.Scanner.RequestsPerSecond < 0 {
		return fmt.Errorf("scanner.requests_per_second must be >= 0")
	}

	// Portfolio validation
	if c.Portfolio.MinVolatility < 0 || c.Portfolio.MinVolatility > 100 {
		return fmt.Errorf("portfolio.min_volatility must be between 0 and 100")
	}
	if c.Portfolio.CommissionPerContract < 0 {
		return fmt.Errorf("portfolio.commission_per_contract must be >= 0")
	}
	if c.Portfolio.RiskFreeRate < 0 || c.Portfolio.RiskFreeRate >= 1 {
		return fmt.Errorf("portfolio.risk_free_rate must be in [0,1)")
	}
	if c.Portfolio.Hedge.Skew <= 0 {
		return fmt.Errorf("portfolio.hedge.skew must be > 0")
	}

	// Storage validation
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}

	// Dashboard validation
	if c.Dashboard.Port <= 0 || c.Dashboard.Port > 65535 {
		return fmt.Errorf("dashboard.port must be a valid port")
	}

	// Report validation
	if c.Report.EODTime != "" {
		loc := c.reportLocation()
		if _, err := time.ParseInLocation("15:04", c.Report.EODTime, loc); err != nil {
			return fmt.Errorf("report.eod_time must be HH:MM: %w", err)
		}
	}

	return nil
}

// IsReplay returns true if the engine replays an archived day instead of
// scanning the live feed.
func (c *Config) IsReplay() bool {
	return c.Scanner.EnableReplay
}

// GetScanInterval returns the configured scan interval duration.
func (c *Config) GetScanInterval() time.Duration {
	d, err := time.ParseDuration(c.Scanner.ScanInterval)
	if err != nil {
		return defaultScanInterval
	}
	return d
}

// GetFeedTimeout returns the configured feed request timeout.
func (c *Config) GetFeedTimeout() time.Duration {
	d, err := time.ParseDuration(c.Feed.Timeout)
	if err != nil {
		return defaultFeedTimeout
	}
	return d
}

// GetEODTime returns the end-of-day report time as hour and minute in the
// report timezone, with ok=false when no report is configured.
func (c *Config) GetEODTime() (hour, minute int, ok bool) {
	if c.Report.EODTime == "" {
		return 0, 0, false
	}
	t, err := time.ParseInLocation("15:04", c.Report.EODTime, c.reportLocation())
	if err != nil {
		return 0, 0, false
	}
	return t.Hour(), t.Minute(), true
}

// ReportLocation returns the timezone used for end-of-day scheduling.
func (c *Config) ReportLocation() *time.Location {
	return c.reportLocation()
}

func (c *Config) reportLocation() *time.Location {
	tz := c.Report.Timezone
	if tz == "" {
		tz = "America/New_York"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		// Fallback for minimal containers
		loc = time.FixedZone("ET", -5*60*60)
	}
	return loc
}

// normalize sets default values for optional settings.
func (c *Config) normalize() {
	if c.Scanner.ScanInterval == "" {
		c.Scanner.ScanInterval = defaultScanInterval.String()
	}
	if c.Scanner.MaxDTE == 0 {
		c.Scanner.MaxDTE = defaultMaxDTE
	}
	if c.Scanner.StrikeCount == 0 {
		c.Scanner.StrikeCount = defaultStrikeCount
	}
	if c.Scanner.BatchSize == 0 {
		c.Scanner.BatchSize = defaultBatchSize
	}
	if c.Portfolio.Hedge.Skew == 0 {
		c.Portfolio.Hedge.Skew = defaultHedgeSkew
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = defaultDashboardPort
	}
}
