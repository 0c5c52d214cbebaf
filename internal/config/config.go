package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Data     DataConfig     `mapstructure:"data"`
	Query    QueryConfig    `mapstructure:"query"`
	Report   ReportConfig   `mapstructure:"report"`
	Plot     PlotConfig     `mapstructure:"plot"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DataConfig locates the input files
type DataConfig struct {
	BracketDir     string `mapstructure:"bracket_dir"`
	BracketPattern string `mapstructure:"bracket_pattern"` // fmt pattern taking the year
	MinYear        int    `mapstructure:"min_year"`
	MaxYear        int    `mapstructure:"max_year"`
	CountyFile     string `mapstructure:"county_file"`
	IncomeFile     string `mapstructure:"income_file"`
	GDPFile        string `mapstructure:"gdp_file"`
	PopulationFile string `mapstructure:"population_file"`
	LayoutFile     string `mapstructure:"layout_file"` // Optional layout overrides
}

// BracketFile returns the path of the bracket table for year.
func (d DataConfig) BracketFile(year int) string {
	return filepath.Join(d.BracketDir, fmt.Sprintf(d.BracketPattern, year))
}

// QueryConfig holds query sizes
type QueryConfig struct {
	TopN         int     `mapstructure:"top_n"`
	PlotBrackets int     `mapstructure:"plot_brackets"`
	MinChangePct float64 `mapstructure:"min_change_percent"` // Floor for export comparisons
}

// FetchConfig holds the download locations of the source files. Empty URLs
// are skipped by the fetch command.
type FetchConfig struct {
	BracketURL     string        `mapstructure:"bracket_url"` // fmt pattern taking the year
	CountyURL      string        `mapstructure:"county_url"`
	IncomeURL      string        `mapstructure:"income_url"`
	GDPURL         string        `mapstructure:"gdp_url"`
	PopulationURL  string        `mapstructure:"population_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// ReportConfig holds output formatting configuration
type ReportConfig struct {
	Format string `mapstructure:"format"`
}

// PlotConfig holds chart output configuration
type PlotConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	OutputDir  string `mapstructure:"output_dir"`
	RegionFile string `mapstructure:"region_file"`
	Width      int    `mapstructure:"width"`
	Height     int    `mapstructure:"height"`
}

// RegionPath returns where region scatter plots are written.
func (p PlotConfig) RegionPath() string {
	return filepath.Join(p.OutputDir, p.RegionFile)
}

// BracketPath returns where the cumulative chart of year is written.
func (p PlotConfig) BracketPath(year int) string {
	return filepath.Join(p.OutputDir, fmt.Sprintf("cumulative_%d.png", year))
}

// StorageConfig holds export database configuration
type StorageConfig struct {
	DBPath     string `mapstructure:"db_path"`
	MaxExports int    `mapstructure:"max_exports"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables. An empty
// path skips the file and uses defaults plus environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Enable environment variable override, e.g. INCOMELENS_LOGGING_LEVEL
	v.SetEnvPrefix("INCOMELENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Data defaults match the file names the tools have always used
	v.SetDefault("data.bracket_dir", ".")
	v.SetDefault("data.bracket_pattern", "year%d.txt")
	v.SetDefault("data.min_year", 1990)
	v.SetDefault("data.max_year", 2019)
	v.SetDefault("data.county_file", "counties.csv")
	v.SetDefault("data.income_file", "income.csv")
	v.SetDefault("data.gdp_file", "gdp.csv")
	v.SetDefault("data.population_file", "pop.csv")
	v.SetDefault("data.layout_file", "")

	// Query defaults
	v.SetDefault("query.top_n", 10)
	v.SetDefault("query.plot_brackets", 40)
	v.SetDefault("query.min_change_percent", 0.1)

	// Report defaults
	v.SetDefault("report.format", "ascii")

	// Plot defaults
	v.SetDefault("plot.enabled", true)
	v.SetDefault("plot.output_dir", ".")
	v.SetDefault("plot.region_file", "plot.png")
	v.SetDefault("plot.width", 640)
	v.SetDefault("plot.height", 480)

	// Fetch defaults
	v.SetDefault("fetch.bracket_url", "")
	v.SetDefault("fetch.county_url", "")
	v.SetDefault("fetch.income_url", "")
	v.SetDefault("fetch.gdp_url", "")
	v.SetDefault("fetch.population_url", "")
	v.SetDefault("fetch.timeout", "30s")
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.retry_delay_base", "1s")

	// Storage defaults
	v.SetDefault("storage.db_path", "./data/incomelens.db")
	v.SetDefault("storage.max_exports", 20)

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "2s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Data config
	if c.Data.BracketPattern == "" || strings.Count(c.Data.BracketPattern, "%d") != 1 {
		return fmt.Errorf("data.bracket_pattern must contain exactly one %%d")
	}
	if c.Data.MinYear > c.Data.MaxYear {
		return fmt.Errorf("data.min_year must not be after data.max_year")
	}
	if c.Data.CountyFile == "" {
		return fmt.Errorf("data.county_file is required")
	}
	if c.Data.IncomeFile == "" || c.Data.GDPFile == "" || c.Data.PopulationFile == "" {
		return fmt.Errorf("data.income_file, data.gdp_file and data.population_file are required")
	}

	// Validate Query config
	if c.Query.TopN < 1 {
		return fmt.Errorf("query.top_n must be at least 1")
	}
	if c.Query.PlotBrackets < 2 {
		return fmt.Errorf("query.plot_brackets must be at least 2")
	}
	if c.Query.MinChangePct < 0 {
		return fmt.Errorf("query.min_change_percent must not be negative")
	}

	// Validate Report config
	validReportFormats := map[string]bool{"ascii": true, "markdown": true}
	if !validReportFormats[c.Report.Format] {
		return fmt.Errorf("report.format must be one of: ascii, markdown")
	}

	// Validate Plot config
	if c.Plot.Enabled {
		if c.Plot.RegionFile == "" {
			return fmt.Errorf("plot.region_file is required when plotting is enabled")
		}
		if c.Plot.Width < 100 || c.Plot.Height < 100 {
			return fmt.Errorf("plot.width and plot.height must be at least 100")
		}
	}

	// Validate Fetch config
	if c.Fetch.BracketURL != "" && strings.Count(c.Fetch.BracketURL, "%d") != 1 {
		return fmt.Errorf("fetch.bracket_url must contain exactly one %%d")
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive")
	}
	if c.Fetch.MaxRetries < 1 {
		return fmt.Errorf("fetch.max_retries must be at least 1")
	}

	// Validate Storage config
	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required")
	}
	if c.Storage.MaxExports < 1 {
		return fmt.Errorf("storage.max_exports must be at least 1")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
		if c.Telegram.MaxRetries < 1 {
			return fmt.Errorf("telegram.max_retries must be at least 1")
		}
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
