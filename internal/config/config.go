package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Google     GoogleConfig     `yaml:"google" mapstructure:"google"`
	PageSpeed  PageSpeedConfig  `yaml:"pagespeed" mapstructure:"pagespeed"`
	URLRank    URLRankConfig    `yaml:"urlrank" mapstructure:"urlrank"`
	Screenshot ScreenshotConfig `yaml:"screenshot" mapstructure:"screenshot"`
	Probes     ProbesConfig     `yaml:"probes" mapstructure:"probes"`
	Matcher    MatcherConfig    `yaml:"matcher" mapstructure:"matcher"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// GoogleConfig holds Places API settings.
type GoogleConfig struct {
	Key string  `yaml:"key" mapstructure:"key"`
	RPS float64 `yaml:"rps" mapstructure:"rps"`
}

// PageSpeedConfig holds PageSpeed Insights settings.
type PageSpeedConfig struct {
	Key string `yaml:"key" mapstructure:"key"`
}

// URLRankConfig holds Open PageRank settings.
type URLRankConfig struct {
	Key string `yaml:"key" mapstructure:"key"`
}

// ScreenshotConfig configures headless capture.
type ScreenshotConfig struct {
	Enabled       bool `yaml:"enabled" mapstructure:"enabled"`
	MaxConcurrent int  `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	Quality       int  `yaml:"quality" mapstructure:"quality"`
}

// ProbesConfig holds per-probe timeout budgets.
type ProbesConfig struct {
	PerformanceTimeoutSecs int `yaml:"performance_timeout_secs" mapstructure:"performance_timeout_secs"`
	SecurityTimeoutSecs    int `yaml:"security_timeout_secs" mapstructure:"security_timeout_secs"`
	ListingTimeoutSecs     int `yaml:"listing_timeout_secs" mapstructure:"listing_timeout_secs"`
	AuthorityTimeoutSecs   int `yaml:"authority_timeout_secs" mapstructure:"authority_timeout_secs"`
	ScreenshotTimeoutSecs  int `yaml:"screenshot_timeout_secs" mapstructure:"screenshot_timeout_secs"`
	DerivedTimeoutSecs     int `yaml:"derived_timeout_secs" mapstructure:"derived_timeout_secs"`
}

// Timeout converts a per-probe budget to a duration.
func timeoutSecs(secs int) time.Duration {
	return time.Duration(secs) * time.Second
}

// PerformanceTimeout returns the performance probe budget.
func (p ProbesConfig) PerformanceTimeout() time.Duration { return timeoutSecs(p.PerformanceTimeoutSecs) }

// SecurityTimeout returns the security probe budget.
func (p ProbesConfig) SecurityTimeout() time.Duration { return timeoutSecs(p.SecurityTimeoutSecs) }

// ListingTimeout returns the listing probe budget.
func (p ProbesConfig) ListingTimeout() time.Duration { return timeoutSecs(p.ListingTimeoutSecs) }

// AuthorityTimeout returns the authority probe budget.
func (p ProbesConfig) AuthorityTimeout() time.Duration { return timeoutSecs(p.AuthorityTimeoutSecs) }

// ScreenshotTimeout returns the screenshot probe budget.
func (p ProbesConfig) ScreenshotTimeout() time.Duration { return timeoutSecs(p.ScreenshotTimeoutSecs) }

// DerivedTimeout returns the derived visual/content probe budget.
func (p ProbesConfig) DerivedTimeout() time.Duration { return timeoutSecs(p.DerivedTimeoutSecs) }

// MatcherConfig points at the tunable matcher constants file.
type MatcherConfig struct {
	ConfigPath string `yaml:"config_path" mapstructure:"config_path"`
}

// BatchConfig configures batch assessment.
type BatchConfig struct {
	MaxConcurrentTargets int `yaml:"max_concurrent_targets" mapstructure:"max_concurrent_targets"`
}

// ServerConfig configures the status API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PRESENCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "presence.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("batch.max_concurrent_targets", 4)
	v.SetDefault("google.rps", 5)
	v.SetDefault("screenshot.enabled", true)
	v.SetDefault("screenshot.max_concurrent", 2)
	v.SetDefault("screenshot.quality", 80)
	v.SetDefault("probes.performance_timeout_secs", 60)
	v.SetDefault("probes.security_timeout_secs", 15)
	v.SetDefault("probes.listing_timeout_secs", 20)
	v.SetDefault("probes.authority_timeout_secs", 15)
	v.SetDefault("probes.screenshot_timeout_secs", 45)
	v.SetDefault("probes.derived_timeout_secs", 10)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
