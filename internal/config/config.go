package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Import ImportConfig `yaml:"import" mapstructure:"import"`
	Costco CostcoConfig `yaml:"costco" mapstructure:"costco"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the Postgres backend.
type StoreConfig struct {
	DatabaseURL string     `yaml:"database_url" mapstructure:"database_url"`
	Pool        PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the search API server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	ImageRoot   string   `yaml:"image_root" mapstructure:"image_root"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// ImportConfig configures the manifest importer.
type ImportConfig struct {
	ManifestsPath string `yaml:"manifests_path" mapstructure:"manifests_path"`
	StateFile     string `yaml:"state_file" mapstructure:"state_file"`
}

// CostcoConfig configures the international Costco product search.
type CostcoConfig struct {
	BaseURL       string   `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs   int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimitRPS  float64  `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	SearchRegions []Region `yaml:"search_regions" mapstructure:"search_regions"`
	PartRegions   []Region `yaml:"part_regions" mapstructure:"part_regions"`
}

// Region holds the per-region API credentials for the product search service.
// ItemCodeSource selects how the item code is read from a response:
// "model_numbers" (North American catalogs) or "id" (everywhere else).
type Region struct {
	Name           string `yaml:"name" mapstructure:"name"`
	Passkey        string `yaml:"passkey" mapstructure:"passkey"`
	Locale         string `yaml:"locale" mapstructure:"locale"`
	ItemCodeSource string `yaml:"item_code_source" mapstructure:"item_code_source"`
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
	v.SetEnvPrefix("PARTSDB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.database_url", "")
	v.SetDefault("server.image_root", "")
	v.SetDefault("import.manifests_path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("import.state_file", "filenames.json")
	v.SetDefault("costco.base_url", "https://api.bazaarvoice.com/data/products.json")
	v.SetDefault("costco.timeout_secs", 15)
	v.SetDefault("costco.rate_limit_rps", 5)
	v.SetDefault("store.pool.max_conns", 10)
	v.SetDefault("store.pool.min_conns", 2)

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
