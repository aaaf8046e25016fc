package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	sharedConfig "github.com/entitleops/licensesync/internal/shared/config"
)

type Config struct {
	Server         sharedConfig.ServerConfig         `mapstructure:"server"`
	Database       sharedConfig.DatabaseConfig       `mapstructure:"database"`
	Logger         sharedConfig.LoggerConfig         `mapstructure:"logger"`
	Redis          sharedConfig.RedisConfig          `mapstructure:"redis"`
	LicenseService sharedConfig.LicenseServiceConfig `mapstructure:"license_service"`
	Provisioning   sharedConfig.ProvisioningConfig   `mapstructure:"provisioning"`
	Document       sharedConfig.DocumentConfig       `mapstructure:"document"`
	Poller         sharedConfig.PollerConfig         `mapstructure:"poller"`
	Reconcile      sharedConfig.ReconcileConfig      `mapstructure:"reconcile"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load reads configs/config.yaml (or configPath when set), overlays
// LICENSESYNC_* environment variables and validates the result.
func Load(env, configPath string) (*Config, error) {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
	}

	v.SetEnvPrefix("LICENSESYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if env != "" && env != "default" {
		v.Set("server.mode", env)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	appConfigMu.Lock()
	appConfig = &cfg
	appConfigMu.Unlock()

	return &cfg, nil
}

// Validate checks the sections that carry validation tags.
func Validate(cfg *Config) error {
	validate := validator.New()
	for name, section := range map[string]any{
		"document":  &cfg.Document,
		"poller":    &cfg.Poller,
		"reconcile": &cfg.Reconcile,
	} {
		if err := validate.Struct(section); err != nil {
			return fmt.Errorf("invalid %s config: %w", name, err)
		}
	}
	return nil
}

// Get returns the last loaded configuration.
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.timezone", "UTC")
	v.SetDefault("server.reconcile_rate_limit", 30)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.sqlite_path", "./data/licensesync.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "root")
	v.SetDefault("database.database", "licensesync")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", 60)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	v.SetDefault("provisioning.api_version", "v59.0")
	v.SetDefault("provisioning.object_name", "Provisioning_Request__c")
	v.SetDefault("provisioning.tenant_name_field", "Tenant_Name__c")
	v.SetDefault("provisioning.entitlements_field", "Entitlements__c")
	v.SetDefault("provisioning.cache_ttl_minutes", 30)

	v.SetDefault("document.backend", "sheets")
	v.SetDefault("document.sheet", "Reconcile")
	v.SetDefault("document.cells.status", "B2")
	v.SetDefault("document.cells.tenant_key", "B3")
	v.SetDefault("document.cells.provisioning_key", "B4")
	v.SetDefault("document.cells.force_fresh", "B5")
	v.SetDefault("document.cells.result_status", "B7")
	v.SetDefault("document.cells.result_error", "B8")
	v.SetDefault("document.cells.result_error_type", "B9")
	v.SetDefault("document.cells.result_timestamp", "B10")
	v.SetDefault("document.cells.summary", "D2:E7")
	v.SetDefault("document.cells.raw_header", "A13")
	v.SetDefault("document.cells.raw_listing", "A14:G")
	v.SetDefault("document.cells.comparison_header", "I13")
	v.SetDefault("document.cells.comparison_listing", "I14:S")

	v.SetDefault("poller.interval_seconds", 5)
	v.SetDefault("poller.auto_start", true)
	v.SetDefault("poller.lock_ttl_seconds", 300)

	v.SetDefault("reconcile.tenant_match_strategy", "substring")
}
