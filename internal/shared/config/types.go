// Package config holds the typed configuration sections. Loading lives in
// internal/infrastructure/config.
package config

import (
	"fmt"
	"path/filepath"
	"time"
)

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	Timezone       string   `mapstructure:"timezone"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// ReconcileRateLimit caps POST /api/reconcile per client IP per minute.
	// Zero disables the limit. Requires redis.
	ReconcileRateLimit int `mapstructure:"reconcile_rate_limit"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig selects mysql or sqlite for run history.
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	SQLitePath      string `mapstructure:"sqlite_path"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	if d.Driver == "sqlite" {
		return filepath.Clean(d.SQLitePath)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// RedisConfig is optional. When disabled the provisioning cache and the
// document lock are not used.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// OAuthClientConfig describes a client-credentials grant.
type OAuthClientConfig struct {
	TokenURL     string   `mapstructure:"token_url"`
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	Scopes       []string `mapstructure:"scopes"`
}

type LicenseServiceConfig struct {
	BaseURL string            `mapstructure:"base_url"`
	Auth    OAuthClientConfig `mapstructure:"auth"`
}

type ProvisioningConfig struct {
	InstanceURL       string            `mapstructure:"instance_url"`
	APIVersion        string            `mapstructure:"api_version"`
	ObjectName        string            `mapstructure:"object_name"`
	TenantNameField   string            `mapstructure:"tenant_name_field"`
	EntitlementsField string            `mapstructure:"entitlements_field"`
	CacheTTLMinutes   int               `mapstructure:"cache_ttl_minutes"`
	Auth              OAuthClientConfig `mapstructure:"auth"`
}

func (p *ProvisioningConfig) CacheTTL() time.Duration {
	return time.Duration(p.CacheTTLMinutes) * time.Minute
}

// CellLayout maps document roles to A1 addresses on the configured sheet.
type CellLayout struct {
	Status            string `mapstructure:"status"`
	TenantKey         string `mapstructure:"tenant_key"`
	ProvisioningKey   string `mapstructure:"provisioning_key"`
	ForceFresh        string `mapstructure:"force_fresh"`
	ResultStatus      string `mapstructure:"result_status"`
	ResultError       string `mapstructure:"result_error"`
	ResultErrorType   string `mapstructure:"result_error_type"`
	ResultTimestamp   string `mapstructure:"result_timestamp"`
	Summary           string `mapstructure:"summary"`
	RawHeader         string `mapstructure:"raw_header"`
	RawListing        string `mapstructure:"raw_listing"`
	ComparisonHeader  string `mapstructure:"comparison_header"`
	ComparisonListing string `mapstructure:"comparison_listing"`
}

type DocumentConfig struct {
	Backend         string     `mapstructure:"backend" validate:"oneof=sheets xlsx memory"`
	CredentialsFile string     `mapstructure:"credentials_file"`
	DocumentID      string     `mapstructure:"document_id"`
	Sheet           string     `mapstructure:"sheet"`
	Cells           CellLayout `mapstructure:"cells"`
}

type PollerConfig struct {
	IntervalSeconds int  `mapstructure:"interval_seconds" validate:"min=1,max=60"`
	AutoStart       bool `mapstructure:"auto_start"`
	LockTTLSeconds  int  `mapstructure:"lock_ttl_seconds" validate:"min=0"`
}

func (p *PollerConfig) Interval() time.Duration {
	return time.Duration(p.IntervalSeconds) * time.Second
}

type ReconcileConfig struct {
	TenantMatchStrategy string `mapstructure:"tenant_match_strategy" validate:"oneof=substring exact"`
}
