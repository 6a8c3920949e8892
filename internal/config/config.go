// Package config loads IPDIS's process configuration from the environment
// (spec §6), following the teacher repo's pkg/config.Load pattern: viper
// for the merge/lookup machinery, with github.com/joho/godotenv (already a
// teacher dependency) loading a local .env file first so operators can
// keep secrets out of their shell history.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the unified IPDIS process configuration, mirroring the
// environment variables of spec §6 plus the ambient additions of
// SPEC_FULL.md §6.
type Config struct {
	DatabaseURL string `mapstructure:"database_url"`

	AccountMe string `mapstructure:"ipis_account_me"`

	ListenAddr          string `mapstructure:"ipdis_listen_addr"`
	AdminAddr           string `mapstructure:"ipdis_admin_addr"`
	KeystorePath        string `mapstructure:"ipdis_keystore_path"`
	KeystorePassphrase  string `mapstructure:"ipdis_keystore_passphrase"`
	LogLevel            string `mapstructure:"ipdis_log_level"`
	IdleConnTTL         time.Duration
	MaxIdleConnsPerPeer int
}

// Load reads environment variables (after best-effort loading of a local
// .env file) into a Config, applying the same defaults the teacher repo's
// cmd/*server mains inline at their call sites.
func Load() (*Config, error) {
	_ = godotenv.Load() // optional; missing .env is not an error

	v := viper.New()
	v.SetEnvPrefix("")
	v.AutomaticEnv()

	v.SetDefault("ipdis_listen_addr", "127.0.0.1:9081")
	v.SetDefault("ipdis_admin_addr", "127.0.0.1:9082")
	v.SetDefault("ipdis_keystore_path", "ipdis.key")
	v.SetDefault("ipdis_log_level", "info")

	for _, key := range []string{
		"database_url", "ipis_account_me",
		"ipdis_listen_addr", "ipdis_admin_addr",
		"ipdis_keystore_path", "ipdis_keystore_passphrase", "ipdis_log_level",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("config: bind %s: %w", key, err)
		}
	}

	cfg := &Config{
		DatabaseURL:         v.GetString("database_url"),
		AccountMe:           v.GetString("ipis_account_me"),
		ListenAddr:          v.GetString("ipdis_listen_addr"),
		AdminAddr:           v.GetString("ipdis_admin_addr"),
		KeystorePath:        v.GetString("ipdis_keystore_path"),
		KeystorePassphrase:  v.GetString("ipdis_keystore_passphrase"),
		LogLevel:            v.GetString("ipdis_log_level"),
		IdleConnTTL:         2 * time.Minute,
		MaxIdleConnsPerPeer: 8,
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("config: DATABASE_URL is required")
	}
	return cfg, nil
}
