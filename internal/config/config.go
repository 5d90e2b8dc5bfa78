// Copyright (c) 2026 Keymaster Team
// Studentdir - student directory client
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config loads studentdir settings from file, environment and
// flags with viper and persists them as YAML.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/toeirei/studentdir/internal/security"
)

const appName = "studentdir"

// Config is the full application configuration.
type Config struct {
	Database   DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Cache      CacheConfig     `mapstructure:"cache" yaml:"cache"`
	Language   string          `mapstructure:"language" yaml:"language"`
	Collection string          `mapstructure:"collection" yaml:"collection"`
	Debug      bool            `mapstructure:"debug" yaml:"debug"`
	Bootstrap  BootstrapConfig `mapstructure:"bootstrap" yaml:"bootstrap"`
	Auth       AuthConfig      `mapstructure:"auth" yaml:"auth"`
}

// DatabaseConfig selects the store holding accounts and documents.
type DatabaseConfig struct {
	Type string `mapstructure:"type" yaml:"type"`
	Dsn  string `mapstructure:"dsn" yaml:"dsn"`
}

// CacheConfig locates the local sqlite credential cache.
type CacheConfig struct {
	Dsn string `mapstructure:"dsn" yaml:"dsn"`
}

// BootstrapConfig tunes the session bootstrap.
type BootstrapConfig struct {
	FallbackTimeout time.Duration `mapstructure:"fallback_timeout" yaml:"fallback_timeout"`
}

// AuthConfig configures the local identity provider.
type AuthConfig struct {
	// SigningKey is hex encoded. When empty, SigningKeyFile is used and
	// created on first run.
	SigningKey     string        `mapstructure:"signing_key" yaml:"signing_key"`
	SigningKeyFile string        `mapstructure:"signing_key_file" yaml:"signing_key_file"`
	TokenTTL       time.Duration `mapstructure:"token_ttl" yaml:"token_ttl"`
	SessionFile    string        `mapstructure:"session_file" yaml:"session_file"`
}

// DataDir is where the default databases, session and key files live.
func DataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, appName)
}

// Defaults returns the default value of every known key.
func Defaults() map[string]any {
	dir := DataDir()
	return map[string]any{
		"database.type":              "sqlite",
		"database.dsn":               filepath.Join(dir, "studentdir.db"),
		"cache.dsn":                  filepath.Join(dir, "cache.db"),
		"language":                   "en",
		"collection":                 "mahasiswa",
		"debug":                      false,
		"bootstrap.fallback_timeout": "3s",
		"auth.signing_key":           "",
		"auth.signing_key_file":      filepath.Join(dir, "signing.key"),
		"auth.token_ttl":             "720h",
		"auth.session_file":          filepath.Join(dir, "session.yaml"),
	}
}

// GetConfigPath returns the full path for the configuration file.
func GetConfigPath(system bool) (string, error) {
	var configDir string
	if system {
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "Studentdir")
		default:
			configDir = "/etc/studentdir"
		}
	} else {
		dir, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(dir, appName)
	}
	return filepath.Join(configDir, appName+".yaml"), nil
}

// LoadConfig resolves T from defaults, the first studentdir.yaml found (an
// explicit path wins), a legacy .studentdir.yaml in the working directory,
// STUDENTDIR_* environment variables and finally the command's flags.
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, explicitPath *string) (T, error) {
	var c T
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName(appName)
	v.SetConfigType("yaml")
	if explicitPath != nil && *explicitPath != "" {
		v.SetConfigFile(*explicitPath)
	}
	if userConfigPath, err := GetConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := GetConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return c, err
		}
	}

	mergeLegacyConfig(v)

	v.SetEnvPrefix(appName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	if cmd != nil {
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return c, err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}

// mergeLegacyConfig merges ./.studentdir.yaml when present. A malformed
// file is ignored.
func mergeLegacyConfig(v *viper.Viper) {
	legacy := "." + appName + ".yaml"
	if _, err := os.Stat(legacy); err == nil {
		v.SetConfigFile(legacy)
		_ = v.MergeInConfig()
		v.SetConfigFile("")
	}
}

// WriteConfigFile writes c as YAML to the user or system config path.
func WriteConfigFile[T any](c *T, system bool) error {
	path, err := GetConfigPath(system)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}
	// May contain the signing key.
	return os.WriteFile(path, data, 0o600)
}

// SigningKeyBytes returns the configured signing key, reading or creating
// SigningKeyFile when no inline key is set.
func (a AuthConfig) SigningKeyBytes() ([]byte, error) {
	if a.SigningKey != "" {
		return decodeKey(a.SigningKey)
	}
	if a.SigningKeyFile == "" {
		return nil, errors.New("config: no signing key configured")
	}
	data, err := os.ReadFile(a.SigningKeyFile)
	if err == nil {
		return decodeKey(strings.TrimSpace(string(data)))
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	key, err := security.RandomKey(32)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(a.SigningKeyFile), 0o700); err != nil {
		return nil, err
	}
	if err := os.WriteFile(a.SigningKeyFile, []byte(key+"\n"), 0o600); err != nil {
		return nil, err
	}
	return decodeKey(key)
}

func decodeKey(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("config: signing key is not hex: %w", err)
	}
	return b, nil
}
