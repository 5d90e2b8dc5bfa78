// Copyright (c) 2026 Keymaster Team
// Studentdir - student directory client
// This source code is licensed under the MIT license found in the LICENSE file.

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"

	cfg "github.com/toeirei/studentdir/internal/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	got, err := cfg.LoadConfig[cfg.Config](&cobra.Command{}, cfg.Defaults(), nil)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if got.Database.Type != "sqlite" || got.Collection != "mahasiswa" || got.Language != "en" {
		t.Fatalf("unexpected defaults: %+v", got)
	}
	if got.Bootstrap.FallbackTimeout != 3*time.Second {
		t.Fatalf("expected 3s fallback, got %v", got.Bootstrap.FallbackTimeout)
	}
	if got.Auth.TokenTTL != 720*time.Hour {
		t.Fatalf("expected 720h token ttl, got %v", got.Auth.TokenTTL)
	}
}

func TestLoadConfig_ReadsExplicitFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	tmp := t.TempDir()
	body := "database:\n  type: postgres\n  dsn: postgresql://user@/db\nlanguage: id\nbootstrap:\n  fallback_timeout: 5s\n"
	file := filepath.Join(tmp, "cfg.yaml")
	if err := os.WriteFile(file, []byte(body), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	got, err := cfg.LoadConfig[cfg.Config](&cobra.Command{}, cfg.Defaults(), &file)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if got.Database.Type != "postgres" || got.Language != "id" {
		t.Fatalf("unexpected config %+v", got)
	}
	if got.Bootstrap.FallbackTimeout != 5*time.Second {
		t.Fatalf("expected 5s, got %v", got.Bootstrap.FallbackTimeout)
	}
}

func TestLoadConfig_EnvAndFlagPrecedence(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("STUDENTDIR_LANGUAGE", "id")
	t.Setenv("STUDENTDIR_DATABASE_TYPE", "mysql")

	cmd := &cobra.Command{}
	cmd.Flags().String("collection", "", "")
	cmd.Flags().String("language", "", "")
	if err := cmd.Flags().Set("collection", "dosen"); err != nil {
		t.Fatalf("set flag: %v", err)
	}

	got, err := cfg.LoadConfig[cfg.Config](cmd, cfg.Defaults(), nil)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if got.Language != "id" || got.Database.Type != "mysql" {
		t.Fatalf("env not applied: %+v", got)
	}
	if got.Collection != "dosen" {
		t.Fatalf("flag not applied: %q", got.Collection)
	}
}

func TestLoadConfig_LegacyFileMerged(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".studentdir.yaml"), []byte("collection: legacy\n"), 0o600); err != nil {
		t.Fatalf("write legacy: %v", err)
	}
	got, err := cfg.LoadConfig[cfg.Config](&cobra.Command{}, cfg.Defaults(), nil)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if got.Collection != "legacy" {
		t.Fatalf("expected legacy collection, got %q", got.Collection)
	}
}

func TestWriteConfigFile_CreatesFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	c := cfg.Config{}
	c.Database.Type = "sqlite"
	c.Database.Dsn = "./studentdir.db"
	c.Language = "en"

	if err := cfg.WriteConfigFile(&c, false); err != nil {
		t.Fatalf("WriteConfigFile failed: %v", err)
	}
	path, err := cfg.GetConfigPath(false)
	if err != nil {
		t.Fatalf("GetConfigPath failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected config file at %s, stat error: %v", path, err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600, got %v", info.Mode().Perm())
	}
}

func TestSigningKeyBytes(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "sub", "signing.key")
	a := cfg.AuthConfig{SigningKeyFile: keyFile}
	first, err := a.SigningKeyBytes()
	if err != nil {
		t.Fatalf("SigningKeyBytes: %v", err)
	}
	if len(first) != 32 {
		t.Fatalf("expected 32 byte key, got %d", len(first))
	}
	second, err := a.SigningKeyBytes()
	if err != nil || string(second) != string(first) {
		t.Fatalf("key should be stable across calls")
	}

	inline := cfg.AuthConfig{SigningKey: "00ff"}
	if b, err := inline.SigningKeyBytes(); err != nil || len(b) != 2 {
		t.Fatalf("inline key = %v, %v", b, err)
	}
	if _, err := (cfg.AuthConfig{SigningKey: "zz"}).SigningKeyBytes(); err == nil {
		t.Fatalf("expected error for non-hex key")
	}
}
