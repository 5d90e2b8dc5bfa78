// Copyright (c) 2026 Keymaster Team
// Studentdir - student directory client
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"github.com/toeirei/studentdir/internal/auth"
	"github.com/toeirei/studentdir/internal/cache"
	"github.com/toeirei/studentdir/internal/config"
	"github.com/toeirei/studentdir/internal/db"
	"github.com/toeirei/studentdir/internal/directory"
	"github.com/toeirei/studentdir/internal/i18n"
	"github.com/toeirei/studentdir/internal/identity"
	"github.com/toeirei/studentdir/internal/logging"
	"github.com/toeirei/studentdir/internal/session"
)

// app holds everything a command needs. It is built in PersistentPreRunE
// and torn down in PersistentPostRunE.
type app struct {
	cfg config.Config

	mainDB  *bun.DB
	cacheDB *bun.DB

	provider *identity.LocalProvider
	creds    *cache.Credentials
	auth     *auth.Service
	students *directory.BunStore
	fetcher  *directory.Fetcher
	boot     *session.Bootstrap
}

// loadConfig resolves the configuration and applies the short flags that do
// not map one to one onto config keys.
func loadConfig(cmd *cobra.Command, cfgFile string) (config.Config, error) {
	cfg, err := config.LoadConfig[config.Config](cmd, config.Defaults(), &cfgFile)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	flags := cmd.Flags()
	if f := flags.Lookup("db-type"); f != nil && f.Changed {
		cfg.Database.Type = f.Value.String()
	}
	if f := flags.Lookup("db-dsn"); f != nil && f.Changed {
		cfg.Database.Dsn = f.Value.String()
	}
	if f := flags.Lookup("cache-dsn"); f != nil && f.Changed {
		cfg.Cache.Dsn = f.Value.String()
	}
	return cfg, nil
}

func openApp(cfg config.Config) (*app, error) {
	a := &app{cfg: cfg}

	if err := ensureParentDir(cfg.Database.Type, cfg.Database.Dsn); err != nil {
		return nil, err
	}
	if err := ensureParentDir("sqlite", cfg.Cache.Dsn); err != nil {
		return nil, err
	}

	var err error
	if a.mainDB, err = db.Open(cfg.Database.Type, cfg.Database.Dsn); err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if a.cacheDB, err = db.Open("sqlite", cfg.Cache.Dsn); err != nil {
		a.close()
		return nil, fmt.Errorf("open cache: %w", err)
	}

	key, err := cfg.Auth.SigningKeyBytes()
	if err != nil {
		a.close()
		return nil, err
	}
	a.provider, err = identity.NewLocalProvider(a.mainDB, identity.LocalOptions{
		SigningKey:  key,
		TokenTTL:    cfg.Auth.TokenTTL,
		SessionFile: cfg.Auth.SessionFile,
	})
	if err != nil {
		a.close()
		return nil, err
	}

	a.creds = cache.NewCredentials(cache.NewBunStore(a.cacheDB))
	a.auth = auth.NewService(a.provider, a.creds, nil)
	a.students = directory.NewBunStore(a.mainDB)
	a.fetcher = directory.NewFetcher(a.students, directory.FetcherOptions{Collection: cfg.Collection})
	return a, nil
}

// startSession restores the provider session in the background and starts
// the bootstrap race.
func (a *app) startSession(ctx context.Context) (*session.Bootstrap, error) {
	go a.provider.Restore(ctx)
	a.boot = session.New(session.Options{
		Provider: a.provider,
		Cache:    a.creds,
		Timeout:  a.cfg.Bootstrap.FallbackTimeout,
	})
	if err := a.boot.Start(ctx); err != nil {
		return nil, err
	}
	return a.boot, nil
}

func (a *app) close() {
	if a.boot != nil {
		a.boot.Close()
	}
	if a.provider != nil {
		a.provider.Close()
	}
	for _, d := range []*bun.DB{a.cacheDB, a.mainDB} {
		if d != nil {
			if err := d.Close(); err != nil {
				logging.Debugf("close database: %v", err)
			}
		}
	}
}

// ensureParentDir creates the directory of a sqlite file DSN.
func ensureParentDir(dbType, dsn string) error {
	if dbType != "sqlite" || dsn == "" || dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, 0o700); err != nil && !errors.Is(err, os.ErrExist) {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return nil
}

func initLanguage(cfg config.Config) {
	i18n.Init(cfg.Language)
	logging.SetDebug(cfg.Debug)
	db.SetDebug(cfg.Debug)
}
