package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/urfave/cli/v2"

	"github.com/dmitrymomot/twitterkit"
	"github.com/dmitrymomot/twitterkit/pkg/config"
	"github.com/dmitrymomot/twitterkit/pkg/logger"
	"github.com/dmitrymomot/twitterkit/pkg/session"
)

var errNotSignedIn = errors.New("not signed in; run \"twitterkit login\" first")

func getHome() (string, error) {
	homeDir, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("error locating user's home directory: %w", err)
	}
	return filepath.Join(homeDir, ".twitterkit"), nil
}

func newLogger(c *cli.Context) *slog.Logger {
	return logger.New(
		logger.WithLevel(slog.LevelWarn),
		logger.WithVerbose(c.Bool(flagVerbose)),
		logger.WithAttr(logger.Component("cli")),
	)
}

// getCore loads configuration and restores sessions. The caller closes it.
func getCore(c *cli.Context) (*twitterkit.Core, error) {
	var cfg twitterkit.Config
	if err := config.Load(&cfg, config.WithEnvFiles(c.StringSlice(flagEnvFile)...)); err != nil {
		return nil, err
	}
	if (cfg.Store == "" || cfg.Store == twitterkit.StoreFile) && cfg.SessionFile == "" {
		home, err := getHome()
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(home, 0o700); err != nil {
			return nil, fmt.Errorf("error creating %s: %w", home, err)
		}
		cfg.SessionFile = filepath.Join(home, "sessions.json")
	}

	core, err := twitterkit.New(c.Context, cfg, twitterkit.WithLogger(newLogger(c)))
	if err != nil {
		return nil, fmt.Errorf("error initializing twitterkit: %w", err)
	}
	if err := core.Bootstrap(c.Context); err != nil {
		_ = core.Close()
		return nil, err
	}
	return core, nil
}

// activeSession fails with errNotSignedIn when nobody is signed in.
func activeSession(c *cli.Context, core *twitterkit.Core) (*session.Session, error) {
	s, err := core.SessionManager().ActiveSession(c.Context)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, errNotSignedIn
	}
	return s, nil
}
