package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"titantron/internal/analysis"
	"titantron/internal/config"
	"titantron/internal/logging"
	"titantron/internal/services/backend"
	"titantron/internal/services/mediaserver"
	"titantron/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// engine bundles the wired subsystems a command works against.
type engine struct {
	cfg         *config.Config
	logger      *slog.Logger
	store       *store.Store
	service     *analysis.Service
	mediaServer *mediaserver.Client
}

// withEngine opens the store and analysis service for the duration of fn.
// When exclusive is set the state lock is held so two processes cannot run
// analyses against the same database.
func (c *commandContext) withEngine(exclusive bool, fn func(*engine) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}

	var lock *flock.Flock
	if exclusive {
		lock = flock.New(cfg.LockPath())
		ok, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire state lock: %w", err)
		}
		if !ok {
			return errors.New("another titantron instance is already running")
		}
		defer func() { _ = lock.Unlock() }()
	}

	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	var msClient *mediaserver.Client
	if cfg.MediaServer.Enabled {
		msClient = mediaserver.NewClient(cfg, nil)
	}
	var backendClient *backend.Client
	if cfg.Backend.Enabled {
		backendClient = backend.NewClient(cfg, nil)
	}

	service := analysis.NewService(cfg, st, logger, analysis.Deps{
		Backend:     backendClient,
		MediaServer: msClient,
	})

	return fn(&engine{
		cfg:         cfg,
		logger:      logger,
		store:       st,
		service:     service,
		mediaServer: msClient,
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
