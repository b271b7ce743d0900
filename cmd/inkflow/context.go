package main

import (
	"strings"
	"sync"

	"inkflow/internal/config"
	"inkflow/internal/prerepro"
	"inkflow/internal/store"
	"inkflow/internal/workflow"
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

// withStore opens the database, runs fn, and closes it again. CLI commands
// are one-shot; nothing holds the store across commands.
func (c *commandContext) withStore(fn func(*config.Config, *store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(cfg, st)
}

func (c *commandContext) withEngine(fn func(*config.Config, *store.Store, *workflow.Engine, *prerepro.Queue) error) error {
	return c.withStore(func(cfg *config.Config, st *store.Store) error {
		engine := workflow.NewEngine(st, cfg, nil)
		queue := prerepro.NewQueue(st, cfg, nil)
		return fn(cfg, st, engine, queue)
	})
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
