package cmd

import (
	"errors"

	"github.com/numlens/numlens/internal/config"
	"github.com/numlens/numlens/internal/core/cache"
	"github.com/numlens/numlens/internal/core/checker"
	"github.com/numlens/numlens/internal/core/confidence"
	"github.com/numlens/numlens/internal/core/engine"
)

// buildOrchestrator assembles the check pipeline from the loaded configuration.
func buildOrchestrator(cfg *config.Config, useCache bool) (*engine.Orchestrator, error) {
	if cfg == nil {
		return nil, errors.New("config not loaded")
	}

	var store *cache.Store
	if useCache && cfg.Cache.Enabled {
		store = cache.New(cfg.Cache.Directory, cfg.Cache.ExpireAfter, cfg.Cache.MaxSizeMB)
		if err := store.Initialize(); err != nil {
			return nil, err
		}
	}

	checkers := checker.Build(cfg, nil)
	if len(checkers) == 0 {
		return nil, errors.New("no platform checkers are enabled")
	}

	return engine.New(checkers, engine.Options{
		Cache:         store,
		Scorer:        confidence.NewScorer(),
		MaxConcurrent: cfg.Checks.MaxConcurrent,
	}), nil
}
