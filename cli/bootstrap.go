package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nstehr/bastion/bastion-core/agent"
	"github.com/nstehr/bastion/bastion-core/config"
	"github.com/nstehr/bastion/bastion-core/model"
	"github.com/nstehr/bastion/bastion-core/store"
)

const banner = `
 ____    _    ____ _____ ___ ___  _   _
| __ )  / \  / ___|_   _|_ _/ _ \| \ | |
|  _ \ / _ \ \___ \ | |  | | | | |  \| |
| |_) / ___ \ ___) || |  | | |_| | |\  |
|____/_/   \_\____/ |_| |___\___/|_| \_|

Doctrine-Driven Kingdom Wars Intelligence`

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func setupLogging() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	opts := &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// openStore opens the configured memory store. A SQLite store is pruned of
// games idle longer than the retention window.
func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	if cfg.Driver != "sqlite" {
		return store.NewInMemory(), nil
	}
	db, err := store.OpenSQLite(cfg.Path)
	if err != nil {
		return nil, err
	}
	pruned, err := db.Prune(ctx, time.Now().Add(-cfg.RetentionDuration()))
	if err != nil {
		slog.Warn("failed to prune agent memory", "error", err)
	}
	slog.Info("memory store opened", "path", cfg.Path, "pruned", pruned)
	return db, nil
}

func newAgent(cfg *config.Config, st store.Store) (*agent.Agent, error) {
	base, err := cfg.Strategy.BaseDoctrine()
	if err != nil {
		return nil, fmt.Errorf("load doctrine: %w", err)
	}
	strategist, err := agent.NewStrategist(agent.StrategistConfig{
		Base:    base,
		Fatigue: cfg.Strategy.Fatigue,
		Duel:    cfg.Strategy.Duel,
	}, model.Kingdom{})
	if err != nil {
		return nil, err
	}
	return agent.New(strategist, st), nil
}

// reloadOnHangup re-reads the base doctrine on SIGHUP until ctx ends.
func reloadOnHangup(ctx context.Context, cfg config.StrategyConfig, s *agent.Strategist) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		defer signal.Stop(hup)
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				d, err := cfg.BaseDoctrine()
				if err != nil {
					slog.Error("doctrine reload failed", "error", err)
					continue
				}
				if err := s.Reload(d); err != nil {
					slog.Error("doctrine swap failed", "error", err)
				}
			}
		}
	}()
}
