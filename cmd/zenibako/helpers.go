package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/mizuiro-dev/zenibako/internal/classify"
	"github.com/mizuiro-dev/zenibako/internal/reconcile"
	"github.com/mizuiro-dev/zenibako/internal/service"
	"github.com/mizuiro-dev/zenibako/internal/storage"
)

// initStorage opens the configured database and brings the schema up to
// date.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".local", "share", "zenibako", "zenibako.db")
	}
	dbPath = expandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// newOrchestrator wires the classification pipeline over the stored
// taxonomy, merchant directory and transaction history.
func newOrchestrator(ctx context.Context, store service.Storage) (*classify.Orchestrator, error) {
	rules, err := classify.ResolveKeywordRules(ctx, classify.DefaultKeywordSpecs(), store)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve keyword rules: %w", err)
	}
	return classify.NewOrchestrator(store, store, store, rules, classifyConfig()), nil
}

// classifyConfig returns the classification tuning with config-file
// overrides applied over the defaults.
func classifyConfig() classify.Config {
	cfg := classify.DefaultConfig()
	if v := viper.GetInt("classify.recurring_lookback_days"); v > 0 {
		cfg.Recurring.LookbackDays = v
	}
	if v := viper.GetInt("classify.batch_workers"); v > 0 {
		cfg.BatchWorkers = v
	}
	return cfg
}

// reconcileConfig returns the reconciliation tuning with config-file
// overrides applied over the defaults.
func reconcileConfig() reconcile.Config {
	cfg := reconcile.DefaultConfig()
	if v := viper.GetInt("reconcile.grace_period_days"); v > 0 {
		cfg.GracePeriodDays = v
	}
	if v := viper.GetInt64("reconcile.amount_tolerance"); v > 0 {
		cfg.AmountTolerance = v
	}
	if v := viper.GetStringSlice("reconcile.issuer_aliases"); len(v) > 0 {
		cfg.IssuerAliases = v
	}
	return cfg
}

// expandPath expands ~ and environment variables in a config path.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return os.ExpandEnv(path)
}
