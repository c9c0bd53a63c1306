package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/campusfound/beacon/config"
	itemrepo "github.com/campusfound/beacon/internal/repositories/item"
	matchrepo "github.com/campusfound/beacon/internal/repositories/match"
	"github.com/campusfound/beacon/pkg/cache"
	"github.com/campusfound/beacon/pkg/database"
	"github.com/campusfound/beacon/pkg/matching"
	"github.com/campusfound/beacon/pkg/processor"
)

const rebuildPageSize = 200

// env holds the shared wiring every command needs
type env struct {
	cfg     *config.Config
	logger  ectologger.Logger
	db      database.DB
	items   *itemrepo.Repository
	matches *matchrepo.Repository
	engine  *matching.Engine
}

func setup(ctx context.Context) (*env, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	zapLogger, err := zap.NewProduction()
	if err != nil {
		return nil, nil, err
	}
	logger := zapadapter.NewZapEctoLogger(zapLogger, nil)

	sqlxDB, err := database.Connect(ctx, database.ConnectConfig{
		Driver:          cfg.DatabaseDriver,
		Host:            cfg.DatabaseHost,
		Port:            cfg.DatabasePort,
		User:            cfg.DatabaseUserName,
		Password:        cfg.DatabasePassword,
		Name:            cfg.DatabaseName,
		SSLMode:         cfg.DatabaseSSLMode,
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
	})
	if err != nil {
		return nil, nil, err
	}

	db := database.NewDatabaseInstance(sqlxDB, logger)
	items := itemrepo.NewRepository(db, logger)
	matches := matchrepo.NewRepository(db, logger)
	engine := matching.NewEngine(logger, items, cfg.MatchingConfig())

	cleanup := func() {
		_ = db.Close()
	}

	return &env{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		items:   items,
		matches: matches,
		engine:  engine,
	}, cleanup, nil
}

func newRescanCmd() *cobra.Command {
	var includeUnapproved bool
	var threshold float64
	var itemID string

	cmd := &cobra.Command{
		Use:   "rescan",
		Short: "Rescan seeking items and persist any new matches",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			e, cleanup, err := setup(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			// Events are not emitted from the CLI, notification consumers
			// only see matches created by the service
			proc := processor.NewProcessor(e.logger, e.items, e.matches, e.engine, nil)

			opts := matching.FindOptions{
				IncludeUnapproved: includeUnapproved,
			}
			if cmd.Flags().Changed("threshold") {
				opts.Threshold = &threshold
			}

			if itemID != "" {
				it, err := e.items.Get(ctx, itemID)
				if err != nil {
					return err
				}
				result, err := proc.ScanItem(ctx, it, opts, "cli")
				if err != nil {
					return err
				}
				fmt.Printf("proposed=%d created=%d\n", result.Proposed, result.Created)
				return nil
			}

			lock, release, err := acquireLock(ctx, e)
			if err != nil {
				return err
			}
			if lock {
				defer release()
			}

			result, err := proc.ScanAll(ctx, opts, "cli")
			if err != nil {
				return err
			}
			fmt.Printf("proposed=%d created=%d\n", result.Proposed, result.Created)
			return nil
		},
	}

	cmd.Flags().BoolVar(&includeUnapproved, "include-unapproved", false, "scan items that have not passed moderation")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "override the match score threshold")
	cmd.Flags().StringVar(&itemID, "item", "", "rescan a single item by ID")

	return cmd
}

// acquireLock takes the rescan lock when Redis is reachable. A bulk rescan
// from the CLI still works without Redis, it just runs unguarded.
func acquireLock(ctx context.Context, e *env) (bool, func(), error) {
	client, err := cache.NewClient(cache.Config{
		Host:     e.cfg.RedisHost,
		Port:     e.cfg.RedisPort,
		Password: e.cfg.RedisPassword,
		DB:       e.cfg.RedisDB,
	}, e.logger)
	if err != nil {
		e.logger.WithError(err).Warn("Redis unavailable, running rescan without the lock")
		return false, nil, nil
	}

	lock, err := client.AcquireRescanLock(ctx, 15*time.Minute)
	if err != nil {
		_ = client.Close()
		if errors.Is(err, cache.ErrLockNotAcquired) {
			return false, nil, errors.New("a rescan is already running")
		}
		return false, nil, err
	}

	return true, func() {
		_ = lock.Release(ctx)
		_ = client.Close()
	}, nil
}

func newRebuildBreakdownsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebuild-breakdowns",
		Short: "Recompute scores and breakdowns for every stored match",
		Long: "Recomputes each match's score from current item data. Run after " +
			"changing scoring weights so stored matches reflect the new configuration.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			e, cleanup, err := setup(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			var invalidate func(matchID string)
			if client, err := cache.NewClient(cache.Config{
				Host:     e.cfg.RedisHost,
				Port:     e.cfg.RedisPort,
				Password: e.cfg.RedisPassword,
				DB:       e.cfg.RedisDB,
			}, e.logger); err == nil {
				defer client.Close()
				invalidate = func(matchID string) {
					_ = client.InvalidateExplanation(ctx, matchID)
				}
			}

			updated, skipped := 0, 0
			for offset := 0; ; offset += rebuildPageSize {
				page, err := e.matches.List(ctx, offset, rebuildPageSize)
				if err != nil {
					return err
				}
				if len(page) == 0 {
					break
				}

				ids := make([]string, 0, len(page)*2)
				for i := range page {
					ids = append(ids, page[i].LostItemID, page[i].FoundItemID)
				}
				pairs, err := e.items.GetByIDs(ctx, ids)
				if err != nil {
					return err
				}

				for i := range page {
					m := &page[i]
					lost, lostOK := pairs[m.LostItemID]
					found, foundOK := pairs[m.FoundItemID]
					if !lostOK || !foundOK {
						skipped++
						continue
					}

					breakdown := e.engine.Scorer().Breakdown(&lost, &found, e.engine.Config())
					if err := e.matches.UpdateScore(ctx, m.ID, breakdown.Total, breakdown); err != nil {
						e.logger.WithError(err).WithField("match_id", m.ID).Error("Failed to update match score")
						skipped++
						continue
					}
					if invalidate != nil {
						invalidate(m.ID)
					}
					updated++
				}
			}

			fmt.Printf("updated=%d skipped=%d\n", updated, skipped)
			return nil
		},
	}

	return cmd
}
