package database

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	"ms-seeder/internal/logger"
)

// RunnerOptions names a migration collection and its bookkeeping tables.
type RunnerOptions struct {
	// Kind is used in log lines, e.g. "migration" or "seed".
	Kind           string
	TableName      string
	LocksTableName string
}

// Status describes one registered entry of a collection.
type Status struct {
	Name       string    `json:"name"`
	GroupID    int64     `json:"group_id,omitempty"`
	Applied    bool      `json:"applied"`
	MigratedAt time.Time `json:"migrated_at,omitempty"`
}

// Runner applies and reverts a bun/migrate collection.
type Runner struct {
	db          *bun.DB
	options     RunnerOptions
	migrator    *migrate.Migrator
	logger      *logger.Logger
	initialized bool
}

func NewRunner(db *bun.DB, collection *migrate.Migrations, opts RunnerOptions, log *logger.Logger) *Runner {
	if opts.Kind == "" {
		opts.Kind = "migration"
	}
	migrator := migrate.NewMigrator(db, collection,
		migrate.WithTableName(opts.TableName),
		migrate.WithLocksTableName(opts.LocksTableName),
		migrate.WithMarkAppliedOnSuccess(true),
	)
	return &Runner{
		db:       db,
		options:  opts,
		migrator: migrator,
		logger:   log,
	}
}

func (r *Runner) Kind() string {
	return r.options.Kind
}

// Init creates the bookkeeping tables. It is safe to call repeatedly.
func (r *Runner) Init(ctx context.Context) error {
	if err := r.migrator.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize %s tables: %w", r.options.Kind, err)
	}
	r.initialized = true
	return nil
}

func (r *Runner) ensureInit(ctx context.Context) error {
	if r.initialized {
		return nil
	}
	return r.Init(ctx)
}

func (r *Runner) withLock(ctx context.Context, fn func() error) error {
	if err := r.ensureInit(ctx); err != nil {
		return err
	}
	if err := r.migrator.Lock(ctx); err != nil {
		return fmt.Errorf("failed to lock %s table: %w", r.options.Kind, err)
	}
	defer func() {
		if err := r.migrator.Unlock(ctx); err != nil {
			r.logger.Warn("MIGRATION", fmt.Sprintf("Failed to unlock %s table: %v", r.options.Kind, err))
		}
	}()
	return fn()
}

// Up applies every pending entry as one group. The returned group is zero
// when nothing was pending.
func (r *Runner) Up(ctx context.Context) (*migrate.MigrationGroup, error) {
	var group *migrate.MigrationGroup
	err := r.withLock(ctx, func() error {
		var err error
		group, err = r.migrator.Migrate(ctx)
		if err != nil {
			return fmt.Errorf("%s up failed: %w", r.options.Kind, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if group.IsZero() {
		r.logRun("UP", "nothing to apply")
	} else {
		r.logRun("UP", fmt.Sprintf("applied group %d: %v", group.ID, GroupNames(group)))
	}
	return group, nil
}

// Down reverts the last applied group.
func (r *Runner) Down(ctx context.Context) (*migrate.MigrationGroup, error) {
	var group *migrate.MigrationGroup
	err := r.withLock(ctx, func() error {
		var err error
		group, err = r.migrator.Rollback(ctx)
		if err != nil {
			return fmt.Errorf("%s down failed: %w", r.options.Kind, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if group.IsZero() {
		r.logRun("DOWN", "nothing to roll back")
	} else {
		r.logRun("DOWN", fmt.Sprintf("rolled back group %d: %v", group.ID, GroupNames(group)))
	}
	return group, nil
}

func (r *Runner) logRun(action, message string) {
	if r.options.Kind == "seed" {
		r.logger.LogSeed(action, r.options.Kind, message)
		return
	}
	r.logger.LogMigration(action, r.options.Kind, message)
}

// DownAll reverts groups until none is left, newest first.
func (r *Runner) DownAll(ctx context.Context) ([]*migrate.MigrationGroup, error) {
	var groups []*migrate.MigrationGroup
	for {
		group, err := r.Down(ctx)
		if err != nil {
			return groups, err
		}
		if group.IsZero() {
			return groups, nil
		}
		groups = append(groups, group)
	}
}

func (r *Runner) Status(ctx context.Context) ([]Status, error) {
	if err := r.ensureInit(ctx); err != nil {
		return nil, err
	}

	ms, err := r.migrator.MigrationsWithStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s status: %w", r.options.Kind, err)
	}

	out := make([]Status, 0, len(ms))
	for _, m := range ms {
		out = append(out, Status{
			Name:       migrationName(m),
			GroupID:    m.GroupID,
			Applied:    m.IsApplied(),
			MigratedAt: m.MigratedAt,
		})
	}
	return out, nil
}

// GroupNames lists the full names of the entries in group.
func GroupNames(group *migrate.MigrationGroup) []string {
	if group == nil {
		return nil
	}
	names := make([]string, 0, len(group.Migrations))
	for _, m := range group.Migrations {
		names = append(names, migrationName(m))
	}
	return names
}

func migrationName(m migrate.Migration) string {
	if m.Comment == "" {
		return m.Name
	}
	return m.Name + "_" + m.Comment
}
