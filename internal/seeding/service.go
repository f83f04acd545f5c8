package seeding

import (
	"context"
	"fmt"

	"github.com/uptrace/bun/migrate"

	"ms-seeder/internal/database"
	"ms-seeder/internal/kafka"
	"ms-seeder/internal/logger"
	"ms-seeder/internal/models"
)

type Runner interface {
	Kind() string
	Init(ctx context.Context) error
	Up(ctx context.Context) (*migrate.MigrationGroup, error)
	Down(ctx context.Context) (*migrate.MigrationGroup, error)
	DownAll(ctx context.Context) ([]*migrate.MigrationGroup, error)
	Status(ctx context.Context) ([]database.Status, error)
}

type Locker interface {
	Acquire(ctx context.Context, name string) (func(context.Context) error, error)
}

type Publisher interface {
	PublishSeedEvent(ctx context.Context, evt kafka.SeedEvent) error
}

type UserStore interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Status is the combined bookkeeping state of schema migrations and seeds.
type Status struct {
	Migrations []database.Status `json:"migrations"`
	Seeds      []database.Status `json:"seeds"`
}

// Service runs schema migrations and seeders. Lock and Events are optional.
type Service struct {
	Migrations Runner
	Seeds      Runner
	Users      UserStore
	Lock       Locker
	Events     Publisher
	Logger     *logger.Logger
}

func NewService(migrations, seeds Runner, users UserStore, log *logger.Logger) *Service {
	return &Service{
		Migrations: migrations,
		Seeds:      seeds,
		Users:      users,
		Logger:     log,
	}
}

// Init creates bookkeeping tables for both collections.
func (s *Service) Init(ctx context.Context) error {
	if err := s.Migrations.Init(ctx); err != nil {
		return err
	}
	return s.Seeds.Init(ctx)
}

// Migrate applies pending schema migrations. Schema runs publish no events.
func (s *Service) Migrate(ctx context.Context) (*migrate.MigrationGroup, error) {
	return s.run(ctx, s.Migrations, s.Migrations.Up, "")
}

func (s *Service) UndoMigration(ctx context.Context) (*migrate.MigrationGroup, error) {
	return s.run(ctx, s.Migrations, s.Migrations.Down, "")
}

// Seed applies every pending seeder as one group.
func (s *Service) Seed(ctx context.Context) (*migrate.MigrationGroup, error) {
	return s.run(ctx, s.Seeds, s.Seeds.Up, kafka.ActionApplied)
}

// UndoSeed reverts the most recent seed group.
func (s *Service) UndoSeed(ctx context.Context) (*migrate.MigrationGroup, error) {
	return s.run(ctx, s.Seeds, s.Seeds.Down, kafka.ActionReverted)
}

// UndoAllSeeds reverts every applied seed group, newest first.
func (s *Service) UndoAllSeeds(ctx context.Context) ([]*migrate.MigrationGroup, error) {
	var groups []*migrate.MigrationGroup
	err := s.locked(ctx, s.Seeds.Kind(), func() error {
		var err error
		groups, err = s.Seeds.DownAll(ctx)
		for _, g := range groups {
			s.publish(ctx, kafka.ActionReverted, g)
		}
		return err
	})
	return groups, err
}

func (s *Service) Status(ctx context.Context) (*Status, error) {
	migrations, err := s.Migrations.Status(ctx)
	if err != nil {
		return nil, err
	}
	seeds, err := s.Seeds.Status(ctx)
	if err != nil {
		return nil, err
	}
	return &Status{Migrations: migrations, Seeds: seeds}, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.Users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", models.UsersTable, err)
	}
	return users, nil
}

// FindUser looks a row of Users up by email. A missing row surfaces as
// sql.ErrNoRows.
func (s *Service) FindUser(ctx context.Context, email string) (*models.User, error) {
	user, err := s.Users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s row %q: %w", models.UsersTable, email, err)
	}
	return user, nil
}

// run calls step under the lock of r. A non-empty action publishes the
// resulting group.
func (s *Service) run(ctx context.Context, r Runner, step func(context.Context) (*migrate.MigrationGroup, error), action string) (*migrate.MigrationGroup, error) {
	var group *migrate.MigrationGroup
	err := s.locked(ctx, r.Kind(), func() error {
		var err error
		group, err = step(ctx)
		if err != nil {
			return err
		}
		if action != "" {
			s.publish(ctx, action, group)
		}
		return nil
	})
	return group, err
}

func (s *Service) locked(ctx context.Context, name string, fn func() error) error {
	if s.Lock == nil {
		return fn()
	}

	release, err := s.Lock.Acquire(ctx, name)
	if err != nil {
		return err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.Logger.Warn("LOCK", err.Error())
		}
	}()
	return fn()
}

// publish sends an event for a non-empty group. Failures are only logged.
func (s *Service) publish(ctx context.Context, action string, group *migrate.MigrationGroup) {
	if s.Events == nil || group == nil || group.IsZero() {
		return
	}

	evt := kafka.NewSeedEvent(action, group.ID, database.GroupNames(group))
	if err := s.Events.PublishSeedEvent(ctx, evt); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish seed %s event for group %d: %v", action, group.ID, err))
		return
	}
	s.Logger.LogKafka("PUBLISH", s.Seeds.Kind(), fmt.Sprintf("%s group %d", action, group.ID))
}
