package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun/migrate"

	"ms-seeder/internal/config"
	"ms-seeder/internal/database"
	"ms-seeder/internal/logger"
	"ms-seeder/internal/models"
	"ms-seeder/internal/seeding"
)

type stubRunner struct {
	kind string
	err  error
}

func (r *stubRunner) Kind() string                   { return r.kind }
func (r *stubRunner) Init(ctx context.Context) error { return r.err }

func (r *stubRunner) Up(ctx context.Context) (*migrate.MigrationGroup, error) {
	if r.err != nil {
		return nil, r.err
	}
	return &migrate.MigrationGroup{}, nil
}

func (r *stubRunner) Down(ctx context.Context) (*migrate.MigrationGroup, error) {
	return r.Up(ctx)
}

func (r *stubRunner) DownAll(ctx context.Context) ([]*migrate.MigrationGroup, error) {
	return nil, r.err
}

func (r *stubRunner) Status(ctx context.Context) ([]database.Status, error) {
	return nil, r.err
}

type stubUsers struct{}

func (stubUsers) ListUsers(ctx context.Context) ([]models.User, error) { return nil, nil }

func (stubUsers) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return &models.User{Email: email}, nil
}

// useStubSetup replaces Setup with one returning runners that fail with
// seedErr, and reports how often the cleanup ran.
func useStubSetup(t *testing.T, seedErr error) *int {
	t.Helper()
	closed := new(int)

	origSetup, origCfg, origLog := setup, cfg, log
	t.Cleanup(func() { setup, cfg, log, svc, cleanup = origSetup, origCfg, origLog, nil, nil })

	cfg = &config.Config{}
	log = logger.New(&bytes.Buffer{})
	setup = func(ctx context.Context, _ *config.Config, l *logger.Logger) (*seeding.Service, func(), error) {
		s := seeding.NewService(&stubRunner{kind: "migration"}, &stubRunner{kind: "seed", err: seedErr}, stubUsers{}, l)
		return s, func() { *closed++ }, nil
	}
	return closed
}

func TestRunReleasesConnectionsWhenCommandFails(t *testing.T) {
	seedErr := errors.New("UNIQUE constraint failed: Users.email")
	closed := useStubSetup(t, seedErr)

	err := run(context.Background(), []string{"seed", "up"})

	assert.ErrorIs(t, err, seedErr)
	assert.Equal(t, 1, *closed)
}

func TestRunReleasesConnectionsOnSuccess(t *testing.T) {
	closed := useStubSetup(t, nil)

	require.NoError(t, run(context.Background(), []string{"seed", "all"}))
	assert.Equal(t, 1, *closed)

	require.NoError(t, run(context.Background(), []string{"users", "--email", "arjun@gmail.com"}))
	assert.Equal(t, 2, *closed)
}

func TestRunSetupFailure(t *testing.T) {
	useStubSetup(t, nil)
	setupErr := errors.New("redis connection error")
	setup = func(context.Context, *config.Config, *logger.Logger) (*seeding.Service, func(), error) {
		return nil, nil, setupErr
	}

	err := run(context.Background(), []string{"migrate", "up"})

	assert.ErrorIs(t, err, setupErr)
}
