package database_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"ms-seeder/internal/config"
	"ms-seeder/internal/database"
	"ms-seeder/internal/database/seeders"
	"ms-seeder/internal/logger"
	"ms-seeder/internal/seeding"
	"ms-seeder/internal/users/db"
)

func startPostgres(t *testing.T) config.DatabaseConfig {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "seeder",
			"POSTGRES_PASSWORD": "seeder",
			"POSTGRES_DB":       "seeder_test",
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		).WithDeadline(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return config.DatabaseConfig{
		Driver:         "postgres",
		Host:           host,
		Port:           port.Port(),
		Username:       "seeder",
		Password:       "seeder",
		Database:       "seeder_test",
		SSLMode:        "disable",
		ConnectRetries: 5,
	}
}

func TestPostgresSeedCycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping Postgres integration test in short mode")
	}

	dbCfg := startPostgres(t)

	for _, driver := range []string{"postgres", "pg"} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			log := logger.New(&bytes.Buffer{})
			dbCfg.Driver = driver

			bunDB, err := database.Open(ctx, dbCfg, log)
			require.NoError(t, err)
			defer bunDB.Close()

			migrationRunner, seedRunner := seeding.NewRunners(bunDB, log)
			users := &db.DB{Bun: bunDB}

			_, err = migrationRunner.Up(ctx)
			require.NoError(t, err)
			defer func() {
				_, _ = seedRunner.DownAll(ctx)
				_, _ = migrationRunner.DownAll(ctx)
			}()

			group, err := seedRunner.Up(ctx)
			require.NoError(t, err)
			assert.False(t, group.IsZero())

			list, err := users.ListUsers(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "arjun@gmail.com", list[0].Email)
			assert.Equal(t, "user@gmail.com", list[1].Email)

			err = seeders.DemoUser{Store: users}.Up(ctx)
			require.Error(t, err)
			assert.Contains(t, fmt.Sprint(err), "unique")

			_, err = seedRunner.Down(ctx)
			require.NoError(t, err)

			count, err := users.CountUsers(ctx)
			require.NoError(t, err)
			assert.Zero(t, count)

			require.NoError(t, seeders.DemoUser{Store: users}.Down(ctx))
		})
	}
}
