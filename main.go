package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ms-seeder/internal/config"
	"ms-seeder/internal/database"
	"ms-seeder/internal/logger"
	"ms-seeder/internal/models"
	"ms-seeder/internal/seeding"
)

var (
	cfg     *config.Config
	log     *logger.Logger
	svc     *seeding.Service
	cleanup func()

	setup = seeding.Setup
)

func main() {
	envErr := godotenv.Load()

	cfg = config.Load()
	log = logger.NewLogger(cfg.Log.Service, cfg.Log.Dir)
	log.SetLevel(logger.ParseLevel(cfg.Log.Level))
	defer log.Close()

	if envErr != nil {
		log.Debug("CONFIG", ".env file not found, using environment variables")
	}

	if err := run(context.Background(), os.Args[1:]); err != nil {
		log.Fatal("APP", fmt.Sprintf("Command failed: %v", err))
	}
}

// run executes args and releases whatever setup opened, on failure too.
func run(ctx context.Context, args []string) error {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(ctx)
	if cleanup != nil {
		cleanup()
		cleanup = nil
	}
	return err
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "seeder",
		Short: "Schema migrations and development seed data",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			svc, cleanup, err = setup(cmd.Context(), cfg, log)
			if err != nil {
				return fmt.Errorf("failed to set up: %w", err)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		createMigrateCmd(),
		createSeedCmd(),
		createUsersCmd(),
	)
	return rootCmd
}

func createMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage schema migrations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "init",
			Short: "Create migration and seed bookkeeping tables",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := svc.Init(cmd.Context()); err != nil {
					return fmt.Errorf("failed to initialize: %w", err)
				}
				log.Info("MIGRATION", "Bookkeeping tables initialized")
				return nil
			},
		},
		&cobra.Command{
			Use:   "up",
			Short: "Run pending schema migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				if _, err := svc.Migrate(cmd.Context()); err != nil {
					return fmt.Errorf("failed to run migrations: %w", err)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last schema migration group",
			RunE: func(cmd *cobra.Command, args []string) error {
				if _, err := svc.UndoMigration(cmd.Context()); err != nil {
					return fmt.Errorf("failed to roll back migrations: %w", err)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show schema migration status",
			RunE: func(cmd *cobra.Command, args []string) error {
				status, err := svc.Status(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to get status: %w", err)
				}
				printStatus("Migration Status", status.Migrations)
				return nil
			},
		},
	)
	return cmd
}

func createSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Apply or revert development seed data",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:     "up",
			Aliases: []string{"all"},
			Short:   "Run every pending seeder",
			RunE: func(cmd *cobra.Command, args []string) error {
				group, err := svc.Seed(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to run seeders: %w", err)
				}
				if group.IsZero() {
					log.Info("SEED", "No pending seeders")
					return nil
				}
				log.Info("SEED", fmt.Sprintf("✅ Applied %v", database.GroupNames(group)))
				return nil
			},
		},
		&cobra.Command{
			Use:     "down",
			Aliases: []string{"undo"},
			Short:   "Revert the last seed group",
			RunE: func(cmd *cobra.Command, args []string) error {
				group, err := svc.UndoSeed(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to revert seeders: %w", err)
				}
				if group.IsZero() {
					log.Info("SEED", "No seeders to revert")
					return nil
				}
				log.Info("SEED", fmt.Sprintf("✅ Reverted %v", database.GroupNames(group)))
				return nil
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Revert every applied seed group",
			RunE: func(cmd *cobra.Command, args []string) error {
				groups, err := svc.UndoAllSeeds(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to reset seeders: %w", err)
				}
				log.Info("SEED", fmt.Sprintf("✅ Reverted %d seed group(s)", len(groups)))
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show seeder status",
			RunE: func(cmd *cobra.Command, args []string) error {
				status, err := svc.Status(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to get status: %w", err)
				}
				printStatus("Seed Status", status.Seeds)
				return nil
			},
		},
	)
	return cmd
}

func createUsersCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List rows of the Users table",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email != "" {
				user, err := svc.FindUser(cmd.Context(), email)
				if err != nil {
					return err
				}
				printUser(*user)
				return nil
			}

			users, err := svc.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			for _, u := range users {
				printUser(u)
			}
			log.LogDatabase("SELECT", models.UsersTable, fmt.Sprintf("%d row(s)", len(users)))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "show only the row with this email")
	return cmd
}

func printUser(u models.User) {
	fmt.Fprintf(os.Stdout, "%-6d %-20s %-30s %s\n", u.ID, u.Name, u.Email, u.CreatedAt.Format("2006-01-02 15:04:05"))
}

func printStatus(title string, statuses []database.Status) {
	fmt.Printf("%s:\n", title)
	fmt.Printf("================\n")
	for _, s := range statuses {
		state := "pending"
		if s.Applied {
			state = fmt.Sprintf("applied at %s (group %d)", s.MigratedAt.Format("2006-01-02 15:04:05"), s.GroupID)
		}
		fmt.Printf("%-50s %s\n", s.Name, state)
	}
}
