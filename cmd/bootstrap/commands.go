package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go-healthcare-practice/config"
	"go-healthcare-practice/internal/infrastructure/database"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCommand builds the practice CLI: serve, worker, migrate and seed.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "practice",
		Short:         "Healthcare practice management API",
		SilenceUsage:  true,
	}

	rootCmd.AddCommand(serveCommand(), workerCommand(), migrateCommand(), seedCommand())
	return rootCmd
}

func loadEnvironment() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, NewLogger(cfg.App), nil
}

func serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			withSweeper, _ := cmd.Flags().GetBool("with-sweeper")

			cfg, log, err := loadEnvironment()
			if err != nil {
				return err
			}
			app, err := New(cfg, log)
			if err != nil {
				return err
			}
			app.Run(withSweeper)
			return nil
		},
	}
	cmd.Flags().Bool("with-sweeper", true, "Run the overdue invoice sweeper inside the server process")
	return cmd
}

func workerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the overdue invoice sweeper without the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadEnvironment()
			if err != nil {
				return err
			}
			app, err := New(cfg, log)
			if err != nil {
				return err
			}
			app.RunWorker()
			return nil
		},
	}
}

func migrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	withMigrator := func(fn func(m *database.Migrator, log *logrus.Logger) error) error {
		cfg, log, err := loadEnvironment()
		if err != nil {
			return err
		}
		db, err := database.NewPostgresConnection(cfg.DB, cfg.App.Env, log)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		m, err := database.NewMigrator(db, log)
		if err != nil {
			return err
		}
		return fn(m, log)
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m *database.Migrator, log *logrus.Logger) error {
				return m.Up()
			})
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			return withMigrator(func(m *database.Migrator, log *logrus.Logger) error {
				return m.Down(steps)
			})
		},
	}
	downCmd.Flags().Int("steps", 1, "Number of migrations to roll back")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m *database.Migrator, log *logrus.Logger) error {
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				log.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("Schema version")
				return nil
			})
		},
	}

	migrateCmd.AddCommand(upCmd, downCmd, versionCmd)
	return migrateCmd
}

func seedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the database with demo doctors, patients and invoices",
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts seedOptions
			opts.Doctors, _ = cmd.Flags().GetInt("doctors")
			opts.Patients, _ = cmd.Flags().GetInt("patients")
			opts.VisitsPerUser, _ = cmd.Flags().GetInt("visits")
			opts.Seed, _ = cmd.Flags().GetInt64("seed")
			opts.AdminEmail, _ = cmd.Flags().GetString("admin-email")
			opts.Password, _ = cmd.Flags().GetString("password")
			if len(opts.Password) < 8 {
				return fmt.Errorf("--password must be at least 8 characters")
			}

			cfg, log, err := loadEnvironment()
			if err != nil {
				return err
			}
			app, err := New(cfg, log)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.Seed(ctx, opts)
		},
	}
	cmd.Flags().Int("doctors", 5, "Number of doctors to create")
	cmd.Flags().Int("patients", 20, "Number of patients to create")
	cmd.Flags().Int("visits", 4, "Completed visits per patient")
	cmd.Flags().Int64("seed", 42, "Random seed for generated data")
	cmd.Flags().String("admin-email", "admin@practice.local", "Email of the admin account")
	cmd.Flags().String("password", "password123", "Password for every seeded account")
	return cmd
}
