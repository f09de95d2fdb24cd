package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/desertthunder/mazeed/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase creates the config file when missing, then initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}
	config.ApplyEnv()

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return r.printMigrations(db)
}

// SetupConfig writes the default configuration to the config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err == nil && !cmd.Bool("force") {
		return fmt.Errorf("%w: %s already exists (use --force to overwrite)", shared.ErrInvalidArgument, configPath)
	}

	if cmd.Bool("force") {
		if err := shared.SaveConfig(configPath, shared.DefaultConfig()); err != nil {
			return err
		}
	} else if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}

	r.writePlain("✓ Wrote %s\n", configPath)
	return nil
}

// SetupMigrations lists migrations, rolling back the latest first when asked.
func (r *Runner) SetupMigrations(ctx context.Context, cmd *cli.Command) error {
	config, err := loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	if cmd.Bool("rollback") {
		if err := shared.RollbackMigration(db); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		r.writePlain("✓ Rolled back the latest migration\n")
	}
	return r.printMigrations(db)
}

func (r *Runner) printMigrations(db *sql.DB) error {
	statuses, err := shared.Migrations(db)
	if err != nil {
		return err
	}

	r.writePlainHeader("Migrations")
	for _, s := range statuses {
		if s.Applied {
			r.writePlain("✓ %04d %-28s %s\n", s.Version, s.Name, s.AppliedAt.Format("2006-01-02 15:04"))
		} else {
			r.writePlain("  %04d %-28s pending\n", s.Version, s.Name)
		}
	}
	return nil
}
