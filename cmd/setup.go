package main

import (
	"context"
	"fmt"

	"github.com/JeronimoAR/SpotifyVoiceController/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase initializes the database and runs migrations, or rolls back the latest one with --rollback.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("rollback") {
		return r.rollbackDatabase()
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)

	if _, err := r.repository(); err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return r.writePlain("✓ Database ready at %s\n", r.config.Database.Path)
}

// rollbackDatabase undoes the latest applied migration without migrating first.
func (r *Runner) rollbackDatabase() error {
	db := r.db
	if db == nil {
		opened, err := shared.NewDatabase(r.config.Database.Path)
		if err != nil {
			return err
		}
		defer opened.Close()
		db = opened
	}

	version, err := shared.RollbackMigration(db)
	if err != nil {
		return fmt.Errorf("failed to roll back database: %w", err)
	}

	r.logger.Info("migration rolled back", "version", version, "path", r.config.Database.Path)
	return r.writePlain("✓ Rolled back migration %04d\n", version)
}

// SetupConfig writes the example configuration to the --config path.
//
// An existing file is left untouched.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.configPathOrDefault()

	r.logger.Info("creating config file from template", "path", path)
	if err := shared.CreateConfigFile(path); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}

	r.writePlain("✓ Config written to %s\n", path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Create an app at https://developer.spotify.com/dashboard with redirect URI %s\n",
		r.config.Credentials.Spotify.RedirectURI)
	r.writePlain("2. Set credentials.spotify client_id and client_secret in %s\n", path)
	r.writePlain("3. Run 'spvc auth login'\n")
	return nil
}
