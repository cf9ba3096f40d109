package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"contractlens/internal/config"
)

// migrator is the subset of *migrate.Migrate the command drives.
type migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
}

// migratorFactory opens a migrator for the configured database.
type migratorFactory func(source string) (migrator, func(), error)

func openMigrator(source string) (migrator, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.DB.Enabled() {
		return nil, nil, errors.New("no database configured: set CONTRACTLENS_DB_HOST")
	}
	m, err := migrate.New(source, cfg.DB.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, func() { _, _ = m.Close() }, nil
}

func newMigrateCmd(factory migratorFactory) *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:       "migrate [--source URL] up|down|steps N|version",
		Short:     "Apply or revert run history schema migrations",
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: []string{"up", "down", "steps", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			m, closeFn, err := factory(source)
			if err != nil {
				return err
			}
			defer closeFn()
			return runMigrate(cmd, m, args)
		},
	}
	cmd.Flags().StringVar(&source, "source", "file://db/migrations", "migration source URL")
	// "steps -1" must reach RunE as a positional argument, not a shorthand flag.
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func runMigrate(cmd *cobra.Command, m migrator, args []string) error {
	out := cmd.OutOrStdout()

	switch args[0] {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration up failed: %w", err)
		}
		fmt.Fprintln(out, "migrations applied successfully")

	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration down failed: %w", err)
		}
		fmt.Fprintln(out, "migrations reverted successfully")

	case "steps":
		if len(args) < 2 {
			return errors.New("steps requires a number argument")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid steps argument: %w", err)
		}
		if err := m.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration steps failed: %w", err)
		}
		fmt.Fprintf(out, "applied %d migration steps\n", n)

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}
		fmt.Fprintf(out, "version: %d, dirty: %v\n", version, dirty)

	default:
		return fmt.Errorf("unknown migrate command: %s", args[0])
	}
	return nil
}
