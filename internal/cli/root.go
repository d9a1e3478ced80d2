// Package cli implements the todo command line.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"todo/internal/config"
	"todo/internal/logging"
	"todo/internal/repository"
)

// app carries state shared by every subcommand of one invocation.
type app struct {
	configPath string
	dbPath     string
	verbose    bool

	now func() time.Time
	cfg *config.Config
	log zerolog.Logger
}

// NewRootCommand builds the todo command tree. now supplies the current time;
// nil means time.Now.
func NewRootCommand(version string, now func() time.Time) *cobra.Command {
	if now == nil {
		now = time.Now
	}
	a := &app{now: now, log: zerolog.Nop()}

	root := &cobra.Command{
		Use:               "todo",
		Short:             "A command line todo app",
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default "+config.DefaultPath()+")")
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "SQLite database file (overrides database_path)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		a.addCmd(),
		a.listCmd(),
		a.editCmd(),
		a.categoriesCmd(),
		a.remindCmd(),
		a.configCmd(),
	)
	return root
}

// Execute runs the command line and prints any error to stderr.
func Execute(ctx context.Context, version string, args []string) error {
	root := NewRootCommand(version, nil)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		return err
	}
	return nil
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.DatabasePath = a.dbPath
	}

	level := cfg.LogLevel
	if a.verbose {
		level = zerolog.DebugLevel.String()
	}
	log, err := logging.New(cmd.ErrOrStderr(), level)
	if err != nil {
		return fmt.Errorf("log_level: %w", err)
	}

	a.cfg = cfg
	a.log = log.With().Str("cmd", cmd.Name()).Logger()
	a.log.Debug().Str("config", cfg.File).Str("db", cfg.DatabasePath).Msg("loaded configuration")
	return nil
}

// withDB opens the database for the duration of fn.
func (a *app) withDB(fn func(db *gorm.DB) error) error {
	db, err := repository.NewDB(a.cfg.DatabasePath, a.log)
	if err != nil {
		return fmt.Errorf("could not access db: %w", err)
	}
	defer func() {
		if err := repository.Close(db); err != nil {
			a.log.Warn().Err(err).Msg("close db")
		}
	}()
	return fn(db)
}
