// Package command provides the berthadmin sub-commands for managing the
// PostgreSQL store of the berth allocation service.
//
//	berthadmin migrate                 # apply pending schema migrations
//	berthadmin seed                    # insert the fixed berth catalog
//	berthadmin reset --yes             # drop every booking, free all berths
//	berthadmin availability            # print free counts per class
package command

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/berth-allocator/internal/config"
	"github.com/smarttransit/berth-allocator/internal/database"
	"github.com/spf13/cobra"
)

var databaseURL string

var rootCmd = &cobra.Command{
	Use:   "berthadmin",
	Short: "Maintenance commands for the berth allocation store",
	Long: `Maintenance commands for the berth allocation store.
The database is taken from DATABASE_URL (a .env file in the working
directory is honoured) unless --database-url is given.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&databaseURL, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)",
	)
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetOutput(os.Stderr)
	return logger
}

// connect opens the PostgreSQL store regardless of STORE_DRIVER
func connect() (*database.PostgresDB, error) {
	cfg, err := config.LoadDatabase()
	if databaseURL != "" {
		cfg.URL = databaseURL
		err = nil
	}
	if err != nil {
		return nil, err
	}
	cfg.Driver = config.StoreDriverPostgres
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := database.NewConnection(cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return db, nil
}
