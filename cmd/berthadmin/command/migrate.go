package command

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := connect()
		if err != nil {
			return err
		}
		defer db.Close()

		applied, err := db.Migrate(cmd.Context())
		if err != nil {
			return fmt.Errorf("migrating: %w", err)
		}

		logger := newLogger()
		if len(applied) == 0 {
			logger.Info("Schema is up to date")
			return nil
		}
		for _, version := range applied {
			logger.WithField("version", version).Info("Applied migration")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
