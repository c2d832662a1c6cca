package command

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/berth-allocator/internal/database"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the fixed berth catalog, skipping berths that already exist",
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := connect()
		if err != nil {
			return err
		}
		defer db.Close()

		catalog := database.DefaultBerthCatalog()
		inserted, err := db.SeedBerths(cmd.Context(), catalog)
		if err != nil {
			return fmt.Errorf("seeding berths: %w", err)
		}

		newLogger().WithFields(logrus.Fields{
			"inserted": inserted,
			"catalog":  len(catalog),
		}).Info("Berth catalog seeded")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
