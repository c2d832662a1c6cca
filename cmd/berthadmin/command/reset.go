package command

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var confirmReset bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every ticket and passenger and free the whole inventory",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !confirmReset {
			return errors.New("refusing to reset without --yes")
		}

		db, err := connect()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.ResetBookings(cmd.Context()); err != nil {
			return fmt.Errorf("resetting bookings: %w", err)
		}
		newLogger().Info("All bookings removed")
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVar(&confirmReset, "yes", false, "confirm deletion of all bookings")
	rootCmd.AddCommand(resetCmd)
}
