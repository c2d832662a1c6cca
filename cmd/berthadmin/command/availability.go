package command

import (
	"encoding/json"
	"fmt"

	"github.com/smarttransit/berth-allocator/internal/services"
	"github.com/spf13/cobra"
)

var availabilityCmd = &cobra.Command{
	Use:   "availability",
	Short: "Print the free berth counts per class as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := connect()
		if err != nil {
			return err
		}
		defer db.Close()

		logger := newLogger()
		svc := services.NewTicketService(
			db,
			services.NewAllocationEngine(services.DefaultBerthPolicy(), logger),
			services.NewPromotionEngine(logger),
			nil,
			services.DefaultTicketServiceConfig(),
			logger,
		)

		availability, err := svc.GetAvailability(cmd.Context())
		if err != nil {
			return fmt.Errorf("reading availability: %w", err)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(availability)
	},
}

func init() {
	rootCmd.AddCommand(availabilityCmd)
}
