package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/smarttransit/berth-allocator/internal/models"
)

// Fixed inventory of one journey
const (
	ConfirmedBerthCount = 63
	RACPairCount        = 9
	WaitingSlotCount    = 10
)

// confirmedClassCycle is the class rotation of C1..C63
var confirmedClassCycle = []models.BerthClass{
	models.BerthClassUpper,
	models.BerthClassMiddle,
	models.BerthClassLower,
}

// DefaultBerthCatalog builds the deployment inventory: C1..C63 cycling
// upper/middle/lower, RAC pairs R1-1..R9-2 and waiting slots W1..W10
func DefaultBerthCatalog() []models.Berth {
	now := time.Now()
	berths := make([]models.Berth, 0, ConfirmedBerthCount+2*RACPairCount+WaitingSlotCount)

	for i := 1; i <= ConfirmedBerthCount; i++ {
		berths = append(berths, models.Berth{
			ID:        uuid.New(),
			Code:      fmt.Sprintf("C%d", i),
			Class:     confirmedClassCycle[(i-1)%len(confirmedClassCycle)],
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	for i := 1; i <= RACPairCount; i++ {
		for position := 1; position <= 2; position++ {
			p := position
			berths = append(berths, models.Berth{
				ID:        uuid.New(),
				Code:      fmt.Sprintf("R%d-%d", i, position),
				Class:     models.BerthClassRAC,
				Position:  &p,
				CreatedAt: now,
				UpdatedAt: now,
			})
		}
	}

	for i := 1; i <= WaitingSlotCount; i++ {
		berths = append(berths, models.Berth{
			ID:        uuid.New(),
			Code:      fmt.Sprintf("W%d", i),
			Class:     models.BerthClassWaiting,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	return berths
}

// SeedBerths inserts the catalog, skipping codes that already exist, and
// returns how many berths were added
func (db *PostgresDB) SeedBerths(ctx context.Context, berths []models.Berth) (int, error) {
	tx, err := db.DB.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	inserted := 0
	for _, b := range berths {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO berths (id, code, berth_class, position, occupied)
			VALUES ($1, $2, $3, $4, FALSE)
			ON CONFLICT (code) DO NOTHING
		`, b.ID, b.Code, b.Class, b.Position)
		if err != nil {
			return 0, fmt.Errorf("failed to insert berth %s: %w", b.Code, err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to insert berth %s: %w", b.Code, err)
		}
		inserted += int(rowsAffected)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit berth seed: %w", err)
	}
	return inserted, nil
}

// ResetBookings deletes every ticket and passenger and frees the whole inventory
func (db *PostgresDB) ResetBookings(ctx context.Context) error {
	tx, err := db.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	statements := []string{
		`UPDATE berths SET occupied = FALSE, ticket_id = NULL, passenger_id = NULL, updated_at = NOW() WHERE occupied = TRUE`,
		`DELETE FROM passengers`,
		`DELETE FROM tickets`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to reset bookings: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reset: %w", err)
	}
	return nil
}
