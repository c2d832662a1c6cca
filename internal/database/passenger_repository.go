package database

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/smarttransit/berth-allocator/internal/models"
)

const passengerColumns = `id, ticket_id, seq, name, age, gender, is_child, created_at`

// InsertPassenger creates a passenger row for an existing ticket
func (r *postgresTx) InsertPassenger(passenger *models.Passenger) error {
	err := r.tx.QueryRowxContext(r.ctx, `
		INSERT INTO passengers (id, ticket_id, seq, name, age, gender, is_child)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`,
		passenger.ID,
		passenger.TicketID,
		passenger.Seq,
		passenger.Name,
		passenger.Age,
		passenger.Gender,
		passenger.IsChild,
	).Scan(&passenger.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create passenger: %w", err)
	}
	return nil
}

// ListPassengers returns every passenger grouped by ticket in input order
func (r *postgresTx) ListPassengers() ([]models.Passenger, error) {
	var passengers []models.Passenger
	err := r.tx.SelectContext(r.ctx, &passengers, `
		SELECT `+passengerColumns+`
		FROM passengers
		ORDER BY ticket_id, seq
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list passengers: %w", err)
	}
	return passengers, nil
}

// ListPassengersByTicket returns the passengers of a ticket in input order
func (r *postgresTx) ListPassengersByTicket(ticketID uuid.UUID) ([]models.Passenger, error) {
	var passengers []models.Passenger
	err := r.tx.SelectContext(r.ctx, &passengers, `
		SELECT `+passengerColumns+`
		FROM passengers
		WHERE ticket_id = $1
		ORDER BY seq
	`, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to list passengers for ticket: %w", err)
	}
	return passengers, nil
}

// DeletePassengersByTicket removes every passenger of a ticket
func (r *postgresTx) DeletePassengersByTicket(ticketID uuid.UUID) (int, error) {
	result, err := r.tx.ExecContext(r.ctx, `DELETE FROM passengers WHERE ticket_id = $1`, ticketID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete passengers: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to delete passengers: %w", err)
	}
	return int(rowsAffected), nil
}
