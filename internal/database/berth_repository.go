package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/smarttransit/berth-allocator/internal/models"
)

// postgresTx implements BookingTx on a single sqlx transaction
type postgresTx struct {
	ctx context.Context
	tx  *sqlx.Tx
}

const berthColumns = `id, code, berth_class, position, occupied, ticket_id, passenger_id, created_at, updated_at`

// berthOrder is the inventory scan order shared by every berth query
const berthOrder = `ORDER BY COALESCE(position, 0), LENGTH(code), code`

// ListFreeBerths returns free berths of the given classes in inventory order
func (r *postgresTx) ListFreeBerths(classes ...models.BerthClass) ([]models.Berth, error) {
	if len(classes) == 0 {
		return []models.Berth{}, nil
	}

	query, args, err := sqlx.In(`
		SELECT `+berthColumns+`
		FROM berths
		WHERE occupied = FALSE AND berth_class IN (?)
		`+berthOrder, classes)
	if err != nil {
		return nil, fmt.Errorf("failed to build free berths query: %w", err)
	}

	var berths []models.Berth
	if err := r.tx.SelectContext(r.ctx, &berths, r.tx.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list free berths: %w", err)
	}
	return berths, nil
}

// ListOccupiedBerths returns every occupied berth
func (r *postgresTx) ListOccupiedBerths() ([]models.Berth, error) {
	var berths []models.Berth
	err := r.tx.SelectContext(r.ctx, &berths, `
		SELECT `+berthColumns+`
		FROM berths
		WHERE occupied = TRUE
		`+berthOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to list occupied berths: %w", err)
	}
	return berths, nil
}

// ListBerthsByTicket returns the berths held by a ticket
func (r *postgresTx) ListBerthsByTicket(ticketID uuid.UUID) ([]models.Berth, error) {
	var berths []models.Berth
	err := r.tx.SelectContext(r.ctx, &berths, `
		SELECT `+berthColumns+`
		FROM berths
		WHERE ticket_id = $1
		`+berthOrder, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to list berths for ticket: %w", err)
	}
	return berths, nil
}

// CountFreeBerthsByClass scans the inventory and counts free berths per class
func (r *postgresTx) CountFreeBerthsByClass() (map[models.BerthClass]int, error) {
	var rows []struct {
		Class models.BerthClass `db:"berth_class"`
		Free  int               `db:"free"`
	}
	err := r.tx.SelectContext(r.ctx, &rows, `
		SELECT berth_class, COUNT(*) AS free
		FROM berths
		WHERE occupied = FALSE
		GROUP BY berth_class
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count free berths: %w", err)
	}

	counts := make(map[models.BerthClass]int, len(rows))
	for _, row := range rows {
		counts[row.Class] = row.Free
	}
	return counts, nil
}

// OccupyBerth links a free berth to a ticket/passenger pair
func (r *postgresTx) OccupyBerth(berthID, ticketID, passengerID uuid.UUID) error {
	result, err := r.tx.ExecContext(r.ctx, `
		UPDATE berths
		SET occupied = TRUE,
			ticket_id = $2,
			passenger_id = $3,
			updated_at = NOW()
		WHERE id = $1 AND occupied = FALSE
	`, berthID, ticketID, passengerID)
	if err != nil {
		return fmt.Errorf("failed to occupy berth: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to occupy berth: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("berth %s: %w", berthID, ErrBerthUnavailable)
	}
	return nil
}

// ReleaseBerth clears occupancy and both back-references of a berth
func (r *postgresTx) ReleaseBerth(berthID uuid.UUID) error {
	_, err := r.tx.ExecContext(r.ctx, `
		UPDATE berths
		SET occupied = FALSE,
			ticket_id = NULL,
			passenger_id = NULL,
			updated_at = NOW()
		WHERE id = $1
	`, berthID)
	if err != nil {
		return fmt.Errorf("failed to release berth: %w", err)
	}
	return nil
}

// ReleaseTicketBerths frees every berth referencing a ticket
func (r *postgresTx) ReleaseTicketBerths(ticketID uuid.UUID) (int, error) {
	result, err := r.tx.ExecContext(r.ctx, `
		UPDATE berths
		SET occupied = FALSE,
			ticket_id = NULL,
			passenger_id = NULL,
			updated_at = NOW()
		WHERE ticket_id = $1
	`, ticketID)
	if err != nil {
		return 0, fmt.Errorf("failed to release ticket berths: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to release ticket berths: %w", err)
	}
	return int(rowsAffected), nil
}
