package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/smarttransit/berth-allocator/internal/models"
)

// InsertTicket creates a ticket row; seq and created_at are filled from the database
func (r *postgresTx) InsertTicket(ticket *models.Ticket) error {
	err := r.tx.QueryRowxContext(r.ctx, `
		INSERT INTO tickets (id, status)
		VALUES ($1, $2)
		RETURNING seq, created_at
	`, ticket.ID, ticket.Status).Scan(&ticket.Seq, &ticket.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}
	return nil
}

// GetTicket returns a ticket by ID or ErrNotFound
func (r *postgresTx) GetTicket(id uuid.UUID) (*models.Ticket, error) {
	var ticket models.Ticket
	err := r.tx.GetContext(r.ctx, &ticket, `
		SELECT id, status, seq, created_at
		FROM tickets
		WHERE id = $1
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch ticket: %w", err)
	}
	return &ticket, nil
}

// ListTickets returns every ticket in creation order
func (r *postgresTx) ListTickets() ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := r.tx.SelectContext(r.ctx, &tickets, `
		SELECT id, status, seq, created_at
		FROM tickets
		ORDER BY created_at, seq
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, nil
}

// OldestTicketByStatus returns the earliest ticket with the status, or nil if there is none
func (r *postgresTx) OldestTicketByStatus(status models.TicketStatus) (*models.Ticket, error) {
	var ticket models.Ticket
	err := r.tx.GetContext(r.ctx, &ticket, `
		SELECT id, status, seq, created_at
		FROM tickets
		WHERE status = $1
		ORDER BY created_at, seq
		LIMIT 1
	`, status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch oldest %s ticket: %w", status, err)
	}
	return &ticket, nil
}

// UpdateTicketStatus relabels a ticket
func (r *postgresTx) UpdateTicketStatus(id uuid.UUID, status models.TicketStatus) error {
	result, err := r.tx.ExecContext(r.ctx, `UPDATE tickets SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update ticket status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update ticket status: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTicket removes a ticket; passengers cascade
func (r *postgresTx) DeleteTicket(id uuid.UUID) error {
	result, err := r.tx.ExecContext(r.ctx, `DELETE FROM tickets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete ticket: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete ticket: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
