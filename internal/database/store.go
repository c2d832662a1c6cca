package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/smarttransit/berth-allocator/internal/models"
)

var (
	// ErrNotFound is returned when a point read matches no row
	ErrNotFound = errors.New("record not found")
	// ErrBerthUnavailable is returned when occupying a berth that is not free
	ErrBerthUnavailable = errors.New("berth is not free")
	// ErrSerializationFailure marks a transaction aborted by a concurrent conflict; it may be retried
	ErrSerializationFailure = errors.New("transaction serialization failure")
)

// TxOptions configures a store transaction
type TxOptions struct {
	ReadOnly bool
}

// Store is the transactional store the booking engines run against.
// Every transaction observes a serializable snapshot of berths, tickets and passengers.
type Store interface {
	RunInTx(ctx context.Context, opts TxOptions, fn func(tx BookingTx) error) error
	Ping() error
	Close() error
}

// BookingTx exposes predicate scans and mutations over the three collections
// inside one transaction
type BookingTx interface {
	BerthTx
	TicketTx
	PassengerTx
}

// BerthTx covers the berth inventory. Scans return berths in inventory order
// (RAC position, then natural code order).
type BerthTx interface {
	ListFreeBerths(classes ...models.BerthClass) ([]models.Berth, error)
	ListOccupiedBerths() ([]models.Berth, error)
	ListBerthsByTicket(ticketID uuid.UUID) ([]models.Berth, error)
	CountFreeBerthsByClass() (map[models.BerthClass]int, error)
	OccupyBerth(berthID, ticketID, passengerID uuid.UUID) error
	ReleaseBerth(berthID uuid.UUID) error
	ReleaseTicketBerths(ticketID uuid.UUID) (int, error)
}

// TicketTx covers tickets. Ordering is created_at, then seq.
type TicketTx interface {
	InsertTicket(ticket *models.Ticket) error
	GetTicket(id uuid.UUID) (*models.Ticket, error)
	ListTickets() ([]models.Ticket, error)
	OldestTicketByStatus(status models.TicketStatus) (*models.Ticket, error)
	UpdateTicketStatus(id uuid.UUID, status models.TicketStatus) error
	DeleteTicket(id uuid.UUID) error
}

// PassengerTx covers passengers. Ordering is ticket, then seq.
type PassengerTx interface {
	InsertPassenger(passenger *models.Passenger) error
	ListPassengers() ([]models.Passenger, error)
	ListPassengersByTicket(ticketID uuid.UUID) ([]models.Passenger, error)
	DeletePassengersByTicket(ticketID uuid.UUID) (int, error)
}
