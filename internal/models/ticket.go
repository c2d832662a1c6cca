package models

import (
	"time"

	"github.com/google/uuid"
)

// TicketStatus represents the status of a ticket
type TicketStatus string

const (
	TicketStatusConfirmed TicketStatus = "confirmed"
	TicketStatusRAC       TicketStatus = "rac"
	TicketStatusWaiting   TicketStatus = "waiting"
)

// severity orders statuses from best (0) to worst
func (s TicketStatus) severity() int {
	switch s {
	case TicketStatusRAC:
		return 1
	case TicketStatusWaiting:
		return 2
	}
	return 0
}

// Worse returns the worse of the two statuses
func (s TicketStatus) Worse(other TicketStatus) TicketStatus {
	if other.severity() > s.severity() {
		return other
	}
	return s
}

// TicketStatusForClass maps a berth class to the ticket status it implies
func TicketStatusForClass(class BerthClass) TicketStatus {
	switch class {
	case BerthClassRAC:
		return TicketStatusRAC
	case BerthClassWaiting:
		return TicketStatusWaiting
	}
	return TicketStatusConfirmed
}

// DeriveTicketStatus returns the worst status implied by the berths held by a
// ticket's non-child passengers. No berths means confirmed.
func DeriveTicketStatus(classes []BerthClass) TicketStatus {
	status := TicketStatusConfirmed
	for _, class := range classes {
		status = status.Worse(TicketStatusForClass(class))
	}
	return status
}

// Ticket represents one booking transaction covering 1..N passengers.
// Seq breaks ties between tickets created at the same instant.
type Ticket struct {
	ID        uuid.UUID    `json:"id" db:"id"`
	Status    TicketStatus `json:"status" db:"status"`
	Seq       int64        `json:"seq" db:"seq"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}

// OlderThan reports whether t was booked before other
func (t *Ticket) OlderThan(other *Ticket) bool {
	if !t.CreatedAt.Equal(other.CreatedAt) {
		return t.CreatedAt.Before(other.CreatedAt)
	}
	return t.Seq < other.Seq
}

// BookTicketRequest represents the request to book a ticket
type BookTicketRequest struct {
	Passengers []PassengerRequest `json:"passengers" binding:"required,min=1,dive"`
}

// BookingResponse is returned after a successful booking
type BookingResponse struct {
	Message    string                `json:"message"`
	TicketID   uuid.UUID             `json:"ticket_id"`
	Status     TicketStatus          `json:"status"`
	Passengers []PassengerAssignment `json:"passengers"`
}

// PromotionResult lists the tickets moved up by a cancellation.
// Each list holds at most one ticket id.
type PromotionResult struct {
	RACToConfirmed []uuid.UUID `json:"rac_to_confirmed"`
	WaitingToRAC   []uuid.UUID `json:"waiting_to_rac"`
}

// Count returns the number of promoted tickets
func (p *PromotionResult) Count() int {
	return len(p.RACToConfirmed) + len(p.WaitingToRAC)
}

// CancelResponse is returned after a successful cancellation
type CancelResponse struct {
	Message  string          `json:"message"`
	TicketID uuid.UUID       `json:"ticket_id"`
	Promoted PromotionResult `json:"promoted"`
}

// BookedTicket is the read-side view of a ticket and its passengers
type BookedTicket struct {
	TicketID   uuid.UUID         `json:"ticket_id"`
	Status     TicketStatus      `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
	Passengers []BookedPassenger `json:"passengers"`
}

// BookedTicketsResponse lists every booked ticket in creation order
type BookedTicketsResponse struct {
	Total   int            `json:"total"`
	Tickets []BookedTicket `json:"tickets"`
}
