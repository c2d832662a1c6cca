package models

import (
	"time"

	"github.com/google/uuid"
)

// BerthClass represents the class of a berth in the inventory
type BerthClass string

const (
	BerthClassLower     BerthClass = "lower"
	BerthClassMiddle    BerthClass = "middle"
	BerthClassUpper     BerthClass = "upper"
	BerthClassSideLower BerthClass = "side-lower"
	BerthClassRAC       BerthClass = "rac"
	BerthClassWaiting   BerthClass = "waiting"
)

// ConfirmedBerthClasses lists every class that counts as a confirmed berth
var ConfirmedBerthClasses = []BerthClass{
	BerthClassLower,
	BerthClassMiddle,
	BerthClassUpper,
	BerthClassSideLower,
}

// IsConfirmed reports whether the class is one of the confirmed sleeper classes
func (c BerthClass) IsConfirmed() bool {
	switch c {
	case BerthClassLower, BerthClassMiddle, BerthClassUpper, BerthClassSideLower:
		return true
	}
	return false
}

// Berth represents a single allocatable slot of the journey inventory.
// TicketID and PassengerID are either both set (occupied) or both nil.
type Berth struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Code        string     `json:"code" db:"code"` // C12, R3-1, W7
	Class       BerthClass `json:"class" db:"berth_class"`
	Position    *int       `json:"position,omitempty" db:"position"` // RAC only: 1 or 2
	Occupied    bool       `json:"occupied" db:"occupied"`
	TicketID    *uuid.UUID `json:"ticket_id,omitempty" db:"ticket_id"`
	PassengerID *uuid.UUID `json:"passenger_id,omitempty" db:"passenger_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// IsFree reports whether the berth can be handed out
func (b *Berth) IsFree() bool {
	return !b.Occupied && b.TicketID == nil && b.PassengerID == nil
}

// Occupy links the berth to a ticket/passenger pair
func (b *Berth) Occupy(ticketID, passengerID uuid.UUID) {
	t, p := ticketID, passengerID
	b.Occupied = true
	b.TicketID = &t
	b.PassengerID = &p
}

// Release clears both back-references together
func (b *Berth) Release() {
	b.Occupied = false
	b.TicketID = nil
	b.PassengerID = nil
}

// PositionOrZero returns the RAC position or 0 when absent
func (b *Berth) PositionOrZero() int {
	if b.Position == nil {
		return 0
	}
	return *b.Position
}

// BerthCodeLess orders berth codes naturally (C2 before C10)
func BerthCodeLess(a, b *Berth) bool {
	if len(a.Code) != len(b.Code) {
		return len(a.Code) < len(b.Code)
	}
	return a.Code < b.Code
}

// BerthLess is the inventory scan order: RAC position first (absent counts as
// 0), then natural code order
func BerthLess(a, b *Berth) bool {
	if a.PositionOrZero() != b.PositionOrZero() {
		return a.PositionOrZero() < b.PositionOrZero()
	}
	return BerthCodeLess(a, b)
}

// Availability is the free-count snapshot of the inventory
type Availability struct {
	ConfirmedLeft int                `json:"confirmed_left"`
	RACLeft       int                `json:"rac_left"`
	WaitingLeft   int                `json:"waiting_left"`
	ByClass       map[BerthClass]int `json:"by_class"`
}

// TotalLeft returns the number of free slots across all classes
func (a *Availability) TotalLeft() int {
	return a.ConfirmedLeft + a.RACLeft + a.WaitingLeft
}

// NewAvailability builds an Availability from per-class free counts
func NewAvailability(freeByClass map[BerthClass]int) *Availability {
	a := &Availability{ByClass: make(map[BerthClass]int, len(ConfirmedBerthClasses))}
	for _, class := range ConfirmedBerthClasses {
		a.ByClass[class] = freeByClass[class]
		a.ConfirmedLeft += freeByClass[class]
	}
	a.RACLeft = freeByClass[BerthClassRAC]
	a.WaitingLeft = freeByClass[BerthClassWaiting]
	return a
}
