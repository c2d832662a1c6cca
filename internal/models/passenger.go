package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	// ChildAgeLimit is the age below which a passenger travels without a berth
	ChildAgeLimit = 5
	// SeniorAge is the age from which a passenger prefers a lower berth
	SeniorAge = 60
)

// Gender of a passenger
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// PassengerStatus is the per-passenger allocation outcome
type PassengerStatus string

const (
	PassengerStatusConfirmed PassengerStatus = "confirmed"
	PassengerStatusRAC       PassengerStatus = "rac"
	PassengerStatusWaiting   PassengerStatus = "waiting"
	PassengerStatusNoBerth   PassengerStatus = "no-berth"
)

// IsChildAge reports whether a passenger of this age is a child
func IsChildAge(age int) bool {
	return age < ChildAgeLimit
}

// PassengerStatusForClass maps the class of an assigned berth to a passenger status.
// A nil class means the passenger holds no berth.
func PassengerStatusForClass(class *BerthClass) PassengerStatus {
	if class == nil {
		return PassengerStatusNoBerth
	}
	switch {
	case class.IsConfirmed():
		return PassengerStatusConfirmed
	case *class == BerthClassRAC:
		return PassengerStatusRAC
	case *class == BerthClassWaiting:
		return PassengerStatusWaiting
	}
	return PassengerStatusNoBerth
}

// Passenger is one traveler belonging to exactly one ticket.
// Seq keeps the input order within the ticket.
type Passenger struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TicketID  uuid.UUID `json:"ticket_id" db:"ticket_id"`
	Seq       int       `json:"seq" db:"seq"`
	Name      string    `json:"name" db:"name"`
	Age       int       `json:"age" db:"age"`
	Gender    Gender    `json:"gender" db:"gender"`
	IsChild   bool      `json:"is_child" db:"is_child"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// PassengerRequest is a single traveler in a booking request
type PassengerRequest struct {
	Name   string `json:"name" binding:"required,max=100"`
	Age    int    `json:"age" binding:"gte=0,lte=125"`
	Gender Gender `json:"gender" binding:"required,oneof=male female other"`
}

// IsChild reports whether the requested traveler is a child
func (p PassengerRequest) IsChild() bool {
	return IsChildAge(p.Age)
}

// PassengerAssignment is the outcome of allocation for one requested passenger
type PassengerAssignment struct {
	Name      string          `json:"name"`
	Age       int             `json:"age"`
	Gender    Gender          `json:"gender"`
	IsChild   bool            `json:"is_child"`
	Status    PassengerStatus `json:"status"`
	Berth     *string         `json:"berth"`
	BerthType *BerthClass     `json:"berth_type,omitempty"`
}

// BookedPassenger is the read-side view of a passenger with its berth resolved
type BookedPassenger struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Age         int             `json:"age"`
	Gender      Gender          `json:"gender"`
	IsChild     bool            `json:"is_child"`
	Status      PassengerStatus `json:"status"`
	BerthNumber *string         `json:"berth_number"`
	BerthType   *BerthClass     `json:"berth_type"`
}
