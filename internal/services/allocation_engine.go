package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/berth-allocator/internal/database"
	"github.com/smarttransit/berth-allocator/internal/models"
)

// AllocationEngine books a passenger group against the free inventory.
// It runs inside the caller's transaction and never retries.
type AllocationEngine struct {
	policy BerthPolicy
	logger *logrus.Logger
}

// NewAllocationEngine creates an allocation engine using the given berth policy
func NewAllocationEngine(policy BerthPolicy, logger *logrus.Logger) *AllocationEngine {
	return &AllocationEngine{
		policy: policy,
		logger: logger,
	}
}

// berthPools holds the free berths of one snapshot in scan order
type berthPools struct {
	confirmed map[models.BerthClass][]models.Berth
	rac       []models.Berth
	waiting   []models.Berth
}

func newBerthPools(free []models.Berth) *berthPools {
	pools := &berthPools{confirmed: make(map[models.BerthClass][]models.Berth)}
	for _, b := range free {
		switch {
		case b.Class.IsConfirmed():
			pools.confirmed[b.Class] = append(pools.confirmed[b.Class], b)
		case b.Class == models.BerthClassRAC:
			pools.rac = append(pools.rac, b)
		case b.Class == models.BerthClassWaiting:
			pools.waiting = append(pools.waiting, b)
		}
	}
	return pools
}

func (p *berthPools) confirmedCount() int {
	n := 0
	for _, berths := range p.confirmed {
		n += len(berths)
	}
	return n
}

// takeConfirmed removes and returns the first free berth of the first class in
// order that still has one
func (p *berthPools) takeConfirmed(order []models.BerthClass) *models.Berth {
	for _, class := range order {
		if berths := p.confirmed[class]; len(berths) > 0 {
			b := berths[0]
			p.confirmed[class] = berths[1:]
			return &b
		}
	}
	return nil
}

func (p *berthPools) takeRAC() *models.Berth {
	if len(p.rac) == 0 {
		return nil
	}
	b := p.rac[0]
	p.rac = p.rac[1:]
	return &b
}

func (p *berthPools) takeWaiting() *models.Berth {
	if len(p.waiting) == 0 {
		return nil
	}
	b := p.waiting[0]
	p.waiting = p.waiting[1:]
	return &b
}

// plannedPassenger is the decision for one requested passenger.
// Berth is nil for children.
type plannedPassenger struct {
	Request models.PassengerRequest
	Berth   *models.Berth
	Status  models.PassengerStatus
}

// allocationPlan is the full outcome of a booking before it is persisted
type allocationPlan struct {
	Status     models.TicketStatus
	Passengers []plannedPassenger
}

// planAllocation decides a berth for every passenger in input order. It does
// not touch the store; pools is consumed.
func planAllocation(policy BerthPolicy, passengers []models.PassengerRequest, pools *berthPools) (*allocationPlan, error) {
	groupHasChild := false
	adults := 0
	for _, p := range passengers {
		if p.IsChild() {
			groupHasChild = true
		} else {
			adults++
		}
	}

	free := pools.confirmedCount() + len(pools.rac) + len(pools.waiting)
	if adults > free {
		return nil, &CapacityExceededError{
			Requested: adults,
			Confirmed: pools.confirmedCount(),
			RAC:       len(pools.rac),
			Waiting:   len(pools.waiting),
		}
	}

	plan := &allocationPlan{
		Passengers: make([]plannedPassenger, 0, len(passengers)),
	}
	seated := make([]models.BerthClass, 0, adults)

	for i, p := range passengers {
		if p.IsChild() {
			plan.Passengers = append(plan.Passengers, plannedPassenger{Request: p, Status: models.PassengerStatusNoBerth})
			continue
		}

		berth := pools.takeConfirmed(policy.PreferenceOrder(p, groupHasChild))
		if berth == nil {
			berth = pools.takeRAC()
		}
		if berth == nil {
			berth = pools.takeWaiting()
		}
		if berth == nil {
			return nil, fmt.Errorf("%w: no slot left for passenger %d after capacity check", ErrInvariantViolation, i+1)
		}

		class := berth.Class
		seated = append(seated, class)
		plan.Passengers = append(plan.Passengers, plannedPassenger{
			Request: p,
			Berth:   berth,
			Status:  models.PassengerStatusForClass(&class),
		})
	}

	plan.Status = models.DeriveTicketStatus(seated)
	return plan, nil
}

// Book allocates berths for the group and persists the ticket, its passengers
// and the berth updates through tx
func (e *AllocationEngine) Book(tx database.BookingTx, passengers []models.PassengerRequest) (*models.BookingResponse, error) {
	free, err := tx.ListFreeBerths(
		models.BerthClassLower,
		models.BerthClassMiddle,
		models.BerthClassUpper,
		models.BerthClassSideLower,
		models.BerthClassRAC,
		models.BerthClassWaiting,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan free berths: %w", err)
	}

	plan, err := planAllocation(e.policy, passengers, newBerthPools(free))
	if err != nil {
		return nil, err
	}

	ticket := &models.Ticket{
		ID:     uuid.New(),
		Status: plan.Status,
	}
	if err := tx.InsertTicket(ticket); err != nil {
		return nil, fmt.Errorf("failed to insert ticket: %w", err)
	}

	response := &models.BookingResponse{
		Message:    fmt.Sprintf("Ticket Booked (%s)", ticket.Status),
		TicketID:   ticket.ID,
		Status:     ticket.Status,
		Passengers: make([]models.PassengerAssignment, 0, len(plan.Passengers)),
	}

	for i, planned := range plan.Passengers {
		passenger := &models.Passenger{
			ID:       uuid.New(),
			TicketID: ticket.ID,
			Seq:      i + 1,
			Name:     planned.Request.Name,
			Age:      planned.Request.Age,
			Gender:   planned.Request.Gender,
			IsChild:  planned.Request.IsChild(),
		}
		if err := tx.InsertPassenger(passenger); err != nil {
			return nil, fmt.Errorf("failed to insert passenger: %w", err)
		}

		assignment := models.PassengerAssignment{
			Name:    passenger.Name,
			Age:     passenger.Age,
			Gender:  passenger.Gender,
			IsChild: passenger.IsChild,
			Status:  planned.Status,
		}

		if planned.Berth != nil {
			if err := tx.OccupyBerth(planned.Berth.ID, ticket.ID, passenger.ID); err != nil {
				if errors.Is(err, database.ErrBerthUnavailable) {
					return nil, fmt.Errorf("%w: berth %s taken inside booking transaction: %v", ErrInvariantViolation, planned.Berth.Code, err)
				}
				return nil, fmt.Errorf("failed to occupy berth %s: %w", planned.Berth.Code, err)
			}
			code, class := planned.Berth.Code, planned.Berth.Class
			assignment.Berth = &code
			assignment.BerthType = &class
		}

		response.Passengers = append(response.Passengers, assignment)
	}

	e.logger.WithFields(logrus.Fields{
		"ticket_id":  ticket.ID,
		"status":     ticket.Status,
		"passengers": len(passengers),
	}).Debug("Ticket allocated")

	return response, nil
}
