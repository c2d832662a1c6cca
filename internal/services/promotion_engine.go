package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/berth-allocator/internal/database"
	"github.com/smarttransit/berth-allocator/internal/models"
)

// PromotionPass moves the oldest ticket of one status up a level
type PromotionPass struct {
	Name          string
	From          models.TicketStatus
	To            models.TicketStatus
	SourceClass   models.BerthClass
	TargetClasses []models.BerthClass
}

var (
	// RACToConfirmedPass moves RAC passengers onto free confirmed berths in code order
	RACToConfirmedPass = PromotionPass{
		Name:          "rac_to_confirmed",
		From:          models.TicketStatusRAC,
		To:            models.TicketStatusConfirmed,
		SourceClass:   models.BerthClassRAC,
		TargetClasses: models.ConfirmedBerthClasses,
	}

	// WaitingToRACPass moves waiting passengers onto free RAC berths in position order
	WaitingToRACPass = PromotionPass{
		Name:          "waiting_to_rac",
		From:          models.TicketStatusWaiting,
		To:            models.TicketStatusRAC,
		SourceClass:   models.BerthClassWaiting,
		TargetClasses: []models.BerthClass{models.BerthClassRAC},
	}
)

// reassignment moves one passenger from the berth it holds to a free one
type reassignment struct {
	PassengerID uuid.UUID
	From        models.Berth
	To          models.Berth
}

// planPromotion pairs the ticket's passengers holding a berth of sourceClass,
// in passenger order, with free target berths in scan order. Passengers beyond
// the number of free berths stay where they are.
func planPromotion(passengers []models.Passenger, held []models.Berth, sourceClass models.BerthClass, free []models.Berth) []reassignment {
	bySeat := make(map[uuid.UUID]models.Berth, len(held))
	for _, b := range held {
		if b.Class == sourceClass && b.PassengerID != nil {
			bySeat[*b.PassengerID] = b
		}
	}

	moves := []reassignment{}
	for _, p := range passengers {
		if len(moves) == len(free) {
			break
		}
		from, ok := bySeat[p.ID]
		if !ok {
			continue
		}
		moves = append(moves, reassignment{
			PassengerID: p.ID,
			From:        from,
			To:          free[len(moves)],
		})
	}
	return moves
}

// PromotionEngine fills berths freed by a cancellation. Each pass promotes at
// most one ticket; the ticket is relabelled even when only some of its
// passengers could move.
type PromotionEngine struct {
	passes []PromotionPass
	logger *logrus.Logger
}

// NewPromotionEngine creates a promotion engine running RAC→confirmed then waiting→RAC
func NewPromotionEngine(logger *logrus.Logger) *PromotionEngine {
	return &PromotionEngine{
		passes: []PromotionPass{RACToConfirmedPass, WaitingToRACPass},
		logger: logger,
	}
}

// Run executes every pass in order inside tx
func (e *PromotionEngine) Run(tx database.BookingTx) (*models.PromotionResult, error) {
	result := &models.PromotionResult{
		RACToConfirmed: []uuid.UUID{},
		WaitingToRAC:   []uuid.UUID{},
	}

	for _, pass := range e.passes {
		ticketID, err := e.runPass(tx, pass)
		if err != nil {
			return nil, err
		}
		if ticketID == nil {
			continue
		}
		switch pass.Name {
		case RACToConfirmedPass.Name:
			result.RACToConfirmed = append(result.RACToConfirmed, *ticketID)
		case WaitingToRACPass.Name:
			result.WaitingToRAC = append(result.WaitingToRAC, *ticketID)
		}
	}

	return result, nil
}

// runPass returns the id of the promoted ticket, or nil if the pass had
// nothing to do
func (e *PromotionEngine) runPass(tx database.BookingTx, pass PromotionPass) (*uuid.UUID, error) {
	// free
	free, err := tx.ListFreeBerths(pass.TargetClasses...)
	if err != nil {
		return nil, fmt.Errorf("failed to scan free berths for %s: %w", pass.Name, err)
	}
	if len(free) == 0 {
		return nil, nil
	}

	// select oldest eligible
	ticket, err := tx.OldestTicketByStatus(pass.From)
	if err != nil {
		return nil, fmt.Errorf("failed to select ticket for %s: %w", pass.Name, err)
	}
	if ticket == nil {
		return nil, nil
	}

	passengers, err := tx.ListPassengersByTicket(ticket.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load passengers for %s: %w", pass.Name, err)
	}
	held, err := tx.ListBerthsByTicket(ticket.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load berths for %s: %w", pass.Name, err)
	}

	// reassign up to the number of free berths
	moves := planPromotion(passengers, held, pass.SourceClass, free)
	for _, m := range moves {
		if err := tx.ReleaseBerth(m.From.ID); err != nil {
			return nil, fmt.Errorf("failed to vacate berth %s: %w", m.From.Code, err)
		}
		if err := tx.OccupyBerth(m.To.ID, ticket.ID, m.PassengerID); err != nil {
			if errors.Is(err, database.ErrBerthUnavailable) {
				return nil, fmt.Errorf("%w: berth %s taken during %s: %v", ErrInvariantViolation, m.To.Code, pass.Name, err)
			}
			return nil, fmt.Errorf("failed to occupy berth %s: %w", m.To.Code, err)
		}
	}

	// relabel
	if err := tx.UpdateTicketStatus(ticket.ID, pass.To); err != nil {
		return nil, fmt.Errorf("failed to relabel ticket for %s: %w", pass.Name, err)
	}

	fields := logrus.Fields{
		"pass":      pass.Name,
		"ticket_id": ticket.ID,
		"moved":     len(moves),
		"eligible":  countHolding(held, pass.SourceClass),
	}
	if len(moves) < countHolding(held, pass.SourceClass) {
		e.logger.WithFields(fields).Warn("Ticket relabelled with passengers left behind")
	} else {
		e.logger.WithFields(fields).Info("Ticket promoted")
	}

	id := ticket.ID
	return &id, nil
}

func countHolding(held []models.Berth, class models.BerthClass) int {
	n := 0
	for _, b := range held {
		if b.Class == class {
			n++
		}
	}
	return n
}
