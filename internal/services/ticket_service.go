package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/berth-allocator/internal/database"
	"github.com/smarttransit/berth-allocator/internal/metrics"
	"github.com/smarttransit/berth-allocator/internal/models"
)

// TicketServiceConfig holds the booking limits
type TicketServiceConfig struct {
	MaxTxRetries  int // retries after a serialization failure
	MaxPassengers int // per ticket
}

// DefaultTicketServiceConfig returns default configuration
func DefaultTicketServiceConfig() TicketServiceConfig {
	return TicketServiceConfig{
		MaxTxRetries:  3,
		MaxPassengers: 6,
	}
}

// TicketService runs bookings, cancellations and reads, each in its own
// serializable transaction
type TicketService struct {
	store     database.Store
	allocator *AllocationEngine
	promoter  *PromotionEngine
	metrics   *metrics.Recorder
	config    TicketServiceConfig
	logger    *logrus.Logger
}

// NewTicketService creates a new ticket service
func NewTicketService(
	store database.Store,
	allocator *AllocationEngine,
	promoter *PromotionEngine,
	recorder *metrics.Recorder,
	config TicketServiceConfig,
	logger *logrus.Logger,
) *TicketService {
	return &TicketService{
		store:     store,
		allocator: allocator,
		promoter:  promoter,
		metrics:   recorder,
		config:    config,
		logger:    logger,
	}
}

// ============================================================================
// WRITES
// ============================================================================

// Book allocates berths for a passenger group under one ticket
func (s *TicketService) Book(ctx context.Context, passengers []models.PassengerRequest) (*models.BookingResponse, error) {
	if len(passengers) == 0 {
		return nil, ErrNoPassengers
	}
	if s.config.MaxPassengers > 0 && len(passengers) > s.config.MaxPassengers {
		return nil, fmt.Errorf("%w: %d requested, at most %d allowed", ErrTooManyPassengers, len(passengers), s.config.MaxPassengers)
	}

	start := time.Now()
	var response *models.BookingResponse
	err := s.runInTx(ctx, "book", database.TxOptions{}, func(tx database.BookingTx) error {
		var err error
		response, err = s.allocator.Book(tx, passengers)
		return err
	})
	s.metrics.TrackOperation("book", err, time.Since(start))

	if err != nil {
		var capErr *CapacityExceededError
		switch {
		case errors.As(err, &capErr):
			s.metrics.TrackCapacityRejection()
			s.logger.WithFields(logrus.Fields{
				"requested": capErr.Requested,
				"available": capErr.Available(),
			}).Warn("Booking rejected for capacity")
		case errors.Is(err, ErrInvariantViolation):
			s.logger.WithError(err).Error("Booking aborted on invariant violation")
		case !errors.Is(err, ErrConflict):
			s.logger.WithError(err).Error("Booking failed")
		}
		return nil, err
	}

	s.metrics.TrackBooking(string(response.Status))
	s.logger.WithFields(logrus.Fields{
		"ticket_id":  response.TicketID,
		"status":     response.Status,
		"passengers": len(response.Passengers),
	}).Info("Ticket booked")

	return response, nil
}

// Cancel removes a ticket, frees its berths and runs the promotion passes
func (s *TicketService) Cancel(ctx context.Context, ticketID uuid.UUID) (*models.CancelResponse, error) {
	start := time.Now()
	var promoted *models.PromotionResult
	err := s.runInTx(ctx, "cancel", database.TxOptions{}, func(tx database.BookingTx) error {
		if _, err := tx.GetTicket(ticketID); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return ErrTicketNotFound
			}
			return fmt.Errorf("failed to get ticket: %w", err)
		}

		if _, err := tx.ReleaseTicketBerths(ticketID); err != nil {
			return fmt.Errorf("failed to release berths: %w", err)
		}
		if _, err := tx.DeletePassengersByTicket(ticketID); err != nil {
			return fmt.Errorf("failed to delete passengers: %w", err)
		}
		if err := tx.DeleteTicket(ticketID); err != nil {
			return fmt.Errorf("failed to delete ticket: %w", err)
		}

		var err error
		promoted, err = s.promoter.Run(tx)
		return err
	})
	s.metrics.TrackOperation("cancel", err, time.Since(start))

	if err != nil {
		switch {
		case errors.Is(err, ErrTicketNotFound), errors.Is(err, ErrConflict):
		case errors.Is(err, ErrInvariantViolation):
			s.logger.WithError(err).WithField("ticket_id", ticketID).Error("Cancellation aborted on invariant violation")
		default:
			s.logger.WithError(err).WithField("ticket_id", ticketID).Error("Cancellation failed")
		}
		return nil, err
	}

	s.metrics.TrackCancellation()
	s.metrics.TrackPromotions(RACToConfirmedPass.Name, len(promoted.RACToConfirmed))
	s.metrics.TrackPromotions(WaitingToRACPass.Name, len(promoted.WaitingToRAC))
	s.logger.WithFields(logrus.Fields{
		"ticket_id": ticketID,
		"promoted":  promoted.Count(),
	}).Info("Ticket cancelled")

	return &models.CancelResponse{
		Message:  "Ticket cancelled and promotions (if any) completed.",
		TicketID: ticketID,
		Promoted: *promoted,
	}, nil
}

// ============================================================================
// READS
// ============================================================================

// GetAvailability counts free berths per class
func (s *TicketService) GetAvailability(ctx context.Context) (*models.Availability, error) {
	var availability *models.Availability
	err := s.runInTx(ctx, "availability", database.TxOptions{ReadOnly: true}, func(tx database.BookingTx) error {
		counts, err := tx.CountFreeBerthsByClass()
		if err != nil {
			return fmt.Errorf("failed to count free berths: %w", err)
		}
		availability = models.NewAvailability(counts)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return availability, nil
}

// ListBooked returns every ticket with its passengers, oldest first
func (s *TicketService) ListBooked(ctx context.Context) (*models.BookedTicketsResponse, error) {
	var response *models.BookedTicketsResponse
	err := s.runInTx(ctx, "list_booked", database.TxOptions{ReadOnly: true}, func(tx database.BookingTx) error {
		tickets, err := tx.ListTickets()
		if err != nil {
			return fmt.Errorf("failed to list tickets: %w", err)
		}
		passengers, err := tx.ListPassengers()
		if err != nil {
			return fmt.Errorf("failed to list passengers: %w", err)
		}
		berths, err := tx.ListOccupiedBerths()
		if err != nil {
			return fmt.Errorf("failed to list occupied berths: %w", err)
		}

		byTicket := make(map[uuid.UUID][]models.Passenger, len(tickets))
		for _, p := range passengers {
			byTicket[p.TicketID] = append(byTicket[p.TicketID], p)
		}
		seats := seatIndex(berths)

		response = &models.BookedTicketsResponse{
			Total:   len(tickets),
			Tickets: make([]models.BookedTicket, 0, len(tickets)),
		}
		for _, t := range tickets {
			response.Tickets = append(response.Tickets, buildBookedTicket(t, byTicket[t.ID], seats))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

// GetTicket returns one ticket with its passengers
func (s *TicketService) GetTicket(ctx context.Context, ticketID uuid.UUID) (*models.BookedTicket, error) {
	var booked *models.BookedTicket
	err := s.runInTx(ctx, "get_ticket", database.TxOptions{ReadOnly: true}, func(tx database.BookingTx) error {
		ticket, err := tx.GetTicket(ticketID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return ErrTicketNotFound
			}
			return fmt.Errorf("failed to get ticket: %w", err)
		}
		passengers, err := tx.ListPassengersByTicket(ticketID)
		if err != nil {
			return fmt.Errorf("failed to list passengers: %w", err)
		}
		berths, err := tx.ListBerthsByTicket(ticketID)
		if err != nil {
			return fmt.Errorf("failed to list berths: %w", err)
		}

		result := buildBookedTicket(*ticket, passengers, seatIndex(berths))
		booked = &result
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booked, nil
}

// runInTx runs fn in a store transaction, retrying serialization failures up
// to MaxTxRetries times before giving up with ErrConflict
func (s *TicketService) runInTx(ctx context.Context, operation string, opts database.TxOptions, fn func(tx database.BookingTx) error) error {
	attempts := s.config.MaxTxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = s.store.RunInTx(ctx, opts, fn)
		if err == nil || !database.IsRetryable(err) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if attempt < attempts {
			s.metrics.TrackRetry(operation)
			s.logger.WithFields(logrus.Fields{
				"operation": operation,
				"attempt":   attempt,
			}).WithError(err).Warn("Retrying transaction after serialization failure")
		}
	}

	s.metrics.TrackConflict(operation)
	s.logger.WithFields(logrus.Fields{
		"operation": operation,
		"attempts":  attempts,
	}).WithError(err).Warn("Transaction retries exhausted")
	return fmt.Errorf("%w: %s failed after %d attempts: %v", ErrConflict, operation, attempts, err)
}

// seatIndex maps passenger id to the berth it holds
func seatIndex(berths []models.Berth) map[uuid.UUID]models.Berth {
	seats := make(map[uuid.UUID]models.Berth, len(berths))
	for _, b := range berths {
		if b.PassengerID != nil {
			seats[*b.PassengerID] = b
		}
	}
	return seats
}

func buildBookedTicket(ticket models.Ticket, passengers []models.Passenger, seats map[uuid.UUID]models.Berth) models.BookedTicket {
	booked := models.BookedTicket{
		TicketID:   ticket.ID,
		Status:     ticket.Status,
		CreatedAt:  ticket.CreatedAt,
		Passengers: make([]models.BookedPassenger, 0, len(passengers)),
	}
	for _, p := range passengers {
		bp := models.BookedPassenger{
			ID:      p.ID,
			Name:    p.Name,
			Age:     p.Age,
			Gender:  p.Gender,
			IsChild: p.IsChild,
		}
		if b, ok := seats[p.ID]; ok {
			code, class := b.Code, b.Class
			bp.BerthNumber = &code
			bp.BerthType = &class
		}
		bp.Status = models.PassengerStatusForClass(bp.BerthType)
		booked.Passengers = append(booked.Passengers, bp)
	}
	return booked
}
