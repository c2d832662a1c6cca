package services

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/berth-allocator/internal/database"
	"github.com/smarttransit/berth-allocator/internal/metrics"
	"github.com/smarttransit/berth-allocator/internal/models"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func confirmedBerth(code string, class models.BerthClass) models.Berth {
	return models.Berth{ID: uuid.New(), Code: code, Class: class}
}

func racBerth(code string, position int) models.Berth {
	p := position
	return models.Berth{ID: uuid.New(), Code: code, Class: models.BerthClassRAC, Position: &p}
}

func waitingBerth(code string) models.Berth {
	return models.Berth{ID: uuid.New(), Code: code, Class: models.BerthClassWaiting}
}

// tickingClock returns a clock that advances one second per call so every
// ticket gets a distinct created_at
func tickingClock() func() time.Time {
	var mu sync.Mutex
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func newTestService(t *testing.T, berths []models.Berth) (*TicketService, *database.ArenaStore) {
	t.Helper()
	store := database.NewArenaStore(berths, database.WithClock(tickingClock()))
	return newServiceWithStore(store), store
}

func newServiceWithStore(store database.Store) *TicketService {
	logger := testLogger()
	return NewTicketService(
		store,
		NewAllocationEngine(DefaultBerthPolicy(), logger),
		NewPromotionEngine(logger),
		metrics.NewRecorder(prometheus.NewRegistry()),
		DefaultTicketServiceConfig(),
		logger,
	)
}

func adult(name string, age int, gender models.Gender) models.PassengerRequest {
	return models.PassengerRequest{Name: name, Age: age, Gender: gender}
}

func book(t *testing.T, svc *TicketService, passengers ...models.PassengerRequest) *models.BookingResponse {
	t.Helper()
	resp, err := svc.Book(context.Background(), passengers)
	require.NoError(t, err)
	return resp
}

func getTicket(t *testing.T, svc *TicketService, id uuid.UUID) *models.BookedTicket {
	t.Helper()
	ticket, err := svc.GetTicket(context.Background(), id)
	require.NoError(t, err)
	return ticket
}

// berthCodes returns the berth codes held by a ticket's passengers in passenger order
func berthCodes(ticket *models.BookedTicket) []string {
	codes := []string{}
	for _, p := range ticket.Passengers {
		if p.BerthNumber != nil {
			codes = append(codes, *p.BerthNumber)
		}
	}
	return codes
}

// requireConsistent checks the inventory invariants of the committed state
func requireConsistent(t *testing.T, svc *TicketService, store *database.ArenaStore, inventorySize int) {
	t.Helper()
	berths := store.Berths()
	require.Len(t, berths, inventorySize)

	holders := map[uuid.UUID]string{}
	for _, b := range berths {
		if !b.Occupied {
			require.Nil(t, b.TicketID, "free berth %s has a ticket", b.Code)
			require.Nil(t, b.PassengerID, "free berth %s has a passenger", b.Code)
			continue
		}
		require.NotNil(t, b.TicketID)
		require.NotNil(t, b.PassengerID)
		prev, dup := holders[*b.PassengerID]
		require.False(t, dup, "passenger holds %s and %s", prev, b.Code)
		holders[*b.PassengerID] = b.Code
	}

	booked, err := svc.ListBooked(context.Background())
	require.NoError(t, err)
	seated := 0
	for _, ticket := range booked.Tickets {
		for _, p := range ticket.Passengers {
			if p.IsChild {
				require.Nil(t, p.BerthNumber)
				require.Equal(t, models.PassengerStatusNoBerth, p.Status)
				continue
			}
			require.NotNil(t, p.BerthNumber, "adult %s without a berth", p.Name)
			seated++
		}
	}
	require.Equal(t, len(holders), seated)
}
