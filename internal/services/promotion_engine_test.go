package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/smarttransit/berth-allocator/internal/database"
	"github.com/smarttransit/berth-allocator/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func heldBerth(b models.Berth, ticketID, passengerID uuid.UUID) models.Berth {
	b.Occupy(ticketID, passengerID)
	return b
}

func TestPlanPromotion(t *testing.T) {
	ticketID := uuid.New()
	p1 := models.Passenger{ID: uuid.New(), TicketID: ticketID, Seq: 1}
	kid := models.Passenger{ID: uuid.New(), TicketID: ticketID, Seq: 2, IsChild: true}
	p3 := models.Passenger{ID: uuid.New(), TicketID: ticketID, Seq: 3}
	p4 := models.Passenger{ID: uuid.New(), TicketID: ticketID, Seq: 4}
	passengers := []models.Passenger{p1, kid, p3, p4}

	held := []models.Berth{
		heldBerth(racBerth("R1-1", 1), ticketID, p1.ID),
		heldBerth(confirmedBerth("C5", models.BerthClassUpper), ticketID, p3.ID),
		heldBerth(racBerth("R1-2", 2), ticketID, p4.ID),
	}

	t.Run("Moves Only Source Class Holders In Order", func(t *testing.T) {
		free := []models.Berth{
			confirmedBerth("C1", models.BerthClassUpper),
			confirmedBerth("C2", models.BerthClassMiddle),
			confirmedBerth("C3", models.BerthClassLower),
		}
		moves := planPromotion(passengers, held, models.BerthClassRAC, free)
		require.Len(t, moves, 2)
		assert.Equal(t, p1.ID, moves[0].PassengerID)
		assert.Equal(t, "R1-1", moves[0].From.Code)
		assert.Equal(t, "C1", moves[0].To.Code)
		assert.Equal(t, p4.ID, moves[1].PassengerID)
		assert.Equal(t, "R1-2", moves[1].From.Code)
		assert.Equal(t, "C2", moves[1].To.Code)
	})

	t.Run("Stops When Free Berths Run Out", func(t *testing.T) {
		free := []models.Berth{confirmedBerth("C7", models.BerthClassLower)}
		moves := planPromotion(passengers, held, models.BerthClassRAC, free)
		require.Len(t, moves, 1)
		assert.Equal(t, p1.ID, moves[0].PassengerID)
	})

	t.Run("Nothing Free", func(t *testing.T) {
		assert.Empty(t, planPromotion(passengers, held, models.BerthClassRAC, nil))
	})

	t.Run("No Holders Of Source Class", func(t *testing.T) {
		free := []models.Berth{racBerth("R2-1", 1)}
		assert.Empty(t, planPromotion(passengers, held, models.BerthClassWaiting, free))
	})
}

func TestCancel_NotFound(t *testing.T) {
	svc, _ := newTestService(t, database.DefaultBerthCatalog())

	_, err := svc.Cancel(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrTicketNotFound)

	_, err = svc.GetTicket(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestCancel_FreesBerthsWithoutPromotion(t *testing.T) {
	svc, store := newTestService(t, database.DefaultBerthCatalog())
	resp := book(t, svc, adult("A", 30, models.GenderMale), adult("B", 2, models.GenderFemale))

	cancelled, err := svc.Cancel(context.Background(), resp.TicketID)
	require.NoError(t, err)
	assert.Equal(t, "Ticket cancelled and promotions (if any) completed.", cancelled.Message)
	assert.Equal(t, resp.TicketID, cancelled.TicketID)
	assert.Empty(t, cancelled.Promoted.RACToConfirmed)
	assert.Empty(t, cancelled.Promoted.WaitingToRAC)

	availability, err := svc.GetAvailability(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 63, availability.ConfirmedLeft)

	_, err = svc.GetTicket(context.Background(), resp.TicketID)
	assert.ErrorIs(t, err, ErrTicketNotFound)
	requireConsistent(t, svc, store, 91)
}

func TestCancel_ScenarioC(t *testing.T) {
	svc, store := newTestService(t, []models.Berth{
		confirmedBerth("C1", models.BerthClassUpper),
		confirmedBerth("C2", models.BerthClassMiddle),
		racBerth("R1-1", 1),
		racBerth("R1-2", 2),
		waitingBerth("W1"),
		waitingBerth("W2"),
	})

	confirmed := book(t, svc, adult("A", 30, models.GenderMale), adult("B", 30, models.GenderMale))
	require.Equal(t, models.TicketStatusConfirmed, confirmed.Status)
	rac := book(t, svc, adult("C", 30, models.GenderFemale), adult("D", 30, models.GenderFemale))
	require.Equal(t, models.TicketStatusRAC, rac.Status)
	waiting := book(t, svc, adult("E", 30, models.GenderOther))
	require.Equal(t, models.TicketStatusWaiting, waiting.Status)

	resp, err := svc.Cancel(context.Background(), confirmed.TicketID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{rac.TicketID}, resp.Promoted.RACToConfirmed)
	assert.Equal(t, []uuid.UUID{waiting.TicketID}, resp.Promoted.WaitingToRAC)

	promotedRAC := getTicket(t, svc, rac.TicketID)
	assert.Equal(t, models.TicketStatusConfirmed, promotedRAC.Status)
	assert.Equal(t, []string{"C1", "C2"}, berthCodes(promotedRAC))

	promotedWaiting := getTicket(t, svc, waiting.TicketID)
	assert.Equal(t, models.TicketStatusRAC, promotedWaiting.Status)
	assert.Equal(t, []string{"R1-1"}, berthCodes(promotedWaiting))
	assert.Equal(t, models.PassengerStatusRAC, promotedWaiting.Passengers[0].Status)

	availability, err := svc.GetAvailability(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, availability.ConfirmedLeft)
	assert.Equal(t, 1, availability.RACLeft)
	assert.Equal(t, 2, availability.WaitingLeft)

	requireConsistent(t, svc, store, 6)
}

func TestCancel_CascadeOrdering(t *testing.T) {
	svc, store := newTestService(t, []models.Berth{
		confirmedBerth("C1", models.BerthClassLower),
		racBerth("R1-1", 1),
		racBerth("R1-2", 2),
	})

	holder := book(t, svc, adult("A", 30, models.GenderFemale))
	older := book(t, svc, adult("B", 30, models.GenderFemale))
	newer := book(t, svc, adult("C", 30, models.GenderFemale))

	resp, err := svc.Cancel(context.Background(), holder.TicketID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{older.TicketID}, resp.Promoted.RACToConfirmed)
	assert.Empty(t, resp.Promoted.WaitingToRAC)

	assert.Equal(t, models.TicketStatusConfirmed, getTicket(t, svc, older.TicketID).Status)
	assert.Equal(t, []string{"C1"}, berthCodes(getTicket(t, svc, older.TicketID)))

	unchanged := getTicket(t, svc, newer.TicketID)
	assert.Equal(t, models.TicketStatusRAC, unchanged.Status)
	assert.Equal(t, []string{"R1-2"}, berthCodes(unchanged))

	requireConsistent(t, svc, store, 3)
}

func TestCancel_SingleTicketPromotionCap(t *testing.T) {
	inventory := []models.Berth{}
	for _, code := range []string{"C1", "C2", "C3", "C4", "C5"} {
		inventory = append(inventory, confirmedBerth(code, models.BerthClassMiddle))
	}
	inventory = append(inventory, racBerth("R1-1", 1), racBerth("R1-2", 2), racBerth("R2-1", 1), racBerth("R2-2", 2))
	svc, store := newTestService(t, inventory)

	group := book(t, svc,
		adult("A", 30, models.GenderMale),
		adult("B", 30, models.GenderMale),
		adult("C", 30, models.GenderMale),
		adult("D", 30, models.GenderMale),
		adult("E", 30, models.GenderMale),
	)
	first := book(t, svc, adult("F", 30, models.GenderMale))
	second := book(t, svc, adult("G", 30, models.GenderMale))

	resp, err := svc.Cancel(context.Background(), group.TicketID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first.TicketID}, resp.Promoted.RACToConfirmed)

	assert.Equal(t, models.TicketStatusRAC, getTicket(t, svc, second.TicketID).Status)

	availability, err := svc.GetAvailability(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, availability.ConfirmedLeft)
	assert.Equal(t, 3, availability.RACLeft)

	requireConsistent(t, svc, store, 9)
}

// A RAC ticket with more passengers than freed confirmed berths is relabelled
// confirmed while some of its passengers stay on RAC berths.
func TestCancel_PartialPromotionKeepsMismatchedLabel(t *testing.T) {
	svc, store := newTestService(t, []models.Berth{
		confirmedBerth("C1", models.BerthClassLower),
		confirmedBerth("C2", models.BerthClassUpper),
		racBerth("R1-1", 1),
		racBerth("R1-2", 2),
		waitingBerth("W1"),
	})

	holder := book(t, svc, adult("A", 30, models.GenderFemale))
	blocker := book(t, svc, adult("M", 30, models.GenderMale))
	pair := book(t, svc, adult("B", 30, models.GenderFemale), adult("C", 30, models.GenderMale))
	require.Equal(t, models.TicketStatusRAC, pair.Status)

	resp, err := svc.Cancel(context.Background(), holder.TicketID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{pair.TicketID}, resp.Promoted.RACToConfirmed)

	ticket := getTicket(t, svc, pair.TicketID)
	assert.Equal(t, models.TicketStatusConfirmed, ticket.Status)
	assert.Equal(t, "C1", *ticket.Passengers[0].BerthNumber)
	assert.Equal(t, models.PassengerStatusConfirmed, ticket.Passengers[0].Status)
	assert.Equal(t, "R1-2", *ticket.Passengers[1].BerthNumber)
	assert.Equal(t, models.PassengerStatusRAC, ticket.Passengers[1].Status)

	// freeing another confirmed berth does not pick up the stranded passenger
	// because the ticket no longer carries the rac label
	resp, err = svc.Cancel(context.Background(), blocker.TicketID)
	require.NoError(t, err)
	assert.Empty(t, resp.Promoted.RACToConfirmed)

	ticket = getTicket(t, svc, pair.TicketID)
	assert.Equal(t, "R1-2", *ticket.Passengers[1].BerthNumber)

	availability, err := svc.GetAvailability(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, availability.ConfirmedLeft)

	requireConsistent(t, svc, store, 5)
}

func TestCancel_WaitingPromotionObservesPass1(t *testing.T) {
	svc, store := newTestService(t, []models.Berth{
		confirmedBerth("C1", models.BerthClassUpper),
		racBerth("R1-1", 1),
		waitingBerth("W1"),
		waitingBerth("W2"),
	})

	holder := book(t, svc, adult("A", 30, models.GenderMale))
	rac := book(t, svc, adult("B", 30, models.GenderMale))
	waiting := book(t, svc, adult("C", 30, models.GenderMale), adult("D", 30, models.GenderMale))
	require.Equal(t, models.TicketStatusWaiting, waiting.Status)

	resp, err := svc.Cancel(context.Background(), holder.TicketID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{rac.TicketID}, resp.Promoted.RACToConfirmed)
	assert.Equal(t, []uuid.UUID{waiting.TicketID}, resp.Promoted.WaitingToRAC)

	ticket := getTicket(t, svc, waiting.TicketID)
	assert.Equal(t, models.TicketStatusRAC, ticket.Status)
	assert.Equal(t, "R1-1", *ticket.Passengers[0].BerthNumber)
	assert.Equal(t, "W2", *ticket.Passengers[1].BerthNumber)
	assert.Equal(t, models.PassengerStatusWaiting, ticket.Passengers[1].Status)

	requireConsistent(t, svc, store, 4)
}
