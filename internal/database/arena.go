package database

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/smarttransit/berth-allocator/internal/models"
)

// ErrStoreClosed is returned by an ArenaStore after Close
var ErrStoreClosed = errors.New("store is closed")

// ArenaStore keeps the inventory and bookings in memory. Transactions run one
// at a time against a private copy of the arena, which replaces the committed
// state only when the transaction succeeds.
type ArenaStore struct {
	mu     sync.Mutex
	state  *arena
	closed bool
	now    func() time.Time
}

// ArenaOption configures an ArenaStore
type ArenaOption func(*ArenaStore)

// WithClock overrides the clock used for created_at stamps
func WithClock(now func() time.Time) ArenaOption {
	return func(s *ArenaStore) {
		s.now = now
	}
}

type arena struct {
	berths     []models.Berth
	berthIndex map[uuid.UUID]int
	tickets    map[uuid.UUID]models.Ticket
	passengers map[uuid.UUID]models.Passenger
	nextSeq    int64
}

// NewArenaStore creates an in-memory store holding the given inventory
func NewArenaStore(berths []models.Berth, opts ...ArenaOption) *ArenaStore {
	a := &arena{
		berths:     make([]models.Berth, len(berths)),
		berthIndex: make(map[uuid.UUID]int, len(berths)),
		tickets:    make(map[uuid.UUID]models.Ticket),
		passengers: make(map[uuid.UUID]models.Passenger),
	}
	copy(a.berths, berths)
	sort.SliceStable(a.berths, func(i, j int) bool { return models.BerthLess(&a.berths[i], &a.berths[j]) })
	for i, b := range a.berths {
		a.berthIndex[b.ID] = i
	}

	s := &ArenaStore{state: a, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunInTx runs fn against a copy of the arena and commits the copy if fn succeeds
func (s *ArenaStore) RunInTx(ctx context.Context, opts TxOptions, fn func(tx BookingTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	working := s.state.clone()
	if err := fn(&arenaTx{arena: working, now: s.now, readOnly: opts.ReadOnly}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if !opts.ReadOnly {
		s.state = working
	}
	return nil
}

// Ping reports whether the store is open
func (s *ArenaStore) Ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// Close marks the store closed
func (s *ArenaStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Berths returns a copy of the committed inventory
func (s *ArenaStore) Berths() []models.Berth {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Berth, len(s.state.berths))
	copy(out, s.state.berths)
	return out
}

func (a *arena) clone() *arena {
	c := &arena{
		berths:     make([]models.Berth, len(a.berths)),
		berthIndex: a.berthIndex, // berths are never added or removed
		tickets:    make(map[uuid.UUID]models.Ticket, len(a.tickets)),
		passengers: make(map[uuid.UUID]models.Passenger, len(a.passengers)),
		nextSeq:    a.nextSeq,
	}
	copy(c.berths, a.berths)
	for id, t := range a.tickets {
		c.tickets[id] = t
	}
	for id, p := range a.passengers {
		c.passengers[id] = p
	}
	return c
}

var errReadOnlyTx = errors.New("write in read-only transaction")

// arenaTx implements BookingTx over a working copy of the arena
type arenaTx struct {
	arena    *arena
	now      func() time.Time
	readOnly bool
}

func (t *arenaTx) writable() error {
	if t.readOnly {
		return errReadOnlyTx
	}
	return nil
}

func (t *arenaTx) ListFreeBerths(classes ...models.BerthClass) ([]models.Berth, error) {
	wanted := make(map[models.BerthClass]bool, len(classes))
	for _, c := range classes {
		wanted[c] = true
	}
	berths := []models.Berth{}
	for _, b := range t.arena.berths {
		if !b.Occupied && wanted[b.Class] {
			berths = append(berths, b)
		}
	}
	return berths, nil
}

func (t *arenaTx) ListOccupiedBerths() ([]models.Berth, error) {
	berths := []models.Berth{}
	for _, b := range t.arena.berths {
		if b.Occupied {
			berths = append(berths, b)
		}
	}
	return berths, nil
}

func (t *arenaTx) ListBerthsByTicket(ticketID uuid.UUID) ([]models.Berth, error) {
	berths := []models.Berth{}
	for _, b := range t.arena.berths {
		if b.TicketID != nil && *b.TicketID == ticketID {
			berths = append(berths, b)
		}
	}
	return berths, nil
}

func (t *arenaTx) CountFreeBerthsByClass() (map[models.BerthClass]int, error) {
	counts := make(map[models.BerthClass]int)
	for _, b := range t.arena.berths {
		if !b.Occupied {
			counts[b.Class]++
		}
	}
	return counts, nil
}

func (t *arenaTx) OccupyBerth(berthID, ticketID, passengerID uuid.UUID) error {
	if err := t.writable(); err != nil {
		return err
	}
	i, ok := t.arena.berthIndex[berthID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := t.arena.tickets[ticketID]; !ok {
		return ErrNotFound
	}
	if _, ok := t.arena.passengers[passengerID]; !ok {
		return ErrNotFound
	}
	b := &t.arena.berths[i]
	if b.Occupied {
		return ErrBerthUnavailable
	}
	b.Occupy(ticketID, passengerID)
	b.UpdatedAt = t.now()
	return nil
}

func (t *arenaTx) ReleaseBerth(berthID uuid.UUID) error {
	if err := t.writable(); err != nil {
		return err
	}
	i, ok := t.arena.berthIndex[berthID]
	if !ok {
		return nil
	}
	t.arena.berths[i].Release()
	t.arena.berths[i].UpdatedAt = t.now()
	return nil
}

func (t *arenaTx) ReleaseTicketBerths(ticketID uuid.UUID) (int, error) {
	if err := t.writable(); err != nil {
		return 0, err
	}
	released := 0
	for i := range t.arena.berths {
		b := &t.arena.berths[i]
		if b.TicketID != nil && *b.TicketID == ticketID {
			b.Release()
			b.UpdatedAt = t.now()
			released++
		}
	}
	return released, nil
}

func (t *arenaTx) InsertTicket(ticket *models.Ticket) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, exists := t.arena.tickets[ticket.ID]; exists {
		return errors.New("duplicate ticket id")
	}
	t.arena.nextSeq++
	ticket.Seq = t.arena.nextSeq
	ticket.CreatedAt = t.now()
	t.arena.tickets[ticket.ID] = *ticket
	return nil
}

func (t *arenaTx) GetTicket(id uuid.UUID) (*models.Ticket, error) {
	ticket, ok := t.arena.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &ticket, nil
}

func (t *arenaTx) ListTickets() ([]models.Ticket, error) {
	tickets := make([]models.Ticket, 0, len(t.arena.tickets))
	for _, ticket := range t.arena.tickets {
		tickets = append(tickets, ticket)
	}
	sort.Slice(tickets, func(i, j int) bool { return tickets[i].OlderThan(&tickets[j]) })
	return tickets, nil
}

func (t *arenaTx) OldestTicketByStatus(status models.TicketStatus) (*models.Ticket, error) {
	var oldest *models.Ticket
	for _, ticket := range t.arena.tickets {
		if ticket.Status != status {
			continue
		}
		if oldest == nil || ticket.OlderThan(oldest) {
			candidate := ticket
			oldest = &candidate
		}
	}
	return oldest, nil
}

func (t *arenaTx) UpdateTicketStatus(id uuid.UUID, status models.TicketStatus) error {
	if err := t.writable(); err != nil {
		return err
	}
	ticket, ok := t.arena.tickets[id]
	if !ok {
		return ErrNotFound
	}
	ticket.Status = status
	t.arena.tickets[id] = ticket
	return nil
}

func (t *arenaTx) DeleteTicket(id uuid.UUID) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.arena.tickets[id]; !ok {
		return ErrNotFound
	}
	delete(t.arena.tickets, id)
	for pid, p := range t.arena.passengers {
		if p.TicketID == id {
			delete(t.arena.passengers, pid)
		}
	}
	return nil
}

func (t *arenaTx) InsertPassenger(passenger *models.Passenger) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.arena.tickets[passenger.TicketID]; !ok {
		return ErrNotFound
	}
	if _, exists := t.arena.passengers[passenger.ID]; exists {
		return errors.New("duplicate passenger id")
	}
	passenger.CreatedAt = t.now()
	t.arena.passengers[passenger.ID] = *passenger
	return nil
}

func (t *arenaTx) ListPassengers() ([]models.Passenger, error) {
	passengers := make([]models.Passenger, 0, len(t.arena.passengers))
	for _, p := range t.arena.passengers {
		passengers = append(passengers, p)
	}
	sortPassengers(passengers)
	return passengers, nil
}

func (t *arenaTx) ListPassengersByTicket(ticketID uuid.UUID) ([]models.Passenger, error) {
	passengers := []models.Passenger{}
	for _, p := range t.arena.passengers {
		if p.TicketID == ticketID {
			passengers = append(passengers, p)
		}
	}
	sortPassengers(passengers)
	return passengers, nil
}

func (t *arenaTx) DeletePassengersByTicket(ticketID uuid.UUID) (int, error) {
	if err := t.writable(); err != nil {
		return 0, err
	}
	deleted := 0
	for pid, p := range t.arena.passengers {
		if p.TicketID == ticketID {
			delete(t.arena.passengers, pid)
			deleted++
		}
	}
	return deleted, nil
}

func sortPassengers(passengers []models.Passenger) {
	sort.Slice(passengers, func(i, j int) bool {
		if passengers[i].TicketID != passengers[j].TicketID {
			return passengers[i].TicketID.String() < passengers[j].TicketID.String()
		}
		return passengers[i].Seq < passengers[j].Seq
	})
}
