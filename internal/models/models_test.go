package models

import (
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDeriveTicketStatus(t *testing.T) {
	tests := []struct {
		name    string
		classes []BerthClass
		want    TicketStatus
	}{
		{"no seated passengers", nil, TicketStatusConfirmed},
		{"all confirmed", []BerthClass{BerthClassLower, BerthClassUpper}, TicketStatusConfirmed},
		{"one rac", []BerthClass{BerthClassLower, BerthClassRAC}, TicketStatusRAC},
		{"waiting dominates rac", []BerthClass{BerthClassWaiting, BerthClassRAC}, TicketStatusWaiting},
		{"rac after waiting keeps waiting", []BerthClass{BerthClassMiddle, BerthClassWaiting, BerthClassRAC}, TicketStatusWaiting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveTicketStatus(tt.classes))
		})
	}
}

func TestPassengerStatusForClass(t *testing.T) {
	side := BerthClassSideLower
	rac := BerthClassRAC
	waiting := BerthClassWaiting

	assert.Equal(t, PassengerStatusNoBerth, PassengerStatusForClass(nil))
	assert.Equal(t, PassengerStatusConfirmed, PassengerStatusForClass(&side))
	assert.Equal(t, PassengerStatusRAC, PassengerStatusForClass(&rac))
	assert.Equal(t, PassengerStatusWaiting, PassengerStatusForClass(&waiting))
}

func TestIsChildAge(t *testing.T) {
	assert.True(t, IsChildAge(0))
	assert.True(t, IsChildAge(4))
	assert.False(t, IsChildAge(5))
	assert.True(t, PassengerRequest{Name: "Baby", Age: 3}.IsChild())
}

func TestBerthOrdering(t *testing.T) {
	berths := []*Berth{{Code: "C10"}, {Code: "C2"}, {Code: "C1"}, {Code: "C21"}}
	sort.Slice(berths, func(i, j int) bool { return BerthCodeLess(berths[i], berths[j]) })

	codes := make([]string, 0, len(berths))
	for _, b := range berths {
		codes = append(codes, b.Code)
	}
	assert.Equal(t, []string{"C1", "C2", "C10", "C21"}, codes)

	one, two := 1, 2
	rac := []*Berth{{Code: "R1-2", Position: &two}, {Code: "R2-1", Position: &one}, {Code: "R1-1", Position: &one}}
	sort.Slice(rac, func(i, j int) bool { return BerthLess(rac[i], rac[j]) })
	assert.Equal(t, "R1-1", rac[0].Code)
	assert.Equal(t, "R2-1", rac[1].Code)
	assert.Equal(t, "R1-2", rac[2].Code)
}

func TestBerthOccupyRelease(t *testing.T) {
	b := &Berth{Code: "C1", Class: BerthClassLower}
	assert.True(t, b.IsFree())

	b.Occupy(uuid.New(), uuid.New())
	assert.False(t, b.IsFree())
	assert.NotNil(t, b.TicketID)
	assert.NotNil(t, b.PassengerID)

	b.Release()
	assert.True(t, b.IsFree())
	assert.Nil(t, b.TicketID)
	assert.Nil(t, b.PassengerID)
}

func TestTicketOlderThan(t *testing.T) {
	now := time.Now()
	a := &Ticket{CreatedAt: now, Seq: 1}
	b := &Ticket{CreatedAt: now, Seq: 2}
	c := &Ticket{CreatedAt: now.Add(-time.Second), Seq: 3}

	assert.True(t, a.OlderThan(b))
	assert.False(t, b.OlderThan(a))
	assert.True(t, c.OlderThan(a))
}

func TestNewAvailability(t *testing.T) {
	a := NewAvailability(map[BerthClass]int{
		BerthClassLower:   3,
		BerthClassUpper:   2,
		BerthClassRAC:     4,
		BerthClassWaiting: 1,
	})

	assert.Equal(t, 5, a.ConfirmedLeft)
	assert.Equal(t, 4, a.RACLeft)
	assert.Equal(t, 1, a.WaitingLeft)
	assert.Equal(t, 10, a.TotalLeft())
	assert.Equal(t, 0, a.ByClass[BerthClassSideLower])
}
