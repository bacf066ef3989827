package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-wallet/models"
)

func TestScheduler_RotatesWhenWindowElapses(t *testing.T) {
	s := setupTestService(t)
	ticket := purchaseTestTicket(t, s, "user-1")

	scheduler := NewRotationScheduler(s, 50*time.Millisecond)
	defer scheduler.Shutdown()

	updates := make(chan models.Ticket, 1)
	err := scheduler.Subscribe(ticket.TicketID, "user-1", func(rotated models.Ticket) {
		updates <- rotated
	}, nil)
	require.NoError(t, err)

	select {
	case rotated := <-updates:
		assert.Greater(t, rotated.QRGeneratedAt, ticket.QRGeneratedAt)
		assert.NotEqual(t, ticket.QRValue, rotated.QRValue)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a rotation before the deadline")
	}
}

func TestScheduler_StaleTicketRotatesImmediately(t *testing.T) {
	s := setupTestService(t)
	ticket := purchaseTestTicket(t, s, "user-1")

	scheduler := NewRotationScheduler(s, time.Hour)
	defer scheduler.Shutdown()

	// A generation timestamp far past the window leaves no remaining
	// time.
	assert.Equal(t, time.Duration(0), scheduler.Remaining(time.Now().Add(-2*time.Hour).UnixMilli()))

	// Remaining time for a fresh ticket is close to the full window.
	remaining := scheduler.Remaining(ticket.QRGeneratedAt)
	assert.Greater(t, remaining, 59*time.Minute)
	assert.LessOrEqual(t, remaining, time.Hour)
}

func TestScheduler_UnsubscribeCancelsRotation(t *testing.T) {
	s := setupTestService(t)
	ticket := purchaseTestTicket(t, s, "user-1")

	scheduler := NewRotationScheduler(s, 80*time.Millisecond)
	defer scheduler.Shutdown()

	require.NoError(t, scheduler.Subscribe(ticket.TicketID, "user-1", nil, nil))
	scheduler.Unsubscribe(ticket.TicketID)

	time.Sleep(250 * time.Millisecond)

	current, err := s.GetTicket(context.Background(), ticket.TicketID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, ticket.QRGeneratedAt, current.QRGeneratedAt, "no rotation may fire after unmount")
}

func TestScheduler_SubscribeReplacesExistingWatch(t *testing.T) {
	s := setupTestService(t)
	ticket := purchaseTestTicket(t, s, "user-1")

	scheduler := NewRotationScheduler(s, 10*time.Second)
	defer scheduler.Shutdown()

	require.NoError(t, scheduler.Subscribe(ticket.TicketID, "user-1", nil, nil))
	require.NoError(t, scheduler.Subscribe(ticket.TicketID, "user-1", nil, nil))

	scheduler.mu.Lock()
	count := len(scheduler.watches)
	scheduler.mu.Unlock()
	assert.Equal(t, 1, count)
}

func TestScheduler_CountdownTicks(t *testing.T) {
	s := setupTestService(t)
	ticket := purchaseTestTicket(t, s, "user-1")

	scheduler := NewRotationScheduler(s, 10*time.Second)
	defer scheduler.Shutdown()

	ticks := make(chan time.Duration, 4)
	err := scheduler.Subscribe(ticket.TicketID, "user-1", nil, func(remaining time.Duration) {
		select {
		case ticks <- remaining:
		default:
		}
	})
	require.NoError(t, err)

	select {
	case remaining := <-ticks:
		assert.Greater(t, remaining, time.Duration(0))
		assert.LessOrEqual(t, remaining, 10*time.Second)
	case <-time.After(3 * time.Second):
		t.Fatal("expected a countdown tick")
	}

	// Ticks stop once the watch is cancelled.
	scheduler.Unsubscribe(ticket.TicketID)
	drainTicks(ticks)
	select {
	case <-ticks:
		t.Fatal("tick after unsubscribe")
	case <-time.After(1500 * time.Millisecond):
	}
}

func TestScheduler_SubscribeRequiresOwnership(t *testing.T) {
	s := setupTestService(t)
	ticket := purchaseTestTicket(t, s, "user-1")

	scheduler := NewRotationScheduler(s, time.Second)
	defer scheduler.Shutdown()

	assert.ErrorIs(t, scheduler.Subscribe(ticket.TicketID, "user-2", nil, nil), ErrForbidden)
	assert.ErrorIs(t, scheduler.Subscribe("missing", "user-1", nil, nil), ErrNotFound)
}

func drainTicks(ch chan time.Duration) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}
