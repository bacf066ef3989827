package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"ticket-wallet/models"
	"ticket-wallet/monitoring"
)

// RotationScheduler arms one cancellable single-shot rotation per
// displayed ticket. When the remainder of the validity window elapses
// it calls RotateQR exactly once and hands the updated ticket to the
// watcher, which is expected to re-subscribe with the new timestamp.
// A separate 1-second tick reports the local countdown; it never
// touches ticket state.
type RotationScheduler struct {
	service *TicketService
	window  time.Duration

	mu      sync.Mutex
	watches map[string]*ticketWatch
}

type ticketWatch struct {
	ticketID string
	userID   string
	rotate   *time.Timer
	done     chan struct{}
	onUpdate func(models.Ticket)
	onTick   func(remaining time.Duration)
}

func NewRotationScheduler(service *TicketService, window time.Duration) *RotationScheduler {
	return &RotationScheduler{
		service: service,
		window:  window,
		watches: make(map[string]*ticketWatch),
	}
}

// Window reports the validity window the scheduler enforces.
func (r *RotationScheduler) Window() time.Duration {
	return r.window
}

// Remaining computes how much of the validity window is left for a QR
// generated at the given unix-millisecond timestamp, clamped at zero.
func (r *RotationScheduler) Remaining(qrGeneratedAt int64) time.Duration {
	elapsed := time.Since(time.UnixMilli(qrGeneratedAt))
	if elapsed >= r.window {
		return 0
	}
	return r.window - elapsed
}

// Subscribe registers a rotation for the displayed ticket. An existing
// watch for the same ticket is replaced. onUpdate and onTick may be
// nil.
func (r *RotationScheduler) Subscribe(ticketID, userID string, onUpdate func(models.Ticket), onTick func(time.Duration)) error {
	ticket, err := r.service.GetTicket(context.Background(), ticketID, userID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	if prev, ok := r.watches[ticketID]; ok {
		prev.stop()
	}

	w := &ticketWatch{
		ticketID: ticketID,
		userID:   userID,
		done:     make(chan struct{}),
		onUpdate: onUpdate,
		onTick:   onTick,
	}
	w.rotate = time.AfterFunc(r.Remaining(ticket.QRGeneratedAt), func() {
		r.fire(w)
	})
	r.watches[ticketID] = w
	count := len(r.watches)
	r.mu.Unlock()

	monitoring.SetActiveWatchers(float64(count))

	if onTick != nil {
		go r.countdown(w, ticket.QRGeneratedAt)
	}
	return nil
}

// Unsubscribe cancels the pending rotation for the ticket. Calling it
// for a ticket that is not watched is a no-op.
func (r *RotationScheduler) Unsubscribe(ticketID string) {
	r.mu.Lock()
	w, ok := r.watches[ticketID]
	if ok {
		w.stop()
		delete(r.watches, ticketID)
	}
	count := len(r.watches)
	r.mu.Unlock()

	if ok {
		monitoring.SetActiveWatchers(float64(count))
	}
}

// Shutdown cancels every pending rotation.
func (r *RotationScheduler) Shutdown() {
	r.mu.Lock()
	for id, w := range r.watches {
		w.stop()
		delete(r.watches, id)
	}
	r.mu.Unlock()

	monitoring.SetActiveWatchers(0)
}

// fire runs once per armed watch. The watch is consumed whether or not
// the rotation succeeds; a failed rotate is logged and the displayed QR
// simply goes stale until the next subscribe or manual refresh.
func (r *RotationScheduler) fire(w *ticketWatch) {
	r.mu.Lock()
	if current, ok := r.watches[w.ticketID]; !ok || current != w {
		// Unsubscribed (or replaced) after the timer fired but before
		// we got here.
		r.mu.Unlock()
		return
	}
	delete(r.watches, w.ticketID)
	count := len(r.watches)
	r.mu.Unlock()

	monitoring.SetActiveWatchers(float64(count))
	close(w.done)

	ticket, err := r.service.RotateQR(context.Background(), w.ticketID, w.userID)
	if err != nil {
		logrus.WithError(err).WithField("ticket_id", w.ticketID).Warn("scheduled QR rotation failed")
		return
	}
	if w.onUpdate != nil {
		w.onUpdate(ticket)
	}
}

// countdown emits the remaining seconds once per second for UI display.
// It carries no authority over the QR value.
func (r *RotationScheduler) countdown(w *ticketWatch, qrGeneratedAt int64) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.onTick(r.Remaining(qrGeneratedAt))
		case <-w.done:
			return
		}
	}
}

func (w *ticketWatch) stop() {
	w.rotate.Stop()
	select {
	case <-w.done:
	default:
		close(w.done)
	}
}
