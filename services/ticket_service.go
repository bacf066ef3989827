package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"ticket-wallet/config"
	"ticket-wallet/models"
	"ticket-wallet/monitoring"
	"ticket-wallet/store"
	"ticket-wallet/utils"
)

// TicketService owns the ticket lifecycle: purchase, QR rotation and
// the transfer state machine. The four mutating operations are
// serialized per ticket so concurrent callers cannot interleave on the
// same record.
type TicketService struct {
	store  *store.Store
	config *config.Config

	mu          sync.Mutex
	ticketLocks map[string]*sync.Mutex
}

func NewTicketService(st *store.Store, cfg *config.Config) *TicketService {
	return &TicketService{
		store:       st,
		config:      cfg,
		ticketLocks: make(map[string]*sync.Mutex),
	}
}

// lockTicket acquires the per-ticket mutex, creating it on first use.
// Locks are never removed; the ticket population of a single-process
// wallet is small.
func (s *TicketService) lockTicket(ticketID string) func() {
	s.mu.Lock()
	lock, ok := s.ticketLocks[ticketID]
	if !ok {
		lock = &sync.Mutex{}
		s.ticketLocks[ticketID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// Login checks the credential against the seeded users. A failed
// attempt is delayed before returning to discourage rapid guessing.
func (s *TicketService) Login(ctx context.Context, username, password string) (models.User, error) {
	start := time.Now()
	defer func() { monitoring.TrackLogin(time.Since(start)) }()

	user, ok := s.store.FindUserByCredential(username, password)
	if !ok {
		select {
		case <-time.After(s.config.LoginFailureDelay):
		case <-ctx.Done():
		}
		monitoring.TrackOperation("login", "error")
		return models.User{}, ErrInvalidCredentials
	}

	monitoring.TrackOperation("login", "success")
	return user, nil
}

// Events returns the static event catalog.
func (s *TicketService) Events(ctx context.Context) []models.Event {
	return eventCatalog
}

// TicketTypes returns the static ticket type catalog.
func (s *TicketService) TicketTypes(ctx context.Context) []models.TicketType {
	return ticketTypeCatalog
}

// ListTicketsForUser returns the caller's tickets, newest QR generation
// first. Tickets transferred away no longer appear; history follows
// current ownership.
func (s *TicketService) ListTicketsForUser(ctx context.Context, userID string) ([]models.Ticket, error) {
	return s.store.ListTicketsForUser(userID), nil
}

// GetTicket returns a single ticket after verifying the caller owns it.
func (s *TicketService) GetTicket(ctx context.Context, ticketID, callerUserID string) (models.Ticket, error) {
	ticket, ok := s.store.GetTicket(ticketID)
	if !ok {
		return models.Ticket{}, ErrNotFound
	}
	if ticket.OwnerUserID != callerUserID {
		return models.Ticket{}, ErrForbidden
	}
	return ticket, nil
}

// Purchase issues a new ticket for the given event and ticket type. The
// payment flow is simulated by the caller; reaching this operation
// means payment was accepted.
func (s *TicketService) Purchase(ctx context.Context, userID, eventID, attendeeName, ticketTypeName string) (models.Ticket, error) {
	event, ok := findEvent(eventID)
	if !ok {
		monitoring.TrackOperation("purchase", "error")
		return models.Ticket{}, ErrNotFound
	}

	ticketType, ok := findTicketType(ticketTypeName)
	if !ok {
		monitoring.TrackOperation("purchase", "error")
		return models.Ticket{}, ErrNotFound
	}

	ticketID, err := utils.GenerateTicketID()
	if err != nil {
		monitoring.TrackOperation("purchase", "error")
		return models.Ticket{}, err
	}

	now := time.Now().UnixMilli()
	ticket := models.Ticket{
		TicketID:      ticketID,
		OwnerUserID:   userID,
		EventID:       event.ID,
		EventName:     event.Name,
		EventDate:     event.Date,
		AttendeeName:  attendeeName,
		TicketType:    ticketType.Name,
		Price:         ticketType.Price,
		QRValue:       models.QRPayload{TicketID: ticketID, AttendeeName: attendeeName, Timestamp: now}.Encode(),
		QRGeneratedAt: now,
	}

	if err := s.store.SaveTicket(ticket); err != nil {
		monitoring.TrackOperation("purchase", "error")
		return models.Ticket{}, err
	}

	logrus.WithFields(logrus.Fields{
		"ticket_id": ticketID,
		"event_id":  event.ID,
		"user_id":   userID,
	}).Info("ticket issued")

	monitoring.TrackOperation("purchase", "success")
	return ticket, nil
}

// RotateQR stamps a fresh generation timestamp and recomputes the QR
// value. Every call strictly advances the timestamp, so two rotations
// in a row always yield distinct values.
func (s *TicketService) RotateQR(ctx context.Context, ticketID, callerUserID string) (models.Ticket, error) {
	defer s.lockTicket(ticketID)()

	ticket, ok := s.store.GetTicket(ticketID)
	if !ok {
		monitoring.TrackOperation("rotate_qr", "error")
		return models.Ticket{}, ErrNotFound
	}
	if ticket.OwnerUserID != callerUserID {
		monitoring.TrackOperation("rotate_qr", "error")
		return models.Ticket{}, ErrForbidden
	}

	now := time.Now().UnixMilli()
	if now <= ticket.QRGeneratedAt {
		now = ticket.QRGeneratedAt + 1
	}
	ticket.QRGeneratedAt = now
	ticket.QRValue = models.QRPayload{
		TicketID:     ticket.TicketID,
		AttendeeName: ticket.AttendeeName,
		Timestamp:    now,
	}.Encode()

	if err := s.store.SaveTicket(ticket); err != nil {
		monitoring.TrackOperation("rotate_qr", "error")
		return models.Ticket{}, err
	}

	monitoring.TrackOperation("rotate_qr", "success")
	monitoring.TrackRotation()
	return ticket, nil
}

// InitiateTransfer issues a one-time transfer code for the ticket. If a
// transfer is already pending the existing code is returned unchanged.
func (s *TicketService) InitiateTransfer(ctx context.Context, ticketID, callerUserID string) (string, error) {
	defer s.lockTicket(ticketID)()

	ticket, ok := s.store.GetTicket(ticketID)
	if !ok {
		monitoring.TrackOperation("initiate_transfer", "error")
		return "", ErrNotFound
	}
	if ticket.OwnerUserID != callerUserID {
		monitoring.TrackOperation("initiate_transfer", "error")
		return "", ErrForbidden
	}

	if ticket.TransferCode != "" {
		monitoring.TrackOperation("initiate_transfer", "success")
		return ticket.TransferCode, nil
	}

	code, err := utils.GenerateTransferCode()
	if err != nil {
		monitoring.TrackOperation("initiate_transfer", "error")
		return "", err
	}

	if err := s.store.CreateTransferEntry(code, ticketID); err != nil {
		monitoring.TrackOperation("initiate_transfer", "error")
		return "", err
	}

	logrus.WithField("ticket_id", ticketID).Info("transfer initiated")
	monitoring.TrackOperation("initiate_transfer", "success")
	monitoring.AddPendingTransfers(1)
	return code, nil
}

// CancelTransfer withdraws the ticket's outstanding transfer code.
func (s *TicketService) CancelTransfer(ctx context.Context, ticketID, callerUserID string) (models.Ticket, error) {
	defer s.lockTicket(ticketID)()

	ticket, ok := s.store.GetTicket(ticketID)
	if !ok {
		monitoring.TrackOperation("cancel_transfer", "error")
		return models.Ticket{}, ErrNotFound
	}
	if ticket.OwnerUserID != callerUserID {
		monitoring.TrackOperation("cancel_transfer", "error")
		return models.Ticket{}, ErrForbidden
	}
	if ticket.TransferCode == "" {
		monitoring.TrackOperation("cancel_transfer", "error")
		return models.Ticket{}, ErrNoPendingTransfer
	}

	if err := s.store.RemoveTransferEntry(ticket.TransferCode); err != nil {
		monitoring.TrackOperation("cancel_transfer", "error")
		return models.Ticket{}, err
	}

	ticket.TransferCode = ""
	logrus.WithField("ticket_id", ticketID).Info("transfer cancelled")
	monitoring.TrackOperation("cancel_transfer", "success")
	monitoring.AddPendingTransfers(-1)
	return ticket, nil
}

// RedeemTransfer consumes a transfer code and reassigns the ticket to
// the redeemer, attendee name included. Codes are case-insensitive on
// input and single-use.
func (s *TicketService) RedeemTransfer(ctx context.Context, code, redeemerUserID string) (models.Ticket, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	ticketID, ok := s.store.ResolveTransferEntry(code)
	if !ok {
		monitoring.TrackOperation("redeem_transfer", "error")
		return models.Ticket{}, ErrInvalidOrUsedCode
	}

	defer s.lockTicket(ticketID)()

	// Re-check under the ticket lock; the code may have been cancelled
	// or redeemed while we waited.
	if _, ok := s.store.ResolveTransferEntry(code); !ok {
		monitoring.TrackOperation("redeem_transfer", "error")
		return models.Ticket{}, ErrInvalidOrUsedCode
	}

	ticket, ok := s.store.GetTicket(ticketID)
	if !ok {
		monitoring.TrackOperation("redeem_transfer", "error")
		return models.Ticket{}, ErrInvalidOrUsedCode
	}
	if ticket.OwnerUserID == redeemerUserID {
		monitoring.TrackOperation("redeem_transfer", "error")
		return models.Ticket{}, ErrSelfRedemption
	}

	redeemer, ok := s.store.GetUser(redeemerUserID)
	if !ok {
		monitoring.TrackOperation("redeem_transfer", "error")
		return models.Ticket{}, ErrUnknownUser
	}

	ticket.OwnerUserID = redeemer.ID
	ticket.AttendeeName = redeemer.Name
	ticket.TransferCode = ""

	if err := s.store.CompleteTransfer(code, ticket); err != nil {
		monitoring.TrackOperation("redeem_transfer", "error")
		return models.Ticket{}, err
	}

	logrus.WithFields(logrus.Fields{
		"ticket_id": ticket.TicketID,
		"new_owner": redeemer.ID,
	}).Info("transfer redeemed")
	monitoring.TrackOperation("redeem_transfer", "success")
	monitoring.AddPendingTransfers(-1)
	return ticket, nil
}
