package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"ticket-wallet/models"
)

// ErrTransferEntryMissing is returned by mutations that expect a
// pending-transfer entry that is no longer present.
var ErrTransferEntryMissing = errors.New("pending transfer entry not found")

// collections is the full persisted record: three flat mappings,
// serialized as a whole on every mutation.
type collections struct {
	Users            map[string]models.StoredUser `json:"users"`
	Tickets          map[string]models.Ticket     `json:"tickets"`
	PendingTransfers map[string]string            `json:"pending_transfers"`
}

func (c collections) clone() collections {
	next := collections{
		Users:            make(map[string]models.StoredUser, len(c.Users)),
		Tickets:          make(map[string]models.Ticket, len(c.Tickets)),
		PendingTransfers: make(map[string]string, len(c.PendingTransfers)),
	}
	for id, u := range c.Users {
		next.Users[id] = u
	}
	for id, t := range c.Tickets {
		next.Tickets[id] = t
	}
	for code, id := range c.PendingTransfers {
		next.PendingTransfers[code] = id
	}
	return next
}

// Store is a single-process embedded store of users, tickets and
// pending-transfer codes. Every mutation rewrites the backing file
// before returning, via a temp-file rename so readers never observe a
// partial write.
type Store struct {
	mu   sync.RWMutex
	path string
	data collections
}

// Open loads the store from path. Absent or corrupt data resets the
// store to the seed users with empty ticket and transfer collections
// and persists that reset immediately; corruption is never fatal.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	if err := s.load(); err != nil {
		logrus.WithError(err).Warn("store data missing or corrupt, resetting to seed users")
		s.data = seedCollections()
		if err := s.persistLocked(s.data); err != nil {
			return nil, fmt.Errorf("persist seed data: %w", err)
		}
	}

	return s, nil
}

func (s *Store) load() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}

	var data collections
	if err := json.Unmarshal(raw, &data); err != nil {
		return err
	}
	if data.Users == nil {
		return errors.New("users collection missing")
	}
	if data.Tickets == nil {
		data.Tickets = make(map[string]models.Ticket)
	}
	if data.PendingTransfers == nil {
		data.PendingTransfers = make(map[string]string)
	}

	// Backfill any seed user that was lost, so the demo accounts always
	// exist.
	for id, u := range seedCollections().Users {
		if _, ok := data.Users[id]; !ok {
			data.Users[id] = u
		}
	}

	s.data = data
	return nil
}

func seedCollections() collections {
	users := make(map[string]models.StoredUser)
	for _, seed := range []struct {
		id, name, password string
	}{
		{"user-1", "Alex Doe", "password"},
		{"user-2", "Jane Smith", "password"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(seed.password), bcrypt.DefaultCost)
		if err != nil {
			// bcrypt only fails on an invalid cost.
			panic(err)
		}
		users[seed.id] = models.StoredUser{
			User:         models.User{ID: seed.id, Name: seed.name},
			PasswordHash: string(hash),
		}
	}

	return collections{
		Users:            users,
		Tickets:          make(map[string]models.Ticket),
		PendingTransfers: make(map[string]string),
	}
}

// mutate applies fn to a copy of the collections, persists the copy and
// only then swaps it in. A failed persist leaves both memory and disk
// untouched.
func (s *Store) mutate(fn func(c *collections) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.data.clone()
	if err := fn(&next); err != nil {
		return err
	}
	if err := s.persistLocked(next); err != nil {
		return fmt.Errorf("persist store: %w", err)
	}
	s.data = next
	return nil
}

func (s *Store) persistLocked(c collections) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *Store) GetUser(id string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.data.Users[id]
	return u.User, ok
}

// FindUserByCredential matches name case-insensitively and verifies the
// password against the stored hash.
func (s *Store) FindUserByCredential(name, password string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.data.Users {
		if !strings.EqualFold(u.Name, name) {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil {
			return u.User, true
		}
		return models.User{}, false
	}
	return models.User{}, false
}

func (s *Store) GetTicket(id string) (models.Ticket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.data.Tickets[id]
	return t, ok
}

// ListTicketsForUser returns the tickets currently owned by userID,
// newest QR generation first.
func (s *Store) ListTicketsForUser(userID string) []models.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tickets := make([]models.Ticket, 0)
	for _, t := range s.data.Tickets {
		if t.OwnerUserID == userID {
			tickets = append(tickets, t)
		}
	}
	sort.Slice(tickets, func(i, j int) bool {
		return tickets[i].QRGeneratedAt > tickets[j].QRGeneratedAt
	})
	return tickets
}

// SaveTicket upserts the ticket and persists before returning.
func (s *Store) SaveTicket(t models.Ticket) error {
	return s.mutate(func(c *collections) error {
		c.Tickets[t.TicketID] = t
		return nil
	})
}

// CreateTransferEntry records code -> ticketID in the pending-transfer
// index and stamps the ticket's transfer code in the same durable step,
// so the two structures can never diverge.
func (s *Store) CreateTransferEntry(code, ticketID string) error {
	return s.mutate(func(c *collections) error {
		t, ok := c.Tickets[ticketID]
		if !ok {
			return fmt.Errorf("ticket %s not found", ticketID)
		}
		c.PendingTransfers[code] = ticketID
		t.TransferCode = code
		c.Tickets[ticketID] = t
		return nil
	})
}

func (s *Store) ResolveTransferEntry(code string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ticketID, ok := s.data.PendingTransfers[code]
	return ticketID, ok
}

// RemoveTransferEntry drops the index entry and clears the referenced
// ticket's transfer code in one durable step.
func (s *Store) RemoveTransferEntry(code string) error {
	return s.mutate(func(c *collections) error {
		ticketID, ok := c.PendingTransfers[code]
		if !ok {
			return ErrTransferEntryMissing
		}
		delete(c.PendingTransfers, code)

		if t, ok := c.Tickets[ticketID]; ok && t.TransferCode == code {
			t.TransferCode = ""
			c.Tickets[ticketID] = t
		}
		return nil
	})
}

// CompleteTransfer removes the index entry and rewrites the ticket as
// one atomic mutation: either both changes are persisted or neither is.
func (s *Store) CompleteTransfer(code string, t models.Ticket) error {
	return s.mutate(func(c *collections) error {
		if _, ok := c.PendingTransfers[code]; !ok {
			return ErrTransferEntryMissing
		}
		delete(c.PendingTransfers, code)
		t.TransferCode = ""
		c.Tickets[t.TicketID] = t
		return nil
	})
}

// PendingTransferCount reports the number of outstanding transfer
// codes.
func (s *Store) PendingTransferCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.data.PendingTransfers)
}

// Close flushes the current state one last time.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.persistLocked(s.data)
}
