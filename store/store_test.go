package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-wallet/models"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "wallet.json")
	s, err := Open(path)
	require.NoError(t, err)
	return s, path
}

func testTicket(id, owner string, generatedAt int64) models.Ticket {
	return models.Ticket{
		TicketID:      id,
		OwnerUserID:   owner,
		EventID:       "tech-conf-2024",
		EventName:     "Conferencia Tech 2024",
		EventDate:     "2024-10-26",
		AttendeeName:  "Alex Doe",
		TicketType:    "General",
		Price:         decimal.NewFromInt(55),
		QRValue:       "{}",
		QRGeneratedAt: generatedAt,
	}
}

func TestOpen_SeedsDefaultUsers(t *testing.T) {
	s, _ := newTestStore(t)

	u1, ok := s.GetUser("user-1")
	require.True(t, ok)
	assert.Equal(t, "Alex Doe", u1.Name)

	u2, ok := s.GetUser("user-2")
	require.True(t, ok)
	assert.Equal(t, "Jane Smith", u2.Name)

	_, ok = s.GetUser("user-3")
	assert.False(t, ok)
}

func TestOpen_CorruptFileResetsToSeeds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallet.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s, err := Open(path)
	require.NoError(t, err)

	_, ok := s.GetUser("user-1")
	assert.True(t, ok)
	assert.Empty(t, s.ListTicketsForUser("user-1"))
	assert.Equal(t, 0, s.PendingTransferCount())

	// The reset must have been persisted immediately.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Alex Doe")
}

func TestOpen_SurvivesRestart(t *testing.T) {
	s, path := newTestStore(t)

	require.NoError(t, s.SaveTicket(testTicket("T1", "user-1", 100)))
	require.NoError(t, s.CreateTransferEntry("TFR-AAAABBBB", "T1"))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)

	ticket, ok := reopened.GetTicket("T1")
	require.True(t, ok)
	assert.Equal(t, "TFR-AAAABBBB", ticket.TransferCode)

	ticketID, ok := reopened.ResolveTransferEntry("TFR-AAAABBBB")
	require.True(t, ok)
	assert.Equal(t, "T1", ticketID)
}

func TestFindUserByCredential(t *testing.T) {
	s, _ := newTestStore(t)

	tests := []struct {
		name     string
		username string
		password string
		wantID   string
		wantOK   bool
	}{
		{"exact match", "Alex Doe", "password", "user-1", true},
		{"case-insensitive name", "alex doe", "password", "user-1", true},
		{"wrong password", "Alex Doe", "hunter2", "", false},
		{"unknown name", "Nobody", "password", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, ok := s.FindUserByCredential(tt.username, tt.password)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantID, user.ID)
			}
		})
	}
}

func TestListTicketsForUser_NewestFirst(t *testing.T) {
	s, _ := newTestStore(t)

	require.NoError(t, s.SaveTicket(testTicket("T-old", "user-1", 100)))
	require.NoError(t, s.SaveTicket(testTicket("T-new", "user-1", 300)))
	require.NoError(t, s.SaveTicket(testTicket("T-mid", "user-1", 200)))
	require.NoError(t, s.SaveTicket(testTicket("T-other", "user-2", 400)))

	tickets := s.ListTicketsForUser("user-1")
	require.Len(t, tickets, 3)
	assert.Equal(t, "T-new", tickets[0].TicketID)
	assert.Equal(t, "T-mid", tickets[1].TicketID)
	assert.Equal(t, "T-old", tickets[2].TicketID)
}

func TestCreateTransferEntry_StampsTicketInLockstep(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.SaveTicket(testTicket("T1", "user-1", 100)))

	require.NoError(t, s.CreateTransferEntry("TFR-12345678", "T1"))

	ticket, ok := s.GetTicket("T1")
	require.True(t, ok)
	assert.Equal(t, "TFR-12345678", ticket.TransferCode)

	ticketID, ok := s.ResolveTransferEntry("TFR-12345678")
	require.True(t, ok)
	assert.Equal(t, "T1", ticketID)
	assert.Equal(t, 1, s.PendingTransferCount())
}

func TestCreateTransferEntry_UnknownTicket(t *testing.T) {
	s, _ := newTestStore(t)

	err := s.CreateTransferEntry("TFR-12345678", "missing")
	assert.Error(t, err)
	assert.Equal(t, 0, s.PendingTransferCount())
}

func TestRemoveTransferEntry_ClearsTicketCode(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.SaveTicket(testTicket("T1", "user-1", 100)))
	require.NoError(t, s.CreateTransferEntry("TFR-12345678", "T1"))

	require.NoError(t, s.RemoveTransferEntry("TFR-12345678"))

	ticket, _ := s.GetTicket("T1")
	assert.Empty(t, ticket.TransferCode)
	_, ok := s.ResolveTransferEntry("TFR-12345678")
	assert.False(t, ok)

	err := s.RemoveTransferEntry("TFR-12345678")
	assert.ErrorIs(t, err, ErrTransferEntryMissing)
}

func TestCompleteTransfer_RemovesEntryAndRewritesTicket(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.SaveTicket(testTicket("T1", "user-1", 100)))
	require.NoError(t, s.CreateTransferEntry("TFR-12345678", "T1"))

	updated := testTicket("T1", "user-2", 100)
	updated.AttendeeName = "Jane Smith"
	require.NoError(t, s.CompleteTransfer("TFR-12345678", updated))

	ticket, ok := s.GetTicket("T1")
	require.True(t, ok)
	assert.Equal(t, "user-2", ticket.OwnerUserID)
	assert.Equal(t, "Jane Smith", ticket.AttendeeName)
	assert.Empty(t, ticket.TransferCode)
	assert.Equal(t, 0, s.PendingTransferCount())

	err := s.CompleteTransfer("TFR-12345678", updated)
	assert.ErrorIs(t, err, ErrTransferEntryMissing)
}
