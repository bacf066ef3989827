package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type Ticket struct {
	TicketID     string          `json:"ticket_id"`
	OwnerUserID  string          `json:"owner_user_id"`
	EventID      string          `json:"event_id"`
	EventName    string          `json:"event_name"`
	EventDate    string          `json:"event_date"`
	AttendeeName string          `json:"attendee_name"`
	TicketType   string          `json:"ticket_type"`
	Price        decimal.Decimal `json:"price"`
	QRValue      string          `json:"qr_value"`
	// QRGeneratedAt is a unix-millisecond timestamp. It only ever moves
	// forward over the life of a ticket.
	QRGeneratedAt int64 `json:"qr_generation_timestamp"`
	// TransferCode is set exactly while a transfer is pending.
	TransferCode string `json:"transfer_code,omitempty"`
}

// QRPayload is the structured record encoded into a ticket's QR value.
// Scanners parse it and accept or reject based on how old Timestamp is
// relative to the configured validity window.
type QRPayload struct {
	TicketID     string `json:"ticketId"`
	AttendeeName string `json:"attendeeName"`
	Timestamp    int64  `json:"timestamp"`
}

// Encode serializes the payload to its canonical string form. The QR
// value of a ticket is fully determined by (ticket id, attendee name,
// generation timestamp).
func (p QRPayload) Encode() string {
	data, _ := json.Marshal(p)
	return string(data)
}

func DecodeQRPayload(value string) (QRPayload, error) {
	var p QRPayload
	err := json.Unmarshal([]byte(value), &p)
	return p, err
}
