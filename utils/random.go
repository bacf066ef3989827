package utils

import (
	"crypto/rand"
	"fmt"
	"time"
)

// codeCharset covers the uppercase base36 alphabet used for both ticket
// id suffixes and transfer codes.
const codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// TransferCodePrefix is the fixed, human-recognizable prefix of every
// transfer code.
const TransferCodePrefix = "TFR-"

func GenerateCode(length int) (string, error) {
	// Make a slice of length random bytes.
	code := make([]byte, length)

	// Read into the slice.
	if _, err := rand.Read(code); err != nil {
		return "", err
	}

	// Map bytes onto the charset.
	for i := 0; i < length; i++ {
		code[i] = codeCharset[int(code[i])%len(codeCharset)]
	}

	return string(code), nil
}

// GenerateTicketID builds a ticket id from the last six digits of the
// current unix-millisecond clock plus a four character random suffix.
// Collisions are treated as negligible.
func GenerateTicketID() (string, error) {
	suffix, err := GenerateCode(4)
	if err != nil {
		return "", err
	}

	millis := fmt.Sprintf("%d", time.Now().UnixMilli())
	return "T" + millis[len(millis)-6:] + suffix, nil
}

// GenerateTransferCode builds a one-time transfer code of the form
// TFR-XXXXXXXX with an eight character random suffix.
func GenerateTransferCode() (string, error) {
	suffix, err := GenerateCode(8)
	if err != nil {
		return "", err
	}
	return TransferCodePrefix + suffix, nil
}
