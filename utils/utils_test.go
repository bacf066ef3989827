package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode(8)
	require.NoError(t, err)

	assert.Len(t, code, 8)
	assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]+$`), code)
}

func TestGenerateTicketID_Format(t *testing.T) {
	id, err := GenerateTicketID()
	require.NoError(t, err)

	// "T" + six clock digits + four random characters.
	assert.Regexp(t, regexp.MustCompile(`^T\d{6}[A-Z0-9]{4}$`), id)
}

func TestGenerateTicketID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		id, err := GenerateTicketID()
		require.NoError(t, err)
		assert.False(t, seen[id], "duplicate ticket id %s", id)
		seen[id] = true
	}
}

func TestGenerateTransferCode_Format(t *testing.T) {
	code, err := GenerateTransferCode()
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^TFR-[A-Z0-9]{8}$`), code)
}
