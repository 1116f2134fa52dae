package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeToken(t *testing.T) {
	// Test case 1: Standard date and code values
	entryDate := time.Date(2026, 5, 15, 14, 30, 45, 123456789, time.UTC)

	token := EncodeToken(entryDate, "TAL2026000042")
	assert.NotEmpty(t, token, "Token should not be empty")

	decodedDate, decodedCode, err := DecodeToken(token)
	assert.NoError(t, err, "Decoding should not return an error")
	assert.Equal(t, entryDate, decodedDate, "Date should match after decode")
	assert.Equal(t, "TAL2026000042", decodedCode, "Code should match after decode")

	// Test case 2: Zero time value
	zeroToken := EncodeToken(time.Time{}, "")
	decodedZeroDate, decodedZeroCode, err := DecodeToken(zeroToken)
	assert.NoError(t, err, "Decoding zero time should not return an error")
	assert.Equal(t, time.Time{}, decodedZeroDate, "Zero date should match after decode")
	assert.Equal(t, "", decodedZeroCode, "Empty code should match after decode")

	// Test case 3: Current time
	now := time.Now().UTC()
	nowToken := EncodeToken(now, "TAT2026000001")
	decodedNowDate, decodedNowCode, err := DecodeToken(nowToken)
	assert.NoError(t, err, "Decoding current time should not return an error")
	assert.True(t, now.Equal(decodedNowDate), "Current date should match after decode")
	assert.Equal(t, "TAT2026000001", decodedNowCode, "Code should match after decode")
}

func TestDecodeTokenError(t *testing.T) {
	// Test invalid base64
	_, _, err := DecodeToken("this is not base64!")
	assert.Error(t, err, "Should return an error for invalid base64")
	assert.Contains(t, err.Error(), "base64 decode", "Error should mention base64 decoding")

	// Test invalid format (missing separator)
	invalidToken := "MjAyMy0wNS0xNVQwMDowMDowMFo=" // Base64 encoded date without separator
	_, _, err = DecodeToken(invalidToken)
	assert.Error(t, err, "Should return an error for invalid token format")
	assert.Contains(t, err.Error(), "split", "Error should mention splitting issue")

	// Test invalid date format
	invalidDateToken := "bm90YWRhdGV8VEFUMjAyNjAwMDAwMQ==" // Base64 encoded "notadate|TAT2026000001"
	_, _, err = DecodeToken(invalidDateToken)
	assert.Error(t, err, "Should return an error for invalid date format")
	assert.Contains(t, err.Error(), "date parse", "Error should mention date parsing issue")
}
