package protocol

import (
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEntropy_RoundTrip(t *testing.T) {
	var e Entropy
	for i := range e {
		e[i] = byte(i + 1)
	}

	got, err := ParseEntropy(e.String())
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestParseEntropy_Empty(t *testing.T) {
	_, err := ParseEntropy("")
	assert.True(t, IsCode(err, CodeInvalidSlotHash), "empty entropy text must fail with INVALID_SLOT_HASH")
}

func TestParseEntropy_NotBase58(t *testing.T) {
	// '0', 'I', 'O', 'l' are outside the base58 alphabet.
	_, err := ParseEntropy("0OIl!!!")
	assert.True(t, IsCode(err, CodeInvalidSlotHash))
}

func TestParseEntropy_WrongLength(t *testing.T) {
	short := base58.Encode([]byte{1, 2, 3})
	_, err := ParseEntropy(short)
	assert.True(t, IsCode(err, CodeInvalidSlotHash), "entropy must decode to exactly 32 bytes")

	long := base58.Encode(make([]byte, 33))
	_, err = ParseEntropy(long)
	assert.True(t, IsCode(err, CodeInvalidSlotHash))
}

func TestParseEntropy_LeadingZeros(t *testing.T) {
	// base58 preserves leading zero bytes as '1' characters; a 32-byte value
	// with a zero prefix must survive the round trip intact.
	var e Entropy
	e[31] = 0x07

	got, err := ParseEntropy(e.String())
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestEntropy_IsZero(t *testing.T) {
	var zero Entropy
	assert.True(t, zero.IsZero())

	var set Entropy
	set[0] = 1
	assert.False(t, set.IsZero())
}
