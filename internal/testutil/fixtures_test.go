package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashesAreDistinct(t *testing.T) {
	hs := Hashes(3)
	assert.Len(t, hs, 3)
	assert.NotEqual(t, hs[0], hs[1])
	assert.NotEqual(t, hs[1], hs[2])
}

func TestEntropyLayout(t *testing.T) {
	e := Entropy(0x0102)
	assert.Equal(t, byte(0x01), e[6])
	assert.Equal(t, byte(0x02), e[7])
	for i := 0; i < 6; i++ {
		assert.Zero(t, e[i])
	}
	for i := 8; i < len(e); i++ {
		assert.Equal(t, byte(0xEE), e[i])
	}
}
