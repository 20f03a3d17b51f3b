package addr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerive_Deterministic(t *testing.T) {
	a := Derive(DomainPool, "pool-alpha")
	b := Derive(DomainPool, "pool-alpha")
	assert.Equal(t, a, b, "same (domain, identifier) must derive the same address")
}

func TestDerive_DomainsSeparateNamespaces(t *testing.T) {
	pool := Derive(DomainPool, "shared-name")
	session := Derive(DomainSession, "shared-name")
	assert.NotEqual(t, pool, session, "identical identifiers in different domains must not collide")
}

func TestDerive_DistinctIdentifiers(t *testing.T) {
	a := Derive(DomainPool, "pool-1")
	b := Derive(DomainPool, "pool-2")
	assert.NotEqual(t, a, b)
}

func TestDerive_UnboundedIdentifierLength(t *testing.T) {
	long := make([]byte, 1<<16)
	for i := range long {
		long[i] = byte('a' + i%26)
	}

	a := Derive(DomainSession, string(long))
	b := Derive(DomainSession, string(long))
	assert.Equal(t, a, b, "arbitrarily long identifiers must derive stable addresses")
}

func TestDerive_UnicodeNormalization(t *testing.T) {
	// "é" as a single code point vs "e" + combining acute accent.
	composed := "caf\u00e9"
	decomposed := "cafe\u0301"

	assert.Equal(t, Derive(DomainPool, composed), Derive(DomainPool, decomposed),
		"Unicode-equivalent identifiers must resolve to the same record")
}

func TestFromBytes(t *testing.T) {
	a := Derive(DomainPool, "round-trip")

	got, ok := FromBytes(a.Bytes())
	require.True(t, ok)
	assert.Equal(t, a, got)

	_, ok = FromBytes([]byte{1, 2, 3})
	assert.False(t, ok, "short slices are not addresses")
}

func TestAddress_String(t *testing.T) {
	a := Derive(DomainPool, "hex")
	require.Len(t, a.String(), 64)
}
