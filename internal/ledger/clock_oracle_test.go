package ledger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sortition/internal/protocol"
)

func testEntropy(b byte) protocol.Entropy {
	var e protocol.Entropy
	for i := range e {
		e[i] = b
	}
	return e
}

func TestClock_StartsAtZeroAndAdvances(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	c, err := l.Clock()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), c.Tick())

	next, err := c.Advance(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), next)
	assert.Equal(t, uint64(5), c.Tick())
}

func TestClock_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	l1, err := Open(path)
	require.NoError(t, err)
	c1, err := l1.Clock()
	require.NoError(t, err)
	_, err = c1.Advance(ctx, 100)
	require.NoError(t, err)
	require.NoError(t, l1.Close())

	l2, err := Open(path)
	require.NoError(t, err)
	defer l2.Close()

	c2, err := l2.Clock()
	require.NoError(t, err)
	assert.Equal(t, uint64(100), c2.Tick(), "the tick is ledger state, not process state")
}

func TestOracle_ImportAndLookup(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()
	o := l.Oracle()

	_, ok, err := o.EntropyAt(7)
	require.NoError(t, err)
	assert.False(t, ok, "unknown ticks have no entropy")

	inserted, err := o.Import(ctx, 7, testEntropy(0x11))
	require.NoError(t, err)
	assert.True(t, inserted)

	got, ok, err := o.EntropyAt(7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, testEntropy(0x11), got)
}

func TestOracle_FirstImportWins(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()
	o := l.Oracle()

	_, err := o.Import(ctx, 3, testEntropy(0x11))
	require.NoError(t, err)

	inserted, err := o.Import(ctx, 3, testEntropy(0x22))
	require.NoError(t, err)
	assert.False(t, inserted, "entropy per tick is immutable")

	got, ok, err := o.EntropyAt(3)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, testEntropy(0x11), got)
}

func TestOracle_Prune(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()
	o := l.Oracle()

	for tick := uint64(1); tick <= 5; tick++ {
		_, err := o.Import(ctx, tick, testEntropy(byte(tick)))
		require.NoError(t, err)
	}

	dropped, err := o.Prune(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(3), dropped)

	_, ok, err := o.EntropyAt(2)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = o.EntropyAt(4)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAllocator_Cost(t *testing.T) {
	a := Allocator{BaseCost: 1000, CostPerByte: 10}

	assert.Equal(t, int64(1000), a.Cost(0))
	assert.Equal(t, int64(1320), a.Cost(32))
}

func TestAllocator_GrowthCost(t *testing.T) {
	a := Allocator{BaseCost: 1000, CostPerByte: 10}

	assert.Equal(t, int64(640), a.GrowthCost(100, 164))
	assert.Equal(t, int64(0), a.GrowthCost(100, 100))
	assert.Equal(t, int64(0), a.GrowthCost(100, 50), "shrinking refunds nothing")
}
