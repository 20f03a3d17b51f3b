package ledger

// Allocator prices storage allocation for ledger records.
//
// A record's funding identity pays Cost(size) when the record is created and
// the growth delta whenever an append enlarges it. Charging happens inside
// the same atomic step as the mutation: if the debit fails, the whole step
// aborts and the record is left unchanged.
type Allocator struct {
	// BaseCost is the flat cost of holding any record at all.
	BaseCost int64

	// CostPerByte prices each stored byte.
	CostPerByte int64
}

// DefaultAllocator returns the standard pricing.
func DefaultAllocator() Allocator {
	return Allocator{BaseCost: 1024, CostPerByte: 8}
}

// Cost returns the total allocation cost of a record of the given size.
func (a Allocator) Cost(size int) int64 {
	return a.BaseCost + a.CostPerByte*int64(size)
}

// GrowthCost returns the additional cost of growing a record from oldSize to
// newSize. Shrinking or equal sizes cost nothing; nothing is refunded.
func (a Allocator) GrowthCost(oldSize, newSize int) int64 {
	if newSize <= oldSize {
		return 0
	}
	return a.CostPerByte * int64(newSize-oldSize)
}
