// Package ledger is the durable storage substrate for protocol records.
//
// It provides what the protocol core assumes of its host: records addressed
// by 32-byte derived locations, atomic serialized execution of each operation
// against the records it names, fee balances that fund storage allocation, a
// monotonic tick clock, and an imported entropy feed.
//
// SQLite backs all of it. A single writer connection with WAL journaling
// serializes concurrent operations; WithTx is the one atomic step the
// protocol's registries execute inside.
package ledger
