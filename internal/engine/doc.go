// Package engine applies protocol operations against the ledger.
//
// The Dispatcher decodes an incoming request into one of the five operations
// and routes it to the pool or session registry. Each registry method is one
// atomic step: every precondition is re-validated from durable state inside
// the step, and either the whole mutation commits or none of it does.
//
// Nothing here blocks, retries, or spans multiple steps. A caller that wants
// to abandon an in-flight session simply never finalizes it.
package engine
