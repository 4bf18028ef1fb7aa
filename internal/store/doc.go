// Package store provides the reactive state container templates render
// from.
//
// # State
//
// State is a flat key/value mapping that is replaced, never mutated, on
// every update. Update shallow-merges a partial mapping; UpdateFunc
// derives the partial mapping from the current state.
//
// # Coalesced notification
//
// Updates mark the store dirty and ask the Scheduler for one flush.
// Any number of updates before that flush produce a single listener
// pass, delivered as (next, prev) where prev is the state immediately
// before the first update of the batch. Updates made by a listener
// start the next batch.
//
// Listeners run in registration order. An unsubscribed listener is
// never called again, including for batches that were already pending.
//
// # Actions
//
// Actions maps event action names to state transitions. It is the
// dispatcher event handlers call; unknown names are logged and ignored.
package store
