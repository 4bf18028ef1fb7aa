// Package engine runs mounted templates.
//
// ARCHITECTURE:
//
// Single-Writer Task Loop:
// Loop processes tasks in one goroutine, in FIFO order. It implements
// store.Scheduler, so a store flush is one loop task and one loop task
// is one scheduling tick: every update made before the flush runs is
// coalesced into it.
//
// Render Cycle:
//  1. A store batch notifies the Mount's listener
//  2. The template is executed against the new state with the markup
//     backend, which resolves directives through the Mount's props.Cache
//  3. The markup is parsed into a snapshot and diffed against the
//     previous snapshot
//  4. The changes are applied to the live document with the cache's
//     hooks, which push cached attributes and handlers onto live nodes
//
// Render failures are logged and the loop continues ("log and
// continue"); the live document keeps its last good state.
package engine
