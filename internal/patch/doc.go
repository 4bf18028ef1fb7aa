// Package patch diffs two HTML snapshots and applies the difference to
// a live document.
//
// Snapshots and the live document are golang.org/x/net/html trees.
// Changes address nodes by route: the child indexes leading from the
// root to the target. Apply consults Hooks before every attribute
// mutation and after every committed change, which is how the property
// cache keeps real attributes off the snapshots.
package patch
