// Package ir provides the shared value types for lispui.
//
// This package contains the types that flow between the compiler, the
// render backends, the property cache and the patch engine. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Template values are plain Go values (string, float64, bool, nil,
//     []any, map[string]any) plus *Node and Attr
//   - Numbers coming from template source are always float64
//   - Dotted paths address map fields and slice positions alike
//   - Snapshot serialization is canonical (sorted keys, NFC strings)
package ir
