// Package render provides the two backends a compiled template can be
// built with.
//
// Tree builds *ir.Node values, suitable for inspection and snapshots.
// HTML builds Markup strings in which every attribute-bearing element
// carries a single data-props tracking attribute; the attributes
// themselves are resolved through a property cache and pushed onto the
// live document at patch time.
package render
