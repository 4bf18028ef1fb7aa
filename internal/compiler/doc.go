// Package compiler compiles lispui template source into a Template.
//
// Compilation runs in three synchronous stages:
//
//  1. lexer.Tokenize turns source into tokens.
//  2. Generate makes a single destructive pass over the tokens,
//     resolving each form's operator (Resolve) and building an explicit
//     call-expression tree. Structural problems are recorded on the
//     Program, not reported.
//  3. Build rejects programs with recorded problems (*CompileError) and
//     returns a Template closed over four slots: the backend's attribute
//     and element constructors, the custom function scope and the macro
//     table.
//
// A Template is interpreted directly; no code is generated and executed.
// Program.Source renders the equivalent nested call-expression text for
// display and debugging.
//
// Operator resolution order (first match wins):
//
//	:name / @name   attribute constructor
//	macro name      macro, called with the context as first argument
//	function name   custom function
//	anything else   element constructor (unknown tags render as elements)
package compiler
