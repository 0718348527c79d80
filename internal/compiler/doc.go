// Package compiler turns a loosely-typed filter request into a
// queryir.Select.
//
// All parsing and validation of caller input happens here: JSON decoding
// into tagged values, limit resolution, timestamp parsing and the
// schema-shielding rules that drop filters a table cannot honour. The
// output is deterministic; predicates are always appended in the order
// patient, encounter, shift, from, to.
//
// Two inputs are corrected rather than rejected: an out-of-range or
// unparseable limit, and filters naming columns the table does not have.
// A timestamp that cannot be parsed is always rejected.
package compiler
