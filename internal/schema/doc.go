// Package schema holds the static registry of queryable tables.
//
// The registry is declared in registry.cue, embedded into the binary and
// decoded with the CUE SDK once at process start. After that it is
// read-only: lookups need no locking and every request sees the same
// descriptors.
//
// Table and column names from the registry are the only identifiers that
// ever reach query text. Request input is always bound as a parameter.
package schema
