// Package ir provides the tagged value type shared by the filter compiler,
// the query builder and the execution gateway.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Values are a sealed interface: IRNull, IRString, IRInt, IRFloat,
//     IRBool and IRTime are the only implementations.
//   - Filter inputs are decoded leniently (UnmarshalLoose) but always land
//     in one of the sealed types before the compiler looks at them.
//   - Result cells are converted from driver values once (FromDriver) and
//     never mutated afterwards.
package ir
