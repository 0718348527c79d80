// Package queryir defines the compiled form of a filter request.
//
// A Select is what the filter compiler produces and the SQL builder
// consumes. It is deterministic: the same table descriptor and request
// always yield an identical Select, predicates included, in the same order.
//
//	[FilterRequest] → compiler → [Select] → querysql → (sql, params)
//
// SEALED INTERFACES:
//
// Predicate is sealed using the marker method pattern, so backends can
// switch exhaustively over the predicate kinds:
//
//	switch p := pred.(type) {
//	case Compare:
//	    // column <op> ?
//	default:
//	    // Impossible - only this package implements Predicate
//	}
//
// Every predicate carries exactly one value, which is always bound as a
// parameter and never rendered into query text.
package queryir
