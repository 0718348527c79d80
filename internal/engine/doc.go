// Package engine wires the query pipeline together.
//
// A request body flows strictly downward:
//
//	compiler.DecodeRequest -> compiler.CompileRequest -> querysql -> Executor
//
// and rows flow back up as a Result. Every failure is reported as a
// *QueryError whose Code decides how the boundary answers:
//
//   - ErrCodeValidation: bad JSON, unsupported value, unknown table (400)
//   - ErrCodeMalformedTimestamp: from/to not ISO-8601 (400)
//   - ErrCodeExecution: connect or statement failure (500)
//
// The engine keeps no state between requests. The registry it resolves
// tables against is immutable and shared.
package engine
