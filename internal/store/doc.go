// Package store is the execution gateway: it turns compiled SQL plus bound
// parameters into result rows.
//
// A DriverFactory opens one fresh handle per call for the configured
// backend:
//
//   - sqlserver: Microsoft Fabric / Azure SQL through go-mssqldb's azuread
//     driver with service-principal authentication
//   - postgres: pgx through database/sql
//   - sqlite: mattn/go-sqlite3, opened query-only
//
// The Gateway never pools, never retries and never interpolates values.
// Query text arrives with `?` placeholders and is rebound with sqlx to the
// driver's native style. Every failure surfaces as *ExecutionError.
//
// Rows keep the driver-reported column order and marshal to JSON objects in
// that order.
package store
