// Package harness provides scenario-driven conformance testing for the
// query engine.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: vitals_latest
//	description: "Latest vitals for one patient, newest first"
//	dialect: sqlserver          # SQL the expect clauses are written in
//	steps:
//	  - name: latest_two
//	    request: { table: Vitals, patient_id: P001, latest: true, limit: 2 }
//	    expect:
//	      outcome: ok
//	      count: 2
//	      rows:
//	        - { VitalsID: V4 }
//	        - { VitalsID: V3 }
//	  - name: bad_from
//	    body: '{"table":"Vitals","from":"yesterday"}'
//	    expect:
//	      outcome: malformed_timestamp
//	      message: "Invalid datetime format: yesterday"
//	assertions:
//	  - type: ordered_by
//	    step: latest_two
//	    column: DateTime
//	    direction: desc
//	  - type: executed_count
//	    count: 1
//
// # Outcomes
//
//   - ok: rows were returned (possibly none)
//   - validation: the request was rejected before execution
//   - malformed_timestamp: from or to did not parse
//   - execution: the database failed
//
// # Assertion Types
//
//   - ordered_by: a step's rows are sorted on a column
//   - outcome_count: exactly N steps ended with an outcome
//   - executed_count: exactly N statements reached the database
//
// # Deterministic Testing
//
// Each run seeds a fresh SQLite file from the testutil fixtures, so the
// trace is byte-identical across runs. Golden files hold the canonical
// JSON of the trace, with each row reduced to its key column.
package harness
