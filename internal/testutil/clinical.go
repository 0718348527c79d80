package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/chartquery/internal/schema"
)

// At returns 2024-01-<day> <hour>:00 UTC, the time base of the fixtures.
func At(day, hour int) time.Time {
	return time.Date(2024, time.January, day, hour, 0, 0, 0, time.UTC)
}

// fixtureRows is the seed data, keyed by table. Columns not named are NULL.
var fixtureRows = map[string][]map[string]any{
	"Patient": {
		{"PatientID": "P001", "Sex": "F", "DateOfBirth": At(1, 0).AddDate(-67, 0, 0), "Age": 67, "City": "Lisbon", "NationalID_Fake": "X-001"},
		{"PatientID": "P002", "Sex": "M", "DateOfBirth": At(1, 0).AddDate(-45, 0, 0), "Age": 45, "City": "Porto", "RiskFlags": "falls"},
		{"PatientID": "P003", "Sex": "F", "Age": 30},
	},
	"Encounter": {
		{"EncounterID": "E001", "PatientID": "P001", "AdmissionDateTime": At(1, 7), "Acuity": "High", "Ward": "4B"},
		{"EncounterID": "E002", "PatientID": "P002", "AdmissionDateTime": At(1, 8), "Acuity": "Low", "Ward": "2A"},
	},
	"Vitals": {
		{"VitalsID": "V1", "EncounterID": "E001", "PatientID": "P001", "DateTime": At(1, 8), "Shift": "Day", "Temp_C": 37.1, "HR_bpm": 80},
		{"VitalsID": "V2", "EncounterID": "E001", "PatientID": "P001", "DateTime": At(1, 12), "Shift": "Day", "Temp_C": 37.6, "HR_bpm": 88},
		{"VitalsID": "V3", "EncounterID": "E001", "PatientID": "P001", "DateTime": At(1, 20), "Shift": "Night", "Temp_C": 38.2, "HR_bpm": 97},
		{"VitalsID": "V4", "EncounterID": "E001", "PatientID": "P001", "DateTime": At(2, 8), "Shift": "Day", "Temp_C": 37.0, "HR_bpm": 76},
		{"VitalsID": "V5", "EncounterID": "E002", "PatientID": "P002", "DateTime": At(1, 9), "Shift": "Day", "Temp_C": 36.8, "HR_bpm": 70},
		{"VitalsID": "V6", "EncounterID": "E002", "PatientID": "P002", "DateTime": At(1, 21), "Shift": "Night", "Temp_C": 36.9, "HR_bpm": 72},
	},
	"IntakeOutput": {
		{"IO_ID": "IO1", "EncounterID": "E001", "PatientID": "P001", "RecordStart": At(1, 8), "RecordEnd": At(1, 20), "Shift": "Day", "Intake_Oral_ml": 800, "Output_Urine_ml": 650, "NetBalance_ml": 150},
	},
	"NursingNote": {
		{"NursingNoteID": "N1", "EncounterID": "E001", "PatientID": "P001", "NoteDateTime": At(1, 21), "Shift": "Night", "NoteType": "Progress", "NoteText": "Febrile <38.5>, paracetamol given & settled."},
	},
	"PhysicianProgressNote": {
		{"PhysicianProgressNoteID": "PN1", "EncounterID": "E001", "PatientID": "P001", "NoteDate": At(2, 0), "Service": "Medicine", "NoteText": "Improving."},
	},
	"WeeklySummary": {
		{"WeeklySummaryID": "W1", "EncounterID": "E001", "PatientID": "P001", "WeekStartDate": At(1, 0), "WeekEndDate": At(7, 0), "SummaryDate": At(7, 12), "SummaryText": "Stable week."},
	},
	"LabResult": {
		{"LabResultID": "L1", "EncounterID": "E001", "PatientID": "P001", "SpecimenDateTime": At(1, 6), "LabType": "Chemistry", "TestName": "CRP", "ResultValue": "48", "Unit": "mg/L", "Flag": "H"},
	},
	"Medication": {
		{"MedicationID": "M1", "EncounterID": "E001", "PatientID": "P001", "MedicationName": "Paracetamol", "Dose": "1 g", "Route": "PO", "Frequency": "q6h", "StartDateTime": At(1, 21)},
	},
	"ImagingExam": {
		{"ImagingExamID": "I1", "EncounterID": "E001", "PatientID": "P001", "ExamDateTime": At(1, 10), "ExamType": "Chest", "Modality": "XR", "StudyName": "CXR PA"},
	},
}

// FixtureCount returns how many rows table was seeded with.
func FixtureCount(table string) int {
	return len(fixtureRows[table])
}

// ClinicalDB creates a SQLite database in t's temp dir with every table of
// the default registry, seeds it and returns its path.
func ClinicalDB(t testing.TB) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "clinical.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open fixture database: %v", err)
	}
	defer db.Close()

	if err := SeedClinical(context.Background(), db, schema.Default()); err != nil {
		t.Fatalf("seed fixture database: %v", err)
	}
	return path
}

// SeedClinical creates every table in reg and inserts the fixture rows.
func SeedClinical(ctx context.Context, db *sql.DB, reg *schema.Registry) error {
	for _, table := range reg.Tables() {
		defs := make([]string, 0, len(table.Columns))
		for _, col := range table.Columns {
			defs = append(defs, col+" "+columnType(col))
		}
		ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table.Name, strings.Join(defs, ", "))
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create %s: %w", table.Name, err)
		}

		for i, values := range fixtureRows[table.Name] {
			if err := insertRow(ctx, db, table, values); err != nil {
				return fmt.Errorf("insert %s row %d: %w", table.Name, i, err)
			}
		}
	}
	return nil
}

func insertRow(ctx context.Context, db *sql.DB, table schema.Table, values map[string]any) error {
	marks := make([]string, len(table.Columns))
	args := make([]any, len(table.Columns))
	for i, col := range table.Columns {
		marks[i] = "?"
		args[i] = values[col]
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table.Name, strings.Join(table.Columns, ", "), strings.Join(marks, ", "))
	_, err := db.ExecContext(ctx, stmt, args...)
	return err
}

// columnType guesses a SQLite declared type from a column name.
// DATETIME makes the driver hand back time.Time.
func columnType(col string) string {
	switch {
	case strings.HasSuffix(col, "DateTime"), strings.HasSuffix(col, "Date"),
		col == "DateOfBirth", col == "RecordStart", col == "RecordEnd":
		return "DATETIME"
	case col == "Temp_C":
		return "REAL"
	case col == "Age", strings.HasSuffix(col, "_bpm"), strings.HasSuffix(col, "_mmHg"),
		strings.HasSuffix(col, "_pct"), strings.HasSuffix(col, "_ml"),
		strings.HasSuffix(col, "_count"), col == "PainScore_0_10":
		return "INTEGER"
	default:
		return "TEXT"
	}
}
