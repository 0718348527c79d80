package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry_HasTenTables(t *testing.T) {
	names := Default().Names()
	assert.Equal(t, []string{
		"Encounter",
		"ImagingExam",
		"IntakeOutput",
		"LabResult",
		"Medication",
		"NursingNote",
		"Patient",
		"PhysicianProgressNote",
		"Vitals",
		"WeeklySummary",
	}, names)
}

func TestDefaultRegistry_OrderColumnsAreColumns(t *testing.T) {
	for _, table := range Default().Tables() {
		t.Run(table.Name, func(t *testing.T) {
			if table.HasTimeColumn() {
				assert.True(t, table.HasColumn(table.TimeColumn))
			}
			assert.True(t, table.HasColumn(table.FallbackOrderColumn))
			assert.NoError(t, table.Validate())
		})
	}
}

func TestDefaultRegistry_TimeColumns(t *testing.T) {
	want := map[string]string{
		"Patient":               "",
		"Encounter":             "AdmissionDateTime",
		"Vitals":                "DateTime",
		"IntakeOutput":          "RecordEnd",
		"NursingNote":           "NoteDateTime",
		"PhysicianProgressNote": "NoteDate",
		"WeeklySummary":         "SummaryDate",
		"LabResult":             "SpecimenDateTime",
		"Medication":            "StartDateTime",
		"ImagingExam":           "ExamDateTime",
	}

	withTime := 0
	for name, timeCol := range want {
		table, ok := Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, timeCol, table.TimeColumn, name)
		if table.HasTimeColumn() {
			withTime++
		}
	}
	assert.Equal(t, 9, withTime)
}

func TestLookup_Patient(t *testing.T) {
	table, ok := Lookup("Patient")
	require.True(t, ok)

	assert.Equal(t, "Patient", table.Name)
	assert.False(t, table.HasTimeColumn())
	assert.Equal(t, "PatientID", table.OrderColumn())
	assert.Equal(t, []string{
		"PatientID", "Sex", "DateOfBirth", "Age",
		"ChronicConditions", "RiskFlags", "City", "NationalID_Fake",
	}, table.Columns)
}

func TestLookup_Vitals(t *testing.T) {
	table, ok := Lookup("Vitals")
	require.True(t, ok)

	assert.Equal(t, "DateTime", table.OrderColumn())
	assert.Len(t, table.Columns, 12)
	assert.Equal(t, "VitalsID", table.Columns[0])
	assert.True(t, table.HasColumn("Shift"))
}

func TestLookup_NotFound(t *testing.T) {
	_, ok := Lookup("Unknown")
	assert.False(t, ok)

	// Case-sensitive
	_, ok = Lookup("vitals")
	assert.False(t, ok)
}

func TestLookup_ReturnsCopy(t *testing.T) {
	table, ok := Lookup("Vitals")
	require.True(t, ok)
	table.Columns[0] = "Hacked"

	again, _ := Lookup("Vitals")
	assert.Equal(t, "VitalsID", again.Columns[0])
}

func TestNewRegistry_RejectsBadDescriptors(t *testing.T) {
	tests := []struct {
		name  string
		table Table
	}{
		{"no columns", Table{Name: "T", FallbackOrderColumn: "ID"}},
		{"time column missing", Table{Name: "T", Columns: []string{"ID"}, TimeColumn: "At", FallbackOrderColumn: "ID"}},
		{"fallback missing", Table{Name: "T", Columns: []string{"ID"}, FallbackOrderColumn: "Other"}},
		{"no fallback", Table{Name: "T", Columns: []string{"ID"}}},
		{"duplicate column", Table{Name: "T", Columns: []string{"ID", "ID"}, FallbackOrderColumn: "ID"}},
		{"bad table name", Table{Name: "T; DROP", Columns: []string{"ID"}, FallbackOrderColumn: "ID"}},
		{"bad column name", Table{Name: "T", Columns: []string{"ID", "a b"}, FallbackOrderColumn: "ID"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.table)
			require.Error(t, err)

			var descErr *DescriptorError
			assert.ErrorAs(t, err, &descErr)
		})
	}
}

func TestNewRegistry_RejectsDuplicateTables(t *testing.T) {
	table := Table{Name: "T", Columns: []string{"ID"}, FallbackOrderColumn: "ID"}
	_, err := NewRegistry(table, table)
	assert.Error(t, err)
}

func TestLoad_CUEConstraintViolation(t *testing.T) {
	src := `
#Ident: =~"^[A-Za-z_][A-Za-z0-9_]*$"
#Table: {
	name: #Ident
	columns: [...#Ident]
	time_column?: #Ident
	fallback_order: #Ident
}
tables: [...#Table]
tables: [{name: "Bad Name", columns: ["ID"], fallback_order: "ID"}]
`
	_, err := Load("bad.cue", src)
	require.Error(t, err)

	var loadErr *LoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestLoad_MissingTables(t *testing.T) {
	_, err := Load("empty.cue", `other: 1`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tables")
}

func TestLoad_InvariantCheckedAfterDecode(t *testing.T) {
	src := `tables: [{name: "T", columns: ["ID"], time_column: "At", fallback_order: "ID"}]`
	_, err := Load("t.cue", src)
	require.Error(t, err)

	var descErr *DescriptorError
	assert.ErrorAs(t, err, &descErr)
}
