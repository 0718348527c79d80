package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery_LatestVitalsJSON(t *testing.T) {
	useFixtureDB(t)

	out, _, err := runCLI(t, "", "--format", "json", "query",
		"--body", `{"table":"Vitals","patient_id":"P001","latest":true,"limit":2}`)
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp["status"])

	data := resp["data"].(map[string]any)
	assert.Equal(t, "Vitals", data["table"])
	assert.EqualValues(t, 2, data["count"])

	rows := data["rows"].([]any)
	require.Len(t, rows, 2)
	assert.Equal(t, "V4", rows[0].(map[string]any)["VitalsID"])
	assert.Equal(t, "V3", rows[1].(map[string]any)["VitalsID"])
	assert.Equal(t, "2024-01-02T08:00:00Z", rows[0].(map[string]any)["DateTime"])
}

func TestQuery_BodyFromStdin(t *testing.T) {
	useFixtureDB(t)

	out, _, err := runCLI(t, `{"table":"Encounter","patient_id":"P002"}`, "query")
	require.NoError(t, err)
	assert.Contains(t, out, `"table": "Encounter"`)
	assert.Contains(t, out, `"count": 1`)
	assert.Contains(t, out, `"EncounterID": "E002"`)
}

func TestQuery_NoHTMLEscaping(t *testing.T) {
	useFixtureDB(t)

	out, _, err := runCLI(t, "", "--format", "json", "query", "--body", `{"table":"NursingNote"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "Febrile <38.5>, paracetamol given & settled.")
}

func TestQuery_Plan(t *testing.T) {
	useFixtureDB(t)

	out, _, err := runCLI(t, "", "--format", "json", "query", "--plan",
		"--body", `{"table":"Vitals","patient_id":"P001","shift":"Night","limit":500}`)
	require.NoError(t, err)

	data := decodeResponse(t, out)["data"].(map[string]any)
	assert.Equal(t, "Vitals", data["table"])
	assert.EqualValues(t, 200, data["limit"])
	sql := data["sql"].(string)
	assert.True(t, strings.HasSuffix(sql, " FROM Vitals WHERE PatientID = ? AND Shift = ? ORDER BY DateTime ASC LIMIT ?"), sql)
	assert.Equal(t, []any{"P001", "Night", float64(200)}, data["params"])
}

func TestQuery_PlanWithoutPredicates(t *testing.T) {
	useFixtureDB(t)

	out, _, err := runCLI(t, "", "--format", "json", "query", "--plan", "--body", `{"table":"Patient"}`)
	require.NoError(t, err)

	data := decodeResponse(t, out)["data"].(map[string]any)
	assert.Equal(t, []any{float64(50)}, data["params"])
}

func TestQuery_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
		wantMsg  string
	}{
		{"unknown table", `{"table":"Staff"}`, "VALIDATION", "Missing or unsupported table"},
		{"invalid json", `{"table":`, "VALIDATION", "Invalid JSON body"},
		{"bad from", `{"table":"Vitals","from":"last tuesday"}`, "MALFORMED_TIMESTAMP", "Invalid datetime format: last tuesday"},
		{"array value", `{"table":"Vitals","shift":["Day"]}`, "VALIDATION", "Unsupported value for shift: array"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useFixtureDB(t)

			out, _, err := runCLI(t, "", "--format", "json", "query", "--body", tt.body)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))

			resp := decodeResponse(t, out)
			assert.Equal(t, "error", resp["status"])
			errObj := resp["error"].(map[string]any)
			assert.Equal(t, tt.wantCode, errObj["code"])
			assert.Equal(t, tt.wantMsg, errObj["message"])
		})
	}
}

func TestQuery_TextError(t *testing.T) {
	useFixtureDB(t)

	out, _, err := runCLI(t, "", "query", "--body", `{"table":"Staff"}`)
	require.Error(t, err)
	assert.Equal(t, "ERROR: Missing or unsupported table\n", out)
	assert.True(t, alreadyReported(err))
}

func TestQuery_MissingSettings(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DB_BACKEND", "sqlserver")
	t.Setenv("FABRIC_SQL_SERVER", "")
	t.Setenv("FABRIC_SQL_DATABASE", "")
	t.Setenv("LOG_LEVEL", "error")

	out, _, err := runCLI(t, "", "--format", "json", "query", "--body", `{"table":"Patient"}`)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	errObj := decodeResponse(t, out)["error"].(map[string]any)
	assert.Equal(t, "EXECUTION", errObj["code"])
	assert.True(t, strings.HasPrefix(errObj["message"].(string), "Query failed: Missing required environment variables"))
}

func TestQuery_EmptyStdin(t *testing.T) {
	useFixtureDB(t)

	_, _, err := runCLI(t, "  \n", "query")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "no request body")
}

func TestQuery_InvalidBackend(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DB_BACKEND", "oracle")

	_, _, err := runCLI(t, "", "query", "--body", `{"table":"Patient"}`)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
