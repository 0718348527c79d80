package store

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/chartquery/internal/ir"
)

func TestRow_MarshalJSONKeepsColumnOrder(t *testing.T) {
	row := Row{
		Columns: []string{"Zeta", "Alpha", "Mid"},
		Values:  []ir.IRValue{ir.IRInt(1), ir.IRString("a"), ir.IRNull{}},
	}

	data, err := json.Marshal(row)
	require.NoError(t, err)
	assert.Equal(t, `{"Zeta":1,"Alpha":"a","Mid":null}`, string(data))
}

func TestRow_MarshalJSONValues(t *testing.T) {
	row := Row{
		Columns: []string{"Note", "When", "Temp", "Flag"},
		Values: []ir.IRValue{
			ir.IRString("<b> & co"),
			ir.IRTime(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)),
			ir.IRFloat(37.5),
			ir.IRBool(true),
		},
	}

	data, err := row.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"Note":"<b> & co","When":"2024-01-02T03:04:05Z","Temp":37.5,"Flag":true}`, string(data))
}

// encodeNoEscape mirrors how the HTTP and CLI layers write responses.
func encodeNoEscape(t *testing.T, v any) string {
	t.Helper()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	require.NoError(t, enc.Encode(v))
	return strings.TrimSuffix(buf.String(), "\n")
}

func TestRow_EncodedInsideResponse(t *testing.T) {
	rows := []Row{{
		Columns: []string{"N<ote>"},
		Values:  []ir.IRValue{ir.IRString("<b> & co")},
	}}

	assert.Equal(t, `[{"N<ote>":"<b> & co"}]`, encodeNoEscape(t, rows))
}

func TestRow_MarshalJSONMismatch(t *testing.T) {
	_, err := json.Marshal(Row{Columns: []string{"A"}})
	require.Error(t, err)
}

func TestRow_MarshalJSONEmpty(t *testing.T) {
	data, err := json.Marshal(Row{})
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))
}

func TestRow_Get(t *testing.T) {
	row := Row{Columns: []string{"A", "B"}, Values: []ir.IRValue{ir.IRInt(1), ir.IRInt(2)}}

	v, ok := row.Get("B")
	assert.True(t, ok)
	assert.Equal(t, ir.IRInt(2), v)

	_, ok = row.Get("b")
	assert.False(t, ok)
}

func TestCellValue_UniqueIdentifier(t *testing.T) {
	// 6F9619FF-8B86-D011-B42D-00C04FC964FF as SQL Server sends it
	raw := []byte{0xFF, 0x19, 0x96, 0x6F, 0x86, 0x8B, 0x11, 0xD0, 0xB4, 0x2D, 0x00, 0xC0, 0x4F, 0xC9, 0x64, 0xFF}

	assert.Equal(t, ir.IRString("6f9619ff-8b86-d011-b42d-00c04fc964ff"), cellValue(raw, "UNIQUEIDENTIFIER"))
	assert.Equal(t, ir.IRString(string(raw)), cellValue(raw, "VARBINARY"))
	assert.Equal(t, ir.IRString("abc"), cellValue([]byte("abc"), "UNIQUEIDENTIFIER"))
}
