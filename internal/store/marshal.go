package store

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/chartquery/internal/ir"
)

// Row is one result record. Columns and Values are parallel; Columns keeps
// the order the driver reported, which is the SELECT order.
type Row struct {
	Columns []string
	Values  []ir.IRValue
}

// Get returns the value of column name.
func (r Row) Get(name string) (ir.IRValue, bool) {
	for i, col := range r.Columns {
		if col == name {
			return r.Values[i], true
		}
	}
	return nil, false
}

// MarshalJSON writes the row as a JSON object whose keys keep column order.
// HTML escaping is disabled so free-text notes round-trip unchanged.
func (r Row) MarshalJSON() ([]byte, error) {
	if len(r.Columns) != len(r.Values) {
		return nil, fmt.Errorf("row has %d columns but %d values", len(r.Columns), len(r.Values))
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := ir.MarshalString(col)
		if err != nil {
			return nil, fmt.Errorf("marshal column %q: %w", col, err)
		}
		buf.Write(key)
		buf.WriteByte(':')

		val, err := ir.MarshalIRValue(r.Values[i])
		if err != nil {
			return nil, fmt.Errorf("marshal column %q: %w", col, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// cellValue converts one scanned driver value, using the column's database
// type where the driver's Go type is ambiguous.
func cellValue(v any, dbType string) ir.IRValue {
	if b, ok := v.([]byte); ok && dbType == "UNIQUEIDENTIFIER" {
		if id, ok := uniqueIdentifier(b); ok {
			return ir.IRString(id)
		}
	}
	return ir.FromDriver(v)
}

// uniqueIdentifier renders SQL Server's mixed-endian GUID bytes in the
// canonical textual form. SQL Server stores the first three groups
// little-endian.
func uniqueIdentifier(b []byte) (string, bool) {
	if len(b) != 16 {
		return "", false
	}
	var u uuid.UUID
	copy(u[:], b)
	u[0], u[1], u[2], u[3] = b[3], b[2], b[1], b[0]
	u[4], u[5] = b[5], b[4]
	u[6], u[7] = b[7], b[6]
	return u.String(), true
}
