package compiler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/roach88/chartquery/internal/ir"
)

// Request field names as they appear in the JSON body.
const (
	FieldTable       = "table"
	FieldPatientID   = "patient_id"
	FieldEncounterID = "encounter_id"
	FieldShift       = "shift"
	FieldFrom        = "from"
	FieldTo          = "to"
	FieldLatest      = "latest"
	FieldLimit       = "limit"
)

// FilterRequest is one caller's filter, decoded but not yet validated.
//
// Filter fields hold whatever scalar the caller sent; a nil or IRNull
// field is "not supplied". Compile decides what each value means.
type FilterRequest struct {
	Table       string
	PatientID   ir.IRValue
	EncounterID ir.IRValue
	Shift       ir.IRValue
	From        ir.IRValue
	To          ir.IRValue
	Latest      bool
	Limit       ir.IRValue
}

// DecodeRequest parses a JSON request body.
//
// The body must be a JSON object. Unknown keys are ignored. A non-string
// table is treated as missing. latest follows truthiness, so "yes" and 1
// both mean true. Arrays and objects in any recognized field are rejected
// with ErrUnsupportedValue.
func DecodeRequest(body []byte) (FilterRequest, error) {
	var req FilterRequest

	var fields map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&fields); err != nil {
		return req, newInvalidJSON(err)
	}
	if fields == nil {
		// Body was the literal null
		return req, newInvalidJSON(errors.New("body is null"))
	}
	if _, err := dec.Token(); err != io.EOF {
		return req, newInvalidJSON(errors.New("trailing data after JSON object"))
	}

	if raw, ok := fields[FieldTable]; ok {
		v, err := ir.UnmarshalLoose(raw)
		if err != nil {
			return req, decodeFieldError(FieldTable, err)
		}
		if s, ok := v.(ir.IRString); ok {
			req.Table = string(s)
		}
	}

	targets := []struct {
		name string
		dst  *ir.IRValue
	}{
		{FieldPatientID, &req.PatientID},
		{FieldEncounterID, &req.EncounterID},
		{FieldShift, &req.Shift},
		{FieldFrom, &req.From},
		{FieldTo, &req.To},
		{FieldLimit, &req.Limit},
	}
	for _, target := range targets {
		raw, ok := fields[target.name]
		if !ok {
			continue
		}
		v, err := ir.UnmarshalLoose(raw)
		if err != nil {
			return req, decodeFieldError(target.name, err)
		}
		*target.dst = v
	}

	if raw, ok := fields[FieldLatest]; ok {
		v, err := ir.UnmarshalLoose(raw)
		if err != nil {
			return req, decodeFieldError(FieldLatest, err)
		}
		req.Latest = ir.Truthy(v)
	}

	return req, nil
}

func decodeFieldError(field string, err error) error {
	var kindErr *ir.UnsupportedKindError
	if errors.As(err, &kindErr) {
		return newUnsupportedValue(field, kindErr.Kind)
	}
	return newInvalidJSON(err)
}
