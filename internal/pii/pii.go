// Package pii scrubs personally identifying information from free text.
//
// Only a pass-through implementation ships today. A real detector (for
// example a text-analytics service) plugs in behind Redactor.
package pii

import (
	"context"
	"errors"
)

// ErrEmptyText is returned when there is nothing to scrub.
var ErrEmptyText = errors.New("pii: empty text")

// Finding is one detected entity.
type Finding struct {
	Category string `json:"category"`
	Text     string `json:"text"`
	Offset   int    `json:"offset"`
	Length   int    `json:"length"`
}

// Result is the scrubbed text and what was found in it.
type Result struct {
	MaskedText string    `json:"masked_text"`
	Findings   []Finding `json:"findings"`
}

// Redactor masks PII in text.
type Redactor interface {
	Scrub(ctx context.Context, text string) (Result, error)
}

// Passthrough returns the text unchanged with no findings.
type Passthrough struct{}

var _ Redactor = Passthrough{}

// Scrub implements Redactor.
func (Passthrough) Scrub(_ context.Context, text string) (Result, error) {
	if text == "" {
		return Result{}, ErrEmptyText
	}
	return Result{MaskedText: text, Findings: []Finding{}}, nil
}
