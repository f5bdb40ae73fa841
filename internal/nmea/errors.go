// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package nmea

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure returned by this package and by sentence
// handlers built on it wraps exactly one of these.
var (
	// ErrChecksum: a checksum was present and did not match (or, when the
	// parser requires checksums, none was present).
	ErrChecksum = errors.New("checksum is invalid")
	// ErrFieldCount: fewer parameters than the sentence type needs.
	ErrFieldCount = errors.New("data is missing parameters")
	// ErrNumericFormat: a non-empty field is not the expected number.
	ErrNumericFormat = errors.New("bad number format")
	// ErrMalformed: no sentence name could be extracted from the line.
	ErrMalformed = errors.New("malformed sentence")
)

// ParseError reports why a sentence was rejected. Sentence is the zero
// value when the line could not be tokenized at all.
type ParseError struct {
	Sentence Sentence
	Cause    string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Cause == "" {
		return fmt.Sprintf("nmea: %v", e.Err)
	}
	return fmt.Sprintf("nmea: %s: %v", e.Cause, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError wraps err with the offending sentence and a cause text.
// If err already is a *ParseError its sentinel is kept and the causes are
// chained, outermost first.
func NewParseError(s Sentence, cause string, err error) *ParseError {
	var pe *ParseError
	if errors.As(err, &pe) {
		if pe.Cause != "" {
			cause = cause + " :: " + pe.Cause
		}
		return &ParseError{Sentence: s, Cause: cause, Err: pe.Err}
	}
	return &ParseError{Sentence: s, Cause: cause, Err: err}
}
