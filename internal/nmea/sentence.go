// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package nmea tokenizes NMEA 0183 sentences and dispatches them by name
// to registered handlers.
package nmea

import (
	"fmt"
	"strconv"
	"strings"

	gonmea "github.com/adrianmo/go-nmea"
)

// Sentence is one tokenized NMEA line. Treat it as immutable; Parameters
// returns a copy.
type Sentence struct {
	// Name is the full sentence name without the '$' or '!' marker,
	// e.g. "GPGGA" or "PSRF150".
	Name string
	// Talker is the 2-letter talker id ("GP", "GN", ...), empty for
	// proprietary and short names.
	Talker string
	// Type is Name without the talker id.
	Type string

	// Checksum is the transmitted value, valid only when HasChecksum and
	// ChecksumParsed are both set.
	Checksum         byte
	ComputedChecksum byte
	HasChecksum      bool
	ChecksumParsed   bool

	Raw string

	params []string
}

// Parameters returns the comma-separated fields after the name, in source
// order. Omitted fields are present as empty strings.
func (s Sentence) Parameters() []string {
	out := make([]string, len(s.params))
	copy(out, s.params)
	return out
}

// NumParameters is len(Parameters()) without the copy.
func (s Sentence) NumParameters() int {
	return len(s.params)
}

// Param returns parameter i, or "" when i is out of range.
func (s Sentence) Param(i int) string {
	if i < 0 || i >= len(s.params) {
		return ""
	}
	return s.params[i]
}

// ChecksumOK is true iff a checksum was transmitted, parsed as hex and
// matches the computed one.
func (s Sentence) ChecksumOK() bool {
	return s.HasChecksum && s.ChecksumParsed && s.Checksum == s.ComputedChecksum
}

func (s Sentence) String() string {
	if s.Raw != "" {
		return s.Raw
	}
	return s.Name + "," + strings.Join(s.params, ",")
}

// Parse tokenizes one raw line. Checksum mismatches are not an error here;
// see ChecksumOK. The only failure is ErrMalformed.
func Parse(line string) (Sentence, error) {
	raw := strings.TrimSpace(line)
	for i := 0; i < len(raw); i++ {
		if raw[i] < 0x20 || raw[i] > 0x7e {
			return Sentence{}, &ParseError{Cause: fmt.Sprintf("non-printable byte 0x%02x at %d", raw[i], i), Err: ErrMalformed}
		}
	}

	body := raw
	if strings.HasPrefix(body, "$") || strings.HasPrefix(body, "!") {
		body = body[1:]
	}

	s := Sentence{Raw: raw}
	if star := strings.LastIndexByte(body, '*'); star != -1 {
		s.HasChecksum = true
		ck := strings.TrimSpace(body[star+1:])
		body = body[:star]
		if len(ck) == 2 {
			if v, err := strconv.ParseUint(ck, 16, 8); err == nil {
				s.Checksum = byte(v)
				s.ChecksumParsed = true
			}
		}
	}
	s.ComputedChecksum = computeChecksum(body)

	parts := strings.Split(body, ",")
	s.Name = strings.TrimSpace(parts[0])
	if s.Name == "" {
		return Sentence{}, &ParseError{Cause: fmt.Sprintf("no sentence name in %q", raw), Err: ErrMalformed}
	}
	s.params = parts[1:]
	s.Talker, s.Type = splitName(s.Name)
	return s, nil
}

// splitName separates the talker id from the sentence type. Proprietary
// sentences (leading 'P') keep their full name as the type.
func splitName(name string) (talker, typ string) {
	if len(name) >= 5 && name[0] != 'P' && isLetter(name[0]) && isLetter(name[1]) {
		return name[:2], name[2:]
	}
	return "", name
}

func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func computeChecksum(body string) byte {
	v, err := strconv.ParseUint(gonmea.Checksum(body), 16, 8)
	if err != nil {
		// gonmea.Checksum always yields two hex digits.
		return 0
	}
	return byte(v)
}
