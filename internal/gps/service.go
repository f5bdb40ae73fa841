// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"errors"
	"fmt"
	"strings"

	"github.com/relabs-tech/nmea_fix/internal/event"
	"github.com/relabs-tech/nmea_fix/internal/nmea"
)

// DefaultTalkerIDs are the talker prefixes the talker-scoped sentences are
// registered under. Multi-constellation receivers mix them freely.
var DefaultTalkerIDs = []string{"GP", "GA", "GL", "GN"}

// talkerScoped lists the sentence types registered once per talker id.
var talkerScoped = []string{"GGA", "GSA", "GSV", "RMC", "VTG", "HDT", "HDG"}

// Service interprets sentences into a single Fix.
//
// The Fix is only mutated from the goroutine that drives the attached
// parser. Subscribers run on that goroutine too; they may call Fix() but
// must not feed the parser.
type Service struct {
	// OnLockStateChanged is published with the new state whenever the lock
	// flips, before OnUpdate for the same sentence.
	OnLockStateChanged event.Event[bool]
	// OnUpdate is published after every successfully applied sentence.
	OnUpdate event.Signal

	fix Fix
}

// NewService creates a service attached to parser. With no talkers given,
// DefaultTalkerIDs is used.
func NewService(parser *nmea.Parser, talkers ...string) *Service {
	s := &Service{fix: NewFix()}
	if parser != nil {
		s.AttachToParser(parser, talkers...)
	}
	return s
}

// AttachToParser registers the service's sentence handlers on parser.
func (s *Service) AttachToParser(parser *nmea.Parser, talkers ...string) {
	if len(talkers) == 0 {
		talkers = DefaultTalkerIDs
	}

	handlers := map[string]nmea.Handler{
		"GGA": s.readGGA,
		"GSA": s.readGSA,
		"GSV": s.readGSV,
		"RMC": s.readRMC,
		"VTG": s.readVTG,
		"HDT": s.readHDT,
		"HDG": s.readHDG,
	}
	for _, talker := range talkers {
		talker = strings.ToUpper(strings.TrimSpace(talker))
		if talker == "" {
			continue
		}
		for _, typ := range talkerScoped {
			parser.SetSentenceHandler(talker+typ, handlers[typ])
		}
	}
	parser.SetSentenceHandler("PSRF150", s.readPSRF150)
	parser.SetSentenceHandler("PSSN", s.readPSSN)
}

// Fix returns a copy of the current fix.
func (s *Service) Fix() Fix {
	return s.fix.clone()
}

// applyFunc writes already-validated values into the fix and reports
// whether the lock flag flipped.
type applyFunc func(f *Fix) (lockChanged bool)

// decoder validates and converts every field a sentence type needs. It must
// not touch the fix; the returned applyFunc does that.
type decoder func(p []string) (applyFunc, error)

// interpret runs the common checks, then decode, then apply, then publishes.
func (s *Service) interpret(sent nmea.Sentence, label string, minParams int, decode decoder) error {
	if err := checkSentence(sent, minParams); err != nil {
		return badFormat(sent, label, err)
	}
	return s.apply(sent, label, decode)
}

// apply decodes an already checked sentence into the fix.
func (s *Service) apply(sent nmea.Sentence, label string, decode decoder) error {
	fn, err := decode(sent.Parameters())
	if err != nil {
		return badFormat(sent, label, err)
	}

	if fn(&s.fix) {
		s.OnLockStateChanged.Publish(s.fix.locked)
	}
	s.OnUpdate.Publish()
	return nil
}

func checkSentence(sent nmea.Sentence, minParams int) error {
	if sent.HasChecksum && !sent.ChecksumOK() {
		return &nmea.ParseError{Sentence: sent, Cause: "Checksum is invalid!", Err: nmea.ErrChecksum}
	}
	return checkFieldCount(sent, minParams)
}

func checkFieldCount(sent nmea.Sentence, minParams int) error {
	if sent.NumParameters() < minParams {
		return &nmea.ParseError{
			Sentence: sent,
			Cause:    fmt.Sprintf("GPS data is missing parameters (%d < %d)", sent.NumParameters(), minParams),
			Err:      nmea.ErrFieldCount,
		}
	}
	return nil
}

func badFormat(sent nmea.Sentence, label string, err error) error {
	kind := "GPS Data Bad Format"
	if errors.Is(err, nmea.ErrNumericFormat) {
		kind = "GPS Number Bad Format"
	}
	return nmea.NewParseError(sent, fmt.Sprintf("%s [$%s]", kind, label), err)
}
