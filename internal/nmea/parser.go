// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package nmea

import (
	"errors"
	"strings"
	"sync"

	"github.com/relabs-tech/nmea_fix/internal/event"
)

// Handler consumes one sentence. A returned error leaves the caller free
// to continue with the next line.
type Handler func(Sentence) error

// Parser maps sentence names to handlers.
//
// Registration may happen from any goroutine, but ReadSentence, ReadLines
// and Dispatch are meant to be driven by a single goroutine: handlers run
// synchronously on the caller's stack.
type Parser struct {
	// RequireChecksum rejects sentences that carry no checksum.
	RequireChecksum bool

	// OnSentence is published for every tokenized sentence, before dispatch.
	OnSentence event.Event[Sentence]

	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewParser() *Parser {
	return &Parser{handlers: make(map[string]Handler)}
}

// SetSentenceHandler registers h for the exact name (e.g. "GPGGA").
// A second registration for the same name replaces the first.
func (p *Parser) SetSentenceHandler(name string, h Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.handlers == nil {
		p.handlers = make(map[string]Handler)
	}
	if h == nil {
		delete(p.handlers, name)
		return
	}
	p.handlers[name] = h
}

// RemoveSentenceHandler drops the handler for name, if any.
func (p *Parser) RemoveSentenceHandler(name string) {
	p.SetSentenceHandler(name, nil)
}

// Handles reports whether a handler is registered for name.
func (p *Parser) Handles(name string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.handlers[name]
	return ok
}

// Names returns the registered sentence names in no particular order.
func (p *Parser) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.handlers))
	for name := range p.handlers {
		out = append(out, name)
	}
	return out
}

// Dispatch runs the handler registered for s.Name. Sentences nobody
// registered for are ignored and yield nil.
func (p *Parser) Dispatch(s Sentence) error {
	p.mu.RLock()
	h, ok := p.handlers[s.Name]
	p.mu.RUnlock()
	if !ok {
		return nil
	}
	if p.RequireChecksum && !s.HasChecksum {
		return &ParseError{Sentence: s, Cause: "checksum required", Err: ErrChecksum}
	}
	return h(s)
}

// ReadSentence tokenizes one line and dispatches it.
func (p *Parser) ReadSentence(line string) error {
	s, err := Parse(line)
	if err != nil {
		return err
	}
	p.OnSentence.Publish(s)
	return p.Dispatch(s)
}

// ReadLines processes every newline-separated line in data. Blank lines
// are skipped. A failing line does not stop the rest; all failures are
// returned joined.
func (p *Parser) ReadLines(data string) error {
	var errs []error
	for _, line := range strings.Split(data, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := p.ReadSentence(line); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
