// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package event is a small synchronous publish/subscribe primitive.
//
// Subscribers are called on the publisher's goroutine, in the order they
// subscribed. Publishing from inside a subscriber is allowed; feeding new
// input into whatever drives the publisher from inside a subscriber is not.
package event

import "sync"

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// Event delivers values of type T to zero or more subscribers.
// The zero value is ready to use.
type Event[T any] struct {
	mu     sync.Mutex
	nextID uint64
	subs   []subscriber[T]
}

// Subscribe registers fn and returns a function that removes it again.
// Calling the returned function more than once is harmless.
func (e *Event[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	e.mu.Lock()
	e.nextID++
	id := e.nextID
	e.subs = append(e.subs, subscriber[T]{id: id, fn: fn})
	e.mu.Unlock()

	return func() { e.remove(id) }
}

func (e *Event[T]) remove(id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, s := range e.subs {
		if s.id == id {
			// Copy so a Publish already iterating the old slice is unaffected.
			next := make([]subscriber[T], 0, len(e.subs)-1)
			next = append(next, e.subs[:i]...)
			next = append(next, e.subs[i+1:]...)
			e.subs = next
			return
		}
	}
}

// Publish calls every subscriber with v.
func (e *Event[T]) Publish(v T) {
	e.mu.Lock()
	subs := e.subs
	e.mu.Unlock()

	for _, s := range subs {
		s.fn(v)
	}
}

// Len reports the number of current subscribers.
func (e *Event[T]) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subs)
}

// Signal is an Event without a payload.
type Signal struct {
	ev Event[struct{}]
}

// Subscribe registers fn and returns a function that removes it again.
func (s *Signal) Subscribe(fn func()) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	return s.ev.Subscribe(func(struct{}) { fn() })
}

// Publish calls every subscriber.
func (s *Signal) Publish() {
	s.ev.Publish(struct{}{})
}

// Len reports the number of current subscribers.
func (s *Signal) Len() int {
	return s.ev.Len()
}
