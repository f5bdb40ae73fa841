// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package event

import (
	"reflect"
	"testing"
)

func TestEvent_PublishInSubscriptionOrder(t *testing.T) {
	var e Event[int]
	var got []string
	e.Subscribe(func(v int) { got = append(got, "a") })
	e.Subscribe(func(v int) { got = append(got, "b") })
	e.Subscribe(func(v int) { got = append(got, "c") })

	e.Publish(1)

	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("order=%v want %v", got, want)
	}
}

func TestEvent_NoSubscribers(t *testing.T) {
	var e Event[bool]
	e.Publish(true)
	if e.Len() != 0 {
		t.Fatalf("expected no subscribers")
	}
}

func TestEvent_Unsubscribe(t *testing.T) {
	var e Event[int]
	var a, b int
	unsubA := e.Subscribe(func(v int) { a += v })
	e.Subscribe(func(v int) { b += v })

	e.Publish(2)
	unsubA()
	unsubA()
	e.Publish(3)

	if a != 2 {
		t.Fatalf("a=%d want 2", a)
	}
	if b != 5 {
		t.Fatalf("b=%d want 5", b)
	}
	if e.Len() != 1 {
		t.Fatalf("len=%d want 1", e.Len())
	}
}

func TestEvent_UnsubscribeDuringPublish(t *testing.T) {
	var e Event[int]
	calls := 0
	var unsub func()
	unsub = e.Subscribe(func(int) {
		calls++
		unsub()
	})
	e.Subscribe(func(int) { calls++ })

	e.Publish(0)
	if calls != 2 {
		t.Fatalf("calls=%d want 2", calls)
	}
	e.Publish(0)
	if calls != 3 {
		t.Fatalf("calls=%d want 3", calls)
	}
}

func TestSignal(t *testing.T) {
	var s Signal
	n := 0
	s.Subscribe(func() { n++ })
	s.Subscribe(nil)
	s.Publish()
	s.Publish()
	if n != 2 {
		t.Fatalf("n=%d want 2", n)
	}
	if s.Len() != 1 {
		t.Fatalf("len=%d want 1", s.Len())
	}
}
