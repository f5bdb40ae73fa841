// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"fmt"
	"math"
	"time"
)

// Timestamp is a UTC time of day plus calendar date as reported by the
// receiver. SetTime and SetDate each touch only their own fields.
type Timestamp struct {
	Hour int32
	Min  int32
	Sec  float64

	Month int32
	Day   int32
	Year  int32

	// Values as received.
	RawTime float64 // hhmmss.sss
	RawDate int32   // ddmmyy
}

// NewTimestamp returns midnight, January 1 1970.
func NewTimestamp() Timestamp {
	return Timestamp{Month: 1, Day: 1, Year: 1970}
}

// SetTime sets hour, minute and second from hhmmss.sss.
func (t *Timestamp) SetTime(raw float64) {
	t.RawTime = raw
	t.Hour = int32(math.Trunc(raw / 10000.0))
	t.Min = int32(math.Trunc((raw - float64(t.Hour)*10000) / 100.0))
	t.Sec = raw - float64(t.Min)*100 - float64(t.Hour)*10000
}

// SetDate sets day, month and year from ddmmyy. Years map to 2000+yy.
// A raw date of 0 means the receiver has no date yet and yields 1970-01-01.
func (t *Timestamp) SetDate(raw int32) {
	t.RawDate = raw
	if raw == 0 {
		t.Day, t.Month, t.Year = 1, 1, 1970
		return
	}
	t.Day = raw / 10000
	t.Month = (raw - 10000*t.Day) / 100
	t.Year = raw - 10000*t.Day - 100*t.Month + 2000
}

// Time converts to a time.Time in UTC.
func (t Timestamp) Time() time.Time {
	whole := math.Floor(t.Sec)
	nsec := int((t.Sec - whole) * 1e9)
	return time.Date(int(t.Year), time.Month(t.Month), int(t.Day), int(t.Hour), int(t.Min), int(whole), nsec, time.UTC)
}

func (t Timestamp) String() string {
	return fmt.Sprintf("%s %d %d   %d:%d:%.3f", monthName(t.Month), t.Day, t.Year, t.Hour, t.Min, t.Sec)
}

func monthName(m int32) string {
	if m < 1 || m > 12 {
		return fmt.Sprintf("Month(%d)", m)
	}
	return time.Month(m).String()
}
