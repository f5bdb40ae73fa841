// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package nmea

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseFloat converts a numeric field. An empty field is not an error:
// it returns ok == false so callers can choose between keeping the old
// value and treating it as zero.
func ParseFloat(field string) (v float64, ok bool, err error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return 0, false, nil
	}
	v, err = strconv.ParseFloat(field, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false, fmt.Errorf("%w: %q is not a number", ErrNumericFormat, field)
	}
	return v, true, nil
}

// ParseInt is ParseFloat for integer fields ("08", "-3").
func ParseInt(field string) (v int64, ok bool, err error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return 0, false, nil
	}
	v, err = strconv.ParseInt(field, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %q is not an integer", ErrNumericFormat, field)
	}
	return v, true, nil
}

// ParseIntRange is ParseInt limited to [min, max]. An empty field is still
// ok == false without error; it is the caller's default, not a value.
func ParseIntRange(field string, min, max int64) (v int64, ok bool, err error) {
	v, ok, err = ParseInt(field)
	if err != nil || !ok {
		return v, ok, err
	}
	if v < min || v > max {
		return 0, false, fmt.Errorf("%w: %d is outside [%d, %d]", ErrNumericFormat, v, min, max)
	}
	return v, true, nil
}
