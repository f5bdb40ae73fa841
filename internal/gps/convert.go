// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"math"
	"strings"

	"github.com/relabs-tech/nmea_fix/internal/nmea"
)

const knotsToKmh = 1.852

// LatLonToDegrees converts NMEA ddmm.mmmm / dddmm.mmmm plus hemisphere to
// signed decimal degrees. S and W are negative; a missing hemisphere is
// treated as N/E.
func LatLonToDegrees(value, hemisphere string) (float64, error) {
	v, _, err := nmea.ParseFloat(value)
	if err != nil {
		return 0, err
	}
	deg := math.Trunc(v / 100)
	mins := v - deg*100
	deg += mins / 60.0

	switch strings.TrimSpace(hemisphere) {
	case "S", "W":
		deg = -deg
	}
	return deg, nil
}

// KnotsToKmh converts knots to kilometers per hour.
func KnotsToKmh(knots float64) float64 {
	return knots * knotsToKmh
}
