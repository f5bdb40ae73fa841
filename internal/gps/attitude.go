// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import "fmt"

// Attitude is heading/roll/pitch as reported by HDT, HDG or PSSN,HRP.
type Attitude struct {
	Timestamp Timestamp

	Heading          float64 // degrees true north (0-360)
	Roll             float64 // degrees
	Pitch            float64 // degrees
	HeadingDeviation float64 // degrees
	RollDeviation    float64 // degrees
	PitchDeviation   float64 // degrees

	SatelliteCount int32 // satellites used for the attitude solution

	// ModeIndicator:
	//	0 no attitude
	//	1 heading, pitch with float ambiguities
	//	2 heading, pitch with fixed ambiguities
	//	3 heading, pitch, roll with float ambiguities
	//	4 heading, pitch, roll with fixed ambiguities
	//	5 heading, pitch from velocity (dead reckoning)
	//	6 heading, pitch, roll from non-RTK INS
	//	7 heading, pitch, roll from RTK INS
	//	8 heading, pitch, roll from INS coasting
	ModeIndicator int8

	MagneticVariation  float64 // degrees
	MagnetVarDirection byte    // 'E' or 'W'
}

func NewAttitude() Attitude {
	return Attitude{Timestamp: NewTimestamp(), MagnetVarDirection: 'E'}
}

func (a Attitude) String() string {
	return fmt.Sprintf("[Heading: %.2f deg (±%.2f)  Roll: %.2f deg (±%.2f)  Pitch: %.2f deg (±%.2f)  Sats: %d  Mode: %d  MagVar: %.1f %c  @ %s]",
		a.Heading, a.HeadingDeviation, a.Roll, a.RollDeviation, a.Pitch, a.PitchDeviation,
		a.SatelliteCount, a.ModeIndicator, a.MagneticVariation, a.MagnetVarDirection, a.Timestamp)
}
