// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Fix is the current best knowledge of the receiver's state. Sentences
// update it field by field, so values not reported by a sentence keep
// whatever an earlier sentence set.
type Fix struct {
	Almanac   Almanac
	Timestamp Timestamp

	Status  byte  // 'A' active, 'V' void
	Type    uint8 // 1 none, 2 2D, 3 3D
	Quality uint8 // 0 invalid, 1 GPS, 2 DGPS, 3 PPS, 4 RTK, 5 float RTK, 6 estimated, 7 manual, 8 simulation

	Dilution           float64 // PDOP
	HorizontalDilution float64 // HDOP, best 1, worst > 20
	VerticalDilution   float64 // VDOP

	Altitude    float64 // meters
	Latitude    float64 // degrees, north positive
	Longitude   float64 // degrees, east positive
	Speed       float64 // km/h
	TravelAngle float64 // degrees true north (0-360)

	Attitude Attitude

	TrackingSatellites int32
	VisibleSatellites  int32

	locked bool
}

// NewFix returns a fix in its power-on state: void, no fix type, unlocked.
func NewFix() Fix {
	return Fix{
		Status:    'V',
		Type:      1,
		Timestamp: NewTimestamp(),
		Attitude:  NewAttitude(),
	}
}

// setLock is the only way the lock flag changes. It reports whether the
// flag actually flipped.
func (f *Fix) setLock(locked bool) bool {
	if f.locked == locked {
		return false
	}
	f.locked = locked
	return true
}

// Locked reports whether the receiver currently has a usable fix.
func (f Fix) Locked() bool {
	return f.locked
}

// HorizontalAccuracy is the 95% (2drms) horizontal error estimate in meters.
func (f Fix) HorizontalAccuracy() float64 {
	return 4.0 * f.HorizontalDilution
}

// VerticalAccuracy is the 95% (2drms) vertical error estimate in meters.
func (f Fix) VerticalAccuracy() float64 {
	return 6.0 * f.VerticalDilution
}

// HasEstimate is true once a position was reported, or the receiver is
// dead reckoning.
func (f Fix) HasEstimate() bool {
	return (f.Latitude != 0 && f.Longitude != 0) || f.Quality == 6
}

// TimeSinceLastUpdate is the age of the fix timestamp relative to now.
func (f Fix) TimeSinceLastUpdate() time.Duration {
	return f.timeSince(time.Now())
}

func (f Fix) timeSince(now time.Time) time.Duration {
	d := now.Sub(f.Timestamp.Time()).Truncate(time.Second)
	if d < 0 {
		return 0
	}
	return d
}

// clone returns a copy that shares no memory with f.
func (f Fix) clone() Fix {
	out := f
	out.Almanac.Satellites = append([]Satellite(nil), f.Almanac.Satellites...)
	return out
}

var (
	compassNames  = [...]string{"North", "North East", "East", "South East", "South", "South West", "West", "North West"}
	compassAbbrev = [...]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}
)

// TravelAngleToCompassDirection maps degrees to the nearest of 8 compass points.
func TravelAngleToCompassDirection(deg float64, abbrev bool) string {
	r := int(math.Round(deg/360.0*8.0)) % 8
	if r < 0 {
		r += 8
	}
	if abbrev {
		return compassAbbrev[r]
	}
	return compassNames[r]
}

func (f Fix) String() string {
	var b strings.Builder
	b.WriteString("========================== GPS FIX ================================\n")
	lock := "NO LOCK"
	if f.locked {
		lock = "LOCK"
	}
	fmt.Fprintf(&b, " Status: \t\t%s\n", lock)
	fmt.Fprintf(&b, " Satellites: \t\t%d (tracking) of %d (visible)\n", f.TrackingSatellites, f.VisibleSatellites)
	fmt.Fprintf(&b, " < Fix Details >\n")
	fmt.Fprintf(&b, "   Age:                %s\n", f.TimeSinceLastUpdate())
	fmt.Fprintf(&b, "   Timestamp:          %s   UTC   \n", f.Timestamp)
	fmt.Fprintf(&b, "   Raw Status:         %c  (%s)\n", f.Status, statusName(f.Status))
	fmt.Fprintf(&b, "   Type:               %d  (%s)\n", f.Type, fixTypeName(f.Type))
	fmt.Fprintf(&b, "   Quality:            %d  (%s)\n", f.Quality, qualityName(f.Quality))
	fmt.Fprintf(&b, "   Lat/Lon (N,E):      %.6f' N, %.6f' E\n", f.Latitude, f.Longitude)
	fmt.Fprintf(&b, "   DOP (P,H,V):        %.2f,   %.2f,   %.2f\n", f.Dilution, f.HorizontalDilution, f.VerticalDilution)
	fmt.Fprintf(&b, "   Accuracy(H,V):      %.1f m,   %.1f m\n", f.HorizontalAccuracy(), f.VerticalAccuracy())
	fmt.Fprintf(&b, "   Altitude:           %.1f m\n", f.Altitude)
	fmt.Fprintf(&b, "   Speed:              %.2f km/h\n", f.Speed)
	fmt.Fprintf(&b, "   Travel Dir:         %.1f deg  [%s]\n", f.TravelAngle, TravelAngleToCompassDirection(f.TravelAngle, false))
	fmt.Fprintf(&b, "   SNR:                avg: %.1f dB   [min: %.1f dB,  max:%.1f dB]\n", f.Almanac.AverageSNR(), f.Almanac.MinSNR(), f.Almanac.MaxSNR())
	fmt.Fprintf(&b, " < Almanac (%.0f%%) >\n", f.Almanac.PercentComplete())
	if len(f.Almanac.Satellites) == 0 {
		b.WriteString(" > No satellite info in almanac.\n")
	}
	for i, sat := range f.Almanac.Satellites {
		fmt.Fprintf(&b, "   [%2d]   %s\n", i+1, sat)
	}
	fmt.Fprintf(&b, " < Attitude >\n   %s\n", f.Attitude)
	return b.String()
}

func statusName(s byte) string {
	switch s {
	case 'A':
		return "Active"
	case 'V':
		return "Void"
	default:
		return "Unknown"
	}
}

func fixTypeName(t uint8) string {
	switch t {
	case 1:
		return "None"
	case 2:
		return "2D"
	case 3:
		return "3D"
	default:
		return "Unknown"
	}
}

func qualityName(q uint8) string {
	switch q {
	case 0:
		return "Invalid"
	case 1:
		return "Standard"
	case 2:
		return "DGPS"
	case 3:
		return "PPS fix"
	case 4:
		return "Real Time Kinetic"
	case 5:
		return "Real Time Kinetic (float)"
	case 6:
		return "Estimate"
	case 7:
		return "Manual input"
	case 8:
		return "Simulation"
	default:
		return "Unknown"
	}
}
