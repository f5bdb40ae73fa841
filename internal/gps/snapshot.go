// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"fmt"
	"time"
)

// Snapshot is the JSON form of a Fix published over MQTT and HTTP.
type Snapshot struct {
	Time     string  `json:"time"`     // e.g. "12:34:56.000"
	Date     string  `json:"date"`     // e.g. "2025-12-06"
	Validity string  `json:"validity"` // "A" (valid) / "V" (void)
	Locked   bool    `json:"locked"`
	AgeSec   float64 `json:"age_sec"`

	Position   Position      `json:"position"`
	Velocity   Velocity      `json:"velocity"`
	Quality    Quality       `json:"quality"`
	Satellites SatelliteView `json:"satellites"`
	Attitude   AttitudeView  `json:"attitude"`
}

// Position is published on its own topic as well.
type Position struct {
	Latitude  float64 `json:"lat"`   // decimal degrees
	Longitude float64 `json:"lon"`   // decimal degrees
	Altitude  float64 `json:"alt_m"` // meters
}

type Velocity struct {
	SpeedKmh   float64 `json:"speed_kmh"`
	SpeedKnots float64 `json:"speed_knots"`
	CourseDeg  float64 `json:"course_deg"`
	Compass    string  `json:"compass"` // e.g. "NE"
}

type Quality struct {
	FixQuality     uint8   `json:"fix_quality"`
	FixQualityName string  `json:"fix_quality_name"`
	FixType        uint8   `json:"fix_type"`
	PDOP           float64 `json:"pdop"`
	HDOP           float64 `json:"hdop"`
	VDOP           float64 `json:"vdop"`
	HorizAccM      float64 `json:"horiz_acc_m"`
	VertAccM       float64 `json:"vert_acc_m"`
	HasEstimate    bool    `json:"has_estimate"`
}

type SatelliteView struct {
	Tracking        int32       `json:"tracking"`
	Visible         int32       `json:"visible"`
	AlmanacComplete float64     `json:"almanac_complete_pct"`
	AvgSNR          float64     `json:"avg_snr"`
	MinSNR          float64     `json:"min_snr"`
	MaxSNR          float64     `json:"max_snr"`
	List            []Satellite `json:"list"`
}

type AttitudeView struct {
	Heading           float64 `json:"heading_deg"`
	Roll              float64 `json:"roll_deg"`
	Pitch             float64 `json:"pitch_deg"`
	HeadingDeviation  float64 `json:"heading_dev_deg"`
	RollDeviation     float64 `json:"roll_dev_deg"`
	PitchDeviation    float64 `json:"pitch_dev_deg"`
	SatelliteCount    int32   `json:"satellites"`
	ModeIndicator     int8    `json:"mode"`
	MagneticVariation float64 `json:"mag_var_deg"`
	MagVarDirection   string  `json:"mag_var_dir"`
}

// NewSnapshot builds the JSON view of f; now is used for the fix age.
func NewSnapshot(f Fix, now time.Time) Snapshot {
	ts := f.Timestamp
	sats := append([]Satellite{}, f.Almanac.Satellites...)
	return Snapshot{
		Time:     fmt.Sprintf("%02d:%02d:%06.3f", ts.Hour, ts.Min, ts.Sec),
		Date:     fmt.Sprintf("%04d-%02d-%02d", ts.Year, ts.Month, ts.Day),
		Validity: string(f.Status),
		Locked:   f.Locked(),
		AgeSec:   f.timeSince(now).Seconds(),
		Position: Position{
			Latitude:  f.Latitude,
			Longitude: f.Longitude,
			Altitude:  f.Altitude,
		},
		Velocity: Velocity{
			SpeedKmh:   f.Speed,
			SpeedKnots: f.Speed / knotsToKmh,
			CourseDeg:  f.TravelAngle,
			Compass:    TravelAngleToCompassDirection(f.TravelAngle, true),
		},
		Quality: Quality{
			FixQuality:     f.Quality,
			FixQualityName: qualityName(f.Quality),
			FixType:        f.Type,
			PDOP:           f.Dilution,
			HDOP:           f.HorizontalDilution,
			VDOP:           f.VerticalDilution,
			HorizAccM:      f.HorizontalAccuracy(),
			VertAccM:       f.VerticalAccuracy(),
			HasEstimate:    f.HasEstimate(),
		},
		Satellites: SatelliteView{
			Tracking:        f.TrackingSatellites,
			Visible:         f.VisibleSatellites,
			AlmanacComplete: f.Almanac.PercentComplete(),
			AvgSNR:          f.Almanac.AverageSNR(),
			MinSNR:          f.Almanac.MinSNR(),
			MaxSNR:          f.Almanac.MaxSNR(),
			List:            sats,
		},
		Attitude: AttitudeView{
			Heading:           f.Attitude.Heading,
			Roll:              f.Attitude.Roll,
			Pitch:             f.Attitude.Pitch,
			HeadingDeviation:  f.Attitude.HeadingDeviation,
			RollDeviation:     f.Attitude.RollDeviation,
			PitchDeviation:    f.Attitude.PitchDeviation,
			SatelliteCount:    f.Attitude.SatelliteCount,
			ModeIndicator:     f.Attitude.ModeIndicator,
			MagneticVariation: f.Attitude.MagneticVariation,
			MagVarDirection:   string(f.Attitude.MagnetVarDirection),
		},
	}
}
