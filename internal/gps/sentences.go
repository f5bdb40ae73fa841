// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"fmt"
	"math"
	"strings"

	"github.com/relabs-tech/nmea_fix/internal/nmea"
)

// Minimum parameter counts per sentence type.
const (
	minGGA    = 14
	minGSA    = 17
	minGSV    = 3
	minRMC    = 11
	minVTG    = 8
	minHDT    = 2
	minHDG    = 5
	minPSSN   = 2
	minPSSNHR = 13
)

// Value ranges for integer fields; anything outside is a format error
// rather than a wrapped conversion.
const (
	maxCount = math.MaxInt32
	maxDate  = 311299 // ddmmyy
)

// PSRF150 is the SiRF "ok to send" marker: checksum 3E when the module
// turns on, 3F (invalid) when it turns off. Nothing to apply.
func (s *Service) readPSRF150(nmea.Sentence) error {
	return nil
}

// GGA: fix data.
//
//	$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47
//
//	 0: time hhmmss.sss
//	 1: latitude, 2: N/S
//	 3: longitude, 4: E/W
//	 5: fix quality
//	 6: satellites tracked
//	 7: HDOP
//	 8: altitude (m), 9: M
//	10: geoid height, 11: M
//	12: DGPS age, 13: DGPS station
func (s *Service) readGGA(sent nmea.Sentence) error {
	return s.interpret(sent, sent.Name, minGGA, decodeGGA)
}

func decodeGGA(p []string) (applyFunc, error) {
	ts, _, err := nmea.ParseFloat(p[0])
	if err != nil {
		return nil, fmt.Errorf("time: %w", err)
	}
	lat, latOK, err := optionalLatLon(p[1], p[2])
	if err != nil {
		return nil, fmt.Errorf("latitude: %w", err)
	}
	lon, lonOK, err := optionalLatLon(p[3], p[4])
	if err != nil {
		return nil, fmt.Errorf("longitude: %w", err)
	}
	quality, _, err := nmea.ParseIntRange(p[5], 0, 8)
	if err != nil {
		return nil, fmt.Errorf("fix quality: %w", err)
	}
	tracking, _, err := nmea.ParseIntRange(p[6], 0, maxCount)
	if err != nil {
		return nil, fmt.Errorf("tracked satellites: %w", err)
	}
	alt, altOK, err := nmea.ParseFloat(p[8])
	if err != nil {
		return nil, fmt.Errorf("altitude: %w", err)
	}

	return func(f *Fix) bool {
		f.Timestamp.SetTime(ts)
		if latOK {
			f.Latitude = lat
		}
		if lonOK {
			f.Longitude = lon
		}
		f.Quality = uint8(quality)
		f.TrackingSatellites = int32(tracking)
		if altOK {
			f.Altitude = alt
		}

		switch f.Quality {
		case 0:
			return f.setLock(false)
		case 1:
			return f.setLock(true)
		}
		return false
	}, nil
}

// GSA: DOP and active satellites.
//
//	$GPGSA,A,3,04,05,,09,12,,,24,,,,,2.5,1.3,2.1*39
//
//	 0: A auto / M manual
//	 1: fix type 1 none, 2 2D, 3 3D
//	 2-13: PRNs used
//	14: PDOP, 15: HDOP, 16: VDOP
func (s *Service) readGSA(sent nmea.Sentence) error {
	return s.interpret(sent, sent.Name, minGSA, decodeGSA)
}

func decodeGSA(p []string) (applyFunc, error) {
	fixType, _, err := nmea.ParseIntRange(p[1], 1, 3)
	if err != nil {
		return nil, fmt.Errorf("fix type: %w", err)
	}
	pdop, _, err := nmea.ParseFloat(p[14])
	if err != nil {
		return nil, fmt.Errorf("PDOP: %w", err)
	}
	hdop, _, err := nmea.ParseFloat(p[15])
	if err != nil {
		return nil, fmt.Errorf("HDOP: %w", err)
	}
	vdop, _, err := nmea.ParseFloat(p[16])
	if err != nil {
		return nil, fmt.Errorf("VDOP: %w", err)
	}

	return func(f *Fix) bool {
		f.Type = uint8(fixType)
		f.Dilution = pdop
		f.HorizontalDilution = hdop
		f.VerticalDilution = vdop

		switch fixType {
		case 1:
			return f.setLock(false)
		case 3:
			return f.setLock(true)
		}
		return false
	}, nil
}

// GSV: satellites in view, paged.
//
//	$GPGSV,2,1,08,01,40,083,46,02,17,308,41,12,07,344,39,14,22,228,45*75
//
//	0: total pages, 1: this page, 2: satellites in view
//	then up to 4 x (PRN, elevation, azimuth, SNR)
//
// The tuple count depends on the page, so only the header is required.
func (s *Service) readGSV(sent nmea.Sentence) error {
	return s.interpret(sent, sent.Name, minGSV, decodeGSV)
}

func decodeGSV(p []string) (applyFunc, error) {
	totalPages, _, err := nmea.ParseIntRange(p[0], 0, maxCount)
	if err != nil {
		return nil, fmt.Errorf("total pages: %w", err)
	}
	currentPage, _, err := nmea.ParseIntRange(p[1], 0, maxCount)
	if err != nil {
		return nil, fmt.Errorf("page: %w", err)
	}
	visible, _, err := nmea.ParseIntRange(p[2], 0, maxCount)
	if err != nil {
		return nil, fmt.Errorf("satellites in view: %w", err)
	}

	// Trailing fields that do not form a full tuple (NMEA 4.1 signal id)
	// are ignored.
	entries := (len(p) - 3) / 4
	sats := make([]Satellite, 0, entries)
	for i := 0; i < entries; i++ {
		base := 3 + i*4
		prn, prnOK, err := nmea.ParseIntRange(p[base], 0, maxCount)
		if err != nil {
			return nil, fmt.Errorf("satellite %d PRN: %w", i+1, err)
		}
		elev, _, err := nmea.ParseFloat(p[base+1])
		if err != nil {
			return nil, fmt.Errorf("satellite %d elevation: %w", i+1, err)
		}
		azim, _, err := nmea.ParseFloat(p[base+2])
		if err != nil {
			return nil, fmt.Errorf("satellite %d azimuth: %w", i+1, err)
		}
		snr, _, err := nmea.ParseFloat(p[base+3])
		if err != nil {
			return nil, fmt.Errorf("satellite %d SNR: %w", i+1, err)
		}
		if !prnOK {
			continue
		}
		sats = append(sats, Satellite{PRN: uint32(prn), Elevation: elev, Azimuth: azim, SNR: snr})
	}

	return func(f *Fix) bool {
		f.VisibleSatellites = int32(visible)

		a := &f.Almanac
		if currentPage == 1 {
			a.clear()
		}
		// updateSatellite may start the cycle over when this page does not
		// belong to it; the page header is written after that.
		a.visibleSize = uint32(visible)
		for _, sat := range sats {
			a.updateSatellite(sat)
		}
		a.lastPage = uint32(currentPage)
		a.totalPages = uint32(totalPages)
		a.visibleSize = uint32(visible)
		a.processedPages++

		if visible == 0 {
			a.clear()
		}
		return false
	}, nil
}

// RMC: recommended minimum.
//
//	$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A
//
//	0: time, 1: status A/V
//	2: latitude, 3: N/S, 4: longitude, 5: E/W
//	6: speed (knots), 7: track angle
//	8: date ddmmyy, 9: magnetic variation, 10: E/W
func (s *Service) readRMC(sent nmea.Sentence) error {
	return s.interpret(sent, sent.Name, minRMC, decodeRMC)
}

func decodeRMC(p []string) (applyFunc, error) {
	ts, _, err := nmea.ParseFloat(p[0])
	if err != nil {
		return nil, fmt.Errorf("time: %w", err)
	}
	status := byte('V')
	if p[1] != "" {
		status = p[1][0]
	}
	lat, latOK, err := optionalLatLon(p[2], p[3])
	if err != nil {
		return nil, fmt.Errorf("latitude: %w", err)
	}
	lon, lonOK, err := optionalLatLon(p[4], p[5])
	if err != nil {
		return nil, fmt.Errorf("longitude: %w", err)
	}
	knots, _, err := nmea.ParseFloat(p[6])
	if err != nil {
		return nil, fmt.Errorf("speed: %w", err)
	}
	angle, _, err := nmea.ParseFloat(p[7])
	if err != nil {
		return nil, fmt.Errorf("track angle: %w", err)
	}
	date, _, err := nmea.ParseIntRange(p[8], 0, maxDate)
	if err != nil {
		return nil, fmt.Errorf("date: %w", err)
	}

	return func(f *Fix) bool {
		f.Timestamp.SetTime(ts)
		if latOK {
			f.Latitude = lat
		}
		if lonOK {
			f.Longitude = lon
		}
		f.Status = status
		f.Speed = KnotsToKmh(knots)
		f.TravelAngle = angle
		f.Timestamp.SetDate(int32(date))

		// Anything other than A is not a usable fix.
		return f.setLock(status == 'A')
	}, nil
}

// VTG: track and ground speed.
//
//	$GPVTG,054.7,T,034.4,M,005.5,N,010.2,K*48
//
//	0-1: true track, 2-3: magnetic track
//	4-5: speed knots, 6-7: speed km/h
func (s *Service) readVTG(sent nmea.Sentence) error {
	return s.interpret(sent, sent.Name, minVTG, func(p []string) (applyFunc, error) {
		kmh, _, err := nmea.ParseFloat(p[6])
		if err != nil {
			return nil, fmt.Errorf("speed: %w", err)
		}
		return func(f *Fix) bool {
			f.Speed = kmh
			return false
		}, nil
	})
}

// HDT: heading from true north.
//
//	$GPHDT,123.456,T*00
func (s *Service) readHDT(sent nmea.Sentence) error {
	return s.interpret(sent, sent.Name, minHDT, decodeHeading)
}

// HDG: magnetic sensor heading, deviation and variation.
//
//	$GPHDG,123.456,123.456,E,123.456,E*00
//
// Only the sensor heading (field 0) is applied; deviation and variation
// are left alone.
func (s *Service) readHDG(sent nmea.Sentence) error {
	return s.interpret(sent, sent.Name, minHDG, decodeHeading)
}

func decodeHeading(p []string) (applyFunc, error) {
	heading, _, err := nmea.ParseFloat(p[0])
	if err != nil {
		return nil, fmt.Errorf("heading: %w", err)
	}
	return func(f *Fix) bool {
		f.Attitude.Heading = heading
		return false
	}, nil
}

// PSSN: Septentrio proprietary. Only the HRP sub-sentence is understood.
func (s *Service) readPSSN(sent nmea.Sentence) error {
	if err := checkSentence(sent, minPSSN); err != nil {
		return badFormat(sent, sent.Name, err)
	}
	switch sub := sent.Param(0); sub {
	case "HRP":
		label := sent.Name + "," + sub
		if err := checkFieldCount(sent, minPSSNHR); err != nil {
			return badFormat(sent, label, err)
		}
		return s.apply(sent, label, decodeHRP)
	default:
		return badFormat(sent, sent.Name, &nmea.ParseError{
			Sentence: sent,
			Cause:    fmt.Sprintf("Invalid custom sentence: %s", sub),
			Err:      nmea.ErrMalformed,
		})
	}
}

// PSSN,HRP: heading, roll, pitch.
//
//	$PSSN,HRP,120010.10,080822,12.3,45.6,78.9,12.3,45.6,78.9,10,0,12.3,E*42
//
//	 0: HRP
//	 1: time, 2: date ddmmyy
//	 3: heading, 4: roll, 5: pitch
//	 6-8: standard deviations of heading, roll, pitch
//	 9: satellites used
//	10: mode indicator 0-8
//	11: magnetic variation, 12: E/W
func decodeHRP(p []string) (applyFunc, error) {
	var v [12]float64
	names := [...]string{"", "time", "", "heading", "roll", "pitch", "heading deviation", "roll deviation", "pitch deviation", "", "", "magnetic variation"}
	for _, i := range []int{1, 3, 4, 5, 6, 7, 8, 11} {
		x, _, err := nmea.ParseFloat(p[i])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", names[i], err)
		}
		v[i] = x
	}
	date, _, err := nmea.ParseIntRange(p[2], 0, maxDate)
	if err != nil {
		return nil, fmt.Errorf("date: %w", err)
	}
	sats, _, err := nmea.ParseIntRange(p[9], 0, maxCount)
	if err != nil {
		return nil, fmt.Errorf("satellites: %w", err)
	}
	mode, _, err := nmea.ParseIntRange(p[10], 0, 8)
	if err != nil {
		return nil, fmt.Errorf("mode indicator: %w", err)
	}
	dir := byte('E')
	if p[12] != "" && p[12][0] == 'W' {
		dir = 'W'
	}

	return func(f *Fix) bool {
		a := &f.Attitude
		a.Timestamp.SetTime(v[1])
		a.Timestamp.SetDate(int32(date))
		a.Heading = v[3]
		a.Roll = v[4]
		a.Pitch = v[5]
		a.HeadingDeviation = v[6]
		a.RollDeviation = v[7]
		a.PitchDeviation = v[8]
		a.SatelliteCount = int32(sats)
		a.ModeIndicator = int8(mode)
		a.MagneticVariation = v[11]
		a.MagnetVarDirection = dir
		return false
	}, nil
}

// optionalLatLon converts a coordinate, reporting ok == false when the
// value field is empty so the previous coordinate is kept.
func optionalLatLon(value, hemisphere string) (float64, bool, error) {
	if strings.TrimSpace(value) == "" {
		return 0, false, nil
	}
	deg, err := LatLonToDegrees(value, hemisphere)
	if err != nil {
		return 0, false, err
	}
	return deg, true, nil
}
