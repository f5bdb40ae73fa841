// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import "fmt"

// Satellite is one entry of a GSV page.
type Satellite struct {
	PRN       uint32  `json:"prn"`
	SNR       float64 `json:"snr"`       // 0-99 dB
	Elevation float64 `json:"elevation"` // 0-90 deg
	Azimuth   float64 `json:"azimuth"`   // 0-359 deg
}

func (s Satellite) String() string {
	return fmt.Sprintf("[PRN: %3d   SNR: %3.0f dB   Azimuth: %3.0f deg   Elevation: %3.0f deg]", s.PRN, s.SNR, s.Azimuth, s.Elevation)
}

// Almanac is the set of satellites in view, assembled from the pages of
// one GSV cycle. Satellites holds at most one entry per PRN.
type Almanac struct {
	Satellites []Satellite

	visibleSize    uint32
	lastPage       uint32
	totalPages     uint32
	processedPages uint32
}

func (a Almanac) VisibleSize() uint32    { return a.visibleSize }
func (a Almanac) LastPage() uint32       { return a.lastPage }
func (a Almanac) TotalPages() uint32     { return a.totalPages }
func (a Almanac) ProcessedPages() uint32 { return a.processedPages }

func (a *Almanac) clear() {
	a.Satellites = a.Satellites[:0]
	a.visibleSize = 0
	a.lastPage = 0
	a.totalPages = 0
	a.processedPages = 0
}

// updateSatellite replaces the entry with the same PRN or appends a new one.
// If a new PRN would exceed the reported visible count the first page of
// this cycle was missed, so the almanac starts over.
func (a *Almanac) updateSatellite(sat Satellite) {
	for i := range a.Satellites {
		if a.Satellites[i].PRN == sat.PRN {
			a.Satellites[i] = sat
			return
		}
	}
	if a.visibleSize > 0 && uint32(len(a.Satellites)) >= a.visibleSize {
		a.clear()
	}
	a.Satellites = append(a.Satellites, sat)
}

// PercentComplete is processed pages over total pages, in percent.
func (a Almanac) PercentComplete() float64 {
	if a.totalPages == 0 {
		return 0
	}
	return float64(a.processedPages) / float64(a.totalPages) * 100.0
}

// AverageSNR averages over satellites that report a signal.
func (a Almanac) AverageSNR() float64 {
	sum, n := 0.0, 0
	for _, s := range a.Satellites {
		if s.SNR > 0 {
			sum += s.SNR
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func (a Almanac) MinSNR() float64 {
	min := 0.0
	for _, s := range a.Satellites {
		if s.SNR > 0 && (min == 0 || s.SNR < min) {
			min = s.SNR
		}
	}
	return min
}

func (a Almanac) MaxSNR() float64 {
	max := 0.0
	for _, s := range a.Satellites {
		if s.SNR > max {
			max = s.SNR
		}
	}
	return max
}
