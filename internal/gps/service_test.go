// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"

	gonmea "github.com/adrianmo/go-nmea"

	"github.com/relabs-tech/nmea_fix/internal/nmea"
)

func nmeaLine(payload string) string {
	ck := byte(0)
	for i := 0; i < len(payload); i++ {
		ck ^= payload[i]
	}
	return fmt.Sprintf("$%s*%02X", payload, ck)
}

// recorder captures notifications in the order they were published.
type recorder struct {
	events []string
	locks  []bool
}

func newTestService(t *testing.T) (*nmea.Parser, *Service, *recorder) {
	t.Helper()
	p := nmea.NewParser()
	s := NewService(p)
	r := &recorder{}
	s.OnLockStateChanged.Subscribe(func(locked bool) {
		r.events = append(r.events, fmt.Sprintf("lock:%v", locked))
		r.locks = append(r.locks, locked)
	})
	s.OnUpdate.Subscribe(func() {
		r.events = append(r.events, "update")
	})
	return p, s, r
}

func feed(t *testing.T, p *nmea.Parser, line string) {
	t.Helper()
	if err := p.ReadSentence(line); err != nil {
		t.Fatalf("%s: unexpected err: %v", line, err)
	}
}

func approx(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

const ggaExample = "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47"

func TestService_GGAEndToEnd(t *testing.T) {
	p, s, r := newTestService(t)
	feed(t, p, ggaExample)

	f := s.Fix()
	if !approx(f.Latitude, 48.1173, 1e-4) {
		t.Fatalf("lat=%v", f.Latitude)
	}
	if !approx(f.Longitude, 11.5167, 1e-4) {
		t.Fatalf("lon=%v", f.Longitude)
	}
	if f.Quality != 1 {
		t.Fatalf("quality=%d", f.Quality)
	}
	if !f.Locked() {
		t.Fatalf("expected locked")
	}
	if f.Altitude != 545.4 {
		t.Fatalf("altitude=%v", f.Altitude)
	}
	if f.TrackingSatellites != 8 {
		t.Fatalf("tracking=%d", f.TrackingSatellites)
	}
	if f.Timestamp.Hour != 12 || f.Timestamp.Min != 35 || !approx(f.Timestamp.Sec, 19, 1e-9) {
		t.Fatalf("timestamp=%+v", f.Timestamp)
	}
	want := []string{"lock:true", "update"}
	if !reflect.DeepEqual(r.events, want) {
		t.Fatalf("events=%v want %v", r.events, want)
	}
}

func TestService_GGAAgreesWithGoNMEA(t *testing.T) {
	p, s, _ := newTestService(t)
	line := nmeaLine("GPGGA,205630.945,3346.1070,N,08423.6687,W,1,03,1.5,30.8,M,-30.8,M,,0000")
	sent, err := gonmea.Parse(line)
	if err != nil {
		t.Fatalf("go-nmea parse: %v", err)
	}
	ref, ok := sent.(gonmea.GGA)
	if !ok {
		t.Fatalf("go-nmea returned %T", sent)
	}

	feed(t, p, line)
	f := s.Fix()
	if !approx(f.Latitude, ref.Latitude, 1e-6) || !approx(f.Longitude, ref.Longitude, 1e-6) {
		t.Fatalf("lat/lon=%v,%v go-nmea=%v,%v", f.Latitude, f.Longitude, ref.Latitude, ref.Longitude)
	}
	if f.Altitude != ref.Altitude {
		t.Fatalf("alt=%v go-nmea=%v", f.Altitude, ref.Altitude)
	}
}

func TestService_RepeatedLockFiresOnce(t *testing.T) {
	p, s, r := newTestService(t)
	for i := 0; i < 5; i++ {
		feed(t, p, ggaExample)
	}
	if !s.Fix().Locked() {
		t.Fatalf("expected locked")
	}
	if len(r.locks) != 1 || !r.locks[0] {
		t.Fatalf("lock events=%v want [true]", r.locks)
	}
	updates := 0
	for _, e := range r.events {
		if e == "update" {
			updates++
		}
	}
	if updates != 5 {
		t.Fatalf("updates=%d want 5", updates)
	}
}

func TestService_GGAQualityLockPolicy(t *testing.T) {
	p, s, r := newTestService(t)
	gga := func(q string) string {
		return nmeaLine("GNGGA,123519,4807.038,N,01131.000,E," + q + ",08,0.9,545.4,M,46.9,M,,")
	}

	feed(t, p, gga("2")) // DGPS: no change from unlocked
	if s.Fix().Locked() || len(r.locks) != 0 {
		t.Fatalf("quality 2 must not change lock")
	}
	feed(t, p, gga("1"))
	feed(t, p, gga("4")) // RTK: no change from locked
	if !s.Fix().Locked() {
		t.Fatalf("quality 4 must not unlock")
	}
	feed(t, p, gga("0"))
	if s.Fix().Locked() {
		t.Fatalf("quality 0 must unlock")
	}
	if !reflect.DeepEqual(r.locks, []bool{true, false}) {
		t.Fatalf("locks=%v", r.locks)
	}
}

func TestService_GGAEmptyFieldsKeepPrevious(t *testing.T) {
	p, s, _ := newTestService(t)
	feed(t, p, ggaExample)
	feed(t, p, nmeaLine("GPGGA,123520,,,,,1,07,1.0,,M,46.9,M,,"))

	f := s.Fix()
	if f.Altitude != 545.4 {
		t.Fatalf("altitude=%v want 545.4 kept", f.Altitude)
	}
	if !approx(f.Latitude, 48.1173, 1e-4) || !approx(f.Longitude, 11.5167, 1e-4) {
		t.Fatalf("lat/lon not kept: %v,%v", f.Latitude, f.Longitude)
	}
	if f.TrackingSatellites != 7 {
		t.Fatalf("tracking=%d", f.TrackingSatellites)
	}
	if !approx(f.Timestamp.Sec, 20, 1e-9) {
		t.Fatalf("sec=%v", f.Timestamp.Sec)
	}
}

func TestService_ChecksumMismatchLeavesFixUnchanged(t *testing.T) {
	p, s, r := newTestService(t)
	before := s.Fix()

	bad := ggaExample[:len(ggaExample)-1] + "8" // *47 -> *48
	sent, err := nmea.Parse(bad)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sent.ChecksumOK() {
		t.Fatalf("expected checksum mismatch")
	}

	err = p.ReadSentence(bad)
	if !errors.Is(err, nmea.ErrChecksum) {
		t.Fatalf("expected ErrChecksum, got %v", err)
	}
	var pe *nmea.ParseError
	if !errors.As(err, &pe) || pe.Sentence.Name != "GPGGA" {
		t.Fatalf("expected ParseError carrying the sentence, got %#v", err)
	}
	if !reflect.DeepEqual(before, s.Fix()) {
		t.Fatalf("fix mutated by rejected sentence")
	}
	if len(r.events) != 0 {
		t.Fatalf("events=%v want none", r.events)
	}
}

func TestService_FieldCountShortfall(t *testing.T) {
	cases := []string{
		"GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M",
		"GPGSA,A,3,04,05,,09,12,,,24,,,,,2.5,1.3",
		"GPGSV,2,1",
		"GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1",
		"GPVTG,054.7,T,034.4,M,005.5,N,010.2",
		"GPHDT,123.4",
		"GPHDG,123.4,1,E,2",
		"PSSN",
		"PSSN,HRP,120010.10,080822,12.3,45.6,78.9,12.3,45.6,78.9,10,0,12.3",
	}
	for _, payload := range cases {
		p, s, r := newTestService(t)
		before := s.Fix()
		err := p.ReadSentence(nmeaLine(payload))
		if !errors.Is(err, nmea.ErrFieldCount) {
			t.Fatalf("%s: expected ErrFieldCount, got %v", payload, err)
		}
		if !reflect.DeepEqual(before, s.Fix()) || len(r.events) != 0 {
			t.Fatalf("%s: fix mutated or events fired", payload)
		}
	}
}

func TestService_BadNumberLeavesFixUnchanged(t *testing.T) {
	p, s, r := newTestService(t)
	feed(t, p, ggaExample)
	before := s.Fix()
	r.events = nil

	// Valid time and position, broken altitude: nothing may be applied.
	err := p.ReadSentence(nmeaLine("GPGGA,130000,5000.000,N,00100.000,E,0,05,0.9,abc,M,46.9,M,,"))
	if !errors.Is(err, nmea.ErrNumericFormat) {
		t.Fatalf("expected ErrNumericFormat, got %v", err)
	}
	if !reflect.DeepEqual(before, s.Fix()) {
		t.Fatalf("fix partially applied")
	}
	if len(r.events) != 0 {
		t.Fatalf("events=%v", r.events)
	}
}

func TestService_OutOfRangeNumbersRejected(t *testing.T) {
	cases := []string{
		"GPGGA,123519,NaN,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,",
		"GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,Inf,M,46.9,M,,",
		"GPGGA,123519,4807.038,N,01131.000,E,257,08,0.9,545.4,M,46.9,M,,",
		"GPGGA,123519,4807.038,N,01131.000,E,1,-8,0.9,545.4,M,46.9,M,,",
		"GPGSA,A,4,04,05,,09,12,,,24,,,,,2.5,1.3,2.1",
		"GPGSA,A,259,04,05,,09,12,,,24,,,,,2.5,1.3,2.1",
		"GPGSV,1,1,4294967297,01,40,083,46",
		"GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,9999999999,003.1,W",
		"GPVTG,054.7,T,034.4,M,005.5,N,NaN,K",
		"PSSN,HRP,120010.10,080822,12.3,45.6,78.9,1.3,4.6,7.9,10,9,2.5,W",
	}
	for _, payload := range cases {
		p, s, r := newTestService(t)
		feed(t, p, ggaExample)
		before := s.Fix()
		r.events = nil

		err := p.ReadSentence(nmeaLine(payload))
		if !errors.Is(err, nmea.ErrNumericFormat) {
			t.Fatalf("%s: expected ErrNumericFormat, got %v", payload, err)
		}
		if !reflect.DeepEqual(before, s.Fix()) || len(r.events) != 0 {
			t.Fatalf("%s: fix mutated or events fired", payload)
		}
	}
}

func TestService_NoChecksumAccepted(t *testing.T) {
	p, s, _ := newTestService(t)
	feed(t, p, "$GPHDT,274.07,T")
	if s.Fix().Attitude.Heading != 274.07 {
		t.Fatalf("heading=%v", s.Fix().Attitude.Heading)
	}
}

func TestService_GSA(t *testing.T) {
	p, s, r := newTestService(t)
	feed(t, p, "$GPGSA,A,3,04,05,,09,12,,,24,,,,,2.5,1.3,2.1*39")
	f := s.Fix()
	if f.Type != 3 || f.Dilution != 2.5 || f.HorizontalDilution != 1.3 || f.VerticalDilution != 2.1 {
		t.Fatalf("fix=%+v", f)
	}
	if !f.Locked() {
		t.Fatalf("3D fix must lock")
	}
	if !approx(f.HorizontalAccuracy(), 5.2, 1e-9) || !approx(f.VerticalAccuracy(), 12.6, 1e-9) {
		t.Fatalf("accuracy=%v,%v", f.HorizontalAccuracy(), f.VerticalAccuracy())
	}

	feed(t, p, nmeaLine("GPGSA,A,2,04,05,,09,12,,,24,,,,,2.5,1.3,2.1"))
	if !s.Fix().Locked() {
		t.Fatalf("2D fix must not change lock")
	}
	feed(t, p, nmeaLine("GPGSA,A,1,,,,,,,,,,,,,,,"))
	if s.Fix().Locked() {
		t.Fatalf("no fix must unlock")
	}
	if !reflect.DeepEqual(r.locks, []bool{true, false}) {
		t.Fatalf("locks=%v", r.locks)
	}
}

func TestService_RMC(t *testing.T) {
	p, s, r := newTestService(t)
	feed(t, p, "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A")

	f := s.Fix()
	if f.Status != 'A' || !f.Locked() {
		t.Fatalf("status=%c locked=%v", f.Status, f.Locked())
	}
	if !approx(f.Speed, 22.4*1.852, 1e-9) {
		t.Fatalf("speed=%v", f.Speed)
	}
	if f.TravelAngle != 84.4 {
		t.Fatalf("angle=%v", f.TravelAngle)
	}
	if f.Timestamp.Day != 23 || f.Timestamp.Month != 3 || f.Timestamp.Year != 2094 {
		t.Fatalf("date=%+v", f.Timestamp)
	}

	feed(t, p, nmeaLine("GPRMC,235957.025,V,,,,,,,070810,,,N"))
	if s.Fix().Locked() {
		t.Fatalf("V must unlock")
	}
	feed(t, p, nmeaLine("GPRMC,235957.025,V,,,,,,,070810,,,N"))

	if !reflect.DeepEqual(r.locks, []bool{true, false}) {
		t.Fatalf("locks=%v want [true false]", r.locks)
	}
	f = s.Fix()
	if !approx(f.Latitude, 48.1173, 1e-4) {
		t.Fatalf("empty lat must keep previous, got %v", f.Latitude)
	}
	if f.Speed != 0 {
		t.Fatalf("empty speed reads as 0, got %v", f.Speed)
	}
}

func TestService_RMCUnknownStatusUnlocks(t *testing.T) {
	p, s, r := newTestService(t)
	feed(t, p, ggaExample)
	feed(t, p, nmeaLine("GPRMC,123519,X,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W"))
	if s.Fix().Locked() {
		t.Fatalf("unknown status must unlock")
	}
	feed(t, p, nmeaLine("GPRMC,123519,,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W"))
	if s.Fix().Status != 'V' {
		t.Fatalf("empty status reads as V, got %c", s.Fix().Status)
	}
	if !reflect.DeepEqual(r.locks, []bool{true, false}) {
		t.Fatalf("locks=%v", r.locks)
	}
}

func TestService_LockEventBeforeUpdate(t *testing.T) {
	p, _, r := newTestService(t)
	feed(t, p, "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A")
	feed(t, p, "$GPVTG,054.7,T,034.4,M,005.5,N,010.2,K*48")
	feed(t, p, nmeaLine("GPRMC,235957.025,V,,,,,,,070810,,,N"))
	want := []string{"lock:true", "update", "update", "lock:false", "update"}
	if !reflect.DeepEqual(r.events, want) {
		t.Fatalf("events=%v\nwant   %v", r.events, want)
	}
}

func TestService_VTG(t *testing.T) {
	p, s, _ := newTestService(t)
	feed(t, p, "$GPVTG,054.7,T,034.4,M,005.5,N,010.2,K*48")
	if s.Fix().Speed != 10.2 {
		t.Fatalf("speed=%v", s.Fix().Speed)
	}
}

func TestService_HDTAndHDG(t *testing.T) {
	p, s, _ := newTestService(t)
	feed(t, p, nmeaLine("GNHDT,123.456,T"))
	if s.Fix().Attitude.Heading != 123.456 {
		t.Fatalf("heading=%v", s.Fix().Attitude.Heading)
	}

	feed(t, p, nmeaLine("GPHDG,98.3,0.5,E,3.2,W"))
	a := s.Fix().Attitude
	if a.Heading != 98.3 {
		t.Fatalf("heading=%v", a.Heading)
	}
	// Deviation and variation fields of HDG are not applied.
	if a.MagneticVariation != 0 || a.MagnetVarDirection != 'E' {
		t.Fatalf("HDG must only touch heading, got %+v", a)
	}
}

func TestService_PSSNHRP(t *testing.T) {
	p, s, r := newTestService(t)
	feed(t, p, nmeaLine("PSSN,HRP,120010.10,080822,12.3,45.6,78.9,1.3,4.6,7.9,10,4,2.5,W"))

	a := s.Fix().Attitude
	if a.Heading != 12.3 || a.Roll != 45.6 || a.Pitch != 78.9 {
		t.Fatalf("hrp=%+v", a)
	}
	if a.HeadingDeviation != 1.3 || a.RollDeviation != 4.6 || a.PitchDeviation != 7.9 {
		t.Fatalf("deviations=%+v", a)
	}
	if a.SatelliteCount != 10 || a.ModeIndicator != 4 {
		t.Fatalf("sats=%d mode=%d", a.SatelliteCount, a.ModeIndicator)
	}
	if a.MagneticVariation != 2.5 || a.MagnetVarDirection != 'W' {
		t.Fatalf("magvar=%v %c", a.MagneticVariation, a.MagnetVarDirection)
	}
	ts := a.Timestamp
	if ts.Hour != 12 || ts.Min != 0 || !approx(ts.Sec, 10.1, 1e-6) || ts.Day != 8 || ts.Month != 8 || ts.Year != 2022 {
		t.Fatalf("attitude timestamp=%+v", ts)
	}
	if s.Fix().Timestamp.Hour != 0 {
		t.Fatalf("fix timestamp must not change")
	}
	if len(r.events) != 1 || r.events[0] != "update" {
		t.Fatalf("events=%v", r.events)
	}
}

func TestService_PSSNHRPChecks(t *testing.T) {
	hrp := nmeaLine("PSSN,HRP,120010.10,080822,12.3,45.6,78.9,1.3,4.6,7.9,10,4,2.5,W")
	badSum := hrp[:len(hrp)-2] + "00"
	if badSum == hrp {
		badSum = hrp[:len(hrp)-2] + "01"
	}
	short := nmeaLine("PSSN,HRP,120010.10,080822,12.3")

	cases := []struct {
		line string
		want error
	}{
		{badSum, nmea.ErrChecksum},
		{short, nmea.ErrFieldCount},
	}
	for _, c := range cases {
		p, s, r := newTestService(t)
		before := s.Fix()
		err := p.ReadSentence(c.line)
		if !errors.Is(err, c.want) {
			t.Fatalf("%s: expected %v, got %v", c.line, c.want, err)
		}
		var pe *nmea.ParseError
		if !errors.As(err, &pe) || pe.Sentence.Name != "PSSN" {
			t.Fatalf("%s: expected ParseError carrying the sentence, got %#v", c.line, err)
		}
		if !reflect.DeepEqual(before, s.Fix()) || len(r.events) != 0 {
			t.Fatalf("%s: fix mutated or events fired", c.line)
		}
	}
}

func TestService_PSSNUnknownSubtype(t *testing.T) {
	p, s, r := newTestService(t)
	before := s.Fix()
	err := p.ReadSentence(nmeaLine("PSSN,RBD,1,2"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if !reflect.DeepEqual(before, s.Fix()) || len(r.events) != 0 {
		t.Fatalf("fix mutated or events fired")
	}
}

func TestService_PSRF150IsNoop(t *testing.T) {
	p, s, r := newTestService(t)
	before := s.Fix()
	feed(t, p, "$PSRF150,1*3E")
	feed(t, p, "$PSRF150,0*3F")
	if !reflect.DeepEqual(before, s.Fix()) || len(r.events) != 0 {
		t.Fatalf("PSRF150 must not change state or notify")
	}
}

func TestService_UnknownSentenceIsNoop(t *testing.T) {
	p, s, r := newTestService(t)
	before := s.Fix()
	feed(t, p, nmeaLine("GPZDA,201530.00,04,07,2002,00,00"))
	feed(t, p, nmeaLine("BDGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,"))
	if !reflect.DeepEqual(before, s.Fix()) || len(r.events) != 0 {
		t.Fatalf("unregistered sentences must be ignored")
	}
}

func TestService_TalkerMatrix(t *testing.T) {
	p := nmea.NewParser()
	NewService(p)
	for _, talker := range DefaultTalkerIDs {
		for _, typ := range []string{"GGA", "GSA", "GSV", "RMC", "VTG", "HDT", "HDG"} {
			if !p.Handles(talker + typ) {
				t.Fatalf("%s%s not registered", talker, typ)
			}
		}
	}
	for _, name := range []string{"PSRF150", "PSSN"} {
		if !p.Handles(name) {
			t.Fatalf("%s not registered", name)
		}
	}
	if got := len(p.Names()); got != len(DefaultTalkerIDs)*7+2 {
		t.Fatalf("registered=%d", got)
	}
}

func TestService_ExtraTalkers(t *testing.T) {
	p := nmea.NewParser()
	s := NewService(p, "gp", "BD", " ")
	if !p.Handles("BDGGA") || !p.Handles("GPRMC") || p.Handles("GNRMC") {
		t.Fatalf("names=%v", p.Names())
	}
	feed(t, p, nmeaLine("BDGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,"))
	if !s.Fix().Locked() {
		t.Fatalf("BDGGA should lock")
	}
}

func TestService_FixIsACopy(t *testing.T) {
	p, s, _ := newTestService(t)
	feed(t, p, "$GPGSV,2,1,08,01,40,083,46,02,17,308,41,12,07,344,39,14,22,228,45*75")
	f := s.Fix()
	f.Almanac.Satellites[0].PRN = 99
	f.Latitude = 1
	if s.Fix().Almanac.Satellites[0].PRN != 1 || s.Fix().Latitude != 0 {
		t.Fatalf("Fix() must not expose internal state")
	}
}
