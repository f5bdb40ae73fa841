package app

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/relabs-tech/nmea_fix/internal/gps"
)

// Status card geometry: 7x13 glyphs, 38 columns by 7 rows plus margins.
const (
	cardWidth  = 280
	cardHeight = 104
	lineHeight = 13
	cardMargin = 6
)

var (
	cardBackground = color.RGBA{0x10, 0x10, 0x10, 0xff}
	cardText       = color.RGBA{0xe0, 0xe0, 0xe0, 0xff}
	cardLocked     = color.RGBA{0x30, 0xd0, 0x50, 0xff}
	cardUnlocked   = color.RGBA{0xe0, 0x40, 0x30, 0xff}
)

// RenderStatusCard draws a small summary of the fix, the same lines the
// OLED used to show. have == false renders the waiting screen.
func RenderStatusCard(s gps.Snapshot, have bool) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, cardWidth, cardHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{cardBackground}, image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{cardText},
		Face: basicfont.Face7x13,
	}

	if !have {
		drawer.Dot = fixed.P(cardMargin, cardHeight/2)
		drawer.DrawString("GPS: waiting for data")
		return img
	}

	header := "NO LOCK"
	headerColor := cardUnlocked
	if s.Locked {
		header = "LOCK"
		headerColor = cardLocked
	}
	drawer.Src = &image.Uniform{headerColor}
	drawer.Dot = fixed.P(cardMargin, lineHeight)
	drawer.DrawString(fmt.Sprintf("GPS %s  %s", header, s.Quality.FixQualityName))

	drawer.Src = &image.Uniform{cardText}
	for i, line := range cardLines(s) {
		drawer.Dot = fixed.P(cardMargin, lineHeight*(i+2))
		drawer.DrawString(line)
	}
	return img
}

func cardLines(s gps.Snapshot) []string {
	return []string{
		fmt.Sprintf("Lat: %11.6f", s.Position.Latitude),
		fmt.Sprintf("Lon: %11.6f", s.Position.Longitude),
		fmt.Sprintf("Alt: %.1f m", s.Position.Altitude),
		fmt.Sprintf("Spd: %.1f km/h %s", s.Velocity.SpeedKmh, s.Velocity.Compass),
		fmt.Sprintf("Sat: %d/%d  HDOP %.1f", s.Satellites.Tracking, s.Satellites.Visible, s.Quality.HDOP),
		fmt.Sprintf("%s %s UTC", s.Date, s.Time),
	}
}
