// Package screen places the toolbar and result windows inside the display.
package screen

import (
	"image"

	"github.com/kbinani/screenshot"
)

// fallback is used when no display can be queried (headless runs).
var fallback = image.Rect(0, 0, 1920, 1080)

// numDisplays and displayBounds are replaced in tests.
var (
	numDisplays   = screenshot.NumActiveDisplays
	displayBounds = screenshot.GetDisplayBounds
)

// Bounds returns the display containing p, else the primary display.
func Bounds(p image.Point) image.Rectangle {
	n := numDisplays()
	if n <= 0 {
		return fallback
	}
	for i := 0; i < n; i++ {
		if b := displayBounds(i); p.In(b) {
			return b
		}
	}
	if b := displayBounds(0); !b.Empty() {
		return b
	}
	return fallback
}

// Place returns the top-left corner for a window of size anchored at pos and
// shifted down by offsetY, kept inside bounds.
func Place(pos, size image.Point, offsetY int, bounds image.Rectangle) image.Point {
	x := min(pos.X, bounds.Max.X-size.X)
	y := min(pos.Y+offsetY, bounds.Max.Y-size.Y)
	return image.Pt(max(x, bounds.Min.X), max(y, bounds.Min.Y))
}

// Moved reports whether b is more than 20 pixels (manhattan) away from a.
func Moved(a, b image.Point) bool {
	d := a.Sub(b)
	return abs(d.X)+abs(d.Y) > 20
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
