package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"runtime"
)

const iconSize = 32

// iconPNG draws the tray glyph: a blue rounded tile with a white "T" bar.
func iconPNG() []byte {
	img := image.NewNRGBA(image.Rect(0, 0, iconSize, iconSize))
	blue := color.NRGBA{R: 0x00, G: 0x78, B: 0xd4, A: 0xff}
	white := color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			if corner(x, y) {
				continue
			}
			c := blue
			if (y >= 7 && y < 11 && x >= 7 && x < 25) || (x >= 14 && x < 18 && y >= 7 && y < 26) {
				c = white
			}
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

func corner(x, y int) bool {
	const r = 4
	dx, dy := 0, 0
	switch {
	case x < r:
		dx = r - x
	case x >= iconSize-r:
		dx = x - (iconSize - r - 1)
	}
	switch {
	case y < r:
		dy = r - y
	case y >= iconSize-r:
		dy = y - (iconSize - r - 1)
	}
	return dx*dx+dy*dy > r*r
}

// wrapICO puts a PNG into a single-entry ICO container, which the Windows
// tray requires.
func wrapICO(p []byte) []byte {
	var buf bytes.Buffer
	// ICONDIR
	_ = binary.Write(&buf, binary.LittleEndian, [3]uint16{0, 1, 1})
	// ICONDIRENTRY
	buf.Write([]byte{iconSize, iconSize, 0, 0})
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(32))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(p)))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(6+16))
	buf.Write(p)
	return buf.Bytes()
}

// Icon returns the tray icon in the format the platform expects.
func Icon() []byte {
	p := iconPNG()
	if runtime.GOOS == "windows" {
		return wrapICO(p)
	}
	return p
}
