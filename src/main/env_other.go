//go:build !windows

package main

import (
	"image"
	"log"

	"quick-translate/src/screen"
)

func enableDPIAwareness() {}

func logMonitorConfiguration() {
	log.Printf("MONITOR: primary display %v", screen.Bounds(image.Point{}))
}
