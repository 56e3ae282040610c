// Package popup presents action results to the user.
package popup

import (
	"log"
	"runtime"

	"quick-translate/src/notification"
)

// Show displays a result popup and returns immediately.
// This is a simple adapter on top of the notification package.
func Show(title, text string) error {
	// Get caller information for debugging
	_, file, line, ok := runtime.Caller(1)
	if ok {
		log.Printf("Popup.Show called from %s:%d with %d characters: %q", file, line, len(text), truncateForLog(text, 50))
	} else {
		log.Printf("Popup.Show called with %d characters: %q", len(text), truncateForLog(text, 50))
	}
	return notification.Show(title, text)
}

func truncateForLog(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
