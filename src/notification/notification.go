// Package notification shows desktop notifications and alerts.
package notification

import (
	"log"

	"github.com/gen2brain/beeep"
)

const maxDisplayRunes = 200

// notify and alert are replaced in tests.
var (
	notify = func(title, message string) error { return beeep.Notify(title, message, "") }
	alert  = func(title, message string) error { return beeep.Alert(title, message, "") }
)

// Truncate shortens text to 200 characters for display.
func Truncate(text string) string {
	r := []rune(text)
	if len(r) <= maxDisplayRunes {
		return text
	}
	return string(r[:maxDisplayRunes]) + "..."
}

// Show displays a transient notification with text truncated for display.
func Show(title, text string) error {
	if err := notify(title, Truncate(text)); err != nil {
		log.Printf("Failed to show notification: %v", err)
		return err
	}
	return nil
}

// ShowBlockingError raises an alert for failures the user must see.
func ShowBlockingError(title, message string) {
	log.Printf("%s: %s", title, message)
	if err := alert(title, message); err != nil {
		log.Printf("Failed to show alert: %v", err)
	}
}
