//go:build !windows

package tray

import "quick-translate/src/notification"

func showAbout(title, message string) {
	_ = notification.Show(title, message)
}
