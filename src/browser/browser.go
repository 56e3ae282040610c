// Package browser opens URLs in the user's default browser.
package browser

import (
	"errors"
	"fmt"
	"log"
	"strings"

	pkgbrowser "github.com/pkg/browser"
)

var ErrEmptyURL = errors.New("no URL to open")

// start is replaced in tests.
var start = pkgbrowser.OpenURL

// Open launches the platform URL handler without waiting for it.
func Open(url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return ErrEmptyURL
	}
	log.Printf("browser: opening %s", url)
	// launcher output goes to the log, not the CLI's stdout
	pkgbrowser.Stdout = log.Writer()
	pkgbrowser.Stderr = log.Writer()
	if err := start(url); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
