// Package keystroke synthesizes the platform copy chord so the focused
// application puts its current selection on the clipboard.
package keystroke

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/micmonay/keybd_event"
)

// Copier triggers a copy in the foreground application.
type Copier interface {
	Copy() error
}

// Chord presses Ctrl+C (Cmd+C on macOS) through the OS input queue.
type Chord struct {
	mu sync.Mutex
	kb keybd_event.KeyBonding
}

// New prepares the virtual keyboard. On Linux the uinput device needs a moment
// before the first event is delivered.
func New() (*Chord, error) {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return nil, fmt.Errorf("keystroke: %w", err)
	}
	if runtime.GOOS == "linux" {
		time.Sleep(2 * time.Second)
	}
	kb.SetKeys(keybd_event.VK_C)
	if runtime.GOOS == "darwin" {
		kb.HasSuper(true)
	} else {
		kb.HasCTRL(true)
	}
	return &Chord{kb: kb}, nil
}

func (c *Chord) Copy() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.kb.Launching(); err != nil {
		return fmt.Errorf("keystroke: copy chord: %w", err)
	}
	return nil
}

// CopierFunc adapts a function to Copier.
type CopierFunc func() error

func (f CopierFunc) Copy() error { return f() }
