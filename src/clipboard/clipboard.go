package clipboard

import (
	"errors"
	"fmt"
	"log"
	"sync"

	atotto "github.com/atotto/clipboard"
	"golang.design/x/clipboard"
)

// Clipboard is the text clipboard as seen by the selection detector and the
// copy action.
type Clipboard interface {
	Read() (string, error)
	Write(text string) error
}

var ErrUnavailable = errors.New("clipboard unavailable")

// System talks to the OS clipboard. It prefers golang.design/x/clipboard and
// falls back to atotto/clipboard (xclip/xsel/pbcopy) when the native backend
// cannot initialize.
type System struct {
	mu     sync.Mutex
	native bool
}

// Init selects a backend. It fails only when neither backend is usable.
func Init() (*System, error) {
	err := clipboard.Init()
	if err == nil {
		return &System{native: true}, nil
	}
	log.Printf("clipboard: native backend unavailable (%v), trying command backend", err)
	if atotto.Unsupported {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &System{}, nil
}

// Read returns the clipboard text; a clipboard without text reads as "".
func (s *System) Read() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.native {
		return string(clipboard.Read(clipboard.FmtText)), nil
	}
	text, err := atotto.ReadAll()
	if err != nil {
		return "", fmt.Errorf("read clipboard: %w", err)
	}
	return text, nil
}

// Write performs a mutex-guarded clipboard write to prevent corruption under parallel writes.
func (s *System) Write(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.native {
		clipboard.Write(clipboard.FmtText, []byte(text))
		return nil
	}
	if err := atotto.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}
