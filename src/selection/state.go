package selection

import (
	"sync/atomic"
	"time"

	"quick-translate/src/config"
)

// State of the detector.
type State int

const (
	Idle State = iota
	// Checking means a copy has been synthesized and the settle continuation is outstanding.
	Checking
	// Selecting means a selection was just accepted or the copy hotkey was used.
	// Clicks do not dismiss while Selecting.
	Selecting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Checking:
		return "Checking"
	case Selecting:
		return "Selecting"
	default:
		return "Unknown"
	}
}

// guard is a single-slot lock around a detection cycle. Acquiring never blocks.
type guard struct {
	held atomic.Bool
}

func (g *guard) tryAcquire() bool { return g.held.CompareAndSwap(false, true) }
func (g *guard) release()         { g.held.Store(false) }
func (g *guard) busy() bool       { return g.held.Load() }

// Scheduler supplies time to the detector. After must run fn on the same
// goroutine that calls the detector, never inline.
type Scheduler interface {
	Now() time.Time
	After(d time.Duration, fn func())
}

// Options are the detector timings.
type Options struct {
	SettleDelay       time.Duration
	MinCheckInterval  time.Duration
	CopyHold          time.Duration
	MouseReleaseDelay time.Duration
}

func DefaultOptions() Options {
	return Options{
		SettleDelay:       100 * time.Millisecond,
		MinCheckInterval:  time.Second,
		CopyHold:          300 * time.Millisecond,
		MouseReleaseDelay: 100 * time.Millisecond,
	}
}

// OptionsFromStore reads the clipboard section, falling back to DefaultOptions.
func OptionsFromStore(s *config.Store) Options {
	def := DefaultOptions()
	if s == nil {
		return def
	}
	return Options{
		SettleDelay:       s.Duration(config.SectionClipboard, "settle_delay_ms", def.SettleDelay),
		MinCheckInterval:  s.Duration(config.SectionClipboard, "min_check_interval_ms", def.MinCheckInterval),
		CopyHold:          s.Duration(config.SectionClipboard, "copy_hold_ms", def.CopyHold),
		MouseReleaseDelay: s.Duration(config.SectionClipboard, "mouse_release_delay_ms", def.MouseReleaseDelay),
	}
}
