package hotkey

import (
	"context"
	"errors"
	"image"
	"log"
	"strings"
	"sync"

	gohook "github.com/robotn/gohook"

	"quick-translate/src/config"
	"quick-translate/src/messages"
)

const leftButton = 1

var ErrNoHotkeys = errors.New("no valid hotkeys configured")

type key struct {
	name     string
	keycodes []uint16
	modifier bool
}

type binding struct {
	action messages.HotkeyAction
	combo  string
	keys   []key
}

// Matcher tracks which keys are held and reports when a configured
// combination completes. A combination fires when its last non-modifier key goes
// down while exactly its modifiers are held, so "ctrl+c" does not also fire
// inside "ctrl+shift+c".
type Matcher struct {
	mu       sync.Mutex
	bindings []binding
	down     map[uint16]bool
}

// NewMatcher builds bindings for the non-empty combos. A combo with an unknown
// key is skipped and logged.
func NewMatcher(combos map[messages.HotkeyAction]string) *Matcher {
	m := &Matcher{down: make(map[uint16]bool)}
	for _, action := range messages.HotkeyActions {
		combo := combos[action]
		if combo == "" {
			continue
		}
		b := binding{action: action, combo: combo}
		valid := true
		for _, name := range parseHotkey(combo) {
			codes := keyNameToKeycodes(name)
			if len(codes) == 0 {
				log.Printf("ERROR: Cannot map key '%s' in %s hotkey '%s'", name, action, combo)
				valid = false
				break
			}
			b.keys = append(b.keys, key{name: name, keycodes: codes, modifier: isModifier(name)})
		}
		if !valid || len(b.keys) == 0 {
			continue
		}
		log.Printf("Hotkey %s configured for: %s", action, combo)
		m.bindings = append(m.bindings, b)
	}
	return m
}

// Len returns the number of usable bindings.
func (m *Matcher) Len() int { return len(m.bindings) }

// KeyDown records a press and returns the actions it completes. Auto-repeat
// presses of a held key complete nothing.
func (m *Matcher) KeyDown(code uint16) []messages.HotkeyAction {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down[code] {
		return nil
	}
	m.down[code] = true

	var fired []messages.HotkeyAction
	for i := range m.bindings {
		if m.bindings[i].completedBy(code, m.down) {
			fired = append(fired, m.bindings[i].action)
		}
	}
	return fired
}

// KeyUp records a release.
func (m *Matcher) KeyUp(code uint16) {
	m.mu.Lock()
	delete(m.down, code)
	m.mu.Unlock()
}

func (b *binding) completedBy(code uint16, down map[uint16]bool) bool {
	triggered := false
	hasPlainKey := false
	for _, k := range b.keys {
		if !anyDown(k.keycodes, down) {
			return false
		}
		if !k.modifier {
			hasPlainKey = true
			if contains(k.keycodes, code) {
				triggered = true
			}
		}
	}
	if !hasPlainKey {
		for _, k := range b.keys {
			if contains(k.keycodes, code) {
				triggered = true
			}
		}
	}
	if !triggered {
		return false
	}
	for name, codes := range modifierKeycodes {
		if !b.uses(name) && anyDown(codes, down) {
			return false
		}
	}
	return true
}

func (b *binding) uses(name string) bool {
	for _, k := range b.keys {
		if k.name == name {
			return true
		}
	}
	return false
}

func anyDown(codes []uint16, down map[uint16]bool) bool {
	for _, c := range codes {
		if down[c] {
			return true
		}
	}
	return false
}

func contains(codes []uint16, code uint16) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

// translator turns raw hook events into inputs, remembering the pointer.
type translator struct {
	matcher *Matcher
	cursor  image.Point
}

// gohook names libuiohook's PRESSED events KeyHold/MouseHold and RELEASED
// events KeyUp/MouseDown. KeyDown is the typed event, which also counts as a press.
func (t *translator) translate(ev gohook.Event) []messages.Input {
	switch ev.Kind {
	case gohook.KeyDown, gohook.KeyHold:
		var out []messages.Input
		for _, action := range t.matcher.KeyDown(ev.Keycode) {
			log.Printf("HOTKEY COMBINATION DETECTED! %s", action)
			out = append(out, messages.HotkeyPressed{Action: action, Pos: t.cursor})
		}
		return out
	case gohook.KeyUp:
		t.matcher.KeyUp(ev.Keycode)
	case gohook.MouseMove, gohook.MouseDrag:
		t.cursor = image.Pt(int(ev.X), int(ev.Y))
	case gohook.MouseHold:
		t.cursor = image.Pt(int(ev.X), int(ev.Y))
		if ev.Button == leftButton {
			return []messages.Input{messages.MouseDown{Pos: t.cursor}}
		}
	case gohook.MouseDown:
		t.cursor = image.Pt(int(ev.X), int(ev.Y))
		if ev.Button == leftButton {
			return []messages.Input{messages.MouseUp{Pos: t.cursor}}
		}
	}
	return nil
}

// Combos reads the hotkeys section. Blank entries are left out so the
// action has no binding.
func Combos(store *config.Store) map[messages.HotkeyAction]string {
	out := make(map[messages.HotkeyAction]string, len(messages.HotkeyActions))
	for _, action := range messages.HotkeyActions {
		if combo := strings.TrimSpace(store.String(config.SectionHotkeys, string(action), "")); combo != "" {
			out[action] = combo
		}
	}
	return out
}

// Listen registers the global keyboard and mouse hook and posts inputs to out
// until ctx is done. Inputs are dropped when out is full. It returns an error
// only when no hotkey could be configured; hook start failures are logged.
func Listen(ctx context.Context, combos map[messages.HotkeyAction]string, out chan<- messages.Input) error {
	m := NewMatcher(combos)
	if m.Len() == 0 {
		return ErrNoHotkeys
	}
	t := &translator{matcher: m}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in hotkey goroutine: %v", r)
			}
		}()

		log.Printf("Starting gohook event loop...")
		evChan := gohook.Start()
		if evChan == nil {
			log.Printf("ERROR: gohook.Start() returned nil channel")
			return
		}
		defer gohook.End()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-evChan:
				if !ok {
					log.Printf("Event channel closed")
					return
				}
				for _, in := range t.translate(ev) {
					select {
					case out <- in:
					default:
						log.Printf("hotkey: input queue full, dropping %s", in.Type())
					}
				}
			}
		}
	}()
	return nil
}
