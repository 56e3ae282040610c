package messages

import (
	"image"
	"time"
)

// HotkeyAction names a configured global hotkey.
type HotkeyAction string

const (
	HotkeyTranslate  HotkeyAction = "translate"
	HotkeyCopy       HotkeyAction = "copy"
	HotkeyHide       HotkeyAction = "hide"
	HotkeySystemCopy HotkeyAction = "system_copy"
)

// HotkeyActions lists every action in registration order.
var HotkeyActions = []HotkeyAction{HotkeyTranslate, HotkeyCopy, HotkeyHide, HotkeySystemCopy}

// Message type constants for logging and routing
const (
	TypeHotkeyPressed = "HotkeyPressed"
	TypeMouseDown     = "MouseDown"
	TypeMouseUp       = "MouseUp"
	TypeSelection     = "Selection"
	TypeHide          = "Hide"
	TypeActionRequest = "ActionRequest"
)

// Input is an OS input notification delivered by the global hook.
type Input interface {
	Type() string
	input()
}

// HotkeyPressed - a configured key combination went down. Pos is the last
// pointer position the hook observed.
type HotkeyPressed struct {
	Action HotkeyAction
	Pos    image.Point
}

func (m HotkeyPressed) Type() string { return TypeHotkeyPressed }
func (HotkeyPressed) input()         {}

// MouseDown - left button pressed anywhere on screen
type MouseDown struct {
	Pos image.Point
}

func (m MouseDown) Type() string { return TypeMouseDown }
func (MouseDown) input()         {}

// MouseUp - left button released anywhere on screen
type MouseUp struct {
	Pos image.Point
}

func (m MouseUp) Type() string { return TypeMouseUp }
func (MouseUp) input()         {}

// Event is produced by the selection detector: either a SelectionEvent or a HideEvent.
type Event interface {
	Type() string
	event()
}

// SelectionEvent - text the user appears to have highlighted. An empty Text
// asks every surface to hide. Passive marks text picked up by clipboard
// polling rather than a user gesture; it never starts an action by itself.
type SelectionEvent struct {
	ID      string
	Text    string
	Pos     image.Point
	At      time.Time
	Passive bool
}

func (m SelectionEvent) Type() string { return TypeSelection }
func (SelectionEvent) event()         {}

// Empty reports whether the event carries no selection.
func (m SelectionEvent) Empty() bool { return m.Text == "" }

// HideEvent - dismiss the toolbar; All also closes result windows
type HideEvent struct {
	All bool
}

func (m HideEvent) Type() string { return TypeHide }
func (HideEvent) event()         {}

// ActionKind is a user-initiated action on selected text.
type ActionKind string

const (
	ActionTranslate ActionKind = "translate"
	ActionSearch    ActionKind = "search"
	ActionExplain   ActionKind = "explain"
	ActionPolish    ActionKind = "polish"
	ActionCopy      ActionKind = "copy"
	ActionOpen      ActionKind = "open"
	ActionFavorite  ActionKind = "favorite"
)

// ActionKinds lists every action kind.
var ActionKinds = []ActionKind{
	ActionTranslate, ActionSearch, ActionExplain, ActionPolish,
	ActionCopy, ActionOpen, ActionFavorite,
}

// ParseActionKind accepts the lowercase action names.
func ParseActionKind(s string) (ActionKind, bool) {
	k := ActionKind(s)
	for _, known := range ActionKinds {
		if k == known {
			return k, true
		}
	}
	return k, false
}

// ActionRequest - sent by the tray, the CLI or the auto action. An empty Text
// means "the current selection".
type ActionRequest struct {
	ID   string
	Kind ActionKind
	Text string
}

func (m ActionRequest) Type() string { return TypeActionRequest }
