// Package selection infers highlighted text by synthesizing a copy and diffing
// the clipboard before and after it settles.
package selection

import (
	"image"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"quick-translate/src/clipboard"
	"quick-translate/src/keystroke"
	"quick-translate/src/logutil"
	"quick-translate/src/messages"
)

// Emitter receives detector output on the loop goroutine.
type Emitter func(messages.Event)

// Detector is the selection state machine. All methods, and every callback it
// hands to the Scheduler, must run on one goroutine.
type Detector struct {
	clip   clipboard.Clipboard
	copier keystroke.Copier
	sched  Scheduler
	emit   Emitter
	opts   Options

	guard guard
	state State
	// token changes on every state transition; delayed transitions compare it
	token uint64

	lastText  string
	stored    string
	lastCheck time.Time
	cursor    image.Point
}

// New creates an Idle detector and snapshots the current clipboard.
func New(clip clipboard.Clipboard, copier keystroke.Copier, sched Scheduler, emit Emitter, opts Options) *Detector {
	if emit == nil {
		emit = func(messages.Event) {}
	}
	d := &Detector{clip: clip, copier: copier, sched: sched, emit: emit, opts: opts}
	if text, err := clip.Read(); err == nil {
		d.stored = text
	} else {
		log.Printf("selection: initial clipboard read failed: %v", err)
	}
	return d
}

func (d *Detector) State() State { return d.state }

// SetOptions applies new timings to cycles started afterwards.
func (d *Detector) SetOptions(opts Options) { d.opts = opts }

// Busy reports whether a detection cycle is in flight.
func (d *Detector) Busy() bool { return d.guard.busy() }

// LastText is the most recently accepted selection.
func (d *Detector) LastText() string { return d.lastText }

// Handle dispatches one hook input.
func (d *Detector) Handle(in messages.Input) {
	switch m := in.(type) {
	case messages.HotkeyPressed:
		d.cursor = m.Pos
		switch m.Action {
		case messages.HotkeyTranslate:
			d.Check()
		case messages.HotkeyCopy:
			d.CopyHotkey()
		case messages.HotkeyHide:
			d.Escape()
		case messages.HotkeySystemCopy:
			d.SystemCopy()
		}
	case messages.MouseDown:
		d.cursor = m.Pos
		d.MouseDown()
	case messages.MouseUp:
		d.cursor = m.Pos
		d.MouseUp()
	}
}

func (d *Detector) setState(s State) {
	if d.state != s {
		log.Printf("selection: %s -> %s", d.state, s)
	}
	d.state = s
	d.token++
}

// Check starts a detection cycle: snapshot, synthesize copy, compare after the
// settle delay. It returns false when a cycle is already in flight or the
// first half failed.
func (d *Detector) Check() bool {
	if !d.guard.tryAcquire() {
		log.Printf("selection: check already in flight, dropping trigger")
		return false
	}
	original, err := d.clip.Read()
	if err != nil {
		log.Printf("selection: reading clipboard before copy: %v", err)
		d.guard.release()
		return false
	}
	d.stored = original
	if err := d.copier.Copy(); err != nil {
		log.Printf("selection: synthesizing copy: %v", err)
		d.guard.release()
		return false
	}
	d.setState(Checking)
	d.sched.After(d.opts.SettleDelay, func() { d.finishCheck(original) })
	return true
}

func (d *Detector) finishCheck(original string) {
	defer d.guard.release()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("selection: panic finishing check: %v", r)
			d.setState(Idle)
		}
	}()

	current, err := d.clip.Read()
	if err != nil {
		log.Printf("selection: reading clipboard after copy: %v", err)
		d.setState(Idle)
		d.restore(original)
		return
	}
	if d.fresh(current, original) {
		d.accept(current, false)
		return
	}
	d.setState(Idle)
	if current != original {
		d.restore(original)
	}
}

// SystemCopy handles the user's own copy chord. Nothing is synthesized and the
// clipboard is never restored; the result is compared with the last snapshot.
// A chord arriving while a cycle is in flight is the detector's own and is dropped.
func (d *Detector) SystemCopy() bool {
	if !d.guard.tryAcquire() {
		return false
	}
	d.setState(Checking)
	d.sched.After(d.opts.SettleDelay, d.finishSystemCopy)
	return true
}

func (d *Detector) finishSystemCopy() {
	defer d.guard.release()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("selection: panic finishing system copy: %v", r)
			d.setState(Idle)
		}
	}()

	current, err := d.clip.Read()
	if err != nil {
		log.Printf("selection: reading clipboard after system copy: %v", err)
		d.setState(Idle)
		return
	}
	prev := d.stored
	d.stored = current
	if d.fresh(current, prev) {
		d.accept(current, false)
		return
	}
	d.setState(Idle)
}

// MouseUp schedules a check after the release delay unless the previous one
// was accepted less than MinCheckInterval ago.
func (d *Detector) MouseUp() bool {
	now := d.sched.Now()
	if !d.lastCheck.IsZero() && now.Sub(d.lastCheck) < d.opts.MinCheckInterval {
		return false
	}
	d.lastCheck = now
	d.sched.After(d.opts.MouseReleaseDelay, func() { d.Check() })
	return true
}

// MouseDown dismisses the toolbar when nothing is being selected.
func (d *Detector) MouseDown() {
	if d.state != Idle || d.guard.busy() {
		return
	}
	d.emit(messages.HideEvent{})
}

// CopyHotkey suppresses click dismissal for CopyHold.
func (d *Detector) CopyHotkey() {
	if d.state == Checking {
		return
	}
	d.hold()
}

// Escape hides everything. An in-flight cycle is left to finish.
func (d *Detector) Escape() {
	if d.state == Selecting {
		d.setState(Idle)
	}
	d.emit(messages.HideEvent{All: true})
	d.emit(messages.SelectionEvent{At: d.sched.Now()})
}

// Poll treats a clipboard change made by another party like a system copy,
// except that the event is marked Passive. It is a no-op unless the detector is Idle.
func (d *Detector) Poll() {
	if d.state != Idle || d.guard.busy() {
		return
	}
	current, err := d.clip.Read()
	if err != nil {
		log.Printf("selection: polling clipboard: %v", err)
		return
	}
	if current == d.stored {
		return
	}
	prev := d.stored
	d.stored = current
	if d.fresh(current, prev) {
		d.accept(current, true)
	}
}

// fresh reports whether text is a new, non-blank selection relative to before.
func (d *Detector) fresh(text, before string) bool {
	return text != "" && strings.TrimSpace(text) != "" && text != before && text != d.lastText
}

func (d *Detector) accept(text string, passive bool) {
	d.lastText = text
	d.stored = text
	log.Printf("selection: accepted %q", logutil.Sanitize(text))
	d.emit(messages.SelectionEvent{
		ID:      uuid.NewString(),
		Text:    text,
		Pos:     d.cursor,
		At:      d.sched.Now(),
		Passive: passive,
	})
	d.hold()
}

func (d *Detector) hold() {
	d.setState(Selecting)
	token := d.token
	d.sched.After(d.opts.CopyHold, func() {
		if d.token != token || d.state != Selecting {
			return
		}
		d.setState(Idle)
	})
}

func (d *Detector) restore(original string) {
	d.stored = original
	if err := d.clip.Write(original); err != nil {
		log.Printf("selection: restoring clipboard: %v", err)
	}
}
