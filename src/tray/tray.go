// Package tray is the notification-area icon: engine choice, actions on the
// current selection, settings reset and exit.
package tray

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/getlantern/systray"

	"quick-translate/src/messages"
	"quick-translate/src/translate"
)

// Config describes the menu. Callbacks run on systray's click goroutine.
type Config struct {
	Title    string
	Tooltip  string
	Engines  []translate.Descriptor
	Engine   string
	OnEngine func(name string) bool
	OnAction func(kind messages.ActionKind)
	OnReset  func()
	OnExit   func()
}

type Tray struct {
	cfg     Config
	engines []*systray.MenuItem
	once    sync.Once
}

var (
	aboutMu     sync.Mutex
	aboutExtra  string
	aboutHotkey string
)

// menuActions are the selection actions offered in the menu, in order.
var menuActions = []struct {
	kind  messages.ActionKind
	title string
}{
	{messages.ActionTranslate, "Translate selection"},
	{messages.ActionSearch, "Search selection"},
	{messages.ActionExplain, "Explain selection"},
	{messages.ActionPolish, "Polish selection"},
	{messages.ActionCopy, "Copy selection"},
	{messages.ActionOpen, "Open in translator"},
	{messages.ActionFavorite, "Add to favorites"},
}

func New(cfg Config) (*Tray, error) {
	if cfg.Title == "" {
		cfg.Title = "Quick Translate"
	}
	return &Tray{cfg: cfg}, nil
}

// Run blocks until the tray exits. systray wants the main OS thread on macOS.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) Destroy() {
	t.once.Do(systray.Quit)
}

// UpdateTooltip sets the hover text of the icon.
func UpdateTooltip(text string) {
	systray.SetTooltip(text)
}

// SetAboutExtra adds a line (e.g. the listening port) to the About box.
func SetAboutExtra(s string) {
	aboutMu.Lock()
	aboutExtra = s
	aboutMu.Unlock()
}

// SetAboutHotkey records the hotkey the About box advertises.
func SetAboutHotkey(s string) {
	aboutMu.Lock()
	aboutHotkey = s
	aboutMu.Unlock()
}

func aboutText() string {
	aboutMu.Lock()
	defer aboutMu.Unlock()
	var b strings.Builder
	b.WriteString("Quick Translate\n\nSelect text anywhere to translate, search or explain it.")
	if aboutHotkey != "" {
		fmt.Fprintf(&b, "\n\nTranslate hotkey: %s", aboutHotkey)
	}
	if aboutExtra != "" {
		b.WriteString("\n" + aboutExtra)
	}
	return b.String()
}

func (t *Tray) onReady() {
	systray.SetIcon(Icon())
	systray.SetTitle(t.cfg.Title)
	systray.SetTooltip(t.cfg.Tooltip)

	for _, d := range t.cfg.Engines {
		item := systray.AddMenuItemCheckbox(d.Display, "Translate with "+d.Display, engineChecked(d.Name, t.cfg.Engine))
		t.engines = append(t.engines, item)
		go t.watchEngine(d.Name, item)
	}
	systray.AddSeparator()

	for _, a := range menuActions {
		item := systray.AddMenuItem(a.title, string(a.kind))
		go func(kind messages.ActionKind) {
			for range item.ClickedCh {
				if t.cfg.OnAction != nil {
					t.cfg.OnAction(kind)
				}
			}
		}(a.kind)
	}
	systray.AddSeparator()

	mReset := systray.AddMenuItem("Reset settings", "Restore default settings")
	mAbout := systray.AddMenuItem("About", "About Quick Translate")
	mExit := systray.AddMenuItem("Exit", "Quit Quick Translate")

	go func() {
		for {
			select {
			case <-mReset.ClickedCh:
				if t.cfg.OnReset != nil {
					t.cfg.OnReset()
				}
			case <-mAbout.ClickedCh:
				showAbout(t.cfg.Title, aboutText())
			case <-mExit.ClickedCh:
				log.Printf("Tray: exit requested")
				t.Destroy()
				return
			}
		}
	}()
}

func (t *Tray) watchEngine(name string, item *systray.MenuItem) {
	for range item.ClickedCh {
		if t.cfg.OnEngine != nil && !t.cfg.OnEngine(name) {
			log.Printf("Tray: engine %s rejected", name)
			continue
		}
		t.selectEngine(name)
	}
}

// selectEngine leaves exactly one engine item checked.
func (t *Tray) selectEngine(name string) {
	for i, d := range t.cfg.Engines {
		if i >= len(t.engines) {
			break
		}
		if engineChecked(d.Name, name) {
			t.engines[i].Check()
		} else {
			t.engines[i].Uncheck()
		}
	}
}

func engineChecked(item, selected string) bool {
	return strings.EqualFold(item, selected)
}

func (t *Tray) onExit() {
	if t.cfg.OnExit != nil {
		t.cfg.OnExit()
	}
}
