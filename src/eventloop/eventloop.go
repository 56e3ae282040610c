package eventloop

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"time"

	"quick-translate/src/clipboard"
	"quick-translate/src/config"
	"quick-translate/src/keystroke"
	"quick-translate/src/messages"
	"quick-translate/src/popup"
	"quick-translate/src/screen"
	"quick-translate/src/selection"
	"quick-translate/src/session"
	"quick-translate/src/singleinstance"
	"quick-translate/src/worker"

	"github.com/google/uuid"
)

// ErrBusy rejects an action while another one is in flight.
var ErrBusy = errors.New("busy, please retry")

// BusyMessage is what the user is shown for ErrBusy.
const BusyMessage = "Busy, please retry"

type busyError struct{}

func (busyError) Error() string        { return BusyMessage }
func (busyError) Is(target error) bool { return target == ErrBusy }

// defaultResultSize is used when ui.translation_window_size is unusable.
var defaultResultSize = []int{400, 350}

// toolbarSize is the footprint the toolbar is kept inside the screen with.
var toolbarSize = image.Pt(320, 40)

// Options wires the loop to its collaborators. Zero fields get defaults.
type Options struct {
	Store     *config.Store
	Clipboard clipboard.Clipboard
	Copier    keystroke.Copier
	Session   session.Deps
	// Server, when set, is started by Run and its connections are served as actions.
	Server singleinstance.Server
	// Show presents results; popup.Show by default.
	Show func(title, text string) error
	// Tooltip reflects busy state, e.g. in the tray.
	Tooltip func(text string)
	// Bounds returns the screen rectangle containing a point; screen.Bounds by default.
	Bounds func(p image.Point) image.Rectangle
	// Deadline bounds one action. Defaults to 20s.
	Deadline time.Duration
}

// Loop is the single goroutine that owns the selection detector. Hook input,
// timers, tray actions and delegated requests all arrive over its channels.
type Loop struct {
	store          *config.Store
	detector       *selection.Detector
	pool           *worker.Pool
	srv            singleinstance.Server
	deps           session.Deps
	show           func(title, text string) error
	tooltip        func(text string)
	bounds         func(p image.Point) image.Rectangle
	busy           bool
	defaultTooltip string
	deadline       time.Duration

	// ctx is the Run context; auto actions started by present inherit it.
	ctx context.Context

	inputs   chan messages.Input
	actions  chan messages.ActionRequest
	deferred chan func()
	results  chan result
	done     chan struct{}
	reload   chan struct{}

	current messages.SelectionEvent
	toolbar toolbarState
	window  image.Rectangle
}

type toolbarState struct {
	visible bool
	anchor  image.Point
	origin  image.Point
	token   uint64
}

type result struct {
	res    session.Result
	err    error
	target resultTarget
	cancel context.CancelFunc
}

type resultTarget interface {
	session.ResultTarget
	Close()
}

type popupResultTarget struct {
	session.PopupTarget
}

func (popupResultTarget) Close() {}

type delegatedResultTarget struct {
	session.DelegatedTarget
}

func (t delegatedResultTarget) Close() {
	if t.Conn != nil {
		_ = t.Conn.Close()
	}
}

// New creates a loop. The detector snapshots the clipboard immediately.
func New(opts Options) *Loop {
	deadline := opts.Deadline
	if deadline <= 0 {
		deadline = 20 * time.Second
	}
	l := &Loop{
		store:          opts.Store,
		pool:           worker.New(1),
		srv:            opts.Server,
		deps:           opts.Session,
		show:           opts.Show,
		tooltip:        opts.Tooltip,
		bounds:         opts.Bounds,
		defaultTooltip: "Quick Translate",
		deadline:       deadline,
		ctx:            context.Background(),
		inputs:         make(chan messages.Input, 32),
		actions:        make(chan messages.ActionRequest, 4),
		deferred:       make(chan func(), 16),
		results:        make(chan result, 1),
		done:           make(chan struct{}),
		reload:         make(chan struct{}, 1),
	}
	if l.show == nil {
		l.show = popup.Show
	}
	if l.tooltip == nil {
		l.tooltip = func(string) {}
	}
	if l.bounds == nil {
		l.bounds = screen.Bounds
	}
	if l.deps.Store == nil {
		l.deps.Store = opts.Store
	}
	if l.deps.Clipboard == nil {
		l.deps.Clipboard = opts.Clipboard
	}
	l.detector = selection.New(opts.Clipboard, opts.Copier, loopScheduler{l}, l.present, selection.OptionsFromStore(opts.Store))
	return l
}

// SetDefaultTooltip optionally sets the tray tooltip base text.
func (l *Loop) SetDefaultTooltip(tt string) { l.defaultTooltip = tt }

// Inputs is where the input hook posts events.
func (l *Loop) Inputs() chan<- messages.Input { return l.inputs }

// Submit queues an action from another goroutine. It returns false when the
// queue is full.
func (l *Loop) Submit(req messages.ActionRequest) bool {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	select {
	case l.actions <- req:
		return true
	default:
		log.Printf("eventloop: action queue full, dropping %s", req.Kind)
		return false
	}
}

// Reload re-reads detector and polling settings, e.g. after the settings file
// was edited.
func (l *Loop) Reload() {
	select {
	case l.reload <- struct{}{}:
	default:
	}
}

// post runs fn on the loop goroutine. It is dropped once the loop has stopped.
func (l *Loop) post(fn func()) {
	select {
	case l.deferred <- fn:
	case <-l.done:
	}
}

type loopScheduler struct{ l *Loop }

func (s loopScheduler) Now() time.Time { return time.Now() }

func (s loopScheduler) After(d time.Duration, fn func()) {
	time.AfterFunc(d, func() { s.l.post(fn) })
}

func (l *Loop) setBusy(b bool) {
	l.busy = b
	if b {
		l.tooltip("Quick Translate: working...")
	} else {
		l.tooltip(l.defaultTooltip)
	}
}

func (l *Loop) pollTicker() (*time.Ticker, <-chan time.Time) {
	if l.store == nil || !l.store.Bool(config.SectionClipboard, "use_clipboard_for_detection", true) {
		return nil, nil
	}
	interval := l.store.Duration(config.SectionClipboard, "check_interval_ms", 500*time.Millisecond)
	t := time.NewTicker(interval)
	return t, t.C
}

// Run processes events until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer l.pool.Close()
	defer close(l.done)
	l.ctx = ctx

	var reqCh chan singleinstance.Conn
	if l.srv != nil {
		if err := l.srv.Start(ctx); err != nil {
			return err
		}
		defer func() { _ = l.srv.Close() }()
		if p := l.srv.Port(); p > 0 {
			log.Printf("Resident listening on 127.0.0.1:%d", p)
		}
		// Accept loop in background to avoid blocking result handling
		reqCh = make(chan singleinstance.Conn, 4)
		go func() {
			for {
				conn, err := l.srv.Next(ctx)
				if err != nil {
					close(reqCh)
					return
				}
				reqCh <- conn
			}
		}()
	}

	ticker, tick := l.pollTicker()
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case in := <-l.inputs:
			l.detector.Handle(in)
		case fn := <-l.deferred:
			fn()
		case req := <-l.actions:
			l.startAction(ctx, req, popupResultTarget{session.PopupTarget{Show: l.show}})
		case conn, ok := <-reqCh:
			if !ok {
				reqCh = nil
				continue
			}
			l.handleConn(ctx, conn)
		case res := <-l.results:
			l.handleResult(res)
		case <-tick:
			l.detector.Poll()
		case <-l.reload:
			log.Printf("eventloop: settings changed, reloading")
			l.detector.SetOptions(selection.OptionsFromStore(l.store))
			if ticker != nil {
				ticker.Stop()
			}
			ticker, tick = l.pollTicker()
		}
	}
}

// present consumes detector output on the loop goroutine.
func (l *Loop) present(ev messages.Event) {
	switch e := ev.(type) {
	case messages.SelectionEvent:
		if e.Empty() {
			l.current = messages.SelectionEvent{}
			l.hideToolbar()
			return
		}
		l.current = e
		if l.store != nil && !l.store.Bool(config.SectionUI, "show_toolbar_on_selection", true) {
			return
		}
		l.showToolbar(e.Pos)
		if e.Passive {
			return
		}
		action := "none"
		if l.store != nil {
			action = l.store.String(config.SectionUI, "selection_action", string(messages.ActionTranslate))
		}
		if kind, ok := messages.ParseActionKind(action); ok {
			l.startAction(l.ctx, messages.ActionRequest{ID: e.ID, Kind: kind, Text: e.Text},
				popupResultTarget{session.PopupTarget{Show: l.show}})
		}
	case messages.HideEvent:
		if e.All {
			l.current = messages.SelectionEvent{}
		}
		l.hideToolbar()
	}
}

func (l *Loop) showToolbar(pos image.Point) {
	if !l.toolbar.visible || screen.Moved(l.toolbar.anchor, pos) {
		offsetY := 20
		if l.store != nil {
			offsetY = l.store.Int(config.SectionUI, "toolbar_position_offset_y", 20)
		}
		l.toolbar.origin = screen.Place(pos, toolbarSize, offsetY, l.bounds(pos))
		l.toolbar.anchor = pos
	}
	l.toolbar.visible = true
	l.toolbar.token++
	token := l.toolbar.token

	hide := 5 * time.Second
	if l.store != nil {
		hide = l.store.Duration(config.SectionUI, "toolbar_hide_ms", hide)
	}
	log.Printf("eventloop: toolbar at %v", l.toolbar.origin)
	loopScheduler{l}.After(hide, func() {
		if l.toolbar.token == token {
			l.hideToolbar()
		}
	})
}

func (l *Loop) hideToolbar() {
	if l.toolbar.visible {
		log.Printf("eventloop: toolbar hidden")
	}
	l.toolbar.visible = false
	l.toolbar.token++
}

// placeResult positions the result window next to the selection.
func (l *Loop) placeResult(pos image.Point) image.Rectangle {
	size, offsetY := defaultResultSize, 20
	if l.store != nil {
		size = l.store.Ints(config.SectionUI, "translation_window_size", defaultResultSize)
		offsetY = l.store.Int(config.SectionUI, "toolbar_position_offset_y", offsetY)
	}
	if len(size) != 2 || size[0] <= 0 || size[1] <= 0 {
		log.Printf("eventloop: ignoring translation_window_size %v", size)
		size = defaultResultSize
	}
	wh := image.Pt(size[0], size[1])
	origin := screen.Place(pos, wh, offsetY, l.bounds(pos))
	return image.Rectangle{Min: origin, Max: origin.Add(wh)}
}

// ResultWindow is where the last popup result was placed.
func (l *Loop) ResultWindow() image.Rectangle { return l.window }

// Toolbar reports whether the toolbar is shown and where.
func (l *Loop) Toolbar() (visible bool, origin image.Point) {
	return l.toolbar.visible, l.toolbar.origin
}

func (l *Loop) handleConn(ctx context.Context, conn singleinstance.Conn) {
	req := conn.Request()
	target := delegatedResultTarget{session.DelegatedTarget{Conn: conn}}
	l.startAction(ctx, messages.ActionRequest{ID: uuid.NewString(), Kind: req.Kind, Text: req.Text}, target)
}

func (l *Loop) startAction(ctx context.Context, req messages.ActionRequest, target resultTarget) {
	if req.Text == "" {
		req.Text = l.current.Text
	}
	if req.Text == "" {
		_ = target.OnFailure(session.ErrEmptyText)
		target.Close()
		return
	}
	if l.busy {
		log.Printf("startAction: busy, rejecting %s", req.Kind)
		_ = target.OnFailure(busyError{})
		target.Close()
		return
	}

	jobCtx, cancel := context.WithTimeout(ctx, l.deadline)
	l.setBusy(true)
	deps := l.deps
	submitted := l.pool.Submit(jobCtx, string(req.Kind), func(ctx context.Context) {
		res, err := session.Execute(ctx, req, deps)
		select {
		case l.results <- result{res: res, err: err, target: target, cancel: cancel}:
		case <-l.done:
			cancel()
			target.Close()
		}
	})
	if !submitted {
		cancel()
		l.setBusy(false)
		_ = target.OnFailure(busyError{})
		target.Close()
	}
}

func (l *Loop) handleResult(res result) {
	defer func() {
		l.setBusy(false)
		if res.cancel != nil {
			res.cancel()
		}
	}()
	if res.target == nil {
		log.Printf("handleResult: missing target")
		return
	}
	defer res.target.Close()

	if _, ok := res.target.(popupResultTarget); ok {
		l.window = l.placeResult(l.current.Pos)
		log.Printf("eventloop: result window at %v", l.window)
	}
	if err := session.Deliver(res.target, res.res, res.err); err != nil {
		log.Printf("handleResult: %s failed: %v", res.res.Kind, err)
		return
	}
	log.Printf("handleResult: %s delivered (%d chars)", res.res.Kind, len(res.res.Text))
}

// Deadline returns the configured action deadline for this loop.
func (l *Loop) Deadline() time.Duration { return l.deadline }

// CurrentSelection returns the most recent non-empty selection, if any.
// Only safe on the loop goroutine; other goroutines use Submit with empty Text.
func (l *Loop) CurrentSelection() string { return l.current.Text }

// String is used in logs.
func (l *Loop) String() string {
	return fmt.Sprintf("eventloop(busy=%v, state=%s)", l.busy, l.detector.State())
}
