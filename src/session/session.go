package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"quick-translate/src/clipboard"
	"quick-translate/src/config"
	"quick-translate/src/favorites"
	"quick-translate/src/messages"
	"quick-translate/src/popup"
	"quick-translate/src/search"
	"quick-translate/src/singleinstance"
	"quick-translate/src/translate"
)

var (
	ErrEmptyText     = errors.New("no text selected")
	ErrUnavailable   = errors.New("not available")
	ErrUnknownAction = errors.New("unknown action")
)

type Translator interface {
	Translate(ctx context.Context, text, from, to string) string
	URL(text, from, to string) string
	Engine() string
}

type Assistant interface {
	Explain(ctx context.Context, text string) string
	Polish(ctx context.Context, text string) string
}

type FavoriteStore interface {
	Add(ctx context.Context, fav favorites.Favorite) (favorites.Favorite, error)
}

type OpenFunc func(url string) error

// Deps are the collaborators an action may need. Missing ones make the
// actions that use them fail with ErrUnavailable.
type Deps struct {
	Store      *config.Store
	Translator Translator
	Assistant  Assistant
	Clipboard  clipboard.Clipboard
	Favorites  FavoriteStore
	Open       OpenFunc
}

type Result struct {
	Kind   messages.ActionKind
	Source string
	Text   string
	URL    string
	From   string
	To     string
}

// Title is a short heading for presenting the result.
func (r Result) Title() string {
	switch r.Kind {
	case messages.ActionTranslate:
		return fmt.Sprintf("Translation %s→%s", r.From, r.To)
	case messages.ActionSearch:
		return "Search"
	case messages.ActionExplain:
		return "Explanation"
	case messages.ActionPolish:
		return "Polished"
	case messages.ActionCopy:
		return "Copied"
	case messages.ActionOpen:
		return "Opened in browser"
	case messages.ActionFavorite:
		return "Favorite saved"
	default:
		return "Quick Translate"
	}
}

// Execute runs one action on req.Text. The caller resolves an empty Text to
// the current selection before calling.
func Execute(ctx context.Context, req messages.ActionRequest, deps Deps) (Result, error) {
	text := req.Text
	if strings.TrimSpace(text) == "" {
		return Result{}, ErrEmptyText
	}
	res := Result{Kind: req.Kind, Source: text}
	log.Printf("session: %s request %s (%d chars)", req.Kind, req.ID, len(text))

	switch req.Kind {
	case messages.ActionTranslate:
		if deps.Translator == nil {
			return Result{}, fmt.Errorf("translate: %w", ErrUnavailable)
		}
		res.From, res.To = translate.Direction(deps.Store, text)
		res.Text = deps.Translator.Translate(ctx, text, res.From, res.To)
		res.URL = deps.Translator.URL(text, res.From, res.To)

	case messages.ActionSearch:
		res.URL = search.URL(deps.Store, text, "")
		res.Text = search.Summary(text)

	case messages.ActionExplain, messages.ActionPolish:
		if deps.Assistant == nil {
			return Result{}, fmt.Errorf("%s: %w", req.Kind, ErrUnavailable)
		}
		if req.Kind == messages.ActionExplain {
			res.Text = deps.Assistant.Explain(ctx, text)
		} else {
			res.Text = deps.Assistant.Polish(ctx, text)
		}

	case messages.ActionCopy:
		if deps.Clipboard == nil {
			return Result{}, fmt.Errorf("copy: %w", ErrUnavailable)
		}
		if err := deps.Clipboard.Write(text); err != nil {
			return Result{}, fmt.Errorf("clipboard error: %w", err)
		}
		res.Text = text

	case messages.ActionOpen:
		if deps.Translator == nil || deps.Open == nil {
			return Result{}, fmt.Errorf("open: %w", ErrUnavailable)
		}
		res.From, res.To = translate.Direction(deps.Store, text)
		res.URL = deps.Translator.URL(text, res.From, res.To)
		if res.URL == "" {
			return Result{}, errors.New(translate.NotConfiguredMessage)
		}
		if err := deps.Open(res.URL); err != nil {
			return Result{}, err
		}
		res.Text = res.URL

	case messages.ActionFavorite:
		if deps.Favorites == nil {
			return Result{}, fmt.Errorf("favorite: %w", ErrUnavailable)
		}
		fav := favorites.Favorite{Text: text}
		if deps.Translator != nil {
			from, to := translate.Direction(deps.Store, text)
			fav.Translation = deps.Translator.Translate(ctx, text, from, to)
			fav.Engine = deps.Translator.Engine()
		}
		saved, err := deps.Favorites.Add(ctx, fav)
		if err != nil {
			return Result{}, err
		}
		res.Text = saved.Text
		if saved.Translation != "" {
			res.Text += "\n" + saved.Translation
		}

	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownAction, req.Kind)
	}
	return res, nil
}

type ResultTarget interface {
	OnSuccess(res Result) error
	OnFailure(err error) error
}

// Deliver hands the outcome of Execute to target. A delivery failure is
// reported back to the target as a failure.
func Deliver(target ResultTarget, res Result, err error) error {
	if err != nil {
		_ = target.OnFailure(err)
		return err
	}
	if err := target.OnSuccess(res); err != nil {
		_ = target.OnFailure(err)
		return err
	}
	return nil
}

// PopupTarget shows results as desktop notifications.
type PopupTarget struct {
	Show func(title, text string) error
}

func (t PopupTarget) show(title, text string) error {
	if t.Show != nil {
		return t.Show(title, text)
	}
	return popup.Show(title, text)
}

func (t PopupTarget) OnSuccess(res Result) error {
	text := res.Text
	if res.URL != "" && res.Kind != messages.ActionOpen {
		text += "\n\n" + res.URL
	}
	return t.show(res.Title(), text)
}

func (t PopupTarget) OnFailure(err error) error {
	if err == nil {
		return nil
	}
	return t.show("Quick Translate", err.Error())
}

type StdoutTarget struct {
	Writer io.Writer
}

func (t StdoutTarget) OnSuccess(res Result) error {
	w := t.Writer
	if w == nil {
		w = os.Stdout
	}
	_, err := fmt.Fprintln(w, res.Text)
	return err
}

func (t StdoutTarget) OnFailure(err error) error {
	return nil
}

// DelegatedTarget answers a CLI client connected to the resident.
type DelegatedTarget struct {
	Conn singleinstance.Conn
}

func (t DelegatedTarget) OnSuccess(res Result) error {
	if t.Conn == nil {
		return errors.New("delegated target missing connection")
	}
	return t.Conn.RespondSuccess(res.Text)
}

func (t DelegatedTarget) OnFailure(err error) error {
	if t.Conn == nil {
		return nil
	}
	if err == nil {
		return t.Conn.RespondError("unknown session error")
	}
	return t.Conn.RespondError(err.Error())
}
