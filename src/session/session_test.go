package session

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quick-translate/src/clipboard"
	"quick-translate/src/config"
	"quick-translate/src/favorites"
	"quick-translate/src/messages"
	"quick-translate/src/singleinstance"
	"quick-translate/src/translate"
)

type fakeAssistant struct{}

func (fakeAssistant) Explain(_ context.Context, text string) string { return "explained " + text }
func (fakeAssistant) Polish(_ context.Context, text string) string  { return "polished " + text }

type fakeFavorites struct {
	added []favorites.Favorite
	err   error
}

func (f *fakeFavorites) Add(_ context.Context, fav favorites.Favorite) (favorites.Favorite, error) {
	if f.err != nil {
		return favorites.Favorite{}, f.err
	}
	fav.ID = "fav-1"
	f.added = append(f.added, fav)
	return fav, nil
}

type fakeConn struct {
	success []string
	errs    []string
	failOn  error
}

func (c *fakeConn) Request() singleinstance.Request { return singleinstance.Request{} }
func (c *fakeConn) RespondSuccess(text string) error {
	if c.failOn != nil {
		return c.failOn
	}
	c.success = append(c.success, text)
	return nil
}
func (c *fakeConn) RespondError(msg string) error {
	c.errs = append(c.errs, msg)
	return nil
}
func (c *fakeConn) Close() error { return nil }

func newDeps(t *testing.T) (Deps, *clipboard.Memory, *fakeFavorites, *[]string) {
	t.Helper()
	store := config.Open(filepath.Join(t.TempDir(), "settings.json"))
	clip := clipboard.NewMemory("")
	favs := &fakeFavorites{}
	var opened []string
	deps := Deps{
		Store:      store,
		Translator: translate.New(store),
		Assistant:  fakeAssistant{},
		Clipboard:  clip,
		Favorites:  favs,
		Open: func(url string) error {
			opened = append(opened, url)
			return nil
		},
	}
	return deps, clip, favs, &opened
}

func run(t *testing.T, deps Deps, kind messages.ActionKind, text string) (Result, error) {
	t.Helper()
	return Execute(context.Background(), messages.ActionRequest{ID: "req-1", Kind: kind, Text: text}, deps)
}

func TestExecuteTranslate(t *testing.T) {
	deps, _, _, _ := newDeps(t)

	res, err := run(t, deps, messages.ActionTranslate, "hello")
	require.NoError(t, err)
	assert.Equal(t, "en", res.From)
	assert.Equal(t, "zh", res.To)
	assert.Equal(t, "[Baidu Translate] hello → Chinese translation result", res.Text)
	assert.Equal(t, "https://fanyi.baidu.com/#en/zh/hello", res.URL)
	assert.Equal(t, "Translation en→zh", res.Title())
}

func TestExecuteSearch(t *testing.T) {
	deps, _, _, _ := newDeps(t)

	res, err := run(t, deps, messages.ActionSearch, "go lang")
	require.NoError(t, err)
	assert.Equal(t, "https://www.baidu.com/s?wd=go%20lang", res.URL)
	assert.Contains(t, res.Text, `Searching "go lang"`)
}

func TestExecuteAssistant(t *testing.T) {
	deps, _, _, _ := newDeps(t)

	res, err := run(t, deps, messages.ActionExplain, "word")
	require.NoError(t, err)
	assert.Equal(t, "explained word", res.Text)

	res, err = run(t, deps, messages.ActionPolish, "word")
	require.NoError(t, err)
	assert.Equal(t, "polished word", res.Text)

	deps.Assistant = nil
	_, err = run(t, deps, messages.ActionExplain, "word")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestExecuteCopy(t *testing.T) {
	deps, clip, _, _ := newDeps(t)

	_, err := run(t, deps, messages.ActionCopy, "copy me")
	require.NoError(t, err)
	assert.Equal(t, "copy me", clip.Text())

	clip.WriteErr = errors.New("locked")
	_, err = run(t, deps, messages.ActionCopy, "again")
	assert.ErrorContains(t, err, "clipboard error")
}

func TestExecuteOpen(t *testing.T) {
	deps, _, _, opened := newDeps(t)

	res, err := run(t, deps, messages.ActionOpen, "你好")
	require.NoError(t, err)
	require.Len(t, *opened, 1)
	assert.Equal(t, "https://fanyi.baidu.com/#zh/en/%E4%BD%A0%E5%A5%BD", (*opened)[0])
	assert.Equal(t, (*opened)[0], res.Text)

	deps.Open = func(string) error { return errors.New("no browser") }
	_, err = run(t, deps, messages.ActionOpen, "x")
	assert.EqualError(t, err, "no browser")
}

func TestExecuteFavorite(t *testing.T) {
	deps, _, favs, _ := newDeps(t)

	res, err := run(t, deps, messages.ActionFavorite, "keep")
	require.NoError(t, err)
	require.Len(t, favs.added, 1)
	assert.Equal(t, "keep", favs.added[0].Text)
	assert.Equal(t, translate.Baidu, favs.added[0].Engine)
	assert.True(t, strings.HasPrefix(res.Text, "keep\n"))

	favs.err = errors.New("disk full")
	_, err = run(t, deps, messages.ActionFavorite, "keep")
	assert.EqualError(t, err, "disk full")
}

func TestExecuteRejects(t *testing.T) {
	deps, _, _, _ := newDeps(t)

	_, err := run(t, deps, messages.ActionTranslate, "  ")
	assert.ErrorIs(t, err, ErrEmptyText)

	_, err = run(t, deps, messages.ActionKind("dance"), "x")
	assert.ErrorIs(t, err, ErrUnknownAction)

	_, err = run(t, Deps{}, messages.ActionTranslate, "x")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestDeliverTargets(t *testing.T) {
	res := Result{Kind: messages.ActionTranslate, Text: "你好", URL: "https://example.com", From: "en", To: "zh"}

	var buf bytes.Buffer
	require.NoError(t, Deliver(StdoutTarget{Writer: &buf}, res, nil))
	assert.Equal(t, "你好\n", buf.String())

	var title, body string
	popupTarget := PopupTarget{Show: func(tt, text string) error {
		title, body = tt, text
		return nil
	}}
	require.NoError(t, Deliver(popupTarget, res, nil))
	assert.Equal(t, "Translation en→zh", title)
	assert.Equal(t, "你好\n\nhttps://example.com", body)

	assert.ErrorIs(t, Deliver(popupTarget, Result{}, ErrEmptyText), ErrEmptyText)
	assert.Equal(t, ErrEmptyText.Error(), body)

	conn := &fakeConn{}
	require.NoError(t, Deliver(DelegatedTarget{Conn: conn}, res, nil))
	assert.Equal(t, []string{"你好"}, conn.success)

	conn = &fakeConn{failOn: errors.New("broken pipe")}
	assert.Error(t, Deliver(DelegatedTarget{Conn: conn}, res, nil))
	assert.Equal(t, []string{"broken pipe"}, conn.errs)

	assert.Error(t, DelegatedTarget{}.OnSuccess(res))
}
