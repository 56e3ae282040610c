package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quick-translate/src/config"
)

type cliEnv struct {
	settings string
}

func newCLIEnv(t *testing.T) cliEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("QUICK_TRANSLATE_FAVORITES", filepath.Join(dir, "favorites.db"))
	t.Setenv("OPENROUTER_API_KEY", "")
	return cliEnv{settings: filepath.Join(dir, "settings.json")}
}

func (e cliEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	opts := &cliOptions{}
	cmd := newRootCmd(opts)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--settings", e.settings}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestTranslatePlaceholder(t *testing.T) {
	e := newCLIEnv(t)

	out, err := e.run(t, "", "translate", "hello", "world")
	require.NoError(t, err)
	assert.Equal(t, "[Baidu Translate] hello world → Chinese translation result\n", out)

	out, err = e.run(t, "你好\n", "translate", "-")
	require.NoError(t, err)
	assert.Equal(t, "[Baidu Translate] 你好 → English translation result\n", out)
}

func TestTranslateJSON(t *testing.T) {
	e := newCLIEnv(t)

	out, err := e.run(t, "", "translate", "--json", "--engine", "google", "--to", "ja", "hi")
	require.NoError(t, err)

	var res TranslateResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "google", res.Engine)
	assert.Equal(t, "en", res.From)
	assert.Equal(t, "ja", res.To)
	assert.Equal(t, "hi", res.Source)
	assert.Contains(t, res.URL, "translate.google.com")
	assert.NotEmpty(t, res.Timestamp)

	// --engine is for one run only
	out, err = e.run(t, "", "engine")
	require.NoError(t, err)
	assert.Contains(t, out, "* baidu")
}

func TestTranslateRejectsUnknownEngine(t *testing.T) {
	e := newCLIEnv(t)
	_, err := e.run(t, "", "translate", "--engine", "deepl", "hi")
	assert.ErrorContains(t, err, "unknown engine")
}

func TestURLAndSearch(t *testing.T) {
	e := newCLIEnv(t)

	out, err := e.run(t, "", "url", "good morning")
	require.NoError(t, err)
	assert.Equal(t, "https://fanyi.baidu.com/#en/zh/good%20morning\n", out)

	out, err = e.run(t, "", "search", "go lang")
	require.NoError(t, err)
	assert.Equal(t, "https://www.baidu.com/s?wd=go%20lang\n", out)
}

func TestEngineSwitchPersists(t *testing.T) {
	e := newCLIEnv(t)

	out, err := e.run(t, "", "engine", "youdao")
	require.NoError(t, err)
	assert.Contains(t, out, "* youdao")
	assert.Contains(t, out, "  baidu")

	store := config.Open(e.settings)
	assert.Equal(t, "youdao", store.String(config.SectionTranslation, "default_engine", ""))

	_, err = e.run(t, "", "engine", "deepl")
	assert.Error(t, err)
}

func TestSettingsCommands(t *testing.T) {
	e := newCLIEnv(t)

	out, err := e.run(t, "", "settings", "path")
	require.NoError(t, err)
	assert.Equal(t, e.settings+"\n", out)

	_, err = e.run(t, "", "settings", "set", "ui", "toolbar_hide_ms", "2500")
	require.NoError(t, err)
	_, err = e.run(t, "", "settings", "set", "ui", "selection_action", "search")
	require.NoError(t, err)

	store := config.Open(e.settings)
	assert.Equal(t, 2500, store.Int(config.SectionUI, "toolbar_hide_ms", 0))
	assert.Equal(t, "search", store.String(config.SectionUI, "selection_action", ""))

	out, err = e.run(t, "", "settings", "get", "ui", "toolbar_hide_ms")
	require.NoError(t, err)
	assert.Equal(t, "2500\n", out)

	_, err = e.run(t, "", "settings", "get", "nope")
	assert.Error(t, err)

	_, err = e.run(t, "", "settings", "reset")
	require.NoError(t, err)
	out, err = e.run(t, "", "settings", "get", "ui", "selection_action")
	require.NoError(t, err)
	assert.Equal(t, "\"translate\"\n", out)
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, float64(3), parseValue("3"))
	assert.Equal(t, true, parseValue("true"))
	assert.Equal(t, "plain text", parseValue("plain text"))
	assert.Equal(t, "quoted", parseValue(`"quoted"`))
	assert.Equal(t, []any{float64(1), float64(2)}, parseValue("[1,2]"))
}

func TestFavoritesCommands(t *testing.T) {
	e := newCLIEnv(t)

	out, err := e.run(t, "", "favorites", "add", "hello")
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	require.NotEmpty(t, id)

	out, err = e.run(t, "", "favorites", "list")
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "hello\t[Baidu Translate] hello")

	_, err = e.run(t, "", "favorites", "delete", id)
	require.NoError(t, err)
	_, err = e.run(t, "", "favorites", "delete", id)
	assert.Error(t, err)

	out, err = e.run(t, "", "favorites", "list")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestInputTextRejectsBlank(t *testing.T) {
	e := newCLIEnv(t)
	_, err := e.run(t, "", "translate", "  ")
	assert.ErrorContains(t, err, "no text given")
}
