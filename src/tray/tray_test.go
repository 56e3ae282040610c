package tray

import (
	"bytes"
	"encoding/binary"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quick-translate/src/messages"
)

func TestIconPNGDecodes(t *testing.T) {
	img, err := png.Decode(bytes.NewReader(iconPNG()))
	require.NoError(t, err)
	assert.Equal(t, iconSize, img.Bounds().Dx())
	assert.Equal(t, iconSize, img.Bounds().Dy())

	_, _, _, a := img.At(0, 0).RGBA()
	assert.Zero(t, a, "corners are transparent")
	_, _, _, a = img.At(iconSize/2, iconSize/2).RGBA()
	assert.NotZero(t, a)
}

func TestWrapICO(t *testing.T) {
	p := iconPNG()
	ico := wrapICO(p)
	require.Len(t, ico, 22+len(p))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(ico[2:4]), "type icon")
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(ico[4:6]), "one image")
	assert.Equal(t, uint32(len(p)), binary.LittleEndian.Uint32(ico[14:18]))
	assert.Equal(t, uint32(22), binary.LittleEndian.Uint32(ico[18:22]))
	assert.Equal(t, p, ico[22:])
}

func TestAboutText(t *testing.T) {
	t.Cleanup(func() {
		SetAboutHotkey("")
		SetAboutExtra("")
	})
	assert.NotContains(t, aboutText(), "hotkey")

	SetAboutHotkey("ctrl+q")
	SetAboutExtra("Listening on 127.0.0.1:49600")
	text := aboutText()
	assert.Contains(t, text, "Translate hotkey: ctrl+q")
	assert.Contains(t, text, "Listening on 127.0.0.1:49600")
}

func TestEngineChecked(t *testing.T) {
	assert.True(t, engineChecked("youdao", "youdao"))
	assert.True(t, engineChecked("Google", "google"))
	assert.False(t, engineChecked("baidu", "google"))
}

func TestMenuActionsAreKnown(t *testing.T) {
	seen := map[string]bool{}
	for _, a := range menuActions {
		assert.NotEmpty(t, a.title)
		assert.False(t, seen[string(a.kind)], "duplicate %s", a.kind)
		seen[string(a.kind)] = true
	}
	for _, kind := range messages.ActionKinds {
		assert.True(t, seen[string(kind)], "%s missing from the menu", kind)
	}
	assert.Len(t, menuActions, len(messages.ActionKinds))
}
