package hotkey

import (
	"log"
	"strings"

	gohook "github.com/robotn/gohook"
)

// parseHotkey converts a hotkey string like "Ctrl+Shift+t" to normalized key names
func parseHotkey(hotkeyConfig string) []string {
	var keys []string
	for _, part := range strings.Split(strings.ToLower(hotkeyConfig), "+") {
		part = strings.TrimSpace(part)
		switch part {
		case "":
			continue
		case "control":
			keys = append(keys, "ctrl")
		case "win", "cmd", "super":
			keys = append(keys, "cmd")
		case "escape":
			keys = append(keys, "esc")
		default:
			keys = append(keys, part)
		}
	}
	return keys
}

// Keycodes are libuiohook virtual codes (gohook Event.Keycode). Unlike
// Event.Rawcode they are the same on Windows, X11 and macOS.
var modifierKeycodes = map[string][]uint16{
	"ctrl":  {0x001D, 0x0E1D}, // VC_CONTROL_L, VC_CONTROL_R
	"alt":   {0x0038, 0x0E38}, // VC_ALT_L, VC_ALT_R
	"shift": {0x002A, 0x0036}, // VC_SHIFT_L, VC_SHIFT_R
	"cmd":   {0x0E5B, 0x0E5C}, // VC_META_L, VC_META_R
}

var specialKeycodes = map[string]uint16{
	"space":     0x0039,
	"enter":     0x001C,
	"return":    0x001C,
	"esc":       0x0001,
	"tab":       0x000F,
	"backspace": 0x000E,
	"delete":    0x0E53,
	"del":       0x0E53,
	"insert":    0x0E52,
	"ins":       0x0E52,
	"home":      0x0E47,
	"end":       0x0E4F,
	"pageup":    0x0E49,
	"pgup":      0x0E49,
	"pagedown":  0x0E51,
	"pgdn":      0x0E51,
	"left":      0xE04B,
	"up":        0xE048,
	"right":     0xE04D,
	"down":      0xE050,
}

// letter rows follow the PC scan code layout
var letterRows = []struct {
	keys  string
	first uint16
}{
	{"qwertyuiop", 0x0010},
	{"asdfghjkl", 0x001E},
	{"zxcvbnm", 0x002C},
}

func isModifier(keyName string) bool {
	_, ok := modifierKeycodes[keyName]
	return ok
}

// keyNameToKeycodes maps a key name to its keycodes. Modifiers map to both
// the left and right variant.
func keyNameToKeycodes(keyName string) []uint16 {
	keyName = strings.ToLower(strings.TrimSpace(keyName))
	if codes, ok := modifierKeycodes[keyName]; ok {
		return codes
	}
	if code, ok := specialKeycodes[keyName]; ok {
		return []uint16{code}
	}
	if len(keyName) == 1 {
		c := keyName[0]
		switch {
		case c >= 'a' && c <= 'z':
			for _, row := range letterRows {
				if i := strings.IndexByte(row.keys, c); i >= 0 {
					return []uint16{row.first + uint16(i)}
				}
			}
		case c == '0':
			return []uint16{0x000B}
		case c >= '1' && c <= '9':
			return []uint16{uint16(c-'1') + 0x0002}
		}
	}
	if n, ok := functionKey(keyName); ok {
		if n <= 10 {
			return []uint16{0x003B + uint16(n-1)} // VC_F1..VC_F10
		}
		return []uint16{0x0057 + uint16(n-11)} // VC_F11, VC_F12
	}
	if code, ok := gohook.Keycode[keyName]; ok && code != 0 {
		return []uint16{code}
	}
	log.Printf("WARNING: Unknown key name '%s', cannot map to keycode", keyName)
	return nil
}

// functionKey parses "f1".."f12".
func functionKey(keyName string) (int, bool) {
	if len(keyName) < 2 || keyName[0] != 'f' {
		return 0, false
	}
	n := 0
	for _, r := range keyName[1:] {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, n >= 1 && n <= 12
}
