package hotkey

import (
	"fmt"
	"strings"

	hook "github.com/robotn/gohook"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"go.aimuz.me/murmur/internal/types"
)

// libuiohook virtual keycodes for the keys a trigger is usually bound to.
var keycodes = map[types.Key]uint16{
	"cmd":     3675,
	"cmd_r":   3676,
	"shift":   42,
	"shift_r": 54,
	"alt":     56,
	"alt_r":   3640,
	"ctrl":    29,
	"ctrl_r":  3613,
	"f1":      59,
	"f2":      60,
	"f3":      61,
	"f4":      62,
	"f5":      63,
	"f6":      64,
	"f7":      65,
	"f8":      66,
	"f9":      67,
	"f10":     68,
	"f11":     87,
	"f12":     88,
}

// Keycode returns the keycode for a configured key name. Names not in the
// built-in table are looked up in gohook's key table.
func Keycode(k types.Key) (uint16, error) {
	name := types.Key(strings.ToLower(strings.TrimSpace(string(k))))
	if code, ok := keycodes[name]; ok {
		return code, nil
	}
	if code, ok := hook.Keycode[string(name)]; ok {
		return code, nil
	}
	return 0, fmt.Errorf("unknown key %q", k)
}

// Valid reports whether k names a known key.
func Valid(k types.Key) bool {
	_, err := Keycode(k)
	return err == nil
}

// DisplayName formats a key for humans: "cmd_r" becomes "Cmd (Right)".
func DisplayName(k types.Key) string {
	name := strings.ToLower(strings.TrimSpace(string(k)))
	title := cases.Title(language.English)
	if base, ok := strings.CutSuffix(name, "_r"); ok {
		return title.String(base) + " (Right)"
	}
	return title.String(strings.ReplaceAll(name, "_", " "))
}
