package hotkey

import (
	"slices"
	"testing"

	hook "github.com/robotn/gohook"

	"go.aimuz.me/murmur/internal/types"
)

func TestKeycode(t *testing.T) {
	tests := []struct {
		key     types.Key
		want    uint16
		wantErr bool
	}{
		{"cmd_r", 3676, false},
		{"shift_r", 54, false},
		{" CTRL_R ", 3613, false},
		{"f12", 88, false},
		{"hyper", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := Keycode(tt.key)
		if (err != nil) != tt.wantErr {
			t.Errorf("Keycode(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("Keycode(%q) = %d, want %d", tt.key, got, tt.want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		key  types.Key
		want string
	}{
		{"cmd_r", "Cmd (Right)"},
		{"shift", "Shift"},
		{"alt_r", "Alt (Right)"},
		{"f5", "F5"},
		{"page_up", "Page Up"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.key); got != tt.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestTracker(t *testing.T) {
	var events []string
	tr, err := newTracker([]types.Key{"cmd_r", "shift_r"},
		func(k types.Key) { events = append(events, "press "+string(k)) },
		func(k types.Key) { events = append(events, "release "+string(k)) },
	)
	if err != nil {
		t.Fatal(err)
	}

	tr.handle(hook.KeyDown, 3676)
	tr.handle(hook.KeyHold, 3676) // auto-repeat
	tr.handle(hook.KeyDown, 3676)
	tr.handle(hook.KeyDown, 30) // unwatched key
	tr.handle(hook.KeyDown, 54)
	tr.handle(hook.KeyUp, 3676)
	tr.handle(hook.KeyUp, 3676) // stray release
	tr.handle(hook.KeyUp, 54)

	want := []string{"press cmd_r", "press shift_r", "release cmd_r", "release shift_r"}
	if !slices.Equal(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
}

func TestTrackerUnknownKey(t *testing.T) {
	if _, err := newTracker([]types.Key{"nope"}, nil, nil); err == nil {
		t.Error("newTracker() accepted unknown key")
	}
}
