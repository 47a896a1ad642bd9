package window

import (
	"errors"
	"testing"

	"go.aimuz.me/murmur/internal/types"
)

func win(id uint32, owner string, x, y, w, h int) Info {
	return Info{ID: id, Owner: owner, Alpha: 1, Bounds: types.Rect{X: x, Y: y, W: w, H: h}}
}

func TestPick(t *testing.T) {
	tests := []struct {
		name    string
		windows []Info
		x, y    float64
		wantID  uint32
		wantErr error
	}{
		{
			name:    "frontmost containing pointer",
			windows: []Info{win(1, "Safari", 0, 0, 800, 600), win(2, "Notes", 0, 0, 1000, 800)},
			x:       10,
			y:       10,
			wantID:  1,
		},
		{
			name:    "skipped app is ignored",
			windows: []Info{win(1, "iTerm2", 0, 0, 800, 600), win(2, "Preview", 0, 0, 800, 600)},
			x:       10,
			y:       10,
			wantID:  2,
		},
		{
			name: "menu bar layer is ignored",
			windows: []Info{
				{ID: 1, Owner: "Safari", Layer: 25, Alpha: 1, Bounds: types.Rect{W: 800, H: 600}},
				win(2, "Mail", 0, 0, 800, 600),
			},
			x:      10,
			y:      10,
			wantID: 2,
		},
		{
			name: "transparent window is ignored",
			windows: []Info{
				{ID: 1, Owner: "Overlay", Alpha: 0.2, Bounds: types.Rect{W: 800, H: 600}},
				win(2, "Mail", 0, 0, 800, 600),
			},
			x:      10,
			y:      10,
			wantID: 2,
		},
		{
			name:    "small window is ignored",
			windows: []Info{win(1, "Finder", 0, 0, 90, 90), win(2, "Mail", 0, 0, 800, 600)},
			x:       10,
			y:       10,
			wantID:  2,
		},
		{
			name:    "fallback to first large window",
			windows: []Info{win(1, "Finder", 0, 0, 150, 150), win(2, "Mail", 500, 500, 300, 300)},
			x:       1900,
			y:       1000,
			wantID:  2,
		},
		{
			name:    "no eligible window",
			windows: []Info{win(1, "Dock", 0, 0, 800, 600), win(2, "Finder", 0, 0, 150, 150)},
			x:       1900,
			y:       1000,
			wantErr: ErrNoWindow,
		},
		{
			name:    "empty list",
			wantErr: ErrNoWindow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Pick(tt.windows, tt.x, tt.y)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Pick() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Pick() error = %v", err)
			}
			if got.ID != tt.wantID {
				t.Errorf("Pick() = window %d, want %d", got.ID, tt.wantID)
			}
		})
	}
}
