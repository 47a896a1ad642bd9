package overlay

import (
	"context"
	"errors"
	"os"
	"runtime"
	"testing"
	"time"

	"go.aimuz.me/murmur/internal/types"
)

func TestParseRegion(t *testing.T) {
	tests := []struct {
		in      string
		want    types.Rect
		wantErr bool
	}{
		{"10,20,300,400", types.Rect{X: 10, Y: 20, W: 300, H: 400}, false},
		{" 10, 20, 300, 400 \n", types.Rect{X: 10, Y: 20, W: 300, H: 400}, false},
		{"310,420,-300,-400", types.Rect{X: 10, Y: 20, W: 300, H: 400}, false},
		{"", types.Rect{}, true},
		{"1,2,3", types.Rect{}, true},
		{"a,b,c,d", types.Rect{}, true},
		{"1.5,2,3,4", types.Rect{}, true},
	}

	for _, tt := range tests {
		got, err := ParseRegion(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRegion(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRegion(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestStartDisabled(t *testing.T) {
	s := &Selector{Dir: t.TempDir()}
	if _, err := s.Start(context.Background()); !errors.Is(err, ErrDisabled) {
		t.Errorf("Start() error = %v, want ErrDisabled", err)
	}
}

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestFinishReadsRegion(t *testing.T) {
	skipWithoutShell(t)
	s := &Selector{
		Command: []string{"sh", "-c", `printf '5,6,120,80' > "$1"`, "overlay", Placeholder},
		Dir:     t.TempDir(),
	}
	sel, err := s.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	// let the process write its result and exit
	<-sel.done

	r, ok := sel.Finish(DefaultGrace)
	if !ok {
		t.Fatal("Finish() reported no region")
	}
	if r != (types.Rect{X: 5, Y: 6, W: 120, H: 80}) {
		t.Errorf("region = %+v", r)
	}
	if _, err := os.Stat(sel.Path()); !os.IsNotExist(err) {
		t.Error("result file not removed")
	}
}

func TestFinishTerminatesRunningOverlay(t *testing.T) {
	skipWithoutShell(t)
	s := &Selector{
		Command: []string{"sleep", "30"},
		Dir:     t.TempDir(),
	}
	sel, err := s.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	_, ok := sel.Finish(DefaultGrace)
	if ok {
		t.Error("empty result file reported as region")
	}
	if time.Since(start) > 5*time.Second {
		t.Error("Finish() did not stop the overlay")
	}
}

func TestFinishIgnoresTrapAndKills(t *testing.T) {
	skipWithoutShell(t)
	s := &Selector{
		Command: []string{"sh", "-c", `trap '' TERM; while true; do sleep 0.05; done`},
		Dir:     t.TempDir(),
	}
	sel, err := s.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)

	start := time.Now()
	sel.Finish(100 * time.Millisecond)
	if time.Since(start) > 5*time.Second {
		t.Error("overlay was not killed after grace")
	}
}

func TestFinishMalformed(t *testing.T) {
	skipWithoutShell(t)
	s := &Selector{
		Command: []string{"sh", "-c", `printf 'garbage' > "$1"`, "overlay", Placeholder},
		Dir:     t.TempDir(),
	}
	sel, err := s.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	<-sel.done
	if _, ok := sel.Finish(DefaultGrace); ok {
		t.Error("malformed result accepted")
	}
	// second call returns the same result without touching the process
	if _, ok := sel.Finish(DefaultGrace); ok {
		t.Error("second Finish() changed result")
	}
}
