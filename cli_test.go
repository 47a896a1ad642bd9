package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"go.aimuz.me/murmur/config"
)

func newTestApp(out *bytes.Buffer) *cli.App {
	app := newCLIApp()
	app.Writer = out
	app.ErrWriter = out
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func TestConfigPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	var out bytes.Buffer

	if err := newTestApp(&out).Run([]string{"murmur", "--config", path, "config", "path"}); err != nil {
		t.Fatalf("config path failed: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != path {
		t.Errorf("config path = %q, want %q", got, path)
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "murmur", "config.json")
	var out bytes.Buffer

	if err := newTestApp(&out).Run([]string{"murmur", "--config", path, "config", "init"}); err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load written config: %v", err)
	}
	if cfg.Keys != config.Default().Keys {
		t.Errorf("keys = %+v, want defaults", cfg.Keys)
	}

	t.Run("refuses to overwrite", func(t *testing.T) {
		err := newTestApp(&out).Run([]string{"murmur", "--config", path, "config", "init"})
		if err == nil {
			t.Fatal("expected error for existing file")
		}
	})

	t.Run("force overwrites", func(t *testing.T) {
		if err := os.WriteFile(path, []byte(`{"keys":{"with_screenshot":"f11","audio_only":"f12"}}`), 0644); err != nil {
			t.Fatal(err)
		}
		if err := newTestApp(&out).Run([]string{"murmur", "--config", path, "config", "init", "--force"}); err != nil {
			t.Fatalf("config init --force failed: %v", err)
		}
		cfg, err := config.Load(path)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Keys.WithScreenshot != "cmd_r" {
			t.Errorf("screenshot key = %q, want default after --force", cfg.Keys.WithScreenshot)
		}
	})
}

func TestRunRejectsMissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	path := filepath.Join(t.TempDir(), "config.json")
	var out bytes.Buffer

	err := newTestApp(&out).Run([]string{"murmur", "--config", path, "run"})
	if err == nil {
		t.Fatal("expected error without an OpenAI key")
	}
	if !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Errorf("error = %v, want mention of OPENAI_API_KEY", err)
	}
}
