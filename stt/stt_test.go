package stt

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"go.aimuz.me/murmur/internal/faults"
)

func writeAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio_test.wav")
	if err := os.WriteFile(path, []byte("RIFF....WAVE"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTranscribe(t *testing.T) {
	var gotLang, gotModel, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotLang = r.FormValue("language")
		gotModel = r.FormValue("model")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"text":"  hello world \n"}`)
	}))
	defer srv.Close()

	c := New(Config{APIKey: "sk-test", BaseURL: srv.URL})

	tests := []struct {
		lang     string
		wantLang string
	}{
		{"en", "en"},
		{"auto", ""},
		{"", ""},
	}
	for _, tt := range tests {
		text, err := c.Transcribe(context.Background(), writeAudio(t), tt.lang)
		if err != nil {
			t.Fatalf("Transcribe() error = %v", err)
		}
		if text != "hello world" {
			t.Errorf("text = %q", text)
		}
		if gotLang != tt.wantLang {
			t.Errorf("language %q sent as %q", tt.lang, gotLang)
		}
	}
	if gotModel != DefaultModel {
		t.Errorf("model = %q", gotModel)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("auth = %q", gotAuth)
	}
}

func TestTranscribeAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	c := New(Config{APIKey: "bad", BaseURL: srv.URL})
	_, err := c.Transcribe(context.Background(), writeAudio(t), "en")
	if !faults.Is(err, faults.KindRemoteAPI) {
		t.Fatalf("error = %v, want remote API fault", err)
	}
	if got := statusOf(err); got != http.StatusUnauthorized {
		t.Errorf("status = %d", got)
	}
}

func TestTranscribeServerErrorNotRetried(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":{"message":"overloaded","type":"server_error"}}`)
	}))
	defer srv.Close()

	c := New(Config{APIKey: "sk-test", BaseURL: srv.URL})
	_, err := c.Transcribe(context.Background(), writeAudio(t), "")
	if !faults.Is(err, faults.KindRemoteAPI) {
		t.Fatalf("error = %v, want remote API fault", err)
	}
	if got := statusOf(err); got != http.StatusInternalServerError {
		t.Errorf("status = %d", got)
	}
	if n := requests.Load(); n != 1 {
		t.Errorf("requests = %d, want 1", n)
	}
}

func TestTranscribeMissingFile(t *testing.T) {
	c := New(Config{APIKey: "k"})
	if _, err := c.Transcribe(context.Background(), "/nonexistent/audio.wav", ""); err == nil {
		t.Error("expected error for missing file")
	}
}
