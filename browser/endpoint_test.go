package browser

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func versionServer(t *testing.T, body string, status int) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/json/version" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return strings.TrimPrefix(srv.URL, "http://")
}

func TestCheckEndpoint(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		wantErr string
	}{
		{
			name:   "chrome",
			body:   `{"Browser":"Chrome/126.0.6478.127","webSocketDebuggerUrl":"ws://127.0.0.1:9222/devtools/browser/abc"}`,
			status: http.StatusOK,
		},
		{
			name:    "not chrome",
			body:    `{"Browser":"Firefox/128","webSocketDebuggerUrl":"ws://127.0.0.1:9222/x"}`,
			status:  http.StatusOK,
			wantErr: "unexpected browser",
		},
		{
			name:    "missing websocket",
			body:    `{"Browser":"HeadlessChrome/126"}`,
			status:  http.StatusOK,
			wantErr: "bad websocket url",
		},
		{
			name:    "bad json",
			body:    `<html>`,
			status:  http.StatusOK,
			wantErr: "decode",
		},
		{
			name:    "server error",
			body:    ``,
			status:  http.StatusInternalServerError,
			wantErr: "500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr := versionServer(t, tt.body, tt.status)
			v, err := CheckEndpoint(context.Background(), addr)
			if tt.wantErr != "" {
				require.ErrorIs(t, err, ErrEndpoint)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, v.Browser, "Chrome")
		})
	}
}

func TestCheckEndpointNotListening(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	l.Close()

	_, err = CheckEndpoint(context.Background(), addr)
	require.ErrorIs(t, err, ErrEndpoint)
	assert.Contains(t, err.Error(), "not listening")
}
