// Package browser drives an already running Chrome over its remote debugging
// endpoint.
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

// DefaultAddress is the conventional remote debugging endpoint.
const DefaultAddress = "127.0.0.1:9222"

var ErrEndpoint = errors.New("chrome remote debugging endpoint unavailable")

// Version is the /json/version document.
type Version struct {
	Browser              string `json:"Browser"`
	ProtocolVersion      string `json:"Protocol-Version"`
	UserAgent            string `json:"User-Agent"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// CheckEndpoint verifies that a Chrome debugging endpoint is listening at
// addr and returns its version info. All failures wrap ErrEndpoint.
func CheckEndpoint(ctx context.Context, addr string) (*Version, error) {
	d := net.Dialer{Timeout: 2 * time.Second}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s not listening (start Chrome with --remote-debugging-port): %v", ErrEndpoint, addr, err)
	}
	conn.Close()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/json/version", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEndpoint, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEndpoint, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: /json/version returned %s", ErrEndpoint, resp.Status)
	}

	var v Version
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: decode /json/version: %v", ErrEndpoint, err)
	}
	if !strings.Contains(strings.ToLower(v.Browser), "chrome") {
		return nil, fmt.Errorf("%w: unexpected browser %q", ErrEndpoint, v.Browser)
	}
	if !strings.HasPrefix(v.WebSocketDebuggerURL, "ws://") {
		return nil, fmt.Errorf("%w: bad websocket url %q", ErrEndpoint, v.WebSocketDebuggerURL)
	}
	return &v, nil
}
