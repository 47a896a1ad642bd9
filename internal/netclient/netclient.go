// Package netclient builds the HTTP client shared by the remote API clients.
package netclient

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

// New returns a client with pooled connections and HTTP/2 enabled. timeout
// bounds each whole request; zero means no client-side limit.
func New(timeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if err := http2.ConfigureTransport(tr); err != nil {
		slog.Warn("configure http2 transport", "error", err)
	}
	return &http.Client{
		Transport: tr,
		Timeout:   timeout,
	}
}
