package resolver

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// DefaultUserAgent is sent on every upstream request. Several hosts
// refuse to serve their time-limited links to non-browser clients.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

var sharedTransport = &http.Transport{
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 10,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	TLSClientConfig: &tls.Config{
		MinVersion: tls.VersionTLS12,
	},
	TLSHandshakeTimeout:   10 * time.Second,
	ResponseHeaderTimeout: 15 * time.Second,
	IdleConnTimeout:       90 * time.Second,
}

// consistentTransport defaults browser-like headers on outgoing
// requests without clobbering anything the caller set explicitly.
type consistentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *consistentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	if req.Header.Get("Accept-Language") == "" {
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "*/*")
	}
	return t.base.RoundTrip(req)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &consistentTransport{base: sharedTransport, userAgent: DefaultUserAgent},
	}
}

// StreamClient returns a client for long-lived media transfers. It
// carries no overall timeout; cancellation comes from the request
// context so a client disconnect releases the upstream connection.
func StreamClient() *http.Client {
	return &http.Client{
		Transport: &consistentTransport{base: sharedTransport, userAgent: DefaultUserAgent},
	}
}

// RefererFor returns the Referer some hosts require before they will
// authorize a resolved, time-limited media link.
func RefererFor(platform Platform) string {
	switch platform {
	case PlatformYouTube:
		return "https://www.youtube.com/"
	case PlatformInstagram:
		return "https://www.instagram.com/"
	}
	return ""
}

// CloseIdleConnections releases pooled upstream connections.
func CloseIdleConnections() {
	sharedTransport.CloseIdleConnections()
}
