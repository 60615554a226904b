package web

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/reelay/reelay/internal/resolver"
)

func fetchServer(resolved *resolver.ResolvedMedia) *Server {
	adapter := &stubAdapter{id: "stub", available: true, resolved: resolved}
	return newTestServer(map[resolver.Platform][]resolver.Adapter{
		resolver.PlatformYouTube: {adapter},
		resolver.PlatformGeneric: {adapter},
	})
}

func TestFetchStreamsUpstreamBody(t *testing.T) {
	const payload = "fake media bytes"
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != resolver.DefaultUserAgent {
			t.Errorf("upstream saw User-Agent %q", got)
		}
		if got := r.Header.Get("Referer"); !strings.Contains(got, "youtube.com") {
			t.Errorf("upstream saw Referer %q", got)
		}
		w.Header().Set("Content-Type", "video/mp4")
		fmt.Fprint(w, payload)
	}))
	defer upstream.Close()

	server := fetchServer(&resolver.ResolvedMedia{SourceURL: upstream.URL, Filename: "Test_Video", Ext: "mp4"})
	rec := postJSON(t, server.Handler(), "/fetch", `{"url":"https://youtu.be/dQw4w9WgXcQ","format":"video"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != payload {
		t.Errorf("body = %q", rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "video/mp4" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="Test_Video.mp4"` {
		t.Errorf("Content-Disposition = %q", got)
	}
}

func TestFetchAudioRequestGetsMp3Extension(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mp4")
		fmt.Fprint(w, "audio bytes")
	}))
	defer upstream.Close()

	server := fetchServer(&resolver.ResolvedMedia{SourceURL: upstream.URL, Filename: "Test_Audio", Ext: "m4a"})
	rec := postJSON(t, server.Handler(), "/fetch", `{"url":"https://youtu.be/dQw4w9WgXcQ","format":"audio"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="Test_Audio.mp3"` {
		t.Errorf("Content-Disposition = %q", got)
	}
}

func TestFetchUpstreamForbidden(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer upstream.Close()

	server := fetchServer(&resolver.ResolvedMedia{SourceURL: upstream.URL, Filename: "Test", Ext: "mp4"})
	rec := postJSON(t, server.Handler(), "/fetch", `{"url":"https://youtu.be/dQw4w9WgXcQ","format":"video"}`)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	resp := decodeError(t, rec)
	if !strings.Contains(resp.Error, "access denied") {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestFetchUpstreamErrorMirrorsStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer upstream.Close()

	server := fetchServer(&resolver.ResolvedMedia{SourceURL: upstream.URL, Filename: "Test", Ext: "mp4"})
	rec := postJSON(t, server.Handler(), "/fetch", `{"url":"https://youtu.be/dQw4w9WgXcQ","format":"video"}`)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	resp := decodeError(t, rec)
	if resp.Error != "upstream media host returned an error" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestFetchUpstreamUnreachable(t *testing.T) {
	// A closed server gives a connection error rather than a status.
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := upstream.URL
	upstream.Close()

	server := fetchServer(&resolver.ResolvedMedia{SourceURL: url, Filename: "Test", Ext: "mp4"})
	rec := postJSON(t, server.Handler(), "/fetch", `{"url":"https://youtu.be/dQw4w9WgXcQ","format":"video"}`)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestFetchForwardsContentLength(t *testing.T) {
	const payload = "0123456789"
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.Header().Set("Content-Length", fmt.Sprint(len(payload)))
		fmt.Fprint(w, payload)
	}))
	defer upstream.Close()

	server := fetchServer(&resolver.ResolvedMedia{SourceURL: upstream.URL, Filename: "Test", Ext: "mp4"})
	rec := postJSON(t, server.Handler(), "/fetch", `{"url":"https://youtu.be/dQw4w9WgXcQ","format":"video"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Length"); got != "10" {
		t.Errorf("Content-Length = %q, want 10", got)
	}
}
