package resolver

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Platform tags the hosting service an input URL belongs to.
type Platform string

const (
	PlatformYouTube   Platform = "youtube"
	PlatformInstagram Platform = "instagram"
	PlatformGeneric   Platform = "generic"
)

// Classification is the result of mapping a raw URL to a platform. For
// YouTube URLs VideoID carries the canonical video identifier when one
// of the known URL shapes matched.
type Classification struct {
	Platform Platform
	VideoID  string
}

var youtubeIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

var instagramPathPrefixes = []string{"/reel", "/reels", "/p", "/tv", "/stories"}

// Classify maps a raw URL string to a platform tag. It fails only for
// input that is not a well-formed http(s) URL; unrecognized hosts
// classify as generic rather than failing.
func Classify(raw string) (Classification, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Classification{}, WrapCategory(CategoryInvalidInput, fmt.Errorf("invalid URL: %w", err))
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return Classification{}, WrapCategory(CategoryInvalidInput, fmt.Errorf("invalid URL: missing scheme or host"))
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
	default:
		return Classification{}, WrapCategory(CategoryInvalidInput, fmt.Errorf("unsupported URL scheme: %s", parsed.Scheme))
	}

	host := normalizeHostname(parsed)
	switch host {
	case "youtube.com", "youtu.be", "m.youtube.com", "music.youtube.com":
		return Classification{Platform: PlatformYouTube, VideoID: youtubeVideoID(parsed)}, nil
	case "instagram.com":
		if isInstagramMediaPath(parsed.Path) {
			return Classification{Platform: PlatformInstagram}, nil
		}
	}
	return Classification{Platform: PlatformGeneric}, nil
}

// youtubeVideoID extracts the video id from any known YouTube URL
// shape, trying each in fixed priority order and stopping at the first
// match: youtu.be/<id>, watch?v=<id>, then /shorts/, /live/, /embed/.
func youtubeVideoID(parsed *url.URL) string {
	if normalizeHostname(parsed) == "youtu.be" {
		parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
		if len(parts) > 0 && youtubeIDRegex.MatchString(parts[0]) {
			return parts[0]
		}
	}
	if id := parsed.Query().Get("v"); youtubeIDRegex.MatchString(id) {
		return id
	}
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) >= 2 {
		switch parts[0] {
		case "shorts", "live", "embed":
			if youtubeIDRegex.MatchString(parts[1]) {
				return parts[1]
			}
		}
	}
	return ""
}

func isInstagramMediaPath(path string) bool {
	for _, prefix := range instagramPathPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// normalizeHostname returns the lowercase hostname with any "www."
// prefix and port stripped.
func normalizeHostname(parsed *url.URL) string {
	host := strings.ToLower(parsed.Hostname())
	return strings.TrimPrefix(host, "www.")
}

func watchURLForID(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}
