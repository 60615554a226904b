package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const maxScrapeBodyBytes = 2 << 20

// scrapeAdapter resolves media through the page's own OpenGraph tags.
// Instagram publishes a direct og:video link on public posts, which
// makes a plain HTML fetch the cheapest extraction path for that
// platform.
type scrapeAdapter struct {
	client *http.Client
}

func newScrapeAdapter(timeout time.Duration) *scrapeAdapter {
	return &scrapeAdapter{client: newHTTPClient(timeout)}
}

func (a *scrapeAdapter) ID() string {
	return "og-scrape"
}

func (a *scrapeAdapter) Probe() bool {
	return true
}

func (a *scrapeAdapter) FetchMetadata(ctx context.Context, target Target) (*MediaDescriptor, error) {
	doc, err := a.fetchDocument(ctx, target.URL)
	if err != nil {
		return nil, err
	}

	videoURL := firstMetaContent(doc, "og:video:secure_url", "og:video:url", "og:video")
	if videoURL == "" {
		return nil, errors.New("page exposes no og:video tag")
	}

	title := firstMetaContent(doc, "og:title", "twitter:title")
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if title == "" {
		title = "Instagram Post"
	}

	return &MediaDescriptor{
		ID:          idFromPath(target.URL),
		Title:       title,
		Thumbnail:   firstMetaContent(doc, "og:image"),
		Uploader:    firstMetaContent(doc, "og:site_name"),
		Description: firstMetaContent(doc, "og:description"),
		Platform:    target.Platform,
		Renditions: []Rendition{{
			FormatID:   "og",
			Container:  "mp4",
			Resolution: "best",
			SourceURL:  videoURL,
			HasAudio:   true,
			HasVideo:   true,
		}},
	}, nil
}

func (a *scrapeAdapter) ResolveDownload(ctx context.Context, target Target, req FormatRequest) (*ResolvedMedia, error) {
	if req.Kind == KindSubtitles {
		return nil, errors.New("scraped pages carry no subtitle tracks")
	}
	descriptor, err := a.FetchMetadata(ctx, target)
	if err != nil {
		return nil, err
	}
	chosen, err := SelectRendition(descriptor.Renditions, req)
	if err != nil {
		return nil, err
	}
	return &ResolvedMedia{
		SourceURL: chosen.SourceURL,
		Filename:  sanitizeFilename(descriptor.Title),
		Ext:       chosen.Container,
	}, nil
}

func (a *scrapeAdapter) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("page fetch returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxScrapeBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}
	return doc, nil
}

// firstMetaContent returns the first non-empty content attribute among
// the given OpenGraph/Twitter property names.
func firstMetaContent(doc *goquery.Document, properties ...string) string {
	for _, prop := range properties {
		selector := fmt.Sprintf(`meta[property=%q], meta[name=%q]`, prop, prop)
		if content, ok := doc.Find(selector).First().Attr("content"); ok {
			if trimmed := strings.TrimSpace(content); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

// idFromPath derives a stable identifier from the last meaningful path
// segment (the post shortcode on Instagram URLs).
func idFromPath(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] != "" {
			return parts[i]
		}
	}
	return ""
}
