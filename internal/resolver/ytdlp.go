package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"
)

// ytdlpAdapter shells out to a command-line extractor. It is the
// universal fallback: yt-dlp understands far more sites than any
// native client, at the cost of requiring the binary in the runtime.
type ytdlpAdapter struct {
	binary  string
	timeout time.Duration
}

var extractorBinaries = []string{"yt-dlp", "youtube-dl"}

func newYtdlpAdapter(timeout time.Duration) *ytdlpAdapter {
	return &ytdlpAdapter{binary: lookupExtractorBinary(), timeout: timeout}
}

// lookupExtractorBinary finds a usable extractor on PATH, preferring
// yt-dlp over the older youtube-dl.
func lookupExtractorBinary() string {
	for _, name := range extractorBinaries {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

func (a *ytdlpAdapter) ID() string {
	return "ytdlp"
}

// Probe checks for the binary resolved at construction. No network,
// no process spawn.
func (a *ytdlpAdapter) Probe() bool {
	return a.binary != ""
}

func (a *ytdlpAdapter) extractsSubtitles() {}

type ytdlpInfo struct {
	ID          string                     `json:"id"`
	Title       string                     `json:"title"`
	Uploader    string                     `json:"uploader"`
	Description string                     `json:"description"`
	Duration    float64                    `json:"duration"`
	Thumbnail   string                     `json:"thumbnail"`
	ViewCount   int64                      `json:"view_count"`
	Tags        []string                   `json:"tags"`
	Formats     []ytdlpFormat              `json:"formats"`
	Subtitles   map[string][]ytdlpSubtitle `json:"subtitles"`
}

type ytdlpFormat struct {
	FormatID   string  `json:"format_id"`
	URL        string  `json:"url"`
	Ext        string  `json:"ext"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Vcodec     string  `json:"vcodec"`
	Acodec     string  `json:"acodec"`
	TBR        float64 `json:"tbr"`
	ABR        float64 `json:"abr"`
	Filesize   int64   `json:"filesize"`
	FormatNote string  `json:"format_note"`
}

type ytdlpSubtitle struct {
	URL string `json:"url"`
	Ext string `json:"ext"`
}

func (a *ytdlpAdapter) FetchMetadata(ctx context.Context, target Target) (*MediaDescriptor, error) {
	info, err := a.extract(ctx, target.URL)
	if err != nil {
		return nil, err
	}
	return describeYtdlpInfo(info, target.Platform), nil
}

func (a *ytdlpAdapter) ResolveDownload(ctx context.Context, target Target, req FormatRequest) (*ResolvedMedia, error) {
	info, err := a.extract(ctx, target.URL)
	if err != nil {
		return nil, err
	}
	if req.Kind == KindSubtitles {
		return resolveSubtitleTrack(info)
	}

	descriptor := describeYtdlpInfo(info, target.Platform)
	chosen, err := SelectRendition(descriptor.Renditions, req)
	if err != nil {
		return nil, err
	}
	return &ResolvedMedia{
		SourceURL: chosen.SourceURL,
		Filename:  sanitizeFilename(info.Title),
		Ext:       chosen.Container,
	}, nil
}

func (a *ytdlpAdapter) extract(ctx context.Context, rawURL string) (*ytdlpInfo, error) {
	if a.binary == "" {
		return nil, errors.New("no command-line extractor on PATH")
	}
	cmd := exec.CommandContext(ctx, a.binary, "-J", "--no-playlist", rawURL)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("extractor failed: %s", firstLine(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("running extractor: %w", err)
	}
	var info ytdlpInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("parsing extractor output: %w", err)
	}
	return &info, nil
}

func describeYtdlpInfo(info *ytdlpInfo, platform Platform) *MediaDescriptor {
	descriptor := &MediaDescriptor{
		ID:          info.ID,
		Title:       info.Title,
		Thumbnail:   info.Thumbnail,
		Duration:    int(info.Duration),
		Uploader:    info.Uploader,
		Views:       info.ViewCount,
		Description: info.Description,
		Tags:        info.Tags,
		Platform:    platform,
	}
	for _, f := range info.Formats {
		if r, ok := renditionFromYtdlpFormat(f); ok {
			descriptor.Renditions = append(descriptor.Renditions, r)
		}
	}
	return descriptor
}

func renditionFromYtdlpFormat(f ytdlpFormat) (Rendition, bool) {
	// Storyboards and other metadata-only entries report "none" for
	// both codecs; direct links are useless without a URL.
	hasVideo := f.Vcodec != "" && f.Vcodec != "none"
	hasAudio := f.Acodec != "" && f.Acodec != "none"
	if (!hasVideo && !hasAudio) || f.URL == "" {
		return Rendition{}, false
	}

	resolution := f.FormatNote
	if f.Height > 0 {
		resolution = fmt.Sprintf("%dp", f.Height)
	} else if resolution == "" && !hasVideo {
		resolution = "audio only"
	}

	bitrate := 0
	switch {
	case f.TBR > 0:
		bitrate = int(f.TBR * 1000)
	case f.ABR > 0:
		bitrate = int(f.ABR * 1000)
	}

	videoCodec := f.Vcodec
	if !hasVideo {
		videoCodec = ""
	}
	audioCodec := f.Acodec
	if !hasAudio {
		audioCodec = ""
	}

	return Rendition{
		FormatID:   f.FormatID,
		Container:  f.Ext,
		Resolution: resolution,
		FileSize:   f.Filesize,
		VideoCodec: videoCodec,
		AudioCodec: audioCodec,
		SourceURL:  f.URL,
		HasAudio:   hasAudio,
		HasVideo:   hasVideo,
		Bitrate:    bitrate,
	}, true
}

// resolveSubtitleTrack picks one subtitle track, preferring English
// variants, with languages walked in sorted order for determinism.
func resolveSubtitleTrack(info *ytdlpInfo) (*ResolvedMedia, error) {
	langs := make([]string, 0, len(info.Subtitles))
	for lang, tracks := range info.Subtitles {
		if len(tracks) > 0 {
			langs = append(langs, lang)
		}
	}
	if len(langs) == 0 {
		return nil, errors.New("no subtitle tracks available")
	}
	sort.Strings(langs)

	chosen := langs[0]
	for _, lang := range langs {
		if strings.HasPrefix(strings.ToLower(lang), "en") {
			chosen = lang
			break
		}
	}
	track := info.Subtitles[chosen][0]
	ext := track.Ext
	if ext == "" {
		ext = "vtt"
	}
	return &ResolvedMedia{
		SourceURL: track.URL,
		Filename:  sanitizeFilename(info.Title),
		Ext:       ext,
	}, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	if s == "" {
		return "no error output"
	}
	return s
}
