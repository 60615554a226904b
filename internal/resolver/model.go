package resolver

import "fmt"

// FormatKind is the caller's requested output class.
type FormatKind string

const (
	KindVideo     FormatKind = "video"
	KindAudio     FormatKind = "audio"
	KindSubtitles FormatKind = "subtitles"
)

// FormatRequest describes what the caller wants out of a resolution.
type FormatRequest struct {
	Kind        FormatKind
	QualityHint string
	ClipStart   float64
	ClipEnd     float64
}

// Validate checks the request shape. Clip bounds are accepted on the
// wire but applied client-side; they still have to be coherent.
func (r FormatRequest) Validate() error {
	switch r.Kind {
	case KindVideo, KindAudio, KindSubtitles:
	case "":
		return WrapCategory(CategoryInvalidInput, fmt.Errorf("format is required (video, audio, or subtitles)"))
	default:
		return WrapCategory(CategoryInvalidInput, fmt.Errorf("unknown format %q (want video, audio, or subtitles)", r.Kind))
	}
	if r.ClipStart < 0 || r.ClipEnd < 0 {
		return WrapCategory(CategoryInvalidInput, fmt.Errorf("clip bounds must be non-negative"))
	}
	if r.ClipStart > 0 && r.ClipEnd > 0 && r.ClipEnd <= r.ClipStart {
		return WrapCategory(CategoryInvalidInput, fmt.Errorf("clipEnd must be greater than clipStart"))
	}
	return nil
}

// Rendition is one concrete encoded stream option for a piece of
// media. Every rendition in a descriptor carries audio, video, or
// both; pure-metadata entries are filtered at the adapter boundary.
type Rendition struct {
	FormatID   string `json:"format_id"`
	Container  string `json:"ext"`
	Resolution string `json:"resolution"`
	FileSize   int64  `json:"filesize,omitempty"`
	VideoCodec string `json:"vcodec,omitempty"`
	AudioCodec string `json:"acodec,omitempty"`
	SourceURL  string `json:"url"`
	HasAudio   bool   `json:"hasAudio"`
	HasVideo   bool   `json:"hasVideo"`
	Bitrate    int    `json:"bitrate,omitempty"`
}

// MediaDescriptor is the canonical normalized view of one media item,
// produced fresh per request and never persisted.
type MediaDescriptor struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Thumbnail   string      `json:"thumbnail"`
	Duration    int         `json:"duration"`
	Uploader    string      `json:"uploader"`
	Views       int64       `json:"view_count"`
	Description string      `json:"description"`
	Tags        []string    `json:"tags,omitempty"`
	Platform    Platform    `json:"platform"`
	Renditions  []Rendition `json:"formats"`
}

// ResolvedMedia is the final artifact handed to the streaming proxy.
// SourceURL is a time-limited upstream link; it expires on the
// upstream's schedule and must never be reused across requests.
type ResolvedMedia struct {
	SourceURL string `json:"url"`
	Filename  string `json:"title"`
	Ext       string `json:"ext"`
}
