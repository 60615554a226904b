package resolver

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"
)

// youtubeAdapter talks the YouTube player protocol directly through
// kkdai/youtube. It handles stream URL decipherment itself, which is
// why it outranks the external extractor for this platform.
type youtubeAdapter struct {
	client *youtube.Client
}

func newYouTubeAdapter(timeout time.Duration) *youtubeAdapter {
	// The Android client shape avoids most signature challenges.
	youtube.DefaultClient = youtube.AndroidClient
	return &youtubeAdapter{
		client: &youtube.Client{HTTPClient: newHTTPClient(timeout)},
	}
}

func (a *youtubeAdapter) ID() string {
	return "youtube-native"
}

// Probe is unconditional: the native client needs nothing beyond
// outbound HTTP.
func (a *youtubeAdapter) Probe() bool {
	return true
}

func (a *youtubeAdapter) FetchMetadata(ctx context.Context, target Target) (*MediaDescriptor, error) {
	video, err := a.getVideo(ctx, target)
	if err != nil {
		return nil, err
	}
	return describeVideo(video), nil
}

func (a *youtubeAdapter) ResolveDownload(ctx context.Context, target Target, req FormatRequest) (*ResolvedMedia, error) {
	if req.Kind == KindSubtitles {
		return nil, errors.New("native client does not extract subtitle tracks")
	}

	video, err := a.getVideo(ctx, target)
	if err != nil {
		return nil, err
	}
	descriptor := describeVideo(video)
	chosen, err := SelectRendition(descriptor.Renditions, req)
	if err != nil {
		return nil, err
	}

	streamURL := chosen.SourceURL
	if streamURL == "" {
		format := formatByItag(video, chosen.FormatID)
		if format == nil {
			return nil, fmt.Errorf("format %s disappeared from player response", chosen.FormatID)
		}
		streamURL, err = a.client.GetStreamURLContext(ctx, video, format)
		if err != nil {
			return nil, fmt.Errorf("deciphering stream URL: %w", err)
		}
	}

	return &ResolvedMedia{
		SourceURL: streamURL,
		Filename:  sanitizeFilename(video.Title),
		Ext:       chosen.Container,
	}, nil
}

func (a *youtubeAdapter) getVideo(ctx context.Context, target Target) (*youtube.Video, error) {
	watchURL := target.URL
	if target.VideoID != "" {
		watchURL = watchURLForID(target.VideoID)
	}
	video, err := a.client.GetVideoContext(ctx, watchURL)
	if err != nil {
		return nil, fmt.Errorf("fetching video metadata: %w", err)
	}
	return video, nil
}

func describeVideo(video *youtube.Video) *MediaDescriptor {
	descriptor := &MediaDescriptor{
		ID:          video.ID,
		Title:       video.Title,
		Thumbnail:   bestThumbnailURL(video.Thumbnails),
		Duration:    int(video.Duration.Seconds()),
		Uploader:    video.Author,
		Views:       int64(video.Views),
		Description: video.Description,
		Platform:    PlatformYouTube,
	}
	for i := range video.Formats {
		if r, ok := renditionFromFormat(&video.Formats[i]); ok {
			descriptor.Renditions = append(descriptor.Renditions, r)
		}
	}
	return descriptor
}

func renditionFromFormat(f *youtube.Format) (Rendition, bool) {
	hasAudio := f.AudioChannels > 0
	hasVideo := f.Width > 0 || f.Height > 0
	if !hasAudio && !hasVideo {
		return Rendition{}, false
	}

	resolution := f.QualityLabel
	if resolution == "" && !hasVideo {
		resolution = "audio only"
	}
	videoCodec, audioCodec := codecsFromMime(f.MimeType, hasVideo, hasAudio)

	return Rendition{
		FormatID:   strconv.Itoa(f.ItagNo),
		Container:  mimeToExt(f.MimeType),
		Resolution: resolution,
		FileSize:   int64(f.ContentLength),
		VideoCodec: videoCodec,
		AudioCodec: audioCodec,
		SourceURL:  f.URL,
		HasAudio:   hasAudio,
		HasVideo:   hasVideo,
		Bitrate:    bitrateForFormat(f),
	}, true
}

func bitrateForFormat(f *youtube.Format) int {
	if f.Bitrate > 0 {
		return f.Bitrate
	}
	return f.AverageBitrate
}

// codecsFromMime pulls codec names out of a MIME string like
// `video/mp4; codecs="avc1.4d401f, mp4a.40.2"`. The video codec is
// listed first when both are present.
func codecsFromMime(mimeType string, hasVideo, hasAudio bool) (videoCodec, audioCodec string) {
	const marker = `codecs="`
	start := strings.Index(mimeType, marker)
	if start < 0 {
		return "", ""
	}
	rest := mimeType[start+len(marker):]
	end := strings.Index(rest, `"`)
	if end < 0 {
		return "", ""
	}
	codecs := strings.Split(rest[:end], ",")
	for i := range codecs {
		codecs[i] = strings.TrimSpace(codecs[i])
	}
	switch {
	case hasVideo && hasAudio && len(codecs) >= 2:
		return codecs[0], codecs[len(codecs)-1]
	case hasVideo:
		return codecs[0], ""
	case hasAudio:
		return "", codecs[0]
	}
	return "", ""
}

func formatByItag(video *youtube.Video, formatID string) *youtube.Format {
	itag, err := strconv.Atoi(formatID)
	if err != nil {
		return nil
	}
	for i := range video.Formats {
		if video.Formats[i].ItagNo == itag {
			return &video.Formats[i]
		}
	}
	return nil
}

func bestThumbnailURL(thumbnails youtube.Thumbnails) string {
	bestURL := ""
	var bestArea uint
	for _, thumb := range thumbnails {
		area := thumb.Width * thumb.Height
		if area >= bestArea {
			bestArea = area
			bestURL = thumb.URL
		}
	}
	return bestURL
}
