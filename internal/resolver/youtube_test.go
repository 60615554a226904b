package resolver

import (
	"testing"

	"github.com/kkdai/youtube/v2"
)

func TestCodecsFromMime(t *testing.T) {
	tests := []struct {
		name      string
		mime      string
		hasVideo  bool
		hasAudio  bool
		wantVideo string
		wantAudio string
	}{
		{"muxed", `video/mp4; codecs="avc1.4d401f, mp4a.40.2"`, true, true, "avc1.4d401f", "mp4a.40.2"},
		{"video only", `video/webm; codecs="vp9"`, true, false, "vp9", ""},
		{"audio only", `audio/mp4; codecs="mp4a.40.2"`, false, true, "", "mp4a.40.2"},
		{"no codecs param", "video/mp4", true, true, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotVideo, gotAudio := codecsFromMime(tt.mime, tt.hasVideo, tt.hasAudio)
			if gotVideo != tt.wantVideo || gotAudio != tt.wantAudio {
				t.Errorf("codecsFromMime = (%q, %q), want (%q, %q)", gotVideo, gotAudio, tt.wantVideo, tt.wantAudio)
			}
		})
	}
}

func TestRenditionFromFormat(t *testing.T) {
	muxedFormat := youtube.Format{
		ItagNo:        22,
		MimeType:      `video/mp4; codecs="avc1.64001F, mp4a.40.2"`,
		QualityLabel:  "720p",
		Width:         1280,
		Height:        720,
		AudioChannels: 2,
		Bitrate:       1200000,
		URL:           "https://cdn.example.com/muxed",
	}
	r, ok := renditionFromFormat(&muxedFormat)
	if !ok {
		t.Fatal("muxed format filtered out")
	}
	if r.FormatID != "22" {
		t.Errorf("format id = %q", r.FormatID)
	}
	if !r.HasAudio || !r.HasVideo {
		t.Errorf("flags = audio %v video %v", r.HasAudio, r.HasVideo)
	}
	if r.Container != "mp4" {
		t.Errorf("container = %q", r.Container)
	}
	if r.Resolution != "720p" {
		t.Errorf("resolution = %q", r.Resolution)
	}
	if r.VideoCodec != "avc1.64001F" || r.AudioCodec != "mp4a.40.2" {
		t.Errorf("codecs = %q / %q", r.VideoCodec, r.AudioCodec)
	}

	audioFormat := youtube.Format{
		ItagNo:        140,
		MimeType:      `audio/mp4; codecs="mp4a.40.2"`,
		AudioChannels: 2,
		Bitrate:       130000,
	}
	r, ok = renditionFromFormat(&audioFormat)
	if !ok {
		t.Fatal("audio format filtered out")
	}
	if r.HasVideo {
		t.Error("audio format reports video")
	}
	if r.Resolution != "audio only" {
		t.Errorf("resolution = %q", r.Resolution)
	}

	metaFormat := youtube.Format{ItagNo: 0, MimeType: "text/mhtml"}
	if _, ok := renditionFromFormat(&metaFormat); ok {
		t.Error("metadata-only format not filtered")
	}
}

func TestBestThumbnailURL(t *testing.T) {
	thumbs := youtube.Thumbnails{
		{URL: "https://i.ytimg.com/small.jpg", Width: 120, Height: 90},
		{URL: "https://i.ytimg.com/large.jpg", Width: 1280, Height: 720},
		{URL: "https://i.ytimg.com/medium.jpg", Width: 640, Height: 480},
	}
	if got := bestThumbnailURL(thumbs); got != "https://i.ytimg.com/large.jpg" {
		t.Errorf("bestThumbnailURL = %q", got)
	}
	if got := bestThumbnailURL(nil); got != "" {
		t.Errorf("bestThumbnailURL(nil) = %q, want empty", got)
	}
}
