package resolver

import "testing"

func muxed(id, res string) Rendition {
	return Rendition{FormatID: id, Resolution: res, HasAudio: true, HasVideo: true}
}

func videoOnly(id, res string) Rendition {
	return Rendition{FormatID: id, Resolution: res, HasVideo: true}
}

func audioOnly(id string, bitrate int) Rendition {
	return Rendition{FormatID: id, HasAudio: true, Bitrate: bitrate, Resolution: "audio only"}
}

func TestSelectVideoPrefersMuxed(t *testing.T) {
	renditions := []Rendition{
		videoOnly("vo-2160", "2160p"),
		muxed("mux-720", "720p"),
		muxed("mux-360", "360p"),
	}
	chosen, err := SelectRendition(renditions, FormatRequest{Kind: KindVideo})
	if err != nil {
		t.Fatalf("SelectRendition error: %v", err)
	}
	if chosen.FormatID != "mux-720" {
		t.Errorf("chose %q, want mux-720 (muxed beats taller video-only)", chosen.FormatID)
	}
}

func TestSelectVideoQualityHint(t *testing.T) {
	renditions := []Rendition{
		muxed("mux-1080", "1080p"),
		muxed("mux-720", "720p"),
		muxed("mux-360", "360p"),
	}
	tests := []struct {
		hint string
		want string
	}{
		{"", "mux-1080"},
		{"best", "mux-1080"},
		{"worst", "mux-360"},
		{"720p", "mux-720"},
		{"720", "mux-720"},
		{"480p", "mux-360"},
		{"4320p", "mux-1080"},
	}
	for _, tt := range tests {
		t.Run("hint "+tt.hint, func(t *testing.T) {
			chosen, err := SelectRendition(renditions, FormatRequest{Kind: KindVideo, QualityHint: tt.hint})
			if err != nil {
				t.Fatalf("SelectRendition error: %v", err)
			}
			if chosen.FormatID != tt.want {
				t.Errorf("chose %q, want %q", chosen.FormatID, tt.want)
			}
		})
	}
}

func TestSelectVideoInvalidHint(t *testing.T) {
	renditions := []Rendition{muxed("mux-720", "720p")}
	_, err := SelectRendition(renditions, FormatRequest{Kind: KindVideo, QualityHint: "potato"})
	if err == nil {
		t.Fatal("expected error for invalid quality hint")
	}
	if got := CategoryOf(err); got != CategoryInvalidInput {
		t.Errorf("category = %q, want %q", got, CategoryInvalidInput)
	}
}

func TestSelectVideoFallsBackToVideoOnly(t *testing.T) {
	renditions := []Rendition{
		audioOnly("aud-128", 128000),
		videoOnly("vo-1080", "1080p"),
		videoOnly("vo-720", "720p"),
	}
	chosen, err := SelectRendition(renditions, FormatRequest{Kind: KindVideo})
	if err != nil {
		t.Fatalf("SelectRendition error: %v", err)
	}
	if chosen.FormatID != "vo-1080" {
		t.Errorf("chose %q, want vo-1080", chosen.FormatID)
	}
	if chosen.HasAudio {
		t.Error("video-only fallback should not report audio")
	}
}

func TestSelectAudioPrefersHighestBitrate(t *testing.T) {
	renditions := []Rendition{
		videoOnly("vo-1080", "1080p"),
		audioOnly("aud-128", 128000),
		audioOnly("aud-160", 160000),
		muxed("mux-360", "360p"),
	}
	chosen, err := SelectRendition(renditions, FormatRequest{Kind: KindAudio})
	if err != nil {
		t.Fatalf("SelectRendition error: %v", err)
	}
	if chosen.FormatID != "aud-160" {
		t.Errorf("chose %q, want aud-160", chosen.FormatID)
	}
}

func TestSelectAudioNoneAvailable(t *testing.T) {
	renditions := []Rendition{videoOnly("vo-720", "720p")}
	if _, err := SelectRendition(renditions, FormatRequest{Kind: KindAudio}); err == nil {
		t.Fatal("expected error when no rendition carries audio")
	}
}

func TestSelectRenditionDeterministic(t *testing.T) {
	renditions := []Rendition{
		muxed("first-720", "720p"),
		muxed("second-720", "720p"),
		audioOnly("aud-a", 128000),
		audioOnly("aud-b", 128000),
	}
	for _, req := range []FormatRequest{{Kind: KindVideo}, {Kind: KindAudio}} {
		first, err := SelectRendition(renditions, req)
		if err != nil {
			t.Fatalf("SelectRendition error: %v", err)
		}
		for i := 0; i < 5; i++ {
			again, err := SelectRendition(renditions, req)
			if err != nil {
				t.Fatalf("SelectRendition error: %v", err)
			}
			if again.FormatID != first.FormatID {
				t.Fatalf("selection not stable: got %q then %q", first.FormatID, again.FormatID)
			}
		}
	}
}
