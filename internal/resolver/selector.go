package resolver

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// SelectRendition picks one rendition for a format request using a
// deterministic preference order. Given the same inputs it always
// returns the same choice; ties go to the rendition the backend
// returned first.
func SelectRendition(renditions []Rendition, req FormatRequest) (*Rendition, error) {
	switch req.Kind {
	case KindAudio:
		return selectAudio(renditions)
	case KindVideo, "":
		return selectVideo(renditions, req.QualityHint)
	default:
		return nil, fmt.Errorf("no rendition selection for %q requests", req.Kind)
	}
}

// selectAudio prefers the highest-bitrate rendition carrying audio.
// The stable sort keeps the backend's own order for equal bitrates.
func selectAudio(renditions []Rendition) (*Rendition, error) {
	withAudio := filterRenditions(renditions, func(r Rendition) bool { return r.HasAudio })
	if len(withAudio) == 0 {
		return nil, errors.New("no audio renditions available")
	}
	sort.SliceStable(withAudio, func(i, j int) bool {
		return withAudio[i].Bitrate > withAudio[j].Bitrate
	})
	return &withAudio[0], nil
}

// selectVideo prefers a muxed rendition at or below the quality hint,
// then the best muxed rendition regardless of hint, then the best
// video-only rendition. The last tier is a deliberately degraded
// result (no audio) rather than a failure.
func selectVideo(renditions []Rendition, hint string) (*Rendition, error) {
	targetHeight, preferLowest, err := parseQualityHint(hint)
	if err != nil {
		return nil, err
	}

	muxed := filterRenditions(renditions, func(r Rendition) bool { return r.HasAudio && r.HasVideo })
	if len(muxed) > 0 {
		if targetHeight > 0 {
			if best := bestAtOrBelow(muxed, targetHeight); best != nil {
				return best, nil
			}
		}
		if preferLowest {
			return lowestHeight(muxed), nil
		}
		return highestHeight(muxed), nil
	}

	videoOnly := filterRenditions(renditions, func(r Rendition) bool { return r.HasVideo })
	if len(videoOnly) == 0 {
		return nil, errors.New("no video renditions available")
	}
	if targetHeight > 0 {
		if best := bestAtOrBelow(videoOnly, targetHeight); best != nil {
			return best, nil
		}
	}
	if preferLowest {
		return lowestHeight(videoOnly), nil
	}
	return highestHeight(videoOnly), nil
}

// parseQualityHint accepts "best", "worst", "" or height forms like
// "1080p" and "720".
func parseQualityHint(hint string) (targetHeight int, preferLowest bool, err error) {
	hint = strings.ToLower(strings.TrimSpace(hint))
	switch hint {
	case "", "best":
		return 0, false, nil
	case "worst":
		return 0, true, nil
	}
	digits := leadingDigits(hint)
	if digits == "" {
		return 0, false, WrapCategory(CategoryInvalidInput, fmt.Errorf("invalid quality hint %q (want e.g. 1080p, 720, best, worst)", hint))
	}
	height, convErr := strconv.Atoi(digits)
	if convErr != nil || height <= 0 {
		return 0, false, WrapCategory(CategoryInvalidInput, fmt.Errorf("invalid quality hint %q", hint))
	}
	return height, false, nil
}

func filterRenditions(renditions []Rendition, keep func(Rendition) bool) []Rendition {
	out := make([]Rendition, 0, len(renditions))
	for _, r := range renditions {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// renditionHeight reads the vertical resolution from labels like
// "1080p" or "720p60". Unlabeled renditions rank lowest.
func renditionHeight(r Rendition) int {
	digits := leadingDigits(strings.TrimSpace(r.Resolution))
	if digits == "" {
		return 0
	}
	height, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return height
}

func leadingDigits(s string) string {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}

func highestHeight(renditions []Rendition) *Rendition {
	best := &renditions[0]
	for i := 1; i < len(renditions); i++ {
		if renditionHeight(renditions[i]) > renditionHeight(*best) {
			best = &renditions[i]
		}
	}
	return best
}

func lowestHeight(renditions []Rendition) *Rendition {
	best := &renditions[0]
	for i := 1; i < len(renditions); i++ {
		if renditionHeight(renditions[i]) < renditionHeight(*best) {
			best = &renditions[i]
		}
	}
	return best
}

// bestAtOrBelow returns the tallest rendition not exceeding
// targetHeight, or nil when none qualifies.
func bestAtOrBelow(renditions []Rendition, targetHeight int) *Rendition {
	var best *Rendition
	for i := range renditions {
		h := renditionHeight(renditions[i])
		if h == 0 || h > targetHeight {
			continue
		}
		if best == nil || h > renditionHeight(*best) {
			best = &renditions[i]
		}
	}
	return best
}
