package resolver

import (
	"regexp"
	"strings"
)

const maxFilenameLength = 50

var nonAlnumRegex = regexp.MustCompile(`[^A-Za-z0-9]`)

// sanitizeFilename reduces a media title to a safe download filename:
// alphanumeric whitelist, everything else replaced, capped at 50
// characters, with a generic placeholder for empty results.
func sanitizeFilename(title string) string {
	clean := nonAlnumRegex.ReplaceAllString(title, "_")
	if len(clean) > maxFilenameLength {
		clean = clean[:maxFilenameLength]
	}
	if strings.Trim(clean, "_") == "" {
		return "download"
	}
	return clean
}

// mimeToExt derives a container extension from a MIME type string by
// splitting at "/" and ";".
func mimeToExt(mime string) string {
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	parts := strings.Split(strings.TrimSpace(mime), "/")
	if len(parts) == 2 && parts[1] != "" {
		switch parts[1] {
		case "3gpp":
			return "3gp"
		case "quicktime":
			return "mov"
		case "mpeg":
			if parts[0] == "audio" {
				return "mp3"
			}
			return "mpeg"
		default:
			return parts[1]
		}
	}
	return "bin"
}

// extRule maps an observed Content-Type prefix, qualified by the
// originally requested kind, to the extension the response should be
// labeled with. Rules are evaluated in order; first match wins.
type extRule struct {
	prefix      string
	kind        FormatKind // empty matches any requested kind
	ext         string     // empty means derive from the MIME type
	keepAssumed string     // keep the assumed ext when it equals this
}

var extRules = []extRule{
	{prefix: "audio/", kind: KindAudio, ext: "mp3"},
	{prefix: "audio/", ext: "m4a"},
	{prefix: "image/jpeg", ext: "jpg"},
	{prefix: "image/png", ext: "png"},
	{prefix: "image/webp", ext: "webp"},
	{prefix: "image/gif", ext: "gif"},
	{prefix: "image/"},
	{prefix: "application/x-subrip", ext: "srt"},
	{prefix: "text/", ext: "txt", keepAssumed: "srt"},
}

// InferExtension computes the extension a proxied response should be
// served under. The observed Content-Type is authoritative over the
// extension assumed at resolution time; audio responses are labeled
// mp3 only when the caller asked for audio, since without transcoding
// the label must match the bytes actually served.
func InferExtension(contentType string, kind FormatKind, assumed string) string {
	ct := strings.ToLower(contentType)
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	ct = strings.TrimSpace(ct)
	if ct != "" {
		for _, rule := range extRules {
			if rule.kind != "" && rule.kind != kind {
				continue
			}
			if !strings.HasPrefix(ct, rule.prefix) {
				continue
			}
			if rule.keepAssumed != "" && assumed == rule.keepAssumed {
				return assumed
			}
			if rule.ext == "" {
				return mimeToExt(ct)
			}
			return rule.ext
		}
	}
	if assumed != "" {
		return assumed
	}
	if ct != "" {
		return mimeToExt(ct)
	}
	return "bin"
}
