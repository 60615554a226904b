package web

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/reelay/reelay/internal/resolver"
)

// streamUpstream proxies the resolved media URL to the client. The
// upstream request inherits the client's context, so a disconnect
// aborts the copy. An error return before the first body byte means
// no headers have been written yet and the caller may still send a
// JSON error.
func (s *Server) streamUpstream(w http.ResponseWriter, r *http.Request, resolved *resolver.ResolvedMedia, kind resolver.FormatKind, platform resolver.Platform) error {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, resolved.SourceURL, nil)
	if err != nil {
		return resolver.WrapCategory(resolver.CategoryInternal, fmt.Errorf("building upstream request: %w", err))
	}
	req.Header.Set("User-Agent", resolver.DefaultUserAgent)
	if referer := resolver.RefererFor(platform); referer != "" {
		req.Header.Set("Referer", referer)
	}

	resp, err := s.stream.Do(req)
	if err != nil {
		return resolver.WrapCategory(resolver.CategoryUpstream, fmt.Errorf("contacting upstream host: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return resolver.WrapCategory(resolver.CategoryAccessDenied, fmt.Errorf("upstream returned %s", resp.Status))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resolver.CategorizedError{
			Category: resolver.CategoryUpstream,
			Err:      fmt.Errorf("upstream returned %s", resp.Status),
			Status:   resp.StatusCode,
		}
	}

	contentType := resp.Header.Get("Content-Type")
	ext := resolver.InferExtension(contentType, kind, resolved.Ext)
	filename := resolved.Filename + "." + ext

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	if resp.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(resp.ContentLength, 10))
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)

	written, copyErr := io.Copy(w, resp.Body)
	fields := logrus.Fields{
		"platform": platform,
		"filename": filename,
		"bytes":    humanize.Bytes(uint64(written)),
	}
	if copyErr != nil {
		// Headers are already out; all we can do is log and drop.
		s.log.WithFields(fields).WithError(copyErr).Warn("stream interrupted")
		return nil
	}
	s.log.WithFields(fields).Info("stream complete")
	return nil
}
