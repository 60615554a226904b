// Package web exposes the resolution engine over HTTP: a metadata
// endpoint, a streaming fetch endpoint, and an operational status
// endpoint.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/reelay/reelay/internal/resolver"
)

const maxRequestBodyBytes = 1 << 20 // 1 MiB

// Server wires the resolver into HTTP handlers.
type Server struct {
	resolver  *resolver.Resolver
	log       *logrus.Logger
	stream    *http.Client
	startedAt time.Time
}

func NewServer(res *resolver.Resolver, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.New()
	}
	return &Server{
		resolver:  res,
		log:       log,
		stream:    resolver.StreamClient(),
		startedAt: time.Now(),
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/resolve", s.handleResolve)
	mux.HandleFunc("/fetch", s.handleFetch)
	mux.HandleFunc("/api/status", s.handleStatus)
	return withSecurityHeaders(mux)
}

// ListenAndServe runs the server until ctx is cancelled, then shuts
// down gracefully.
func ListenAndServe(ctx context.Context, addr string, res *resolver.Resolver, log *logrus.Logger) error {
	s := NewServer(res, log)
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		resolver.CloseIdleConnections()
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type resolveRequest struct {
	URL string `json:"url"`
}

type fetchRequest struct {
	URL         string  `json:"url"`
	Format      string  `json:"format"`
	QualityHint string  `json:"qualityHint"`
	ClipStart   float64 `json:"clipStart"`
	ClipEnd     float64 `json:"clipEnd"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}
	var req resolveRequest
	if reqErr := decodeJSONBody(w, r, &req); reqErr != nil {
		writeJSON(w, reqErr.status, errorResponse{Error: reqErr.message})
		return
	}
	if req.URL == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "url is required"})
		return
	}

	descriptor, err := s.resolver.Describe(r.Context(), req.URL)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, descriptor)
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}
	var req fetchRequest
	if reqErr := decodeJSONBody(w, r, &req); reqErr != nil {
		writeJSON(w, reqErr.status, errorResponse{Error: reqErr.message})
		return
	}
	if req.URL == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "url is required"})
		return
	}

	cls, err := resolver.Classify(req.URL)
	if err != nil {
		s.writeError(w, err)
		return
	}

	formatReq := resolver.FormatRequest{
		Kind:        resolver.FormatKind(req.Format),
		QualityHint: req.QualityHint,
		ClipStart:   req.ClipStart,
		ClipEnd:     req.ClipEnd,
	}
	resolved, err := s.resolver.Resolve(r.Context(), req.URL, formatReq)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.streamUpstream(w, r, resolved, formatReq.Kind, cls.Platform); err != nil {
		s.writeError(w, err)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"uptime":   time.Since(s.startedAt).Truncate(time.Second).String(),
		"backends": s.resolver.Capabilities(),
	})
}

// errorMessages are the short caller-facing summaries; the wrapped
// cause travels in details.
var errorMessages = map[resolver.ErrorCategory]string{
	resolver.CategoryInvalidInput:   "invalid request",
	resolver.CategoryUnsupportedURL: "unsupported URL",
	resolver.CategoryNoBackend:      "no extraction backend available",
	resolver.CategoryExhausted:      "could not resolve a direct media stream for this URL",
	resolver.CategoryAccessDenied:   "upstream access denied; the link may be expired or host-blocked",
	resolver.CategoryUpstream:       "upstream media host returned an error",
	resolver.CategoryInternal:       "internal error",
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	category := resolver.CategoryOf(err)
	status := resolver.HTTPStatus(err)

	message, ok := errorMessages[category]
	if !ok {
		message = errorMessages[resolver.CategoryInternal]
	}
	details := err.Error()
	if hint := resolver.HintOf(err); hint != "" {
		details += " (" + hint + ")"
	}

	if status >= 500 {
		s.log.WithError(err).Error("request failed")
	} else {
		s.log.WithError(err).WithField("status", status).Debug("request rejected")
	}
	writeJSON(w, status, errorResponse{Error: message, Details: details})
}

type requestError struct {
	status  int
	message string
}

// decodeJSONBody reads a strict JSON body: correct content type,
// bounded size, no unknown fields, no trailing garbage.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) *requestError {
	ct := r.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil || mediaType != "application/json" {
		return &requestError{http.StatusUnsupportedMediaType, "content type must be application/json"}
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return &requestError{http.StatusRequestEntityTooLarge, "request body too large"}
		}
		return &requestError{http.StatusBadRequest, "invalid JSON payload"}
	}
	if err := dec.Decode(new(struct{})); err != io.EOF {
		return &requestError{http.StatusBadRequest, "invalid JSON payload"}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

func withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}
