package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/docchat/internal/chat"
	"github.com/dgallion1/docchat/internal/docstore"
	"github.com/dgallion1/docchat/internal/llm"
)

type chatRequest struct {
	Message         string   `json:"message"`
	APIKey          string   `json:"apiKey"`
	DocumentContext *string  `json:"documentContext"`
	FileIDs         []string `json:"fileIds"`
}

// handleChat streams the assistant's answer as plain text. Errors that
// happen before the first fragment are reported as JSON; after that the
// body is simply cut short.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	// Document context can carry several full documents.
	r.Body = http.MaxBytesReader(w, r.Body, 4*s.cfg.MaxUploadBytes)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}

	// Answers may stream past the server's write timeout; the request
	// context bounds them instead.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	sw := &streamWriter{w: w}
	err := s.chat.Stream(r.Context(), chat.Request{
		Message:         req.Message,
		APIKey:          req.APIKey,
		DocumentContext: req.DocumentContext,
		DocumentIDs:     req.FileIDs,
	}, sw)

	if err == nil {
		sw.start()
		return
	}
	if sw.started {
		s.log.Warn("chat stream interrupted", "error", err, "request_id", middleware.GetReqID(r.Context()))
		return
	}

	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, llm.ErrNoAPIKey):
		jsonError(w, "apiKey is required", http.StatusBadRequest)
	case errors.Is(err, docstore.ErrNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case r.Context().Err() != nil:
		// Client went away; nobody is listening.
	default:
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error":   "Failed to process request",
			"details": err.Error(),
		})
	}
}

// streamWriter defers the response header until the first fragment so a
// failure before any output can still produce a JSON error.
type streamWriter struct {
	w       http.ResponseWriter
	started bool
}

func (sw *streamWriter) start() {
	if sw.started {
		return
	}
	sw.started = true
	h := sw.w.Header()
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("X-Content-Type-Options", "nosniff")
	sw.w.WriteHeader(http.StatusOK)
}

func (sw *streamWriter) Write(p []byte) (int, error) {
	sw.start()
	return sw.w.Write(p)
}

func (sw *streamWriter) Flush() {
	if f, ok := sw.w.(http.Flusher); ok {
		f.Flush()
	}
}
