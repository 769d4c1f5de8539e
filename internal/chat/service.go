// Package chat answers questions about uploaded documents by streaming a
// chat completion grounded in their section-annotated text.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dgallion1/docchat/internal/doccontext"
	"github.com/dgallion1/docchat/internal/llm"
)

var ErrEmptyMessage = errors.New("message is required")

// Request is one chat turn. DocumentContext, when non-nil, is used as-is
// and DocumentIDs are ignored.
type Request struct {
	Message         string
	APIKey          string
	DocumentContext *string
	DocumentIDs     []string
}

// Completer streams a completion one fragment at a time.
type Completer interface {
	Stream(ctx context.Context, req llm.Request, onFragment func(string) error) error
}

// DocumentSource resolves uploaded document ids.
type DocumentSource interface {
	Resolve(ids []string) ([]doccontext.Document, error)
}

type Service struct {
	llm     Completer
	docs    DocumentSource
	stats   *llm.Stats
	retries int
	logger  *slog.Logger
}

func NewService(c Completer, docs DocumentSource, stats *llm.Stats, retries int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		llm:     c,
		docs:    docs,
		stats:   stats,
		retries: retries,
		logger:  logger.With("component", "chat"),
	}
}

// Messages builds the system and user messages for req.
func (s *Service) Messages(req Request) ([]llm.Message, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, ErrEmptyMessage
	}
	docContext, ok, err := s.documentContext(req)
	if err != nil {
		return nil, err
	}
	return []llm.Message{
		{Role: llm.RoleSystem, Content: BuildInstruction(docContext, ok)},
		{Role: llm.RoleUser, Content: req.Message},
	}, nil
}

func (s *Service) documentContext(req Request) (string, bool, error) {
	if req.DocumentContext != nil {
		return *req.DocumentContext, *req.DocumentContext != "", nil
	}
	if len(req.DocumentIDs) == 0 || s.docs == nil {
		return "", false, nil
	}
	docs, err := s.docs.Resolve(req.DocumentIDs)
	if err != nil {
		return "", false, fmt.Errorf("resolve documents: %w", err)
	}
	text, ok := doccontext.BuildContext(docs)
	return text, ok, nil
}

// Stream writes the answer to w as fragments arrive, flushing after each
// one when w supports it. Transient backend failures are retried only
// while nothing has been written.
func (s *Service) Stream(ctx context.Context, req Request, w io.Writer) error {
	msgs, err := s.Messages(req)
	if err != nil {
		return err
	}

	flusher, _ := w.(http.Flusher)
	start := time.Now()
	var firstToken time.Duration
	var written int

	onFragment := func(text string) error {
		if written == 0 {
			firstToken = time.Since(start)
		}
		n, err := io.WriteString(w, text)
		written += n
		if err != nil {
			return fmt.Errorf("write fragment: %w", err)
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	}

	call := func() error {
		err := s.llm.Stream(ctx, llm.Request{Messages: msgs, APIKey: req.APIKey}, onFragment)
		if written > 0 && llm.IsRetryable(err) {
			// Fragments already reached the client; a retry would duplicate them.
			return fmt.Errorf("stream interrupted: %v", err)
		}
		return err
	}
	err = llm.Retry(ctx, s.retries, s.logger, call)

	elapsed := time.Since(start)
	if s.stats != nil {
		s.stats.Record(elapsed, firstToken, err)
	}
	if err != nil {
		s.logger.Error("chat failed", "error", err, "bytes_written", written, "duration_ms", elapsed.Milliseconds())
		return err
	}
	s.logger.Info("chat complete",
		"bytes_written", written,
		"documents", len(req.DocumentIDs),
		"duration_ms", elapsed.Milliseconds(),
		"first_token_ms", firstToken.Milliseconds(),
	)
	return nil
}
