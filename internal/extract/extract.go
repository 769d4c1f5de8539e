// Package extract turns uploaded files into section-annotated plain text.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/docchat/internal/doccontext"
	"github.com/dgallion1/docchat/internal/doctree"
	"github.com/dgallion1/docchat/internal/parser"
)

// PurposeTextOnly is reported for uploads that are only text-extracted and
// never forwarded to a provider file store.
const PurposeTextOnly = "text-extraction-only"

// Leading untitled text in a titled document gets this section name.
const leadingSectionTitle = "Document Start"

var (
	ErrUnsupported = errors.New("unsupported file type")
	ErrTooLarge    = errors.New("file too large")
	ErrEmpty       = errors.New("empty file")
)

// Result is one extracted upload.
type Result struct {
	FileID    string `json:"file_id"`
	Filename  string `json:"filename"`
	Purpose   string `json:"purpose"`
	Bytes     int64  `json:"bytes"`
	Text      string `json:"text_content"`
	PageCount int    `json:"page_count"`
}

// Document converts the result into the form the context builder consumes.
func (r *Result) Document() doccontext.Document {
	doc := doccontext.Document{
		ID:       r.FileID,
		Name:     r.Filename,
		Content:  r.Text,
		ByteSize: r.Bytes,
	}
	if r.PageCount > 0 {
		pc := r.PageCount
		doc.PageCount = &pc
	}
	return doc
}

// File is a named upload awaiting extraction.
type File struct {
	Name string
	Data []byte
}

// Outcome pairs a file with its extraction result or error.
type Outcome struct {
	Filename string
	Result   *Result
	Err      error
}

type Extractor struct {
	opts          parser.Options
	maxBytes      int64
	maxConcurrent int
	logger        *slog.Logger
}

func New(opts parser.Options, maxBytes int64, maxConcurrent int, logger *slog.Logger) *Extractor {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		opts:          opts,
		maxBytes:      maxBytes,
		maxConcurrent: maxConcurrent,
		logger:        logger.With("component", "extract"),
	}
}

// Extract parses data according to the filename's extension and renders it
// as marker-annotated text.
func (e *Extractor) Extract(ctx context.Context, filename string, data []byte) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !parser.IsSupportedExtension(filename) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, filepath.Ext(filename))
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: %w", filename, ErrEmpty)
	}
	if e.maxBytes > 0 && int64(len(data)) > e.maxBytes {
		return nil, fmt.Errorf("%s is %d bytes, limit %d: %w", filename, len(data), e.maxBytes, ErrTooLarge)
	}

	p, err := parser.ForFile(filename, e.opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	tree, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	res := &Result{
		FileID:    uuid.NewString(),
		Filename:  filename,
		Purpose:   PurposeTextOnly,
		Bytes:     int64(len(data)),
		Text:      Render(tree),
		PageCount: tree.PageCount,
	}
	e.logger.Info("extracted",
		"file_id", res.FileID,
		"filename", filename,
		"bytes", res.Bytes,
		"pages", res.PageCount,
		"chars", len(res.Text),
	)
	return res, nil
}

// ExtractAll extracts files concurrently, at most maxConcurrent at a time.
// Outcomes keep the input order; a failing file does not stop the others.
// The returned error is non-nil only when ctx is cancelled.
func (e *Extractor) ExtractAll(ctx context.Context, files []File) ([]Outcome, error) {
	out := make([]Outcome, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrent)

	for i, f := range files {
		g.Go(func() error {
			res, err := e.Extract(gctx, f.Name, f.Data)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				e.logger.Warn("extract failed", "filename", f.Name, "error", err)
			}
			out[i] = Outcome{Filename: f.Name, Result: res, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Render flattens a tree into text. Titled trees produce one
// "--- SECTION: <title> ---" block per heading; untitled trees are plain
// paragraphs separated by blank lines.
func Render(tree *doctree.DocTree) string {
	if tree == nil {
		return ""
	}
	if !tree.HasHeadings() {
		var paras []string
		tree.Walk(func(n *doctree.DocNode, _ []string) {
			if t := strings.TrimSpace(n.Text); t != "" {
				paras = append(paras, t)
			}
		})
		return strings.Join(paras, "\n\n")
	}

	var (
		b     strings.Builder
		title string
		body  []string
		open  bool
	)
	flush := func() {
		if !open {
			return
		}
		b.WriteString("\n\n")
		b.WriteString(doccontext.SectionPrefix)
		b.WriteString(title)
		b.WriteString(doccontext.SectionSuffix)
		b.WriteString("\n\n")
		b.WriteString(strings.Join(body, "\n\n"))
		b.WriteString("\n\n")
	}
	tree.Walk(func(n *doctree.DocNode, _ []string) {
		text := strings.TrimSpace(n.Text)
		if n.Title != "" {
			flush()
			title, body, open = SectionTitle(n.Title), nil, true
		} else if !open {
			if text == "" {
				return
			}
			title, body, open = leadingSectionTitle, nil, true
		}
		if text != "" {
			body = append(body, text)
		}
	})
	flush()
	return b.String()
}

// SectionTitle makes a heading safe to embed in a section marker: labels
// may not contain dashes or line breaks.
func SectionTitle(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '-':
			return '–'
		case '\n', '\r', '\t':
			return ' '
		}
		return r
	}, s)
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return "Untitled"
	}
	return s
}
