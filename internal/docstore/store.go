// Package docstore keeps uploaded documents in memory for the lifetime of
// the process so chat requests can refer to them by id.
package docstore

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dgallion1/docchat/internal/doccontext"
)

var ErrNotFound = errors.New("document not found")

type entry struct {
	doc         doccontext.Document
	contentHash string
	createdAt   time.Time
	accessedAt  time.Time
}

// Info is a JSON-safe listing row.
type Info struct {
	ID           string    `json:"file_id"`
	Filename     string    `json:"filename"`
	Bytes        int64     `json:"bytes"`
	PageCount    *int      `json:"page_count,omitempty"`
	SectionCount int       `json:"section_count"`
	ContentHash  string    `json:"content_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store is a thread-safe in-memory document registry with TTL eviction.
// Entries expire ttl after they were last read or written.
type Store struct {
	mu    sync.Mutex
	docs  map[string]*entry
	order []string
	ttl   time.Duration
	now   func() time.Time
}

func New(ttl time.Duration) *Store {
	return &Store{
		docs: make(map[string]*entry),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Put registers doc, replacing any document with the same id.
func (s *Store) Put(doc doccontext.Document) Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	e, ok := s.docs[doc.ID]
	if !ok {
		e = &entry{createdAt: now}
		s.docs[doc.ID] = e
		s.order = append(s.order, doc.ID)
	}
	e.doc = doc
	e.contentHash = ContentHashHex([]byte(doc.Content))
	e.accessedAt = now
	return e.info()
}

func (s *Store) Get(id string) (doccontext.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.docs[id]
	if !ok {
		return doccontext.Document{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	e.accessedAt = s.now()
	return e.doc, nil
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	s.removeLocked(id)
	return nil
}

// List returns every document in upload order.
func (s *Store) List() []Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Info, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.docs[id].info())
	}
	return out
}

// Resolve looks up ids in the given order. Any unknown id fails the whole
// call so a chat never silently runs against a partial document set.
func (s *Store) Resolve(ids []string) ([]doccontext.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	docs := make([]doccontext.Document, 0, len(ids))
	for _, id := range ids {
		e, ok := s.docs[id]
		if !ok {
			return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		e.accessedAt = now
		docs = append(docs, e.doc)
	}
	return docs, nil
}

// FindByHash returns the id of a stored document with identical content.
func (s *Store) FindByHash(content string) (string, bool) {
	h := ContentHashHex([]byte(content))
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.order {
		if s.docs[id].contentHash == h {
			return id, true
		}
	}
	return "", false
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

// Cleanup removes expired documents and reports how many were dropped.
func (s *Store) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ttl <= 0 {
		return 0
	}
	now := s.now()
	var expired []string
	for id, e := range s.docs {
		if now.Sub(e.accessedAt) > s.ttl {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		s.removeLocked(id)
	}
	return len(expired)
}

// RunJanitor calls Cleanup every interval until ctx is done.
func (s *Store) RunJanitor(ctx context.Context, interval time.Duration, onEvict func(n int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Cleanup(); n > 0 && onEvict != nil {
				onEvict(n)
			}
		}
	}
}

func (s *Store) removeLocked(id string) {
	delete(s.docs, id)
	s.order = slices.DeleteFunc(s.order, func(o string) bool { return o == id })
}

func (e *entry) info() Info {
	return Info{
		ID:           e.doc.ID,
		Filename:     e.doc.Name,
		Bytes:        e.doc.ByteSize,
		PageCount:    e.doc.PageCount,
		SectionCount: len(doccontext.ScanSections(e.doc.Content)),
		ContentHash:  e.contentHash,
		CreatedAt:    e.createdAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
