package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docchat/internal/doccontext"
	"github.com/dgallion1/docchat/internal/docstore"
)

// handleListDocuments lists uploaded documents in upload order.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"documents": s.docs.List()})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleDocumentChunks returns the chunks the client shows in its
// document viewer.
func (s *Server) handleDocumentChunks(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.lookup(w, r)
	if !ok {
		return
	}
	chunks := doccontext.ExtractChunks(doc.Content)
	writeJSON(w, http.StatusOK, map[string]any{
		"file_id":     doc.ID,
		"filename":    doc.Name,
		"chunk_count": len(chunks),
		"chunks":      chunks,
	})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	if err := s.docs.Delete(docID); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": docID})
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (doccontext.Document, bool) {
	doc, err := s.docs.Get(chi.URLParam(r, "docID"))
	if err != nil {
		writeStoreError(w, err)
		return doc, false
	}
	return doc, true
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, docstore.ErrNotFound) {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	jsonError(w, err.Error(), http.StatusInternalServerError)
}
