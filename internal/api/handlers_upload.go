package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/docchat/internal/chunker"
	"github.com/dgallion1/docchat/internal/doccontext"
	"github.com/dgallion1/docchat/internal/extract"
	"github.com/dgallion1/docchat/internal/parser"
)

// formOverhead is allowed on top of the file limit for multipart framing.
const formOverhead = 1 << 20

type uploadError struct {
	msg  string
	code int
}

func (e *uploadError) Error() string { return e.msg }

// readUpload reads the named multipart file, enforcing the size limit and
// the supported extension list.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request, field string) (string, []byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+formOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return "", nil, s.formError(err)
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		return "", nil, &uploadError{"No file provided", http.StatusBadRequest}
	}
	defer file.Close()

	return s.readPart(header.Filename, file)
}

// formError maps a multipart parse failure to a client error. A body over
// its size cap is 413.
func (s *Server) formError(err error) *uploadError {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return &uploadError{fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge}
	}
	return &uploadError{"invalid multipart form: " + err.Error(), http.StatusBadRequest}
}

func (s *Server) readPart(name string, file io.Reader) (string, []byte, error) {
	filename := sanitizeFilename(name)
	if !parser.IsSupportedExtension(filename) {
		return filename, nil, &uploadError{fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest}
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return filename, nil, &uploadError{"failed to read file", http.StatusInternalServerError}
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return filename, nil, &uploadError{fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge}
	}
	return filename, data, nil
}

func writeUploadError(w http.ResponseWriter, err error) {
	var ue *uploadError
	switch {
	case errors.As(err, &ue):
		jsonError(w, ue.msg, ue.code)
	case errors.Is(err, extract.ErrUnsupported), errors.Is(err, extract.ErrEmpty):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, extract.ErrTooLarge):
		jsonError(w, err.Error(), http.StatusRequestEntityTooLarge)
	default:
		jsonError(w, "failed to extract text: "+err.Error(), http.StatusUnprocessableEntity)
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	filename, data, err := s.readUpload(w, r, "file")
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}
	if err != nil {
		writeUploadError(w, err)
		return
	}

	res, err := s.extractor.Extract(r.Context(), filename, data)
	if err != nil {
		s.log.Warn("upload extraction failed", "filename", filename, "error", err)
		writeUploadError(w, err)
		return
	}
	s.register(res)

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleBatchUpload(w http.ResponseWriter, r *http.Request) {
	limit := int64(s.cfg.MaxBatchFiles)*s.cfg.MaxUploadBytes + 10*formOverhead
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		writeUploadError(w, s.formError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}
	if len(headers) > s.cfg.MaxBatchFiles {
		jsonError(w, fmt.Sprintf("too many files (max %d)", s.cfg.MaxBatchFiles), http.StatusBadRequest)
		return
	}

	results := make([]map[string]any, len(headers))
	var files []extract.File
	var slots []int
	for i, fh := range headers {
		filename, data, err := s.openPart(fh)
		if err != nil {
			results[i] = map[string]any{"filename": filename, "error": err.Error()}
			continue
		}
		files = append(files, extract.File{Name: filename, Data: data})
		slots = append(slots, i)
	}

	outcomes, err := s.extractor.ExtractAll(r.Context(), files)
	if err != nil {
		jsonError(w, "extraction cancelled: "+err.Error(), http.StatusServiceUnavailable)
		return
	}
	for j, o := range outcomes {
		i := slots[j]
		if o.Err != nil {
			results[i] = map[string]any{"filename": o.Filename, "error": o.Err.Error()}
			continue
		}
		s.register(o.Result)
		results[i] = map[string]any{
			"file_id":      o.Result.FileID,
			"filename":     o.Result.Filename,
			"purpose":      o.Result.Purpose,
			"bytes":        o.Result.Bytes,
			"text_content": o.Result.Text,
			"page_count":   o.Result.PageCount,
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"documents": results})
}

func (s *Server) openPart(fh *multipart.FileHeader) (string, []byte, error) {
	f, err := fh.Open()
	if err != nil {
		return sanitizeFilename(fh.Filename), nil, errors.New("failed to open file")
	}
	defer f.Close()
	return s.readPart(fh.Filename, f)
}

func (s *Server) handleDebugExtraction(w http.ResponseWriter, r *http.Request) {
	filename, data, err := s.readUpload(w, r, "file")
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}
	if err != nil {
		writeUploadError(w, err)
		return
	}

	res, err := s.extractor.Extract(r.Context(), filename, data)
	if err != nil {
		writeUploadError(w, err)
		return
	}
	stats := doccontext.Summarize(res.Text)

	writeJSON(w, http.StatusOK, map[string]any{
		"filename":       res.Filename,
		"page_count":     res.PageCount,
		"section_count":  stats.SectionCount,
		"char_count":     stats.CharCount,
		"word_count":     stats.WordCount,
		"token_estimate": stats.Tokens,
		"text_sample":    stats.Sample,
		"full_text":      res.Text,
	})
}

type chunkRequest struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// handleChunk splits a document into chunks. JSON text that is already
// extracted gets the chunks the client displays. An uploaded file is
// extracted and split by the sized section chunker, tuned by the
// max_chunk_size and overlap form fields.
func (s *Server) handleChunk(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
		var req chunkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
			return
		}
		chunks := doccontext.ExtractChunks(req.Content)
		writeJSON(w, http.StatusOK, map[string]any{
			"filename":    req.Filename,
			"chunk_count": len(chunks),
			"chunks":      chunks,
		})
		return
	}

	name, data, err := s.readUpload(w, r, "file")
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}
	if err != nil {
		writeUploadError(w, err)
		return
	}

	cfg := chunker.DefaultConfig()
	if cfg.MaxChunkSize, err = formInt(r, "max_chunk_size", cfg.MaxChunkSize); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if cfg.Overlap, err = formInt(r, "overlap", cfg.Overlap); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := s.extractor.Extract(r.Context(), name, data)
	if err != nil {
		writeUploadError(w, err)
		return
	}
	chunks := chunker.Split(res.Text, cfg)
	writeJSON(w, http.StatusOK, map[string]any{
		"filename":    res.Filename,
		"page_count":  res.PageCount,
		"chunk_count": len(chunks),
		"chunks":      chunks,
	})
}

// formInt reads a non-negative integer form field, returning def when the
// field is absent.
func formInt(r *http.Request, field string, def int) (int, error) {
	v := strings.TrimSpace(r.FormValue(field))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", field)
	}
	return n, nil
}

func (s *Server) register(res *extract.Result) {
	if id, dup := s.docs.FindByHash(res.Text); dup {
		s.log.Info("duplicate upload content", "file_id", res.FileID, "existing_id", id)
	}
	s.docs.Put(res.Document())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
