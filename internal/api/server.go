package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/docchat/internal/chat"
	"github.com/dgallion1/docchat/internal/config"
	"github.com/dgallion1/docchat/internal/docstore"
	"github.com/dgallion1/docchat/internal/extract"
	"github.com/dgallion1/docchat/internal/llm"
)

// Server is the HTTP API server for docchat.
type Server struct {
	router    chi.Router
	extractor *extract.Extractor
	docs      *docstore.Store
	chat      *chat.Service
	stats     *llm.Stats
	model     string
	log       *slog.Logger
	cfg       config.Config
}

// Deps bundles the collaborators the server routes to.
type Deps struct {
	Extractor *extract.Extractor
	Docs      *docstore.Store
	Chat      *chat.Service
	Stats     *llm.Stats
	Model     string
}

// NewServer creates and configures the HTTP server.
func NewServer(deps Deps, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		extractor: deps.Extractor,
		docs:      deps.Docs,
		chat:      deps.Chat,
		stats:     deps.Stats,
		model:     deps.Model,
		log:       log,
		cfg:       cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/upload", s.handleUpload)
		r.Post("/upload/batch", s.handleBatchUpload)
		r.Post("/debug-extraction", s.handleDebugExtraction)
		r.Post("/chunk", s.handleChunk)

		r.Get("/documents", s.handleListDocuments)
		r.Get("/documents/{docID}", s.handleGetDocument)
		r.Get("/documents/{docID}/chunks", s.handleDocumentChunks)
		r.Delete("/documents/{docID}", s.handleDeleteDocument)

		r.Post("/chat", s.handleChat)
		r.Get("/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
