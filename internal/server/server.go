// Package server exposes the submission pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/akashicode/solvesafe/internal/apperr"
	"github.com/akashicode/solvesafe/internal/models"
	"github.com/akashicode/solvesafe/internal/pipeline"
)

// Caller-facing messages for opaque failures.
const (
	msgInternal      = "An internal error occurred."
	msgRetrieveError = "Error retrieving file."
	msgTooLarge      = "PDF is too large."
)

const (
	defaultMaxUploadBytes = 12 << 20
	multipartMemory       = 8 << 20
)

// Submissions is the part of the pipeline the HTTP layer drives.
type Submissions interface {
	Submit(ctx context.Context, up pipeline.Upload) (string, error)
	OpenResult(ctx context.Context, token string) (*pipeline.Result, error)
}

// Config holds the server's collaborators and limits.
type Config struct {
	Submissions    Submissions
	Logger         zerolog.Logger
	MaxUploadBytes int64
	CORSOrigins    []string
	// ConsoleLog prints colored request lines instead of structured ones.
	ConsoleLog bool
}

// Server is the solvesafe HTTP server.
type Server struct {
	subs       Submissions
	log        zerolog.Logger
	maxUpload  int64
	origins    []string
	consoleLog bool
	router     chi.Router
}

// New creates a Server and registers its routes.
func New(cfg Config) (*Server, error) {
	if cfg.Submissions == nil {
		return nil, errors.New("server: submissions are required")
	}
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s := &Server{
		subs:       cfg.Submissions,
		log:        cfg.Logger.With().Str("component", "http").Logger(),
		maxUpload:  maxUpload,
		origins:    origins,
		consoleLog: cfg.ConsoleLog,
		router:     chi.NewRouter(),
	}
	s.registerRoutes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	r := s.router
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(corsMiddleware(s.origins))

	r.Get("/health", s.handleHealth)
	r.Post("/upload", s.handleUpload)
	r.Get("/download/{id}", s.handleDownload)
}

// handleHealth returns a simple health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleUpload handles POST /upload with a multipart "pdf" file and
// optional enrollment, name and batch fields.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			http.Error(w, msgTooLarge, http.StatusBadRequest)
		case errors.Is(err, http.ErrNotMultipart):
			http.Error(w, apperr.UserMessage(apperr.Validation(apperr.ErrMissingFile), ""), http.StatusBadRequest)
		default:
			s.log.Warn().Err(err).Msg("parse multipart form")
			http.Error(w, "Invalid upload.", http.StatusBadRequest)
		}
		return
	}
	defer r.MultipartForm.RemoveAll()

	data, err := readFormFile(r, "pdf")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			http.Error(w, apperr.UserMessage(apperr.Validation(apperr.ErrMissingFile), ""), http.StatusBadRequest)
			return
		}
		s.log.Error().Err(err).Msg("read uploaded file")
		http.Error(w, msgInternal, http.StatusInternalServerError)
		return
	}

	up := pipeline.Upload{
		Data: data,
		Metadata: models.Metadata{
			Enrollment: r.FormValue("enrollment"),
			Name:       r.FormValue("name"),
			Batch:      r.FormValue("batch"),
		},
	}

	// A dropped client does not abort a submission that is already running.
	token, err := s.subs.Submit(context.WithoutCancel(r.Context()), up)
	if err != nil {
		if apperr.Is(err, apperr.KindValidation) {
			http.Error(w, apperr.UserMessage(err, msgInternal), http.StatusBadRequest)
			return
		}
		s.log.Error().Err(err).
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Str("kind", string(apperr.KindOf(err))).
			Msg("upload failed")
		http.Error(w, msgInternal, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"submissionId": token})
}

func readFormFile(r *http.Request, field string) ([]byte, error) {
	f, _, err := r.FormFile(field)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// handleDownload handles GET /download/{id}.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	res, err := s.subs.OpenResult(r.Context(), id)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			http.Error(w, apperr.UserMessage(err, msgRetrieveError), http.StatusNotFound)
			return
		}
		s.log.Error().Err(err).Str("token", id).Msg("download failed")
		http.Error(w, msgRetrieveError, http.StatusInternalServerError)
		return
	}
	defer res.File.Close()

	var modTime time.Time
	if info, err := res.File.Stat(); err == nil {
		modTime = info.ModTime()
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.Name}))
	http.ServeContent(w, r, res.Name, modTime, res.File)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
