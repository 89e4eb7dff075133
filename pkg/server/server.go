// Package server exposes the importer over HTTP: a multipart upload plus a
// JSON ImportRequest in, an ImportResponse out.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/caixinha-dev/caixinha/pkg/config"
	"github.com/caixinha-dev/caixinha/pkg/importer"
	"github.com/caixinha-dev/caixinha/pkg/models"
	"github.com/caixinha-dev/caixinha/pkg/parser"
)

// maxUploadBytes caps statement uploads; bank exports are small files.
const maxUploadBytes = 10 << 20

type Server struct {
	config   *config.Config
	logger   *log.Logger
	mux      *http.ServeMux
	importer *importer.Importer
}

// New creates the HTTP server around an importer.
func New(cfg *config.Config, imp *importer.Importer, logger *log.Logger) *Server {
	s := &Server{
		config:   cfg,
		logger:   logger,
		mux:      http.NewServeMux(),
		importer: imp,
	}
	s.setupRoutes()
	return s
}

// Start blocks serving HTTP on addr.
func (s *Server) Start(addr string) error {
	return http.ListenAndServe(addr, s.mux)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/import", s.withLogging(s.handleImport))
	s.mux.HandleFunc("/healthz", s.handleHealth)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleImport accepts a multipart form with a "statement" file and a
// "request" JSON part. Request-level failures (unusable file, invalid
// allocation set, unknown ids) come back as 4xx before any persistence;
// per-entry problems ride inside a 200 response's issue list.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, r, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("statement")
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "statement file required", err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "failed to read statement file", err)
		return
	}

	rawReq := r.FormValue("request")
	if rawReq == "" {
		s.respondError(w, r, http.StatusBadRequest, "request part required", nil)
		return
	}
	var req models.ImportRequest
	if err := json.Unmarshal([]byte(rawReq), &req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid request json", err)
		return
	}

	resp, err := s.importer.Run(r.Context(), data, header.Filename, req)
	if err != nil {
		if resp != nil {
			// Interrupted mid-batch: hand back what was accumulated.
			s.logger.Warn("import interrupted", "file", header.Filename, "err", err)
			_ = s.writeJSON(w, http.StatusOK, resp)
			return
		}
		s.respondImportError(w, r, err)
		return
	}

	if err := s.writeJSON(w, http.StatusOK, resp); err != nil {
		s.logger.Warn("failed to write json response", "err", err)
	}
}

// respondImportError maps request-level importer failures to status codes
// and stable error tags the frontend can branch on.
func (s *Server) respondImportError(w http.ResponseWriter, r *http.Request, err error) {
	var formatErr *parser.FormatError
	var allocErr *importer.AllocationError
	var reqErr *importer.RequestError

	switch {
	case errors.As(err, &formatErr):
		s.respondErrorTagged(w, r, http.StatusUnprocessableEntity, "FORMAT_ERROR", err)
	case errors.As(err, &allocErr):
		s.respondErrorTagged(w, r, http.StatusUnprocessableEntity, "INVALID_ALLOCATION", err)
	case errors.As(err, &reqErr):
		s.respondErrorTagged(w, r, http.StatusUnprocessableEntity, "INVALID_REQUEST", err)
	default:
		s.respondError(w, r, http.StatusInternalServerError, "import failed", err)
	}
}

func (s *Server) respondErrorTagged(w http.ResponseWriter, r *http.Request, status int, tag string, err error) {
	s.logger.Warn("import rejected", "tag", tag, "err", err, "path", r.URL.Path)
	_ = s.writeJSON(w, status, map[string]string{
		"status": "error",
		"code":   tag,
		"error":  err.Error(),
	})
}

// --- helpers ---

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	if err != nil {
		s.logger.Warn("request error", "status", status, "msg", message, "err", err, "method", r.Method, "path", r.URL.Path)
	} else {
		s.logger.Warn("request error", "status", status, "msg", message, "method", r.Method, "path", r.URL.Path)
	}
	_ = s.writeJSON(w, status, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// withLogging wraps a handler to log requests and recover panics.
func (s *Server) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", "panic", rec, "method", r.Method, "path", r.URL.Path)
				s.respondError(w, r, http.StatusInternalServerError, "internal server error", fmt.Errorf("panic: %v", rec))
			}
		}()
		next(w, r)
	}
}
