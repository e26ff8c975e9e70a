package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/yomu/internal/config"
	"github.com/hyperjump/yomu/internal/models"
	"github.com/hyperjump/yomu/internal/search"
	"github.com/hyperjump/yomu/internal/storage"
)

const maxMultipartMemory = 32 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req models.SummarizeRequest
	if isMultipart(r) {
		text, err := s.readUpload(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		req.Text = text
	} else if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Debug("summarize request",
		zap.String("request_id", requestIDFrom(r.Context())),
		zap.Int("chars", len(req.Text)))

	res, err := s.summaries.Summarize(r.Context(), req.Text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req models.AskRequest
	if isMultipart(r) {
		text, err := s.readUpload(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		req.Text = text
		req.Question = r.FormValue("question")
		if v := r.FormValue("top_k"); v != "" {
			k, err := strconv.Atoi(v)
			if err != nil {
				s.writeError(w, r, fmt.Errorf("%w: top_k must be an integer", models.ErrInvalidRequest))
				return
			}
			req.TopK = k
		}
	} else if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Debug("ask request",
		zap.String("request_id", requestIDFrom(r.Context())),
		zap.String("question", req.Question),
		zap.Int("top_k", req.TopK))

	ans, err := s.answers.Handle(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, ans)
}

// decodeBody decodes the JSON request body into v. Malformed and oversized
// bodies are reported as models.ErrInvalidRequest.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("%w: request body exceeds %d bytes", models.ErrInvalidRequest, tooLarge.Limit)
	}
	return fmt.Errorf("%w: invalid request body", models.ErrInvalidRequest)
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// readUpload returns the text of the multipart "file" field, or of the
// "text" field when no file was sent.
func (s *Server) readUpload(r *http.Request) (string, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", fmt.Errorf("%w: request body exceeds %d bytes", models.ErrInvalidRequest, tooLarge.Limit)
		}
		return "", fmt.Errorf("%w: %v", models.ErrInvalidRequest, err)
	}
	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return r.FormValue("text"), nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrInvalidRequest, err)
	}
	defer file.Close()
	return s.extractor.ExtractReader(file, header.Filename)
}

type statusResponse struct {
	Version        string                `json:"version,omitempty"`
	Uptime         string                `json:"uptime"`
	Providers      Providers             `json:"providers"`
	Storage        string                `json:"storage_backend"`
	DiskUsageBytes *int64                `json:"disk_usage_bytes,omitempty"`
	Chunking       config.ChunkingConfig `json:"chunking"`
	TopK           int                   `json:"top_k"`
	Hybrid         bool                  `json:"hybrid"`
	UseGPU         bool                  `json:"use_gpu"`
	Watch          []string              `json:"watch_directories,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.cfgMu.Lock()
	cfg := *s.cfg
	s.cfgMu.Unlock()

	resp := statusResponse{
		Version:   s.version,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		Providers: s.providers,
		Storage:   cfg.Storage.Backend,
		Chunking:  cfg.Chunking,
		TopK:      cfg.Retrieval.TopK,
		Hybrid:    cfg.Retrieval.Hybrid,
		UseGPU:    cfg.UseGPU,
	}
	if paths := storage.UsagePaths(cfg.Storage); len(paths) > 0 {
		if n, err := storage.DiskUsageBytes(paths...); err == nil {
			resp.DiskUsageBytes = &n
		} else {
			s.logger.Warn("status: disk usage failed", zap.Error(err))
		}
	}
	if s.watch != nil {
		resp.Watch = s.watch.Directories()
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWatchDirectoriesList(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, r, http.StatusNotImplemented, "watch not enabled")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string][]string{"directories": s.watch.Directories()})
}

type watchAddRequest struct {
	Path string `json:"path"`
	Sync *bool  `json:"sync,omitempty"`
}

func (s *Server) handleWatchDirectoriesAdd(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, r, http.StatusNotImplemented, "watch not enabled")
		return
	}
	var req watchAddRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Path == "" {
		s.respondError(w, r, http.StatusBadRequest, "path is required")
		return
	}
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			s.respondError(w, r, http.StatusNotFound, "directory not found")
			return
		}
		s.writeError(w, r, err)
		return
	}
	if !info.IsDir() {
		s.respondError(w, r, http.StatusBadRequest, "path is not a directory")
		return
	}
	syncExisting := req.Sync == nil || *req.Sync
	if err := s.watch.AddDirectory(abs, syncExisting); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusCreated, map[string]string{"path": abs, "status": "added"})
}

func (s *Server) handleWatchDirectoriesRemove(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, r, http.StatusNotImplemented, "watch not enabled")
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		var body struct {
			Path string `json:"path"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			path = body.Path
		}
	}
	if path == "" {
		s.respondError(w, r, http.StatusBadRequest, "path is required (query or body)")
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid path")
		return
	}
	if err := s.watch.RemoveDirectory(abs); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusOK, map[string]string{"path": abs, "status": "removed"})
}

func (s *Server) persistWatchDirectories() {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	s.cfg.Watch.Directories = s.watch.Directories()
	if s.configPath == "" {
		return
	}
	if err := config.Save(s.configPath, s.cfg); err != nil {
		s.logger.Warn("failed to persist watch config", zap.Error(err))
	}
}

// writeError maps err to a status code and writes it as JSON.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var buildErr *models.IndexBuildError
	var tooLarge *http.MaxBytesError
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &tooLarge),
		errors.Is(err, models.ErrExtractionEmpty),
		errors.Is(err, models.ErrInvalidRequest),
		errors.Is(err, search.ErrEmptyQuery):
		status = http.StatusBadRequest
	case errors.As(err, &buildErr):
		status = http.StatusBadGateway
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.Int("status", status),
			zap.Error(err))
	}
	s.respondError(w, r, status, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.respondJSON(w, status, map[string]string{
		"error":      message,
		"request_id": requestIDFrom(r.Context()),
	})
}
