package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/nao1215/pagescope/internal/errs"
)

// maxRequestBody caps the size of a JSON request body.
const maxRequestBody = 64 << 10

// Limits of GET /api/scores.
const (
	defaultListLimit = 20
	maxListLimit     = 200
)

type analyzeRequest struct {
	URL string `json:"url"`
}

type scoreRequest struct {
	URL      string `json:"url"`
	IsPublic bool   `json:"isPublic"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.service.Analyze(r.Context(), req.URL)
	if err != nil {
		s.respondWithAppError(w, err)
		return
	}
	s.respondWithJSON(w, http.StatusOK, result)
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.service.Score(r.Context(), req.URL, req.IsPublic)
	if err != nil {
		s.respondWithAppError(w, err)
		return
	}
	s.respondWithJSON(w, http.StatusOK, result)
}

func (s *Server) handleListScores(w http.ResponseWriter, r *http.Request) {
	if s.lister == nil {
		s.respondWithError(w, http.StatusNotImplemented, "score history is not enabled")
		return
	}

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}

	scores, err := s.lister.ListPublicScores(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list public scores", "error", err)
		s.respondWithError(w, http.StatusInternalServerError, "could not list scores")
		return
	}
	s.respondWithJSON(w, http.StatusOK, map[string]any{"scores": scores})
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	s.respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decode reads a JSON body with a non-empty url field. It answers the
// request itself and returns false when the body is unusable.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}

	var rawURL string
	switch req := v.(type) {
	case *analyzeRequest:
		rawURL = req.URL
	case *scoreRequest:
		rawURL = req.URL
	}
	if strings.TrimSpace(rawURL) == "" {
		s.respondWithError(w, http.StatusBadRequest, "url is required")
		return false
	}
	return true
}

func (s *Server) respondWithAppError(w http.ResponseWriter, err error) {
	kind := errs.KindOf(err)
	status := errs.HTTPStatus(kind)
	if status >= http.StatusInternalServerError {
		s.logger.Warn("request failed", "kind", kind.String(), "error", err)
	} else {
		s.logger.Info("request rejected", "kind", kind.String(), "error", err)
	}

	// The cause chain may carry resolved addresses; only the message is public.
	message := http.StatusText(status)
	var appErr *errs.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		message = appErr.Message
	}
	s.respondWithJSON(w, status, errorResponse{Error: message, Kind: kind.String()})
}

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, errorResponse{Error: message})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to encode response", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}
