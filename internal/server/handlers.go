package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/indexer"
	"github.com/hyperjump/kotae/internal/models"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request", zap.String("query", req.Query), zap.Int("limit", req.Limit))
	response, err := s.deps.Engine.HybridSearch(r.Context(), &req)
	if err != nil {
		s.fail(w, "search failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	var req models.RankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	results := s.deps.Reranker.Rank(req.Results, req.Query, req.Context)
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

func (s *Server) handleIndexRecord(w http.ResponseWriter, r *http.Request) {
	var input models.RecordInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("index record request", zap.String("id", input.ID), zap.String("type", string(input.Type)))
	res, err := s.deps.Indexer.IndexRecord(r.Context(), &input)
	if err != nil {
		s.fail(w, "indexing failed", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, res)
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.deps.Indexer.GetRecord(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "get record failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete record request", zap.String("id", id))
	if err := s.deps.Indexer.DeleteRecord(r.Context(), id); err != nil {
		s.fail(w, "deletion failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

func (s *Server) handleVectorize(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	recordType := models.RecordType(r.URL.Query().Get("type"))
	if err := s.deps.Vectorizer.Vectorize(r.Context(), recordType, id); err != nil {
		s.fail(w, "vectorize failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "vectorized"})
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	report, err := s.deps.Vectorizer.ReindexAll(r.Context())
	if err != nil {
		s.logger.Error("reindex failed", zap.Error(err))
		s.respondJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": err.Error(), "report": report})
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := CollectStatus(r.Context(), s.deps)
	if err != nil {
		s.fail(w, "status failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, status)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps an error to the HTTP status the API reports for it.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrEmptyQuery), errors.Is(err, indexer.ErrInvalidRecord):
		return http.StatusBadRequest
	case errors.Is(err, indexer.ErrSourceNotFound):
		return http.StatusNotFound
	case errors.Is(err, embedding.ErrProvider):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(msg, zap.Error(err))
	} else {
		s.logger.Debug(msg, zap.Error(err))
	}
	s.respondError(w, status, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
