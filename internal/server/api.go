package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/roach88/stencil/internal/model"
	"github.com/roach88/stencil/internal/render"
)

// reorderRequest is the body of POST /api/records/{id}/reorder.
// Omitting both indexes appends the record.
type reorderRequest struct {
	From *int `json:"from"`
	To   *int `json:"to"`
}

// POST /api/sections/{name}/records
func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeContent(w, r)
	if !ok {
		return
	}

	rec, err := s.content.CreateRecord(r.Context(), mux.Vars(r)["name"], body)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, rec)
}

// PUT /api/records/{id}
func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	body, ok := decodeContent(w, r)
	if !ok {
		return
	}

	rec, err := s.content.UpdateRecord(r.Context(), id, body)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// DELETE /api/records/{id}
func (s *Server) handleDestroyRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	if err := s.content.DestroyRecord(r.Context(), id); err != nil {
		s.respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/records/{id}/reorder
func (s *Server) handleReorderRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}

	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	rec, err := s.content.ReorderRecord(r.Context(), id, req.From, req.To)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func recordID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid record ID")
		return 0, false
	}
	return id, true
}

func decodeContent(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return nil, false
	}
	if body == nil {
		body = map[string]any{}
	}
	return body, true
}

// respondErr answers 422 with the field messages for validation
// failures, 404 for missing records and sections, 500 otherwise.
func (s *Server) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		respondJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": ve.Fields})
		return
	}

	status := render.StatusCode(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("api request failed", "path", r.URL.Path, "error", err,
			"id", r.Header.Get(RequestIDHeader))
		respondError(w, status, http.StatusText(status))
		return
	}
	respondError(w, status, err.Error())
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_, _ = w.Write(response)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
