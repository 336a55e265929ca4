package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/uvlkit/uvlkit/pkg/catalog"
	"github.com/uvlkit/uvlkit/pkg/errors"
	"github.com/uvlkit/uvlkit/pkg/render"
	"github.com/uvlkit/uvlkit/pkg/store"
	"github.com/uvlkit/uvlkit/pkg/uvl"
)

// analysisRequest is the body of POST /v1/analyses/{operation}. Exactly one
// of ModelText and ModelID must be set.
type analysisRequest struct {
	ModelText string          `json:"model_text,omitempty"`
	ModelID   string          `json:"model_id,omitempty"`
	Feature   string          `json:"feature,omitempty"`
	Selection []string        `json:"selection,omitempty"`
	Criteria  map[string]bool `json:"criteria,omitempty"`
	Count     int             `json:"count,omitempty"`
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	var body analysisRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decoding request body"))
		return
	}

	text, err := s.resolveModelText(r, body)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := s.runner.Run(r.Context(), catalog.Request{
		Operation: catalog.Operation(chi.URLParam(r, "operation")),
		ModelText: text,
		Feature:   body.Feature,
		Selection: body.Selection,
		Criteria:  body.Criteria,
		Count:     body.Count,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"result": result})
}

// resolveModelText returns the model text either inline or from the store.
func (s *Server) resolveModelText(r *http.Request, body analysisRequest) (string, error) {
	switch {
	case body.ModelText != "" && body.ModelID != "":
		return "", errors.New(errors.ErrCodeInvalidInput, "model_text and model_id are mutually exclusive")
	case body.ModelText != "":
		return body.ModelText, nil
	case body.ModelID != "":
		m, err := s.store.Get(r.Context(), body.ModelID)
		if err != nil {
			return "", err
		}
		return m.Text, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "model_text or model_id is required")
}

type createModelRequest struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

func (s *Server) handleCreateModel(w http.ResponseWriter, r *http.Request) {
	var body createModelRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decoding request body"))
		return
	}
	if body.Text == "" {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "text is required"))
		return
	}

	// Reject unparseable models at upload time, so stored ids always
	// reference analyzable text.
	if _, err := uvl.Parse(body.Text); err != nil {
		writeError(w, err)
		return
	}

	m := store.Model{
		ID:        uuid.NewString(),
		Name:      body.Name,
		Text:      body.Text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Put(r.Context(), m); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	models, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"models": models})
}

func (s *Server) handleGetModel(w http.ResponseWriter, r *http.Request) {
	m, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleDeleteModel(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type renderRequest struct {
	ModelText string `json:"model_text"`
	Format    string `json:"format"` // "dot" or "svg", default dot
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var body renderRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decoding request body"))
		return
	}

	m, err := uvl.Parse(body.ModelText)
	if err != nil {
		writeError(w, err)
		return
	}
	dot := render.ToDOT(m, render.Options{Constraints: true})

	switch body.Format {
	case "", "dot":
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		_, _ = w.Write([]byte(dot))
	case "svg":
		svg, err := render.ToSVG(r.Context(), dot)
		if err != nil {
			writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "rendering svg"))
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write(svg)
	default:
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "unknown render format %q", body.Format))
	}
}
