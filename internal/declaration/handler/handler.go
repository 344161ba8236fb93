// Package handler exposes the declarations REST endpoints.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"unireg/internal/audit"
	"unireg/internal/declaration"
	dErrors "unireg/pkg/domain-errors"
	"unireg/pkg/platform/httputil"
	"unireg/pkg/requestcontext"
)

// Handler serves declaration requests.
type Handler struct {
	svc *declaration.Service
}

func New(svc *declaration.Service) *Handler {
	return &Handler{svc: svc}
}

// Routes mounts the declaration endpoints. The caller applies the per-class
// rate limits, so routes are registered on the router matching their class.
func (h *Handler) Routes(mutations, reads, uploads chi.Router) {
	mutations.Post("/declarations", h.register)
	mutations.Put("/declarations/{id}", h.update)
	mutations.Post("/declarations/{id}/archive", h.archive)
	uploads.Post("/declarations/{id}/documents", h.attachDocument)
	reads.Get("/declarations/{id}", h.get)
	reads.Get("/declarations/{id}/history", h.history)
	reads.Get("/declarations/{id}/version", h.currentVersion)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var in declaration.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	d, err := h.svc.Register(r.Context(), in, actorFrom(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, d)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var in declaration.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	d, err := h.svc.Update(r.Context(), id, in, actorFrom(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) archive(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.svc.Archive(r.Context(), id, actorFrom(r)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type attachDocumentRequest struct {
	Filename string `json:"filename"`
}

func (h *Handler) attachDocument(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req attachDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	docID, err := h.svc.AttachDocument(r.Context(), id, req.Filename, actorFrom(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"document_id": docID.String()})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	d, err := h.svc.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entries, err := h.svc.History(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}

func (h *Handler) currentVersion(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.svc.CurrentVersion(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

func parseID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "invalid declaration id")
	}
	return id, nil
}

func actorFrom(r *http.Request) audit.Actor {
	info := requestcontext.Actor(r.Context())
	if info.ID == "" {
		return audit.SystemActor
	}
	return audit.Actor{ID: info.ID, Name: info.Name}
}
