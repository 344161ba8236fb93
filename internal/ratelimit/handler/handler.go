// Package handler exposes the static blacklist administration endpoints.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"unireg/internal/audit"
	"unireg/internal/ratelimit/service"
	dErrors "unireg/pkg/domain-errors"
	"unireg/pkg/platform/httputil"
	"unireg/pkg/requestcontext"
)

// Handler serves blacklist administration requests.
type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Routes mounts the admin endpoints on a chi router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/blacklist", h.listBlacklist)
	r.Post("/blacklist", h.addBlacklistEntry)
	r.Delete("/blacklist/{address}", h.removeBlacklistEntry)
}

type addEntryRequest struct {
	Address string `json:"address"`
	Reason  string `json:"reason"`
}

func (h *Handler) addBlacklistEntry(w http.ResponseWriter, r *http.Request) {
	var req addEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.svc.AddStaticEntry(r.Context(), req.Address, req.Reason, actorFrom(r)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"address": req.Address})
}

func (h *Handler) removeBlacklistEntry(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	if err := h.svc.RemoveStaticEntry(r.Context(), address, actorFrom(r)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listBlacklist(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.ListStatic(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}

func actorFrom(r *http.Request) audit.Actor {
	info := requestcontext.Actor(r.Context())
	if info.ID == "" {
		return audit.SystemActor
	}
	return audit.Actor{ID: info.ID, Name: info.Name}
}
