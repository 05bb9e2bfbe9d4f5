package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/application/userevent"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/transport/http/middleware"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/transport/http/response"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/transport/http/validate"
)

type UserEventsHandler struct {
	svc *userevent.Service
}

func NewUserEventsHandler(svc *userevent.Service) *UserEventsHandler {
	return &UserEventsHandler{svc: svc}
}

// distance is visible to moderators and to services that compute it.
func userEventOpts(r *http.Request) userevent.Opts {
	role := middleware.Role(r)
	return userevent.Opts{IncludeAllFields: domain.IsPrivilegedRole(role) || domain.IsServiceRole(role)}
}

func (h *UserEventsHandler) List(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.List(r.Context(), r.URL.Query(), userEventOpts(r))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.List(w, res.TotalCount, res.Data)
}

func (h *UserEventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"), userEventOpts(r))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, rec)
}

// Join answers 201 for a new participation and 200 when it already existed.
func (h *UserEventsHandler) Join(w http.ResponseWriter, r *http.Request) {
	body, err := validate.DecodeObject(r)
	if err != nil {
		response.Err(w, r, invalidBody())
		return
	}
	res, err := h.svc.Join(r.Context(), middleware.Actor(r), body)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	response.Data(w, status, res.Record)
}

func (h *UserEventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	patch, err := validate.DecodePatch(r)
	if err != nil {
		response.Err(w, r, invalidBody())
		return
	}
	rec, err := h.svc.SetDistance(r.Context(), middleware.Actor(r), chi.URLParam(r, "id"), patch)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, rec)
}

func (h *UserEventsHandler) Leave(w http.ResponseWriter, r *http.Request) {
	if _, err := h.svc.Leave(r.Context(), middleware.Actor(r), chi.URLParam(r, "id")); err != nil {
		response.Err(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
