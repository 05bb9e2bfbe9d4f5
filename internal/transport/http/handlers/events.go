package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/application/event"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/transport/http/middleware"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/transport/http/response"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/transport/http/validate"
)

type EventsHandler struct {
	svc *event.Service
}

func NewEventsHandler(svc *event.Service) *EventsHandler {
	return &EventsHandler{svc: svc}
}

func eventOpts(r *http.Request) event.Opts {
	return event.Opts{IncludeAllFields: domain.IsPrivilegedRole(middleware.Role(r))}
}

func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.List(r.Context(), r.URL.Query(), eventOpts(r))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.List(w, res.TotalCount, res.Data)
}

// ListWithDistance is List plus the distance of every row from lat/long.
func (h *EventsHandler) ListWithDistance(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ListWithDistance(r.Context(), r.URL.Query(), eventOpts(r))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.List(w, res.TotalCount, res.Data)
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"), eventOpts(r))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, rec)
}

func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := validate.DecodeObject(r)
	if err != nil {
		response.Err(w, r, invalidBody())
		return
	}
	rec, err := h.svc.Create(r.Context(), event.CreateCmd{Actor: middleware.Actor(r), Values: body})
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusCreated, rec)
}

func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	patch, err := validate.DecodePatch(r)
	if err != nil {
		response.Err(w, r, invalidBody())
		return
	}
	rec, err := h.svc.Update(r.Context(), event.UpdateCmd{
		Actor: middleware.Actor(r),
		ID:    chi.URLParam(r, "id"),
		Patch: patch,
	})
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, rec)
}

func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	_, err := h.svc.Delete(r.Context(), event.DeleteCmd{Actor: middleware.Actor(r), ID: chi.URLParam(r, "id")})
	if err != nil {
		response.Err(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func invalidBody() error {
	return domain.ErrValidationMeta("invalid json body", map[string]string{
		"body": "malformed JSON or not an object",
	})
}
