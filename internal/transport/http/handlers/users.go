package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/application/user"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/transport/http/middleware"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/transport/http/response"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/transport/http/validate"
)

type UsersHandler struct {
	svc *user.Service
}

func NewUsersHandler(svc *user.Service) *UsersHandler { return &UsersHandler{svc: svc} }

func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.List(r.Context(), middleware.Actor(r), r.URL.Query())
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.List(w, res.TotalCount, res.Data)
}

func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Get(r.Context(), middleware.Actor(r), chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, rec)
}

func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := validate.DecodeObject(r)
	if err != nil {
		response.Err(w, r, invalidBody())
		return
	}
	rec, err := h.svc.Create(r.Context(), middleware.Actor(r), body)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusCreated, rec)
}

func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	patch, err := validate.DecodePatch(r)
	if err != nil {
		response.Err(w, r, invalidBody())
		return
	}
	rec, err := h.svc.Update(r.Context(), middleware.Actor(r), chi.URLParam(r, "id"), patch)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, rec)
}

func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, err := h.svc.Delete(r.Context(), middleware.Actor(r), chi.URLParam(r, "id")); err != nil {
		response.Err(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
