package handlers

import (
	"net/http"

	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/application/report"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/transport/http/middleware"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/transport/http/response"
)

type ReportsHandler struct {
	svc *report.Service
}

func NewReportsHandler(svc *report.Service) *ReportsHandler { return &ReportsHandler{svc: svc} }

func (h *ReportsHandler) EventDistances(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.EventDistances(r.Context(), middleware.Actor(r), r.URL.Query())
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.List(w, res.TotalCount, res.Data)
}
