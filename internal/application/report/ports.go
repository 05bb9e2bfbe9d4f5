package report

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/geo"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/query"
)

type ReportRepo interface {
	// EventCandidates loads every event matching the store-side filters,
	// unsorted and unpaginated. Distance is left zero.
	EventCandidates(ctx context.Context, filters, notFilters query.Filters) ([]*domain.EventDistance, error)
	UserLocation(ctx context.Context, userID string) (*geo.Point, error)
}
