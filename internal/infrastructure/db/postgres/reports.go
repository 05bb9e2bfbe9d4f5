package postgres

import (
	"context"
	"database/sql"

	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/geo"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/query"
)

// capacityLeft is the whole percentage of seats still free; NULL when the
// event has no cap.
var reportColumns = []string{
	"events.id", "events.category_id", "events.lat", "events.long",
	"events.creator_id", "events.admin_id",
	"CHAR_LENGTH(events.description)",
	"CASE WHEN events.max_participants = 0 THEN NULL ELSE 100 - (events.cur_participants * 100 / events.max_participants) END",
	"events.start_time", "events.created_at", "events.updated_at",
}

type ReportRepo struct {
	db *sql.DB
}

func NewReportRepo(db *sql.DB) *ReportRepo { return &ReportRepo{db: db} }

func scanEventDistance(s rowScanner) (*domain.EventDistance, error) {
	var d domain.EventDistance
	err := s.Scan(
		&d.EventID, &d.CategoryID, &d.Lat, &d.Long,
		&d.CreatorID, &d.AdminID,
		&d.DescriptionLength, &d.CapacityLeft,
		&d.StartTime, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *ReportRepo) EventCandidates(ctx context.Context, filters, notFilters query.Filters) ([]*domain.EventDistance, error) {
	q := query.Select(reportColumns...).From("events")
	if err := q.ApplyFilters(filters, domain.ReportMapping); err != nil {
		return nil, err
	}
	if err := q.ApplyNotFilters(notFilters, domain.ReportMapping); err != nil {
		return nil, err
	}
	return queryAll(ctx, r.db, q, scanEventDistance)
}

func (r *ReportRepo) UserLocation(ctx context.Context, userID string) (*geo.Point, error) {
	return userLocation(ctx, r.db, userID)
}
