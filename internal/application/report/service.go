package report

import (
	"context"
	"time"

	zlog "github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/cache"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/geo"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/metrics"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/query"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/shaping"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/tracing"
)

type Service struct {
	repo  ReportRepo
	cache cache.Store
	ttl   time.Duration
}

func New(repo ReportRepo, c cache.Store, ttl time.Duration) *Service {
	if ttl == 0 {
		ttl = cache.DefaultTTL
	}
	return &Service{repo: repo, cache: c, ttl: ttl}
}

type ListResult struct {
	TotalCount int
	Data       []shaping.Record
}

// page is the cached form of one report request, before redaction.
type page struct {
	Total int                    `json:"total"`
	Rows  []domain.EventDistance `json:"rows"`
}

var defaultReportOptions = query.ListOptions{
	Sort: []query.SortKey{{Field: domain.ReportFieldDistance, Direction: query.Asc}},
}

var maxDistanceConstraint = query.Constraint{Kind: query.KindInt, Rules: "min=0"}

// EventDistances ranks events by their distance from a reference point,
// given either as lat/long or as a registered userId. Distances only exist
// in memory, so every matching event is loaded, measured, sorted and then
// paginated.
func (s *Service) EventDistances(ctx context.Context, actor domain.Actor, params query.Params) (ListResult, error) {
	if !actor.Privileged() && !domain.IsServiceRole(actor.Role) {
		return ListResult{}, domain.ErrForbidden("reports are restricted")
	}

	lo, err := query.ValidateListOptions(params, domain.ReportSortFields, defaultReportOptions)
	if err != nil {
		return ListResult{}, domain.FromValidation(err)
	}
	filters, err := query.PickAndValidateFilters(params, domain.ReportMapping, domain.ReportFilterFields)
	if err != nil {
		return ListResult{}, domain.FromValidation(err)
	}
	notFilters, err := query.PickAndValidateFilters(query.NotParams(params), domain.ReportMapping, domain.ReportFilterFields)
	if err != nil {
		return ListResult{}, domain.FromValidation(err)
	}
	var maxDistance *int
	if raw := params.Get("maxDistance"); raw != "" {
		v, err := query.Validate(raw, "maxDistance", maxDistanceConstraint)
		if err != nil {
			return ListResult{}, domain.FromValidation(err)
		}
		d := int(v.(int64))
		maxDistance = &d
	}

	ref, err := s.referencePoint(ctx, params)
	if err != nil {
		return ListResult{}, err
	}

	key := cache.ParamsKey(cache.PrefixReport+"distances", params)
	p, err := cache.ReadThrough(ctx, s.cache, key, s.ttl, func(ctx context.Context) (page, error) {
		return s.compute(ctx, ref, filters, notFilters, maxDistance, lo)
	})
	if err != nil {
		return ListResult{}, err
	}

	includeAll := actor.Privileged()
	data := make([]shaping.Record, 0, len(p.Rows))
	for i := range p.Rows {
		data = append(data, shaping.Redact(p.Rows[i].Record(), domain.ReportServiceFields, includeAll))
	}
	return ListResult{TotalCount: p.Total, Data: data}, nil
}

func (s *Service) referencePoint(ctx context.Context, params query.Params) (geo.Point, error) {
	if raw := params.Get("userId"); raw != "" {
		v, err := query.Validate(raw, "userId", query.StringID())
		if err != nil {
			return geo.Point{}, domain.FromValidation(err)
		}
		loc, err := s.repo.UserLocation(ctx, v.(string))
		if err != nil {
			return geo.Point{}, err
		}
		if loc == nil {
			return geo.Point{}, domain.ErrNotFound("user not found")
		}
		return *loc, nil
	}
	ref, err := geo.NewPoint(params.Get("lat"), params.Get("long"))
	if err != nil {
		return geo.Point{}, domain.FromValidation(err)
	}
	return ref, nil
}

func (s *Service) compute(ctx context.Context, ref geo.Point, filters, notFilters query.Filters, maxDistance *int, lo query.ListOptions) (page, error) {
	ctx, span := tracing.StartSpan(ctx, "report.event_distances")
	defer span.End()

	candidates, err := s.repo.EventCandidates(ctx, filters, notFilters)
	if err != nil {
		span.RecordError(err)
		return page{}, err
	}
	metrics.ReportRowsScanned.Observe(float64(len(candidates)))
	span.SetAttributes(attribute.Int("report.candidates", len(candidates)))

	rows := make([]*domain.EventDistance, 0, len(candidates))
	for _, c := range candidates {
		c.Distance = geo.DistanceMeters(ref, c.Location())
		if maxDistance != nil && c.Distance > *maxDistance {
			continue
		}
		rows = append(rows, c)
	}

	query.SortRows(rows, lo.Sort, func(d *domain.EventDistance, f query.Field) any { return d.Value(f) })
	total := len(rows)
	rows = query.Paginate(rows, lo.Limit, lo.Offset)

	out := page{Total: total, Rows: make([]domain.EventDistance, 0, len(rows))}
	for _, r := range rows {
		out.Rows = append(out.Rows, *r)
	}
	zlog.Debug().
		Int("scanned", len(candidates)).
		Int("matched", total).
		Int("returned", len(out.Rows)).
		Msg("distance report computed")
	return out, nil
}
