package event

import (
	"context"

	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/geo"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/query"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/shaping"
)

// distanceFilterFields drops lat/long: in distance mode they are the reference point.
var distanceFilterFields = without(domain.EventFilterFields, domain.EventFieldLat, domain.EventFieldLong)

// List validates params, then fetches one page plus the matching total.
func (s *Service) List(ctx context.Context, params query.Params, opts Opts) (ListResult, error) {
	spec, err := buildSpec(params, domain.EventFilterFields)
	if err != nil {
		return ListResult{}, err
	}

	events, total, err := s.repo.List(ctx, spec)
	if err != nil {
		return ListResult{}, err
	}

	data := make([]shaping.Record, 0, len(events))
	for _, ev := range events {
		data = append(data, shaping.Redact(ev.Record(), domain.EventPublicFields, opts.IncludeAllFields))
	}
	zlog.Debug().Int("total", total).Int("returned", len(data)).Msg("events listed")
	return ListResult{TotalCount: total, Data: data}, nil
}

// ListWithDistance pages natively, then attaches the distance from the
// lat/long reference point to each row. Rows are not re-sorted.
func (s *Service) ListWithDistance(ctx context.Context, params query.Params, opts Opts) (ListResult, error) {
	ref, err := geo.NewPoint(params.Get("lat"), params.Get("long"))
	if err != nil {
		return ListResult{}, domain.FromValidation(err)
	}
	spec, err := buildSpec(params, distanceFilterFields)
	if err != nil {
		return ListResult{}, err
	}

	events, total, err := s.repo.List(ctx, spec)
	if err != nil {
		return ListResult{}, err
	}

	data := make([]shaping.Record, 0, len(events))
	for _, ev := range events {
		rec := ev.Record()
		rec["distance"] = geo.DistanceMeters(ref, ev.Location())
		data = append(data, shaping.Redact(rec, domain.EventPublicFields, opts.IncludeAllFields))
	}
	return ListResult{TotalCount: total, Data: data}, nil
}

func buildSpec(params query.Params, filterFields []query.Field) (query.Spec, error) {
	lo, err := query.ValidateListOptions(params, domain.EventSortFields, query.ListOptions{})
	if err != nil {
		return query.Spec{}, domain.FromValidation(err)
	}
	filters, err := query.PickAndValidateFilters(params, domain.EventMapping, filterFields)
	if err != nil {
		return query.Spec{}, domain.FromValidation(err)
	}
	notFilters, err := query.PickAndValidateFilters(query.NotParams(params), domain.EventMapping, filterFields)
	if err != nil {
		return query.Spec{}, domain.FromValidation(err)
	}
	hasAddress, err := query.ValidateBoolean(params["hasAddress"], "hasAddress")
	if err != nil {
		return query.Spec{}, domain.FromValidation(err)
	}

	spec := query.Spec{Filters: filters, NotFilters: notFilters, Options: lo}
	if hasAddress != nil {
		spec.Presence = append(spec.Presence, query.Presence{Field: domain.EventFieldAddress, Present: *hasAddress})
	}
	return spec, nil
}

func without(fields []query.Field, drop ...query.Field) []query.Field {
	out := make([]query.Field, 0, len(fields))
outer:
	for _, f := range fields {
		for _, d := range drop {
			if f == d {
				continue outer
			}
		}
		out = append(out, f)
	}
	return out
}
