package userevent

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/application/notify"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/cache"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/query"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/shaping"
)

type Service struct {
	repo  UserEventRepo
	pub   notify.Publisher
	cache cache.Store
	clock Clock
}

func New(repo UserEventRepo, clock Clock, pub notify.Publisher, c cache.Store) *Service {
	if pub == nil {
		pub = notify.NoopPublisher{}
	}
	return &Service{repo: repo, pub: pub, cache: c, clock: clock}
}

type Opts struct {
	IncludeAllFields bool
}

type ListResult struct {
	TotalCount int
	Data       []shaping.Record
}

type participationPayload struct {
	ID       int64  `json:"id"`
	UserID   string `json:"userId"`
	EventID  int64  `json:"eventId"`
	Distance *int   `json:"distance,omitempty"`
	Count    int    `json:"curParticipants"`
}

func ParseID(raw string) (int64, error) {
	v, err := query.Validate(raw, "id", query.BigInteger())
	if err != nil {
		return 0, domain.FromValidation(err)
	}
	return v.(int64), nil
}

// List filters participations by their own columns and by the joined
// event's category, creator and start time.
func (s *Service) List(ctx context.Context, params query.Params, opts Opts) (ListResult, error) {
	lo, err := query.ValidateListOptions(params, domain.UserEventSortFields, query.ListOptions{})
	if err != nil {
		return ListResult{}, domain.FromValidation(err)
	}
	filters, err := query.PickAndValidateFilters(params, domain.UserEventMapping, domain.UserEventFilterFields)
	if err != nil {
		return ListResult{}, domain.FromValidation(err)
	}
	notFilters, err := query.PickAndValidateFilters(query.NotParams(params), domain.UserEventMapping, domain.UserEventFilterFields)
	if err != nil {
		return ListResult{}, domain.FromValidation(err)
	}
	hasDistance, err := query.ValidateBoolean(params[string(domain.UserEventFieldHasDistance)], string(domain.UserEventFieldHasDistance))
	if err != nil {
		return ListResult{}, domain.FromValidation(err)
	}

	spec := query.Spec{Filters: filters, NotFilters: notFilters, Options: lo}
	if hasDistance != nil {
		spec.Presence = []query.Presence{{Field: domain.UserEventFieldDistance, Present: *hasDistance}}
	}

	rows, total, err := s.repo.List(ctx, spec)
	if err != nil {
		return ListResult{}, err
	}
	records := make([]shaping.Record, 0, len(rows))
	for _, ue := range rows {
		records = append(records, ue.Record())
	}
	return ListResult{
		TotalCount: total,
		Data:       shaping.RedactAll(records, domain.UserEventPublicFields, opts.IncludeAllFields),
	}, nil
}

func (s *Service) Get(ctx context.Context, rawID string, opts Opts) (shaping.Record, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return nil, err
	}
	ue, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return shaping.Redact(ue.Record(), domain.UserEventPublicFields, opts.IncludeAllFields), nil
}

func (s *Service) invalidate(ctx context.Context, eventID int64) {
	cache.Invalidate(context.WithoutCancel(ctx), s.cache, []string{cache.EventKey(eventID)}, cache.PrefixReport)
}
