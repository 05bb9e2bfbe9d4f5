package event

import (
	"context"
	"time"

	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/application/notify"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/cache"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/query"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/shaping"
)

type Service struct {
	repo  EventRepo
	pub   notify.Publisher
	cache cache.Store
	clock Clock

	ttlDetails time.Duration
}

func New(repo EventRepo, clock Clock, pub notify.Publisher, c cache.Store, ttlDetails time.Duration) *Service {
	if ttlDetails == 0 {
		ttlDetails = 5 * time.Minute
	}
	if pub == nil {
		pub = notify.NoopPublisher{}
	}
	return &Service{
		repo:       repo,
		pub:        pub,
		cache:      c,
		clock:      clock,
		ttlDetails: ttlDetails,
	}
}

// Opts carries caller-derived options into reads.
type Opts struct {
	IncludeAllFields bool
}

type ListResult struct {
	TotalCount int
	Data       []shaping.Record
}

// ParseID validates a big-integer event id taken from a path or body.
func ParseID(raw string) (int64, error) {
	v, err := query.Validate(raw, "id", query.BigInteger())
	if err != nil {
		return 0, domain.FromValidation(err)
	}
	return v.(int64), nil
}

func cacheKeyEventDetails(id int64) string { return cache.EventKey(id) }

func (s *Service) invalidate(ctx context.Context, ev *domain.Event) {
	// must run even if the request was canceled after commit
	cache.Invalidate(context.WithoutCancel(ctx), s.cache, []string{cacheKeyEventDetails(ev.ID)}, cache.PrefixReport)
}

type eventPayload struct {
	EventID    int64     `json:"eventId"`
	CreatorID  string    `json:"creatorId"`
	CategoryID int64     `json:"categoryId"`
	StartTime  time.Time `json:"startTime"`
	Lat        float64   `json:"lat"`
	Long       float64   `json:"long"`
}

func payloadOf(ev *domain.Event) eventPayload {
	return eventPayload{
		EventID:    ev.ID,
		CreatorID:  ev.CreatorID,
		CategoryID: ev.CategoryID,
		StartTime:  ev.StartTime,
		Lat:        ev.Lat,
		Long:       ev.Long,
	}
}
