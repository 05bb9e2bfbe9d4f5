package event

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/cache"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/shaping"
)

func (s *Service) Get(ctx context.Context, rawID string, opts Opts) (shaping.Record, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return nil, err
	}
	ev, err := s.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	return shaping.Redact(ev.Record(), domain.EventPublicFields, opts.IncludeAllFields), nil
}

// GetEvent is the read-through cached lookup used by Get.
func (s *Service) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	return cache.ReadThrough(ctx, s.cache, cacheKeyEventDetails(id), s.ttlDetails,
		func(ctx context.Context) (*domain.Event, error) {
			return s.repo.GetByID(ctx, id)
		})
}
