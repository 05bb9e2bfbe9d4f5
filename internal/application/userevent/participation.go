package userevent

import (
	"context"

	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/application/notify"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/geo"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/metrics"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/query"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/shaping"
)

var joinSchema = query.Schema{
	"userId":  query.StringID().Req(),
	"eventId": query.BigInteger().Req(),
}

type JoinResult struct {
	Record  shaping.Record
	Created bool
}

// Join records that a user takes part in an event. Joining twice returns the
// existing participation. The distance between the user's registered
// location and the event is stored alongside.
func (s *Service) Join(ctx context.Context, actor domain.Actor, values map[string]any) (JoinResult, error) {
	values = query.Pick(values, joinSchema)
	if v, ok := values["userId"]; !ok || v == nil {
		values["userId"] = actor.ID
	}
	valid, err := query.ValidateFields(joinSchema, values, false)
	if err != nil {
		return JoinResult{}, domain.FromValidation(err)
	}
	userID := valid["userId"].(string)
	eventID := valid["eventId"].(int64)
	if !domain.CanManage(actor.ID, actor.Role, userID) {
		return JoinResult{}, domain.ErrForbidden("cannot join on behalf of another user")
	}

	now := s.clock.Now().UTC()
	ue := &domain.UserEvent{UserID: userID, EventID: eventID, CreatedAt: now, UpdatedAt: now}
	var (
		created bool
		count   int
	)
	err = s.repo.WithTx(ctx, func(tx TxUserEventRepo) error {
		ev, err := tx.LockEvent(ctx, eventID)
		if err != nil {
			return err
		}
		loc, err := tx.UserLocation(ctx, userID)
		if err != nil {
			return err
		}
		if loc != nil {
			d := geo.DistanceMeters(*loc, ev.Location())
			ue.Distance = &d
		}

		created, err = tx.Insert(ctx, ue)
		if err != nil || !created {
			count = ev.CurParticipants
			return err
		}
		count, err = tx.AdjustParticipants(ctx, eventID, 1)
		if err != nil {
			return err
		}
		if ev.MaxParticipants > 0 && count > ev.MaxParticipants {
			zlog.Warn().
				Int64("event_id", eventID).
				Int("cur", count).
				Int("max", ev.MaxParticipants).
				Msg("event is over capacity")
		}
		return nil
	})
	if err != nil {
		return JoinResult{}, err
	}

	if created {
		metrics.ParticipationsTotal.WithLabelValues("join").Inc()
		s.invalidate(ctx, eventID)
		notify.Emit(ctx, s.pub, notify.RKParticipationNew, now, payload(ue, count))
		zlog.Info().
			Str("operation", "participation.join").
			Str("user_id", userID).
			Int64("event_id", eventID).
			Msg("user joined event")
	}
	return JoinResult{Record: ue.Record(), Created: created}, nil
}

var distanceSchema = query.Schema{
	"distance": domain.UserEventEntity.Schema["distance"],
}

// SetDistance overrides the stored distance. Only privileged and service
// callers may do this.
func (s *Service) SetDistance(ctx context.Context, actor domain.Actor, rawID string, patch map[string]any) (shaping.Record, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return nil, err
	}
	if !actor.Privileged() && !domain.IsServiceRole(actor.Role) {
		return nil, domain.ErrForbidden("participation distance is read-only")
	}
	valid, err := query.ValidateFields(distanceSchema, query.Pick(patch, distanceSchema), true)
	if err != nil {
		return nil, domain.FromValidation(err)
	}

	var out *domain.UserEvent
	err = s.repo.WithTx(ctx, func(tx TxUserEventRepo) error {
		ue, err := tx.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if v, ok := valid["distance"]; ok {
			ue.Distance = nil
			if v != nil {
				d := int(v.(int64))
				ue.Distance = &d
			}
		}
		ue.UpdatedAt = s.clock.Now().UTC()
		if err := tx.UpdateDistance(ctx, ue); err != nil {
			return err
		}
		out = ue
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ParticipationsTotal.WithLabelValues("update").Inc()
	notify.Emit(ctx, s.pub, notify.RKParticipationSet, out.UpdatedAt, payload(out, 0))
	return out.Record(), nil
}

// Leave deletes a participation and releases its seat.
func (s *Service) Leave(ctx context.Context, actor domain.Actor, rawID string) (shaping.Record, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return nil, err
	}

	// Locks are taken event first, then participation, the same order as
	// Join and event deletion. The unlocked read only finds the event.
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanManage(actor.ID, actor.Role, current.UserID) {
		return nil, domain.ErrForbidden("not allowed to remove this participation")
	}

	var (
		snapshot *domain.UserEvent
		count    int
	)
	err = s.repo.WithTx(ctx, func(tx TxUserEventRepo) error {
		if _, err := tx.LockEvent(ctx, current.EventID); err != nil {
			if domain.IsCode(err, domain.CodeNotFound) {
				return domain.ErrNotFound("participation not found")
			}
			return err
		}
		ue, err := tx.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(ctx, id); err != nil {
			return err
		}
		count, err = tx.AdjustParticipants(ctx, ue.EventID, -1)
		if err != nil {
			return err
		}
		snapshot = ue
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ParticipationsTotal.WithLabelValues("leave").Inc()
	s.invalidate(ctx, snapshot.EventID)
	notify.Emit(ctx, s.pub, notify.RKParticipationEnd, s.clock.Now(), payload(snapshot, count))
	zlog.Info().
		Str("operation", "participation.leave").
		Str("user_id", snapshot.UserID).
		Int64("event_id", snapshot.EventID).
		Msg("user left event")
	return snapshot.Record(), nil
}

func payload(ue *domain.UserEvent, count int) participationPayload {
	return participationPayload{
		ID:       ue.ID,
		UserID:   ue.UserID,
		EventID:  ue.EventID,
		Distance: ue.Distance,
		Count:    count,
	}
}
