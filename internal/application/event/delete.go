package event

import (
	"context"

	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/application/notify"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/shaping"
)

type DeleteCmd struct {
	Actor domain.Actor
	ID    string
}

// Delete removes the event and returns it as it was before deletion.
// Participations go with it.
func (s *Service) Delete(ctx context.Context, cmd DeleteCmd) (shaping.Record, error) {
	id, err := ParseID(cmd.ID)
	if err != nil {
		return nil, err
	}

	var snapshot *domain.Event
	err = s.repo.WithTx(ctx, func(tx TxEventRepo) error {
		ev, err := tx.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !domain.CanManage(cmd.Actor.ID, cmd.Actor.Role, ev.CreatorID) {
			return domain.ErrForbidden("not allowed to delete this event")
		}
		if err := tx.Delete(ctx, id); err != nil {
			return err
		}
		snapshot = ev
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, snapshot)
	notify.Emit(ctx, s.pub, notify.RKEventDeleted, s.clock.Now().UTC(), payloadOf(snapshot))

	zlog.Info().
		Str("operation", "event.delete").
		Int64("event_id", id).
		Str("actor_id", cmd.Actor.ID).
		Msg("event deleted")

	return snapshot.Record(), nil
}
