package user

import (
	"context"

	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/application/notify"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/cache"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/query"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/shaping"
)

type Service struct {
	repo  UserRepo
	pub   notify.Publisher
	cache cache.Store
	clock Clock
}

func New(repo UserRepo, clock Clock, pub notify.Publisher, c cache.Store) *Service {
	if pub == nil {
		pub = notify.NoopPublisher{}
	}
	return &Service{repo: repo, pub: pub, cache: c, clock: clock}
}

type ListResult struct {
	TotalCount int
	Data       []shaping.Record
}

type userPayload struct {
	UserID string  `json:"userId"`
	Lat    float64 `json:"lat"`
	Long   float64 `json:"long"`
}

// ParseID validates a string user id.
func ParseID(raw string) (string, error) {
	v, err := query.Validate(raw, "userId", query.StringID())
	if err != nil {
		return "", domain.FromValidation(err)
	}
	return v.(string), nil
}

// shape hides the location unless the caller owns the row or is privileged.
func shape(u *domain.User, actor domain.Actor) shaping.Record {
	return shaping.Redact(u.Record(), domain.UserPublicFields, domain.CanManage(actor.ID, actor.Role, u.UserID))
}

func (s *Service) List(ctx context.Context, actor domain.Actor, params query.Params) (ListResult, error) {
	lo, err := query.ValidateListOptions(params, domain.UserSortFields, query.ListOptions{})
	if err != nil {
		return ListResult{}, domain.FromValidation(err)
	}
	filters, err := query.PickAndValidateFilters(params, domain.UserMapping, domain.UserFilterFields)
	if err != nil {
		return ListResult{}, domain.FromValidation(err)
	}
	notFilters, err := query.PickAndValidateFilters(query.NotParams(params), domain.UserMapping, domain.UserFilterFields)
	if err != nil {
		return ListResult{}, domain.FromValidation(err)
	}

	users, total, err := s.repo.List(ctx, query.Spec{Filters: filters, NotFilters: notFilters, Options: lo})
	if err != nil {
		return ListResult{}, err
	}
	data := make([]shaping.Record, 0, len(users))
	for _, u := range users {
		data = append(data, shape(u, actor))
	}
	return ListResult{TotalCount: total, Data: data}, nil
}

func (s *Service) Get(ctx context.Context, actor domain.Actor, rawID string) (shaping.Record, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return nil, err
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return shape(u, actor), nil
}

func (s *Service) Create(ctx context.Context, actor domain.Actor, values map[string]any) (shaping.Record, error) {
	values = query.Pick(values, domain.UserEntity.Schema)
	if v, ok := values["userId"]; !ok || v == nil {
		values["userId"] = actor.ID
	}
	valid, err := query.ValidateFields(domain.UserEntity.Schema, values, false)
	if err != nil {
		return nil, domain.FromValidation(err)
	}

	u := &domain.User{}
	u.Apply(valid)
	if !domain.CanManage(actor.ID, actor.Role, u.UserID) {
		return nil, domain.ErrForbidden("cannot register another user")
	}
	now := s.clock.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	s.afterMutation(ctx, notify.RKUserCreated, u)
	zlog.Info().Str("operation", "user.create").Str("user_id", u.UserID).Msg("user created")
	return u.Record(), nil
}

// Update moves a user. userId itself is immutable.
func (s *Service) Update(ctx context.Context, actor domain.Actor, rawID string, patch map[string]any) (shaping.Record, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return nil, err
	}
	patch = query.Pick(patch, domain.UserEntity.Schema)
	delete(patch, "userId")
	valid, err := query.ValidateFields(domain.UserEntity.Schema, patch, true)
	if err != nil {
		return nil, domain.FromValidation(err)
	}
	if !domain.CanManage(actor.ID, actor.Role, id) {
		return nil, domain.ErrForbidden("not allowed to modify this user")
	}

	var out *domain.User
	err = s.repo.WithTx(ctx, func(tx TxUserRepo) error {
		u, err := tx.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		u.Apply(valid)
		u.UpdatedAt = s.clock.Now().UTC()
		if err := tx.Update(ctx, u); err != nil {
			return err
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.afterMutation(ctx, notify.RKUserUpdated, out)
	zlog.Info().Str("operation", "user.update").Str("user_id", id).Msg("user updated")
	return out.Record(), nil
}

func (s *Service) Delete(ctx context.Context, actor domain.Actor, rawID string) (shaping.Record, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return nil, err
	}
	if !domain.CanManage(actor.ID, actor.Role, id) {
		return nil, domain.ErrForbidden("not allowed to delete this user")
	}

	var snapshot *domain.User
	err = s.repo.WithTx(ctx, func(tx TxUserRepo) error {
		u, err := tx.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(ctx, id); err != nil {
			return err
		}
		snapshot = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.afterMutation(ctx, notify.RKUserDeleted, snapshot)
	zlog.Info().Str("operation", "user.delete").Str("user_id", id).Msg("user deleted")
	return snapshot.Record(), nil
}

// afterMutation drops report pages computed from the old location.
func (s *Service) afterMutation(ctx context.Context, rk string, u *domain.User) {
	cache.Invalidate(context.WithoutCancel(ctx), s.cache, nil, cache.PrefixReport)
	notify.Emit(ctx, s.pub, rk, s.clock.Now(), userPayload{UserID: u.UserID, Lat: u.Lat, Long: u.Long})
}
