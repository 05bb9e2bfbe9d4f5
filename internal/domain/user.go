package domain

import (
	"time"

	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/geo"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/query"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/shaping"
)

type User struct {
	UserID    string    `json:"userId"`
	Lat       float64   `json:"lat"`
	Long      float64   `json:"long"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var UserEntity = &query.Entity{
	Name:  "user",
	Table: "users",
	Schema: query.Schema{
		"userId": query.StringID().Req(),
		"lat":    query.Latitude().Req(),
		"long":   query.Longitude().Req(),
	},
}

const (
	UserFieldUserID    query.Field = "userId"
	UserFieldLat       query.Field = "lat"
	UserFieldLong      query.Field = "long"
	UserFieldCreatedAt query.Field = "createdAt"
	UserFieldUpdatedAt query.Field = "updatedAt"
)

var UserMapping = query.SingleEntity(UserEntity,
	UserFieldUserID, UserFieldLat, UserFieldLong, UserFieldCreatedAt, UserFieldUpdatedAt,
)

var (
	UserFilterFields = []query.Field{UserFieldUserID, UserFieldLat, UserFieldLong}
	UserSortFields   = []query.Field{UserFieldUserID, UserFieldLat, UserFieldLong, UserFieldCreatedAt, UserFieldUpdatedAt}
	// Location stays with the user and privileged roles.
	UserPublicFields = []string{"userId", "createdAt", "updatedAt"}
)

func (u *User) Location() geo.Point { return geo.Point{Lat: u.Lat, Long: u.Long} }

func (u *User) Apply(v map[string]any) {
	if s, ok := v["userId"].(string); ok {
		u.UserID = s
	}
	if f, ok := v["lat"].(float64); ok {
		u.Lat = f
	}
	if f, ok := v["long"].(float64); ok {
		u.Long = f
	}
}

func (u *User) Record() shaping.Record {
	return shaping.Record{
		"userId":    u.UserID,
		"lat":       u.Lat,
		"long":      u.Long,
		"createdAt": u.CreatedAt,
		"updatedAt": u.UpdatedAt,
	}
}
