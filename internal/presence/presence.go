package presence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	onlineUsersKey = "online_users"
	statusTTL      = 5 * time.Minute
	locationTTL    = time.Hour
)

// Location is the last reported client position.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DistanceKM returns the great-circle distance to other in kilometers.
func (l Location) DistanceKM(other Location) float64 {
	const earthRadiusKM = 6371.0

	lat1 := l.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - l.Lat) * math.Pi / 180
	dLng := (other.Lng - l.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Store tracks ephemeral per-user state in Redis: online presence and
// last-known location. Nothing here survives a flush; durable state
// belongs to the repositories.
type Store struct {
	client *redis.Client
}

// NewStore wraps a redis client.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// SetOnline marks the user online and refreshes the status key TTL.
func (s *Store) SetOnline(ctx context.Context, userID string) error {
	if err := s.client.SAdd(ctx, onlineUsersKey, userID).Err(); err != nil {
		return err
	}
	return s.client.Set(ctx, statusKey(userID), "online", statusTTL).Err()
}

// SetOffline removes the user from the online set.
func (s *Store) SetOffline(ctx context.Context, userID string) error {
	if err := s.client.SRem(ctx, onlineUsersKey, userID).Err(); err != nil {
		return err
	}
	return s.client.Del(ctx, statusKey(userID)).Err()
}

// IsOnline reports whether the user is in the online set.
func (s *Store) IsOnline(ctx context.Context, userID string) (bool, error) {
	return s.client.SIsMember(ctx, onlineUsersKey, userID).Result()
}

// OnlineUsers returns the ids of every online user.
func (s *Store) OnlineUsers(ctx context.Context) ([]string, error) {
	return s.client.SMembers(ctx, onlineUsersKey).Result()
}

// SetLocation stores the user's location for an hour.
func (s *Store) SetLocation(ctx context.Context, userID string, loc Location) error {
	data, err := json.Marshal(loc)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, locationKey(userID), data, locationTTL).Err()
}

// GetLocation returns the stored location, or ok=false when none is known.
func (s *Store) GetLocation(ctx context.Context, userID string) (Location, bool, error) {
	data, err := s.client.Get(ctx, locationKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Location{}, false, nil
	}
	if err != nil {
		return Location{}, false, err
	}

	var loc Location
	if err := json.Unmarshal(data, &loc); err != nil {
		return Location{}, false, err
	}
	return loc, true, nil
}

func statusKey(userID string) string {
	return fmt.Sprintf("user:%s:status", userID)
}

func locationKey(userID string) string {
	return fmt.Sprintf("user:%s:location", userID)
}
