package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"

	"paircall-service/internal/models"
	"paircall-service/internal/observability"
	"paircall-service/internal/presence"
	"paircall-service/internal/repositories"
)

const (
	defaultNearbyDistanceKM = 10
	maxNearbyResults        = 50
)

// Router dispatches inbound envelopes. Control types (ping, presence_query,
// location_update, get_nearby_users) are answered by the gateway itself;
// every peer-addressed application type is forwarded verbatim so the gateway
// stays decoupled from application semantics.
type Router struct {
	hub      *Hub
	presence *presence.Store
	users    repositories.UserRepository
}

// NewRouter constructs a Router.
func NewRouter(hub *Hub, presenceStore *presence.Store, users repositories.UserRepository) *Router {
	return &Router{hub: hub, presence: presenceStore, users: users}
}

// HandleInbound processes one raw envelope from senderID.
func (r *Router) HandleInbound(ctx context.Context, senderID string, raw []byte) {
	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		r.hub.SendEnvelope(senderID, TypeError, ErrorData{Message: "invalid JSON format"})
		return
	}

	observability.IncWSEnvelope(envelope.Type)

	switch envelope.Type {
	case TypePing:
		var data PingData
		_ = json.Unmarshal(envelope.Data, &data)
		r.hub.SendEnvelope(senderID, TypePong, PingData{Timestamp: data.Timestamp})

	case TypeTyping, TypeMessage, TypeCallSignal, TypeICECandidate:
		r.forward(senderID, envelope, raw)

	case TypePresenceQuery:
		r.answerPresenceQuery(ctx, senderID, envelope)

	case TypeLocationUpdate:
		r.storeLocation(ctx, senderID, envelope)

	case TypeGetNearbyUsers:
		r.nearbyUsers(ctx, senderID, envelope)

	default:
		r.hub.SendEnvelope(senderID, TypeError, ErrorData{
			Message: fmt.Sprintf("unknown message type: %s", envelope.Type),
		})
	}
}

// forward relays the original payload untouched to the peer named in data.
func (r *Router) forward(senderID string, envelope Envelope, raw []byte) {
	var data TargetedData
	if err := json.Unmarshal(envelope.Data, &data); err != nil || data.Target() == "" {
		r.hub.SendEnvelope(senderID, TypeError, ErrorData{Message: "missing target user"})
		return
	}
	r.hub.SendToUser(data.Target(), raw)
}

func (r *Router) answerPresenceQuery(ctx context.Context, senderID string, envelope Envelope) {
	var data PresenceQueryData
	if err := json.Unmarshal(envelope.Data, &data); err != nil || len(data.UserIDs) == 0 {
		r.hub.SendEnvelope(senderID, TypeError, ErrorData{Message: "missing user_ids"})
		return
	}

	result := make(map[string]bool, len(data.UserIDs))
	for _, userID := range data.UserIDs {
		online, err := r.presence.IsOnline(ctx, userID)
		if err != nil {
			log.Printf("presence lookup failed for %s: %v", userID, err)
			continue
		}
		result[userID] = online
	}
	r.hub.SendEnvelope(senderID, TypePresenceUpdate, PresenceUpdateData{Presence: result})
}

func (r *Router) storeLocation(ctx context.Context, senderID string, envelope Envelope) {
	var data LocationUpdateData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		r.hub.SendEnvelope(senderID, TypeError, ErrorData{Message: "invalid location"})
		return
	}
	loc := presence.Location{Lat: data.Location.Lat, Lng: data.Location.Lng}
	if err := r.presence.SetLocation(ctx, senderID, loc); err != nil {
		log.Printf("location store failed for %s: %v", senderID, err)
	}
}

// nearbyUsers answers with online users within max_distance of the sender,
// closest first. A sender with no stored location gets no reply.
func (r *Router) nearbyUsers(ctx context.Context, senderID string, envelope Envelope) {
	var data NearbyQueryData
	_ = json.Unmarshal(envelope.Data, &data)
	maxDistance := data.MaxDistanceKM
	if maxDistance <= 0 {
		maxDistance = defaultNearbyDistanceKM
	}

	origin, ok, err := r.presence.GetLocation(ctx, senderID)
	if err != nil || !ok {
		return
	}

	online, err := r.presence.OnlineUsers(ctx)
	if err != nil {
		log.Printf("online users lookup failed: %v", err)
		return
	}

	type candidate struct {
		id       string
		distance float64
	}
	var nearby []candidate
	for _, userID := range online {
		if userID == senderID {
			continue
		}
		loc, ok, err := r.presence.GetLocation(ctx, userID)
		if err != nil || !ok {
			continue
		}
		if d := origin.DistanceKM(loc); d <= maxDistance {
			nearby = append(nearby, candidate{id: userID, distance: d})
		}
	}
	sort.Slice(nearby, func(i, j int) bool { return nearby[i].distance < nearby[j].distance })
	if len(nearby) > maxNearbyResults {
		nearby = nearby[:maxNearbyResults]
	}

	ids := make([]string, len(nearby))
	for i, cand := range nearby {
		ids[i] = cand.id
	}
	profiles, err := r.users.GetByIDs(ctx, ids)
	if err != nil {
		log.Printf("nearby profile lookup failed: %v", err)
		return
	}
	byID := make(map[string]models.User, len(profiles))
	for _, user := range profiles {
		byID[user.ID] = user
	}

	users := make([]NearbyUser, 0, len(nearby))
	for _, cand := range nearby {
		user, ok := byID[cand.id]
		if !ok {
			continue
		}
		users = append(users, NearbyUser{
			UserID:          user.ID,
			Username:        user.Username,
			DisplayName:     user.DisplayName,
			ProfileImageURL: user.ProfileImageURL,
			DistanceKM:      cand.distance,
		})
	}
	r.hub.SendEnvelope(senderID, TypeNearbyUsers, NearbyUsersData{Users: users})
}
