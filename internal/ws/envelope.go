package ws

import "encoding/json"

// Envelope is the {type, data} wrapper used on the realtime channel.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Client-originated envelope types.
const (
	TypePing           = "ping"
	TypeTyping         = "typing"
	TypeMessage        = "message"
	TypeCallSignal     = "call_signal"
	TypeICECandidate   = "ice_candidate"
	TypePresenceQuery  = "presence_query"
	TypeLocationUpdate = "location_update"
	TypeGetNearbyUsers = "get_nearby_users"
)

// Server-originated envelope types.
const (
	TypeConnectionEstablished = "connection_established"
	TypePong                  = "pong"
	TypeError                 = "error"
	TypePresenceUpdate        = "presence_update"
	TypeNearbyUsers           = "nearby_users"
	TypeIncomingCall          = "incoming_call"
	TypeFriendRequest         = "friend_request"
	TypeFriendAccepted        = "friend_request_accepted"
	TypeFriendRejected        = "friend_request_rejected"
	TypeFriendRemoved         = "friend_removed"
)

// PingData carries an optional client timestamp echoed back in the pong.
type PingData struct {
	Timestamp int64 `json:"timestamp,omitempty"`
}

// TargetedData covers every envelope routed to a single peer.
type TargetedData struct {
	TargetUserID string `json:"target_user_id"`
	ReceiverID   string `json:"receiver_id"`
}

// Target returns whichever peer field the envelope carries.
func (d TargetedData) Target() string {
	if d.TargetUserID != "" {
		return d.TargetUserID
	}
	return d.ReceiverID
}

// PresenceQueryData asks for the online state of a set of users.
type PresenceQueryData struct {
	UserIDs []string `json:"user_ids"`
}

// PresenceUpdateData answers a presence query.
type PresenceUpdateData struct {
	Presence map[string]bool `json:"presence"`
}

// LocationUpdateData reports the client's position.
type LocationUpdateData struct {
	Location struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"location"`
}

// NearbyQueryData asks for online users within max_distance kilometers of
// the sender's last reported location.
type NearbyQueryData struct {
	MaxDistanceKM float64 `json:"max_distance"`
}

// NearbyUser is one match in a nearby_users reply.
type NearbyUser struct {
	UserID          string  `json:"user_id"`
	Username        string  `json:"username"`
	DisplayName     string  `json:"display_name"`
	ProfileImageURL string  `json:"profile_image_url,omitempty"`
	DistanceKM      float64 `json:"distance"`
}

// NearbyUsersData answers a get_nearby_users query, closest first.
type NearbyUsersData struct {
	Users []NearbyUser `json:"users"`
}

// ConnectionEstablishedData confirms a successful gateway handshake.
type ConnectionEstablishedData struct {
	UserID string `json:"user_id"`
}

// ErrorData carries a gateway-level error message.
type ErrorData struct {
	Message string `json:"message"`
}

// NewEnvelope marshals data into an envelope of the given type.
func NewEnvelope(envelopeType string, data interface{}) []byte {
	var raw json.RawMessage
	if data != nil {
		raw, _ = json.Marshal(data)
	}
	payload, _ := json.Marshal(Envelope{Type: envelopeType, Data: raw})
	return payload
}
