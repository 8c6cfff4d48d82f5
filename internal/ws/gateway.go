package ws

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"paircall-service/internal/auth"
	"paircall-service/internal/models"
	"paircall-service/internal/observability"
	"paircall-service/internal/presence"
	"paircall-service/internal/repositories"
)

// Gateway upgrades authenticated HTTP requests into realtime connections and
// runs their read/write pumps.
type Gateway struct {
	hub      *Hub
	router   *Router
	tokens   *auth.TokenManager
	presence *presence.Store
	users    repositories.UserRepository
}

// NewGateway constructs a Gateway.
func NewGateway(hub *Hub, router *Router, tokens *auth.TokenManager, presenceStore *presence.Store, users repositories.UserRepository) *Gateway {
	return &Gateway{hub: hub, router: router, tokens: tokens, presence: presenceStore, users: users}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handle authenticates the request, upgrades it and registers the client.
// A newer connection for the same user supersedes the older one.
func (g *Gateway) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("paircall-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := bearerToken(c)
	userID, err := g.tokens.ValidateAccessToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	traceID := span.SpanContext().TraceID().String()
	requestID := observability.RequestIDFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}

	client := NewClient(conn, info)
	if previous := g.hub.Register(client); previous != nil {
		previous.closeOnce()
	}

	if err := g.presence.SetOnline(ctx, userID); err == nil {
		_ = g.users.UpdateStatus(ctx, userID, models.StatusOnline)
	}

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	_ = observability.PublishEvent(ctx, "ws_events.gateway", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_connect",
		Payload:   lifecyclePayload(info, "ws_connect", 0, ""),
	}, observability.BuildHeaders(requestID, traceID))

	g.hub.SendEnvelope(userID, TypeConnectionEstablished, ConnectionEstablishedData{UserID: userID})

	go client.writePump()
	go g.run(client)
}

// run drives the read loop until the connection dies, then cleans up.
func (g *Gateway) run(client *Client) {
	info := client.info
	ctx := context.Background()

	err := client.readPump(func(raw []byte) {
		g.router.HandleInbound(ctx, client.userID, raw)
	})

	var closeReason string
	if err != nil {
		closeReason = err.Error()
		if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			observability.IncWSEvent("ws_error")
			_ = observability.PublishEvent(ctx, "ws_events.gateway", observability.EventEnvelope{
				EventType: "ws_events",
				EventName: "ws_error",
				Payload:   lifecyclePayload(info, "ws_error", time.Since(info.ConnectedAt).Milliseconds(), closeReason),
			}, observability.BuildHeaders(info.RequestID, info.TraceID))
		}
	}

	g.hub.Unregister(client)
	client.closeOnce()

	// The user may have reconnected already; only mark them offline if this
	// was their last connection.
	if !g.hub.IsConnected(client.userID) {
		if err := g.presence.SetOffline(ctx, client.userID); err == nil {
			_ = g.users.UpdateStatus(ctx, client.userID, models.StatusOffline)
		}
	}

	observability.DecWSActive()
	observability.IncWSEvent("ws_disconnect")
	_ = observability.PublishEvent(ctx, "ws_events.gateway", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_disconnect",
		Payload:   lifecyclePayload(info, "ws_disconnect", time.Since(info.ConnectedAt).Milliseconds(), closeReason),
	}, observability.BuildHeaders(info.RequestID, info.TraceID))
}

func lifecyclePayload(info ConnInfo, event string, durationMs int64, reason string) map[string]interface{} {
	return map[string]interface{}{
		"ws": map[string]interface{}{
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": durationMs,
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}
	return c.Query("token")
}
