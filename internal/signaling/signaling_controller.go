package signaling

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	echo "github.com/labstack/echo/v4"
	"github.com/romashorodok/room-signaling/internal/room"
	"github.com/romashorodok/room-signaling/pkg/protocol"
	"github.com/romashorodok/room-signaling/pkg/wsutils"
	"go.uber.org/fx"
)

type signalingController struct {
	gateway  *Gateway
	hub      *BroadcastHub
	query    *room.RoomQueryService
	sessions protocol.SessionRegistry
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// SignalingControllerSignal owns one connection for its whole life: attach,
// read loop, disconnect cleanup. One goroutine per socket, the way the
// transport delivers events ordered per connection.
func (ctrl *signalingController) SignalingControllerSignal(ctx echo.Context) error {
	conn, err := ctrl.upgrader.Upgrade(ctx.Response().Writer, ctx.Request(), nil)
	if err != nil {
		ctrl.logger.Error(fmt.Sprintf("Unable upgrade request %+v", ctx.Request()))
		return err
	}

	w := wsutils.NewThreadSafeWriter(conn)
	defer w.Close()

	connectionID := uuid.NewString()
	ctrl.hub.Attach(connectionID, w)
	defer func() {
		ctrl.gateway.HandleDisconnect(connectionID)
		ctrl.hub.Detach(connectionID)
	}()

	message := &websocketMessage{}
	for {
		if err := w.ReadJSON(message); err != nil {
			// Transport closed or gave garbage frames: the disconnect
			// path above takes over.
			return nil
		}
		ctrl.dispatch(connectionID, message)
	}
}

func (ctrl *signalingController) dispatch(connectionID protocol.ConnectionID, message *websocketMessage) {
	defer func() {
		if r := recover(); r != nil {
			ctrl.logger.Error("signaling handler panic",
				slog.String("connectionId", connectionID),
				slog.String("event", message.Event),
				slog.Any("panic", r),
			)
			ctrl.hub.SendToConnection(connectionID, EventError, `{"message":"internal error"}`)
		}
	}()

	switch message.Event {
	case EventJoinRoom:
		ctrl.gateway.HandleJoin(connectionID, message.Data)
	case EventLeaveRoom:
		ctrl.gateway.HandleLeave(connectionID, message.Data)
	default:
		ctrl.hub.SendToConnection(connectionID, EventError, `{"message":"wrong message event"}`)
	}
}

type statsResponse struct {
	ActiveRooms       int   `json:"activeRooms"`
	ActiveSessions    int   `json:"activeSessions"`
	ActiveConnections int64 `json:"activeConnections"`
}

func (ctrl *signalingController) SignalingControllerStats(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, statsResponse{
		ActiveRooms:       len(ctrl.query.GetActiveRooms()),
		ActiveSessions:    ctrl.sessions.Count(),
		ActiveConnections: ctrl.hub.ActiveConnections(),
	})
}

func (ctrl *signalingController) Resolve(c *echo.Echo) error {
	c.GET("/ws", ctrl.SignalingControllerSignal)
	c.GET("/api/stats", ctrl.SignalingControllerStats)
	return nil
}

var _ protocol.HttpResolvable = (*signalingController)(nil)

type newSignalingController_Params struct {
	fx.In

	Gateway  *Gateway
	Hub      *BroadcastHub
	Query    *room.RoomQueryService
	Sessions protocol.SessionRegistry
	Logger   *slog.Logger
}

func NewSignalingController(params newSignalingController_Params) *signalingController {
	return &signalingController{
		gateway:  params.Gateway,
		hub:      params.Hub,
		query:    params.Query,
		sessions: params.Sessions,
		logger:   params.Logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}
