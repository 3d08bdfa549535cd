package peer

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	echo "github.com/labstack/echo/v4"
	"github.com/romashorodok/room-signaling/pkg/protocol"
	"github.com/romashorodok/room-signaling/pkg/variables"
	"github.com/romashorodok/room-signaling/pkg/wsutils"
	"go.uber.org/fx"
)

type peerController struct {
	broker   *Broker
	upgrader websocket.Upgrader
	logger   *slog.Logger
	path     string
}

// PeerControllerConnect speaks the PeerJS client protocol: register under
// the requested id, confirm with OPEN, then relay until the socket dies.
func (ctrl *peerController) PeerControllerConnect(ctx echo.Context) error {
	conn, err := ctrl.upgrader.Upgrade(ctx.Response().Writer, ctx.Request(), nil)
	if err != nil {
		ctrl.logger.Error(fmt.Sprintf("Unable upgrade request %+v", ctx.Request()))
		return err
	}

	w := wsutils.NewThreadSafeWriter(conn)
	defer w.Close()

	id := ctx.QueryParam("id")
	if id == "" {
		id = uuid.NewString()
	}

	if err := ctrl.broker.Register(id, w); err != nil {
		w.WriteJSON(&brokerMessage{Type: msgIDTaken})
		return w.CloseWithMessage(websocket.ClosePolicyViolation, ErrPeerIDTaken.Error())
	}
	defer ctrl.broker.Deregister(id)

	if err := w.WriteJSON(&brokerMessage{Type: msgOpen}); err != nil {
		return nil
	}

	var message brokerMessage
	for {
		if err := w.ReadJSON(&message); err != nil {
			return nil
		}

		switch message.Type {
		case msgHeartbeat:
			continue
		case msgOffer, msgAnswer, msgCandidate, msgLeave:
			ctrl.broker.Relay(id, message)
		default:
			ctrl.logger.Debug("unknown peer message dropped",
				slog.String("peerId", id),
				slog.String("type", message.Type),
			)
		}
	}
}

func (ctrl *peerController) Resolve(c *echo.Echo) error {
	c.GET(ctrl.path, ctrl.PeerControllerConnect)
	return nil
}

var _ protocol.HttpResolvable = (*peerController)(nil)

type newPeerController_Params struct {
	fx.In

	Broker *Broker
	Logger *slog.Logger
}

func NewPeerController(params newPeerController_Params) *peerController {
	return &peerController{
		broker: params.Broker,
		logger: params.Logger,
		path:   variables.Env(variables.PEER_PATH_NAME, variables.PEER_PATH_DEFAULT),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}
