package room

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/google/uuid"
	echo "github.com/labstack/echo/v4"
	"github.com/romashorodok/room-signaling/pkg/protocol"
	"github.com/romashorodok/room-signaling/pkg/variables"
	"go.uber.org/fx"
)

type roomController struct {
	registry  protocol.RoomRegistry
	query     *RoomQueryService
	logger    *slog.Logger
	publicDir string
}

// RoomControllerIndex redirects the landing page to a fresh room id.
func (ctrl *roomController) RoomControllerIndex(ctx echo.Context) error {
	return ctx.Redirect(http.StatusFound, "/"+uuid.NewString())
}

// RoomControllerRoomPage serves the room page. Visiting an unseen room id
// creates the room, so a link can be shared before anyone joined.
func (ctrl *roomController) RoomControllerRoomPage(ctx echo.Context) error {
	roomID := ctx.Param("room")
	ctrl.registry.Create(roomID, protocol.RoomCreateOption{})
	return ctx.File(filepath.Join(ctrl.publicDir, "room.html"))
}

func (ctrl *roomController) RoomControllerRoomList(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, ctrl.query.GetActiveRooms())
}

func (ctrl *roomController) RoomControllerRoomInfo(ctx echo.Context) error {
	roomID := ctx.Param("roomId")
	info, exist := ctrl.query.GetRoomInfo(roomID)
	if !exist {
		return ctx.JSON(http.StatusNotFound, protocol.ErrorResponse{Error: "Room not found"})
	}
	return ctx.JSON(http.StatusOK, info)
}

type roomCreateRequest struct {
	RoomID          *string `json:"roomId"`
	MaxParticipants int     `json:"maxParticipants"`
}

func NullableRoomID(roomID *string) string {
	if roomID != nil && *roomID != "" {
		return *roomID
	}
	return uuid.NewString()
}

func (ctrl *roomController) RoomControllerRoomCreate(ctx echo.Context) error {
	var request roomCreateRequest
	if err := json.NewDecoder(ctx.Request().Body).Decode(&request); err != nil {
		return ctx.JSON(http.StatusBadRequest, protocol.ErrorResponse{Error: "cannot parse json"})
	}

	state := ctrl.registry.Create(NullableRoomID(request.RoomID), protocol.RoomCreateOption{
		MaxParticipants: request.MaxParticipants,
	})
	ctrl.logger.Info("room created over api",
		slog.String("roomId", state.RoomID),
		slog.Int("maxParticipants", state.MaxParticipants),
	)
	return ctx.JSON(http.StatusCreated, state)
}

func (ctrl *roomController) Resolve(c *echo.Echo) error {
	c.GET("/api/rooms", ctrl.RoomControllerRoomList)
	c.POST("/api/rooms", ctrl.RoomControllerRoomCreate)
	c.GET("/api/rooms/:roomId", ctrl.RoomControllerRoomInfo)
	c.GET("/", ctrl.RoomControllerIndex)
	c.GET("/:room", ctrl.RoomControllerRoomPage)
	c.Static("/static", ctrl.publicDir)
	return nil
}

var _ protocol.HttpResolvable = (*roomController)(nil)

type newRoomController_Params struct {
	fx.In

	Registry protocol.RoomRegistry
	Query    *RoomQueryService
	Logger   *slog.Logger
}

func NewRoomController(params newRoomController_Params) *roomController {
	return &roomController{
		registry:  params.Registry,
		query:     params.Query,
		logger:    params.Logger,
		publicDir: variables.Env(variables.PUBLIC_DIR_NAME, variables.PUBLIC_DIR_DEFAULT),
	}
}
