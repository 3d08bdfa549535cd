package main

import (
	"log/slog"

	"github.com/romashorodok/room-signaling/internal/coordinator"
	"github.com/romashorodok/room-signaling/internal/peer"
	"github.com/romashorodok/room-signaling/internal/room"
	"github.com/romashorodok/room-signaling/internal/session"
	"github.com/romashorodok/room-signaling/internal/signaling"
	"github.com/romashorodok/room-signaling/internal/user"
	"github.com/romashorodok/room-signaling/pkg/protocol"
	"github.com/romashorodok/room-signaling/pkg/service"
	"github.com/romashorodok/room-signaling/pkg/variables"
	"go.uber.org/fx"
)

type createDefaultRoom_Params struct {
	fx.In

	Rooms  protocol.RoomRegistry
	Logger *slog.Logger
}

func CreateDefaultRoom(params createDefaultRoom_Params) {
	roomID := variables.Env(variables.DEFAULT_ROOM_NAME, variables.DEFAULT_ROOM_DEFAULT)
	if roomID == "" {
		return
	}
	state := params.Rooms.Create(roomID, protocol.RoomCreateOption{})
	params.Logger.Info("default room created", slog.String("roomId", state.RoomID))
}

func main() {
	fx.New(
		fx.Provide(
			room.NewRoomRegistry,
			room.NewRoomQueryService,
			session.NewSessionRegistry,
			coordinator.NewParticipantCoordinator,

			signaling.NewBroadcastHub,
			signaling.AsBroadcaster,
			signaling.NewGateway,

			user.NewUserService,
			peer.NewPeerBroker,

			protocol.AsHttpController(room.NewRoomController),
			protocol.AsHttpController(signaling.NewSignalingController),
			protocol.AsHttpController(user.NewUserController),
			protocol.AsHttpController(peer.NewPeerController),
		),

		fx.Module("default-room",
			fx.Invoke(CreateDefaultRoom),
		),

		service.LoggerModule,
		service.HttpModule,
	).Run()
}
