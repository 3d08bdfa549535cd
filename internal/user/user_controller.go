package user

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	echo "github.com/labstack/echo/v4"
	"github.com/romashorodok/room-signaling/pkg/protocol"
	"go.uber.org/fx"
)

type userController struct {
	service  *UserService
	validate *validator.Validate
}

type userCreateRequest struct {
	Name string `json:"name" validate:"required"`
}

func (ctrl *userController) UserControllerCreate(ctx echo.Context) error {
	var request userCreateRequest
	if err := json.NewDecoder(ctx.Request().Body).Decode(&request); err != nil {
		return ctx.JSON(http.StatusBadRequest, protocol.ErrorResponse{Error: "cannot parse json"})
	}
	if err := ctrl.validate.Struct(&request); err != nil {
		return ctx.JSON(http.StatusBadRequest, protocol.ErrorResponse{Error: "name is required"})
	}

	return ctx.JSON(http.StatusCreated, ctrl.service.Create(request.Name))
}

func (ctrl *userController) UserControllerFind(ctx echo.Context) error {
	user, err := ctrl.service.Find(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusNotFound, protocol.ErrorResponse{Error: "user not found"})
	}
	return ctx.JSON(http.StatusOK, user)
}

func (ctrl *userController) Resolve(c *echo.Echo) error {
	c.POST("/api/users", ctrl.UserControllerCreate)
	c.GET("/api/users/:id", ctrl.UserControllerFind)
	return nil
}

var _ protocol.HttpResolvable = (*userController)(nil)

type newUserController_Params struct {
	fx.In

	Service *UserService
}

func NewUserController(params newUserController_Params) *userController {
	return &userController{
		service:  params.Service,
		validate: validator.New(),
	}
}
