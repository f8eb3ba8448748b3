package router

import (
	"slotswap-api/core/middleware"
	"slotswap-api/modules/swap/controller"

	"github.com/labstack/echo/v4"
)

type SwapRouter struct {
	controller *controller.SwapController
}

func NewSwapRouter(controller *controller.SwapController) *SwapRouter {
	return &SwapRouter{controller: controller}
}

func (r *SwapRouter) Register(e *echo.Group, mw *middleware.Middleware) {
	group := e.Group("/swaps", mw.AuthMiddleware())
	group.POST("", r.controller.ProposeSwap)
	group.POST("/:id/respond", r.controller.RespondToSwap)
	group.GET("/incoming", r.controller.GetIncoming)
	group.GET("/outgoing", r.controller.GetOutgoing)
}
