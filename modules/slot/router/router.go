package router

import (
	"slotswap-api/core/middleware"
	"slotswap-api/modules/slot/controller"

	"github.com/labstack/echo/v4"
)

type SlotRouter struct {
	controller *controller.SlotController
}

func NewSlotRouter(controller *controller.SlotController) *SlotRouter {
	return &SlotRouter{controller: controller}
}

func (r *SlotRouter) Register(e *echo.Group, mw *middleware.Middleware) {
	slots := e.Group("/slots", mw.AuthMiddleware())
	slots.POST("", r.controller.CreateSlot)
	slots.GET("", r.controller.GetMySlots)
	slots.PUT("/:id", r.controller.UpdateSlot)
	slots.DELETE("/:id", r.controller.DeleteSlot)
	slots.PATCH("/:id/status", r.controller.UpdateStatus)

	e.GET("/marketplace", r.controller.GetMarketplace, mw.AuthMiddleware())
}
