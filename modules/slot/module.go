package slot

import (
	"slotswap-api/core/database"
	"slotswap-api/core/middleware"
	"slotswap-api/modules/slot/controller"
	"slotswap-api/modules/slot/repository"
	"slotswap-api/modules/slot/router"
	"slotswap-api/modules/slot/service"

	"github.com/labstack/echo/v4"
)

// Init wires the slot module and returns the repository so the swap
// module can reuse its transactional primitives.
func Init(e *echo.Group, db database.IDatabase, mw *middleware.Middleware) *repository.SlotRepository {
	repo := repository.NewSlotRepository(db)
	svc := service.NewSlotService(repo)
	ctrl := controller.NewSlotController(svc)

	router.NewSlotRouter(ctrl).Register(e, mw)

	return repo
}
