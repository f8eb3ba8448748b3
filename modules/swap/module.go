package swap

import (
	"slotswap-api/core/database"
	"slotswap-api/core/middleware"
	"slotswap-api/core/queue"
	slotRepository "slotswap-api/modules/slot/repository"
	"slotswap-api/modules/swap/controller"
	"slotswap-api/modules/swap/repository"
	"slotswap-api/modules/swap/router"
	"slotswap-api/modules/swap/service"

	"github.com/labstack/echo/v4"
)

// Init wires the swap module. The returned service also backs the
// periodic expiry task.
func Init(e *echo.Group, db database.IDatabase, mw *middleware.Middleware, slotRepo slotRepository.SlotRepositoryInterface, enqueuer queue.Enqueuer) *service.SwapService {
	repo := repository.NewSwapRepository(db)
	svc := service.NewSwapService(db, repo, slotRepo, enqueuer)
	ctrl := controller.NewSwapController(svc)

	router.NewSwapRouter(ctrl).Register(e, mw)

	return svc
}
