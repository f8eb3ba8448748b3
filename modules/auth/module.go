package auth

import (
	"slotswap-api/core/cache"
	"slotswap-api/core/database"
	"slotswap-api/core/middleware"
	"slotswap-api/modules/auth/controller"
	"slotswap-api/modules/auth/repository"
	"slotswap-api/modules/auth/router"
	"slotswap-api/modules/auth/service"

	"github.com/labstack/echo/v4"
)

// Init wires the auth module and returns the service so the caller can
// build the auth middleware on top of it.
func Init(e *echo.Group, db database.IDatabase, cache cache.Cache) (*service.AuthService, func(mw *middleware.Middleware)) {
	repo := repository.NewUserRepository(db)
	svc := service.NewAuthService(repo, cache)
	ctrl := controller.NewAuthController(svc)

	authRouter := router.NewAuthRouter(ctrl)
	register := func(mw *middleware.Middleware) {
		authRouter.Register(e, mw)
	}
	return svc, register
}
