package middleware

import (
	"context"

	"slotswap-api/core/constants"
	"slotswap-api/core/controller"
	"slotswap-api/core/errors"
	"slotswap-api/core/logger"
	"slotswap-api/core/utils"

	"github.com/labstack/echo/v4"
)

// TokenVerifier resolves a bearer token to verified claims. Implemented by the
// auth service; the rest of the system trusts its output.
type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (*utils.TokenClaims, *errors.AppError)
}

type Middleware struct {
	verifier TokenVerifier
}

func NewMiddleware(verifier TokenVerifier) *Middleware {
	return &Middleware{verifier: verifier}
}

// AuthMiddleware authenticates the request and stores the token claims in the
// echo context under constants.ContextTokenData.
func (m *Middleware) AuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, appErr := utils.GetTokenFromHeader(c)
			if appErr != nil {
				return controller.NewErrorResponse(controller.HTTPStatusFor(appErr.Code), appErr.Code, appErr.Message)
			}

			claims, appErr := m.verifier.VerifyAccessToken(c.Request().Context(), token)
			if appErr != nil {
				logger.Warn("Middleware:AuthMiddleware:Rejected", "code", appErr.Code)
				return controller.NewErrorResponse(controller.HTTPStatusFor(appErr.Code), appErr.Code, appErr.Message)
			}

			c.Set(constants.ContextTokenData, claims)
			return next(c)
		}
	}
}
