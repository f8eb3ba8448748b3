package controller

import (
	"slotswap-api/core/constants"
	"slotswap-api/core/controller"
	"slotswap-api/core/errors"
	"slotswap-api/core/utils"
	"slotswap-api/modules/auth/dto"
	"slotswap-api/modules/auth/service"

	"github.com/labstack/echo/v4"
)

type AuthController struct {
	service service.AuthServiceInterface
	controller.BaseController
}

func NewAuthController(service service.AuthServiceInterface) *AuthController {
	return &AuthController{
		service:        service,
		BaseController: controller.NewBaseController(),
	}
}

// Register creates a new account and returns tokens.
func (c *AuthController) Register(ctx echo.Context) error {
	req := new(dto.RegisterRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body", nil)
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return c.BadRequest(errors.ErrInvalidInput, "Email, password and name are required", nil)
	}
	if !utils.IsValidEmail(req.Email) {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid email address", nil)
	}
	if len(req.Password) < 8 {
		return c.BadRequest(errors.ErrInvalidInput, "Password must be at least 8 characters", nil)
	}

	result, appErr := c.service.Register(ctx.Request().Context(), req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.CreatedResponse(ctx, result, "Registered successfully")
}

// Login authenticates with email and password.
func (c *AuthController) Login(ctx echo.Context) error {
	req := new(dto.LoginRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body", nil)
	}
	if req.Email == "" || req.Password == "" {
		return c.BadRequest(errors.ErrInvalidInput, "Email and password are required", nil)
	}

	result, appErr := c.service.Login(ctx.Request().Context(), req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Logged in successfully")
}

// Logout revokes the current access token.
func (c *AuthController) Logout(ctx echo.Context) error {
	claims, ok := ctx.Get(constants.ContextTokenData).(*utils.TokenClaims)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized", nil)
	}

	if appErr := c.service.Logout(ctx.Request().Context(), claims); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, nil, "Logged out successfully")
}

// GetMe returns the authenticated user's profile.
func (c *AuthController) GetMe(ctx echo.Context) error {
	claims, ok := ctx.Get(constants.ContextTokenData).(*utils.TokenClaims)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized", nil)
	}

	result, appErr := c.service.GetUserByID(ctx.Request().Context(), claims.UserID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "User retrieved successfully")
}
