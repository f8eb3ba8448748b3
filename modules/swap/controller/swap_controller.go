package controller

import (
	"slotswap-api/core/constants"
	"slotswap-api/core/controller"
	"slotswap-api/core/errors"
	"slotswap-api/core/params"
	"slotswap-api/core/utils"
	"slotswap-api/modules/swap/dto"
	"slotswap-api/modules/swap/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type SwapController struct {
	service service.SwapServiceInterface
	controller.BaseController
}

func NewSwapController(service service.SwapServiceInterface) *SwapController {
	return &SwapController{
		service:        service,
		BaseController: controller.NewBaseController(),
	}
}

// ProposeSwap creates a pending swap request between two slots.
func (c *SwapController) ProposeSwap(ctx echo.Context) error {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized", nil)
	}

	req := new(dto.ProposeSwapRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body", nil)
	}
	if req.MySlotID == uuid.Nil || req.TheirSlotID == uuid.Nil {
		return c.BadRequest(errors.ErrInvalidInput, "my_slot_id and their_slot_id are required", nil)
	}

	swap, appErr := c.service.ProposeSwap(ctx.Request().Context(), userID, req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.CreatedResponse(ctx, swap, "Swap request created successfully")
}

// RespondToSwap accepts or rejects a pending swap request.
func (c *SwapController) RespondToSwap(ctx echo.Context) error {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized", nil)
	}

	requestID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid swap request id", nil)
	}

	req := new(dto.RespondSwapRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body", nil)
	}
	if req.Accept == nil {
		return c.BadRequest(errors.ErrInvalidInput, "accept is required", nil)
	}

	swap, appErr := c.service.RespondToSwap(ctx.Request().Context(), userID, requestID, *req.Accept)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, dto.RespondSwapResponse{ID: swap.ID, Status: string(swap.Status)}, "Swap request resolved successfully")
}

func (c *SwapController) GetIncoming(ctx echo.Context) error {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized", nil)
	}

	queryParams := params.NewQueryParams(ctx)
	result, appErr := c.service.GetIncoming(ctx.Request().Context(), userID, ctx.QueryParam("status"), *queryParams)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Incoming swap requests retrieved successfully")
}

func (c *SwapController) GetOutgoing(ctx echo.Context) error {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized", nil)
	}

	queryParams := params.NewQueryParams(ctx)
	result, appErr := c.service.GetOutgoing(ctx.Request().Context(), userID, ctx.QueryParam("status"), *queryParams)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Outgoing swap requests retrieved successfully")
}

func getUserIDFromContext(ctx echo.Context) (uuid.UUID, error) {
	tokenData := ctx.Get(constants.ContextTokenData)
	if tokenData == nil {
		return uuid.Nil, errors.NewAppError(errors.ErrUnauthorized, "User not authenticated", nil)
	}

	claims, ok := tokenData.(*utils.TokenClaims)
	if !ok {
		return uuid.Nil, errors.NewAppError(errors.ErrUnauthorized, "Invalid token data", nil)
	}

	return claims.UserID, nil
}
