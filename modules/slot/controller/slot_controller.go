package controller

import (
	"slotswap-api/core/constants"
	"slotswap-api/core/controller"
	"slotswap-api/core/errors"
	"slotswap-api/core/params"
	"slotswap-api/core/utils"
	"slotswap-api/modules/slot/dto"
	"slotswap-api/modules/slot/entity"
	"slotswap-api/modules/slot/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type SlotController struct {
	service service.SlotServiceInterface
	controller.BaseController
}

func NewSlotController(service service.SlotServiceInterface) *SlotController {
	return &SlotController{
		service:        service,
		BaseController: controller.NewBaseController(),
	}
}

func (c *SlotController) CreateSlot(ctx echo.Context) error {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized", nil)
	}

	req := new(dto.CreateSlotRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body", nil)
	}
	if req.Title == "" || req.StartTime.IsZero() || req.EndTime.IsZero() {
		return c.BadRequest(errors.ErrInvalidInput, "Title, start_time and end_time are required", nil)
	}

	slot, appErr := c.service.CreateSlot(ctx.Request().Context(), userID, req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.CreatedResponse(ctx, slot, "Slot created successfully")
}

func (c *SlotController) GetMySlots(ctx echo.Context) error {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized", nil)
	}

	queryParams := params.NewQueryParams(ctx)
	result, appErr := c.service.GetMySlots(ctx.Request().Context(), userID, *queryParams)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Slots retrieved successfully")
}

func (c *SlotController) UpdateSlot(ctx echo.Context) error {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized", nil)
	}

	slotID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid slot id", nil)
	}

	req := new(dto.UpdateSlotRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body", nil)
	}

	slot, appErr := c.service.UpdateSlot(ctx.Request().Context(), userID, slotID, req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, slot, "Slot updated successfully")
}

func (c *SlotController) DeleteSlot(ctx echo.Context) error {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized", nil)
	}

	slotID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid slot id", nil)
	}

	if appErr := c.service.DeleteSlot(ctx.Request().Context(), userID, slotID); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, nil, "Slot deleted successfully")
}

// UpdateStatus toggles a slot between BUSY and SWAPPABLE.
func (c *SlotController) UpdateStatus(ctx echo.Context) error {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized", nil)
	}

	slotID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid slot id", nil)
	}

	req := new(dto.UpdateSlotStatusRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body", nil)
	}

	slot, appErr := c.service.UpdateStatus(ctx.Request().Context(), userID, slotID, entity.SlotStatus(req.Status))
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, slot, "Slot status updated successfully")
}

func (c *SlotController) GetMarketplace(ctx echo.Context) error {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized", nil)
	}

	queryParams := params.NewQueryParams(ctx)
	result, appErr := c.service.GetMarketplace(ctx.Request().Context(), userID, *queryParams)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Marketplace retrieved successfully")
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
