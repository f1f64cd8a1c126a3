package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/ngimbabet/predictions-backend/internal/admin"
	"github.com/ngimbabet/predictions-backend/internal/dto"
	"github.com/ngimbabet/predictions-backend/internal/livesync"
	"github.com/ngimbabet/predictions-backend/internal/middleware"
	"github.com/ngimbabet/predictions-backend/internal/models"
	"github.com/ngimbabet/predictions-backend/internal/store"
)

type AdminHandler struct {
	gateway *admin.Gateway
	users   *livesync.UserWatcher
}

func NewAdminHandler(gateway *admin.Gateway, users *livesync.UserWatcher) *AdminHandler {
	return &AdminHandler{gateway: gateway, users: users}
}

func (h *AdminHandler) CreatePrediction(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	var req dto.PredictionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	id, err := h.gateway.CreatePrediction(c.Context(), actor, req.Model())
	if err != nil {
		return adminError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.CreatedResponse{ID: id})
}

func (h *AdminHandler) UpdatePrediction(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	var req dto.PredictionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.gateway.UpdatePrediction(c.Context(), actor, c.Params("id"), req.Model()); err != nil {
		return adminError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Prediction updated"})
}

func (h *AdminHandler) SettlePrediction(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	var req dto.SettleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	var status models.Status
	switch req.Status {
	case "won", "Won":
		status = models.StatusWon
	case "lost", "Lost":
		status = models.StatusLost
	case "pending", "Pending":
		status = models.StatusPending
	default:
		return badRequest(c, "Status must be won, lost or pending")
	}

	if err := h.gateway.SettlePrediction(c.Context(), actor, c.Params("id"), status, req.Result); err != nil {
		return adminError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Prediction settled"})
}

func (h *AdminHandler) DeletePrediction(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	if err := h.gateway.DeletePrediction(c.Context(), actor, c.Params("id")); err != nil {
		return adminError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Prediction deleted"})
}

func (h *AdminHandler) SeedMatches(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	var req dto.SeedRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	batch := make([]models.Prediction, 0, len(req.Matches))
	for _, m := range req.Matches {
		batch = append(batch, m.Model())
	}

	created, err := h.gateway.SeedMatches(c.Context(), actor, batch)
	if err != nil {
		return adminError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SeedResponse{Created: created})
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users := h.users.Snapshot()
	return c.JSON(dto.UserListResponse{Users: users, Total: len(users)})
}

func (h *AdminHandler) SetSubscription(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	var req dto.SubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	err := h.gateway.SetUserSubscription(c.Context(), actor, c.Params("id"),
		models.Tier(req.Tier), models.Billing(req.Billing))
	if err != nil {
		return adminError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Subscription updated"})
}

func (h *AdminHandler) DeactivateUser(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	if err := h.gateway.DeactivateUser(c.Context(), actor, c.Params("id")); err != nil {
		return adminError(c, err)
	}
	return c.JSON(fiber.Map{"message": "User deactivated"})
}

func (h *AdminHandler) ReactivateUser(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	if err := h.gateway.ReactivateUser(c.Context(), actor, c.Params("id")); err != nil {
		return adminError(c, err)
	}
	return c.JSON(fiber.Map{"message": "User reactivated"})
}

func adminError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, admin.ErrNotAuthorized):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Admin access required",
		})
	case errors.Is(err, admin.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, store.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Not found",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: msg,
	})
}
