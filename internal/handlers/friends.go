package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/projecthub/backend/internal/middleware"
	"github.com/projecthub/backend/internal/services"
	"github.com/projecthub/backend/pkg/logger"
	"github.com/projecthub/backend/pkg/utils"
)

type FriendsHandler struct {
	Relationships *services.RelationshipService
	Activities    *services.ActivityService
}

func NewFriendsHandler(relationships *services.RelationshipService, activities *services.ActivityService) *FriendsHandler {
	return &FriendsHandler{Relationships: relationships, Activities: activities}
}

func (h *FriendsHandler) List(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	friends, err := h.Relationships.ListFriends(c.Context(), currentUser.ID)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing friends")
	}

	return utils.Success(c, fiber.StatusOK, friends)
}

func (h *FriendsHandler) ListRequests(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	requests, err := h.Relationships.ListPendingRequests(c.Context(), currentUser.ID)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing friend requests")
	}

	return utils.Success(c, fiber.StatusOK, requests)
}

func (h *FriendsHandler) SendRequest(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	targetID, err := parseUUID(c.Params("userId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	outcome, err := h.Relationships.SendRequest(c.Context(), currentUser.ID, targetID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSelfRequest):
			return utils.Error(c, fiber.StatusBadRequest, "cannot send a friend request to yourself")
		case errors.Is(err, services.ErrUserNotFound):
			return utils.Error(c, fiber.StatusNotFound, "user not found")
		case errors.Is(err, services.ErrAlreadyFriends):
			return utils.Error(c, fiber.StatusConflict, "already friends")
		case errors.Is(err, services.ErrDuplicateRequest):
			return utils.Error(c, fiber.StatusConflict, "friend request already pending")
		default:
			return utils.Error(c, fiber.StatusInternalServerError, "failed sending friend request")
		}
	}

	logger.InfoWithUser(currentUser.ID.String(), "friend_request_sent", map[string]interface{}{
		"target_user_id": targetID.String(),
		"outcome":        outcome.Status,
	})

	if outcome.Status == services.OutcomeBecameFriends {
		h.Activities.RecordAsync(services.ActivityEntry{
			UserID:       targetID,
			ActorID:      currentUser.ID,
			Action:       "friend.accepted",
			ResourceType: "user",
			ResourceName: currentUser.Username,
			Message:      currentUser.Username + " is now your friend",
		})
	} else {
		h.Activities.RecordAsync(services.ActivityEntry{
			UserID:       targetID,
			ActorID:      currentUser.ID,
			Action:       "friend.requested",
			ResourceType: "user",
			ResourceName: currentUser.Username,
			Message:      currentUser.Username + " sent you a friend request",
		})
	}

	return utils.Success(c, fiber.StatusCreated, outcome)
}

type resolveRequestBody struct {
	Action string `json:"action"`
}

func (h *FriendsHandler) ResolveRequest(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	requestID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request id")
	}

	var body resolveRequestBody
	if err := c.BodyParser(&body); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	action := services.ResolveAction(body.Action)
	if action != services.ResolveAccept && action != services.ResolveReject {
		return utils.Error(c, fiber.StatusBadRequest, "action must be accept or reject")
	}

	request, err := h.Relationships.ResolveRequest(c.Context(), currentUser.ID, requestID, action)
	if err != nil {
		if errors.Is(err, services.ErrRequestNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "friend request not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed resolving friend request")
	}

	logger.InfoWithUser(currentUser.ID.String(), "friend_request_resolved", map[string]interface{}{
		"request_id": requestID.String(),
		"action":     string(action),
	})

	if action == services.ResolveAccept {
		h.Activities.RecordAsync(services.ActivityEntry{
			UserID:       request.SenderID,
			ActorID:      currentUser.ID,
			Action:       "friend.accepted",
			ResourceType: "user",
			ResourceName: currentUser.Username,
			Message:      currentUser.Username + " accepted your friend request",
		})
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"action": string(action), "request": request})
}

func (h *FriendsHandler) Remove(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	friendID, err := parseUUID(c.Params("userId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	// Removal of a missing edge succeeds silently.
	if err := h.Relationships.RemoveFriend(c.Context(), currentUser.ID, friendID); err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed removing friend")
	}

	logger.InfoWithUser(currentUser.ID.String(), "friend_removed", map[string]interface{}{
		"friend_id": friendID.String(),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"removed": true})
}
