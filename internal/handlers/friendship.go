package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/healthtracker/healthtracker/internal/services"
	"github.com/healthtracker/healthtracker/pkg/logger"
)

type FriendshipHandler struct {
	friendshipService *services.FriendshipService
	logger            *logger.Logger
}

func NewFriendshipHandler(friendshipService *services.FriendshipService, logger *logger.Logger) *FriendshipHandler {
	return &FriendshipHandler{
		friendshipService: friendshipService,
		logger:            logger,
	}
}

func (h *FriendshipHandler) CreateFriendship(c *gin.Context) {
	var req services.CreateFriendshipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !actingAs(c, h.logger, req.UserID) {
		return
	}

	friendship, err := h.friendshipService.CreateFriendshipRequest(c.Request.Context(), req.UserID, req.FriendID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, friendship)
}

func (h *FriendshipHandler) GetFriendship(c *gin.Context) {
	id, ok := uintParam(c, "friendshipId")
	if !ok {
		return
	}

	friendship, err := h.friendshipService.GetFriendship(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, friendship)
}

func (h *FriendshipHandler) GetFriendshipByUsers(c *gin.Context) {
	userID, ok := uintParam(c, "userId")
	if !ok {
		return
	}
	friendID, ok := uintParam(c, "friendId")
	if !ok {
		return
	}

	friendship, err := h.friendshipService.GetFriendshipByUsersID(c.Request.Context(), userID, friendID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, friendship)
}

func (h *FriendshipHandler) GetFriends(c *gin.Context) {
	userID, ok := uintParam(c, "userId")
	if !ok {
		return
	}

	friends, err := h.friendshipService.GetFriendList(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, friends)
}

func (h *FriendshipHandler) GetFriendRequests(c *gin.Context) {
	userID, ok := uintParam(c, "userId")
	if !ok {
		return
	}

	requests, err := h.friendshipService.GetFriendshipRequestsForUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, requests)
}

// AcceptFriendship is called by :userId for the request :friendId sent.
func (h *FriendshipHandler) AcceptFriendship(c *gin.Context) {
	h.resolve(c, h.friendshipService.AcceptFriendship)
}

func (h *FriendshipHandler) DeclineFriendship(c *gin.Context) {
	h.resolve(c, h.friendshipService.DeclineFriendship)
}

func (h *FriendshipHandler) resolve(c *gin.Context, apply func(ctx context.Context, userID, friendID uint) error) {
	userID, ok := uintParam(c, "userId")
	if !ok {
		return
	}
	friendID, ok := uintParam(c, "friendId")
	if !ok {
		return
	}
	if !actingAs(c, h.logger, userID) {
		return
	}

	if err := apply(c.Request.Context(), userID, friendID); err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *FriendshipHandler) DeleteFriendship(c *gin.Context) {
	userID, ok := uintParam(c, "userId")
	if !ok {
		return
	}
	friendID, ok := uintParam(c, "friendId")
	if !ok {
		return
	}
	if !actingAs(c, h.logger, userID) {
		return
	}

	if err := h.friendshipService.DeleteFriendship(c.Request.Context(), userID, friendID); err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}
