package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/healthtracker/healthtracker/internal/models"
	"github.com/healthtracker/healthtracker/internal/services"
	"github.com/healthtracker/healthtracker/pkg/logger"
)

// MessagePusher forwards stored messages to connected clients.
type MessagePusher interface {
	PushMessage(message *models.Message)
}

type ChatHandler struct {
	chatService *services.ChatService
	pusher      MessagePusher
	logger      *logger.Logger
}

// NewChatHandler accepts a nil pusher when no hub is running.
func NewChatHandler(chatService *services.ChatService, pusher MessagePusher, logger *logger.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		pusher:      pusher,
		logger:      logger,
	}
}

func (h *ChatHandler) CreateMessage(c *gin.Context) {
	var req services.CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !actingAs(c, h.logger, req.UserIDFrom) {
		return
	}

	message, err := h.chatService.CreateMessage(c.Request.Context(), &req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if h.pusher != nil {
		h.pusher.PushMessage(message)
	}

	c.JSON(http.StatusCreated, message)
}

func (h *ChatHandler) GetMessage(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	message, err := h.chatService.GetMessage(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, message)
}

// Conversation routes share the first wildcard with GET /messages/:id, so the
// sender arrives as :id.
func conversationParams(c *gin.Context) (uint, uint, bool) {
	from, ok := uintParam(c, "id")
	if !ok {
		return 0, 0, false
	}
	to, ok := uintParam(c, "to")
	if !ok {
		return 0, 0, false
	}
	return from, to, true
}

func (h *ChatHandler) GetMessages(c *gin.Context) {
	from, to, ok := conversationParams(c)
	if !ok {
		return
	}
	pageNr, pageSize, ok := pageQuery(c, "pageNr", "pageSize", 20)
	if !ok {
		return
	}

	messages, err := h.chatService.GetMessages(c.Request.Context(), from, to, pageNr, pageSize)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

func (h *ChatHandler) GetNumberOfNewMessages(c *gin.Context) {
	from, to, ok := conversationParams(c)
	if !ok {
		return
	}

	count, err := h.chatService.GetNumberOfNewMessages(c.Request.Context(), from, to)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, count)
}

// MarkMessagesRead is issued by the recipient, :to.
func (h *ChatHandler) MarkMessagesRead(c *gin.Context) {
	from, to, ok := conversationParams(c)
	if !ok {
		return
	}
	if !actingAs(c, h.logger, to) {
		return
	}

	if err := h.chatService.UpdateMessagesToReaded(c.Request.Context(), from, to); err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}
