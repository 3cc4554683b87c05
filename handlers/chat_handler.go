package handlers

import (
	"net/http"

	"akut-backend/models"
	"akut-backend/service"

	"github.com/gin-gonic/gin"
)

// ChatHandler handles HTTP requests for the assistant chat
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// ChatRequest represents the body of POST /api/chat. "history" is accepted
// in place of "messages"; "message" is appended as a user turn.
type ChatRequest struct {
	Messages []models.Message `json:"messages"`
	History  []models.Message `json:"history"`
	Message  interface{}      `json:"message"`
	Slug     interface{}      `json:"slug"`
	Context  interface{}      `json:"context"`
}

// Chat handles POST /api/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
		return
	}

	messages := req.Messages
	if len(messages) == 0 {
		messages = req.History
	}

	result, err := h.chatService.Chat(c.Request.Context(), service.ChatRequest{
		Messages: messages,
		Message:  textValue(req.Message),
		Slug:     textValue(req.Slug),
		Context:  textValue(req.Context),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
