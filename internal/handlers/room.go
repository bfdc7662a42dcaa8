package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stream-chat-service/internal/chat"
	"stream-chat-service/internal/repositories"
)

// RoomHandler serves the read-only room surface.
type RoomHandler struct {
	messages repositories.MessageRepository
	streams  repositories.StreamRepository
}

// NewRoomHandler builds a RoomHandler.
func NewRoomHandler(messages repositories.MessageRepository, streams repositories.StreamRepository) *RoomHandler {
	return &RoomHandler{messages: messages, streams: streams}
}

// GetRoomMessages returns the last persisted messages for a room in
// ascending time order, for chat history on page load.
func (h *RoomHandler) GetRoomMessages(c *gin.Context) {
	roomID := c.Param("room_id")
	if roomID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	msgs, err := h.messages.GetRecentMessages(c.Request.Context(), roomID, chat.RecentMessagesLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// GetRoomStream reports a room's broadcast state, for players deciding
// whether to show the live badge and which playback URL to use.
func (h *RoomHandler) GetRoomStream(c *gin.Context) {
	roomID := c.Param("room_id")
	if roomID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	stream, err := h.streams.GetStream(c.Request.Context(), roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stream"})
		return
	}

	c.JSON(http.StatusOK, stream)
}
