package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stream-chat-service/internal/models"
	"stream-chat-service/internal/repositories"
	"stream-chat-service/internal/spam"
)

const logPageSize = 100

// ModerationHandler serves the moderation dashboard surface.
type ModerationHandler struct {
	users      repositories.UserRepository
	moderation repositories.ModerationRepository
	blocklist  spam.Blocklist
}

// NewModerationHandler builds a ModerationHandler.
func NewModerationHandler(users repositories.UserRepository, moderation repositories.ModerationRepository, blocklist spam.Blocklist) *ModerationHandler {
	return &ModerationHandler{users: users, moderation: moderation, blocklist: blocklist}
}

// GetStats returns aggregate moderation counters.
func (h *ModerationHandler) GetStats(c *gin.Context) {
	blocked, err := h.users.CountBlocked(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}
	logs, err := h.moderation.CountLogs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}

	c.JSON(http.StatusOK, models.ModerationStats{TotalBlocked: blocked, TotalLogs: logs})
}

// GetLogs returns recent enforcement entries, newest first.
func (h *ModerationHandler) GetLogs(c *gin.Context) {
	logs, err := h.moderation.ListLogs(c.Request.Context(), logPageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// Unblock clears both the persistent and the ephemeral block flag for a
// user. This is the moderator override for spam-guard enforcement.
func (h *ModerationHandler) Unblock(c *gin.Context) {
	userID := c.Param("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if err := h.users.SetBlocked(c.Request.Context(), userID, false); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not unblock user"})
		return
	}
	if err := h.blocklist.Unblock(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not unblock user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "user unblocked successfully"})
}
