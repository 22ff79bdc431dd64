package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"channel-chat/services"
)

type MessageHandler struct {
	svc *services.MessageService
}

func NewMessageHandler(s *services.MessageService) *MessageHandler {
	return &MessageHandler{svc: s}
}

// History serves GET /api/channels/:id/messages?limit=&offset=. A zero or
// missing limit falls back to the configured default.
func (h *MessageHandler) History(c *gin.Context) {
	channelID, err := parseIDParam(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	limit, err := parseIntQuery(c, "limit", 0)
	if err != nil {
		respondWithError(c, err)
		return
	}
	offset, err := parseIntQuery(c, "offset", 0)
	if err != nil {
		respondWithError(c, err)
		return
	}

	msgs, err := h.svc.History(c.Request.Context(), channelID, currentIdentity(c).UserID, limit, offset)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondWithSuccess(c, http.StatusOK, msgs)
}
