package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"channel-chat/services"
	"channel-chat/ws"
)

type ChannelHandler struct {
	hub      *ws.Hub
	channels *services.ChannelService
}

func NewChannelHandler(h *ws.Hub, s *services.ChannelService) *ChannelHandler {
	return &ChannelHandler{hub: h, channels: s}
}

// List returns the caller's channels, or every channel with ?scope=all.
func (h *ChannelHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		channels interface{}
		err      error
	)
	if c.Query("scope") == "all" {
		channels, err = h.channels.ListChannels(ctx)
	} else {
		channels, err = h.channels.ListForUser(ctx, currentIdentity(c).UserID)
	}
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondWithSuccess(c, http.StatusOK, channels)
}

func (h *ChannelHandler) Create(c *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, fmt.Errorf("%w: channel name is required", services.ErrInvalidInput))
		return
	}

	ch, err := h.channels.CreateChannel(c.Request.Context(), currentIdentity(c).UserID, req.Name, req.Description)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondWithSuccess(c, http.StatusCreated, ch)
}

func (h *ChannelHandler) Get(c *gin.Context) {
	channelID, err := parseIDParam(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	ch, err := h.channels.GetChannel(c.Request.Context(), channelID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondWithSuccess(c, http.StatusOK, ch)
}

func (h *ChannelHandler) Join(c *gin.Context) {
	channelID, err := parseIDParam(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	userID := currentIdentity(c).UserID

	ch, joined, err := h.channels.JoinChannel(c.Request.Context(), channelID, userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if joined {
		h.hub.BroadcastToChannel(channelID, ws.MemberEvent{
			Type:      ws.EventMemberAdded,
			ChannelID: channelID,
			UserID:    userID,
		})
	}
	respondWithSuccess(c, http.StatusOK, ch)
}

func (h *ChannelHandler) Leave(c *gin.Context) {
	channelID, err := parseIDParam(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	if err := h.channels.LeaveChannel(c.Request.Context(), channelID, currentIdentity(c).UserID); err != nil {
		respondWithError(c, err)
		return
	}
	respondWithSuccess(c, http.StatusOK, gin.H{"channel_id": channelID})
}

func (h *ChannelHandler) Members(c *gin.Context) {
	channelID, err := parseIDParam(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	members, err := h.channels.ListMembers(c.Request.Context(), channelID, currentIdentity(c).UserID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondWithSuccess(c, http.StatusOK, gin.H{
		"members":      members,
		"online_count": h.hub.OnlineCount(channelID),
	})
}

// RemoveMember is the HTTP entry point of a kick.
func (h *ChannelHandler) RemoveMember(c *gin.Context) {
	channelID, err := parseIDParam(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	targetID, err := parseIDParam(c, "userId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.channels.RemoveMember(c.Request.Context(), channelID, currentIdentity(c).UserID, targetID); err != nil {
		respondWithError(c, err)
		return
	}
	respondWithSuccess(c, http.StatusOK, gin.H{"channel_id": channelID, "user_id": targetID})
}

// WS upgrades the connection. RequireAuth has already rejected bad tokens
// with a plain 401, before any upgrade.
func (h *ChannelHandler) WS(c *gin.Context) {
	identity := currentIdentity(c)
	logrus.WithFields(logrus.Fields{
		"component": "http",
		"user_id":   identity.UserID,
		"remote":    c.Request.RemoteAddr,
	}).Debug("websocket connection attempt")
	h.hub.ServeWS(c.Writer, c.Request, identity)
}
