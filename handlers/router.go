package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"channel-chat/config"
	"channel-chat/services"
	"channel-chat/ws"
)

type Deps struct {
	Config   *config.Config
	Auth     *services.AuthService
	Channels *services.ChannelService
	Messages *services.MessageService
	Hub      *ws.Hub
}

func NewRouter(d Deps) *gin.Engine {
	authH := NewAuthHandler(d.Auth)
	chanH := NewChannelHandler(d.Hub, d.Channels)
	msgH := NewMessageHandler(d.Messages)

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(), CORS(d.Config.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"timestamp":   time.Now().Format(time.RFC3339),
			"connections": d.Hub.ConnectionCount(),
		})
	})

	api := r.Group("/api")
	api.POST("/register", authH.Register)
	api.POST("/login", authH.Login)

	authed := api.Group("", RequireAuth(d.Auth))
	authed.GET("/me", authH.Me)
	authed.GET("/channels", chanH.List)
	authed.POST("/channels", chanH.Create)
	authed.GET("/channels/:id", chanH.Get)
	authed.POST("/channels/:id/join", chanH.Join)
	authed.POST("/channels/:id/leave", chanH.Leave)
	authed.GET("/channels/:id/members", chanH.Members)
	authed.DELETE("/channels/:id/members/:userId", chanH.RemoveMember)
	authed.GET("/channels/:id/messages", msgH.History)

	r.GET("/ws", RequireAuth(d.Auth), chanH.WS)
	return r
}
