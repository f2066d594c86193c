package main

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/thereayou/ephemeral-chat/internal/handlers"
)

func APIEndpoints(r *gin.Engine, roomH *handlers.RoomHandler, wsH *handlers.WebSocketHandler, healthH *handlers.HealthHandler) {
	r.GET("/health", healthH.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", wsH.HandleWebSocket)

	room := r.Group("/api/room")
	{
		room.POST("/create", roomH.CreateRoom)
		room.POST("/join", roomH.JoinRoom)
		room.POST("/leave", roomH.LeaveRoom)
		room.POST("/message", roomH.SendMessage)
		room.GET("/:roomId/messages", roomH.GetMessages)
		room.GET("/:roomId/users", roomH.GetMembers)
	}
}
