package routes

import (
	"github.com/gin-gonic/gin"

	"relay-service/internal/api/middleware"
	"relay-service/internal/transport"
)

type Router struct {
	engine    *gin.Engine
	wsHandler *transport.WSHandler
}

func NewRouter(hub *transport.Hub) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	// Add middlewares
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS())
	engine.Use(middleware.RequestLog())

	return &Router{
		engine:    engine,
		wsHandler: transport.NewWSHandler(hub),
	}
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "message": "relay gateway live (no message persistence)"})
	})

	r.engine.GET("/ws", r.wsHandler.HandleWebSocket)
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
