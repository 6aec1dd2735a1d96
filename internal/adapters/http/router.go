package http

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/cowatch/internal/adapters/relay"
	"github.com/dkeye/cowatch/internal/config"
)

func genClientToken() string {
	idStr := uuid.NewString()
	return idStr
}

// ClientTokenMiddleware issues an opaque per-browser token. It stands in
// for the external identity provider on the room CRUD surface; the relay
// itself never reads it.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, relayCtl *relay.Controller, rooms *RoomsController) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("CowatchSessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	// Trailing slash matches the client's room URL verbatim.
	r.GET("/ws/room/:code/", func(c *gin.Context) {
		relayCtl.HandleRoom(ctx, c)
	})

	api := r.Group("/api")
	api.POST("/rooms/", rooms.Create)
	api.GET("/rooms/", rooms.List)
	api.GET("/rooms/:code/", rooms.Get)
	api.DELETE("/rooms/:code/", rooms.Delete)
	api.POST("/rooms/join/", rooms.JoinByCode)

	return r
}
