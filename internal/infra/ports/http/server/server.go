package server

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/voicebridge/voicebridge/internal/application/config"
	"github.com/voicebridge/voicebridge/internal/infra/ports/http/handlers"
	"github.com/voicebridge/voicebridge/internal/infra/ports/http/middleware"
)

// New assembles the public HTTP surface: the auth and lobby REST API,
// the ICE config endpoint and the websocket entrypoint.
func New(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	roomHandler *handlers.RoomHandler,
	iceHandler *handlers.IceHandler,
	wsHandler *handlers.WebSocketHandler,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Recover())
	e.Use(middleware.SlogLogger())
	e.Use(middleware.PrometheusMiddleware())

	e.GET("/health", func(c echo.Context) error {
		return c.NoContent(200)
	})

	auth := e.Group("/api/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Lobby listing is public so that the landing page can render
	// without a session.
	e.GET("/api/rooms", roomHandler.ListRooms)

	api := e.Group("/api/v1", middleware.JWTAuthMiddleware(cfg.JWTSecret))
	api.GET("/me", authHandler.GetMe)
	api.GET("/history", authHandler.GetHistory)
	api.GET("/ice", iceHandler.IceServers)

	// Token is carried as a query param here; guests connect without one.
	e.GET("/ws", wsHandler.Handle)

	return e
}
