package server

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/qrave1/anonspeak/internal/application/config"
	"github.com/qrave1/anonspeak/internal/infra/ports/http/handlers"
	"github.com/qrave1/anonspeak/internal/infra/ports/http/middleware"
)

func New(
	cfg *config.Config,
	roomHandler *handlers.RoomHandler,
	iceHandler *handlers.IceHandler,
	wsHandler *handlers.WebSocketHandler,
	adminHandler *handlers.AdminHandler,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(middleware.SlogLogger())
	e.Use(middleware.PrometheusMiddleware())

	api := e.Group("/api")
	{
		api.GET("/ws", wsHandler.Handle)

		api.GET("/ice", iceHandler.IceServers)

		api.GET("/rooms", roomHandler.ListRooms)
		api.GET("/rooms/code/:code", roomHandler.RoomByCode)

		// Админка выключена без секрета
		if cfg.AdminSecret != "" {
			admin := api.Group("/admin", middleware.AdminAuthMiddleware(cfg.AdminSecret))
			{
				admin.GET("/stats", adminHandler.Stats)
				admin.GET("/rooms", adminHandler.ListRooms)
				admin.DELETE("/rooms/:id", adminHandler.EvictRoom)
			}
		}
	}

	e.GET("/join/:code", roomHandler.JoinPage)

	e.Static("/", cfg.StaticDir)

	return e
}
