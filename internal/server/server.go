package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mkowalczyk/reactions-bot/internal/handler"
	"github.com/mkowalczyk/reactions-bot/internal/service"
)

// Server is the read-only admin surface: health plus the reporting queries
// as JSON. The bot itself talks to the chat platform, not to this server.
type Server struct {
	e *echo.Echo
}

func New(reports service.ReportService) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	reportHandler := handler.NewReportHandler(reports)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"ok": "true"})
	})

	api := e.Group("/api")
	api.GET("/chats/:id/ranking", reportHandler.GetRanking)
	api.GET("/chats/:id/top", reportHandler.GetTopMessages)

	return &Server{e: e}
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}
