package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/miochat-server/internal/config"
	"github.com/vovakirdan/miochat-server/internal/core"
)

// Hub is the part of the chat hub the transport depends on.
type Hub interface {
	RegisterClient(c *core.Client)
	UnregisterClient(c *core.Client)
	Roster(room string) []string
	History(room string) []core.Message
	Rooms() []core.RoomInfo
}

// NewServer builds an HTTP server with the WebSocket endpoint and read-only REST views.
// /ws is served by the mux directly: gin's writer refuses to hijack once the
// upgrade response has been written. A nil gatherer leaves /metrics unregistered.
func NewServer(hub Hub, cfg *config.Config, logger *zerolog.Logger, gatherer prometheus.Gatherer) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	rooms := NewRoomHandlers(hub, logger)
	api := router.Group("/api")
	api.GET("/rooms", rooms.List)
	api.GET("/rooms/:room/users", rooms.Users)
	api.GET("/rooms/:room/history", rooms.History)

	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(hub, cfg.Client.Buffer, logger))
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
