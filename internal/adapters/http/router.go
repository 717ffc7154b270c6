package http

import (
	"context"
	"net/http"

	"github.com/dkeye/Ringcast/internal/adapters/signal"
	"github.com/dkeye/Ringcast/internal/app/orch"
	"github.com/dkeye/Ringcast/internal/config"
	"github.com/dkeye/Ringcast/internal/core"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Server bundles what the REST handlers call into.
type Server struct {
	Orch     *orch.Orchestrator
	Verifier core.IdentityVerifier
	Profiles Profiles
	Signal   *signal.SignalWSController
}

func SetupRouter(ctx context.Context, cfg *config.Config, s *Server) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	api := r.Group("/api")
	api.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"connections": s.Orch.Registry.Len(),
			"media":       s.Orch.MediaStatus().Configured,
		})
	})
	api.GET("/ws/signal", func(c *gin.Context) {
		log.Debug().Str("module", "adapters.http").Str("remote", c.ClientIP()).Msg("ws signal endpoint hit")
		s.Signal.HandleSignal(ctx, c)
	})

	authed := api.Group("", BearerAuthMiddleware(s.Verifier))

	calls := authed.Group("/calls")
	calls.POST("/offer", s.createOffer)
	calls.GET("/offer/:callId", s.getOffer)
	calls.POST("/offer/:callId/accept", s.acceptOffer)
	calls.POST("/offer/:callId/decline", s.declineOffer)
	calls.POST("/offer/:callId/cancel", s.cancelOffer)
	calls.POST("/token", s.mintToken)
	calls.GET("/config", s.mediaConfig)
	calls.GET("/media-status", s.mediaStatus)

	live := authed.Group("/live")
	live.POST("/start", s.startLive)
	live.POST("/end", s.endLive)
	live.GET("/host-token", s.hostToken)
	live.GET("/sessions", s.listLive)

	authed.GET("/me", s.getMe)
	authed.PUT("/me", s.updateMe)
	authed.PUT("/me/push-token", s.setPushToken)
	authed.GET("/users", s.listUsers)

	log.Info().Str("module", "adapters.http").Str("mode", cfg.Mode).Msg("router setup")
	return r
}
