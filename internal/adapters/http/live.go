package http

import (
	"fmt"
	"net/http"

	"github.com/dkeye/Ringcast/internal/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) startLive(c *gin.Context) {
	res, err := s.Orch.StartLive(c.Request.Context(), identityOf(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) endLive(c *gin.Context) {
	res, err := s.Orch.EndLive(c.Request.Context(), identityOf(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) hostToken(c *gin.Context) {
	res, ok, err := s.Orch.HostToken(identityOf(c))
	if !ok {
		abortWithError(c, fmt.Errorf("%w: you are not live", domain.ErrNotFound))
		return
	}
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) listLive(c *gin.Context) {
	sessions := s.Orch.ListLive()
	if sessions == nil {
		sessions = []domain.LiveSession{}
	}
	c.JSON(http.StatusOK, sessions)
}
