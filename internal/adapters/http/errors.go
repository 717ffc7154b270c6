package http

import (
	"errors"
	"net/http"

	"github.com/dkeye/Ringcast/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

var statusByKind = []struct {
	err    error
	status int
}{
	{domain.ErrInvalidRequest, http.StatusBadRequest},
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrInvalidState, http.StatusConflict},
	{domain.ErrUnauthenticated, http.StatusUnauthorized},
	{domain.ErrUnavailable, http.StatusServiceUnavailable},
}

func statusOf(err error) int {
	for _, k := range statusByKind {
		if errors.Is(err, k.err) {
			return k.status
		}
	}
	return http.StatusInternalServerError
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func abortWithError(c *gin.Context, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("module", "adapters.http").Str("path", c.FullPath()).Msg("internal error")
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, errorBody{Error: domain.KindOf(err), Message: msg})
}
