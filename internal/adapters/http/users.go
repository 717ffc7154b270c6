package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/dkeye/Ringcast/internal/domain"
	"github.com/gin-gonic/gin"
)

// Profiles is the profile side of the user directory.
type Profiles interface {
	FindByIdentity(ctx context.Context, id domain.Identity) (*domain.User, error)
	Upsert(ctx context.Context, identity domain.Identity, displayName string) (*domain.User, error)
	ListExcept(ctx context.Context, identity domain.Identity) ([]domain.User, error)
}

type updateMeRequest struct {
	DisplayName string `json:"displayName" binding:"max=64"`
}

type pushTokenRequest struct {
	Token *string `json:"token"`
}

type userView struct {
	ID          domain.UserID `json:"id"`
	DisplayName string        `json:"displayName"`
}

func (s *Server) getMe(c *gin.Context) {
	u, err := s.Profiles.FindByIdentity(c.Request.Context(), identityOf(c))
	if err != nil {
		abortWithError(c, fmt.Errorf("%w: %w", domain.ErrUnavailable, err))
		return
	}
	if u == nil {
		abortWithError(c, fmt.Errorf("%w: profile not created yet", domain.ErrNotFound))
		return
	}
	c.JSON(http.StatusOK, u)
}

// updateMe creates the caller's profile on first use. An empty display name
// falls back to the name claim of the credential; with neither the request is rejected.
func (s *Server) updateMe(c *gin.Context) {
	var req updateMeRequest
	if !bindJSON(c, &req) {
		return
	}
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		name, _ = claimsOf(c).Extra["name"].(string)
	}
	if strings.TrimSpace(name) == "" {
		abortWithError(c, fmt.Errorf("%w: display name is required", domain.ErrInvalidRequest))
		return
	}
	u, err := s.Profiles.Upsert(c.Request.Context(), identityOf(c), name)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) setPushToken(c *gin.Context) {
	var req pushTokenRequest
	if !bindJSON(c, &req) {
		return
	}
	token := ""
	if req.Token != nil {
		token = *req.Token
	}
	if err := s.Orch.SetPushToken(c.Request.Context(), identityOf(c), token); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) listUsers(c *gin.Context) {
	users, err := s.Profiles.ListExcept(c.Request.Context(), identityOf(c))
	if err != nil {
		abortWithError(c, fmt.Errorf("%w: %w", domain.ErrUnavailable, err))
		return
	}
	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, userView{ID: u.ID, DisplayName: u.Name()})
	}
	c.JSON(http.StatusOK, out)
}
