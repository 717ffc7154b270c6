package http

import (
	"fmt"
	"math"
	"net/http"

	"github.com/dkeye/Ringcast/internal/core"
	"github.com/dkeye/Ringcast/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type createOfferRequest struct {
	CalleeUserID string `json:"calleeUserId" binding:"required"`
}

type createOfferResponse struct {
	CallID      string            `json:"callId"`
	ChannelName string            `json:"channelName"`
	Status      domain.CallStatus `json:"status"`
}

type offerView struct {
	CallID      string            `json:"callId"`
	ChannelName string            `json:"channelName"`
	Status      domain.CallStatus `json:"status"`
	CallerName  string            `json:"callerName"`
}

type tokenRequest struct {
	ChannelName string `json:"channelName" binding:"required"`
	UID         *int64 `json:"uid"`
	Role        string `json:"role" binding:"omitempty,oneof=publisher subscriber"`
}

func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		abortWithError(c, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err))
		return false
	}
	return true
}

func callIDParam(c *gin.Context) (string, bool) {
	id := c.Param("callId")
	if err := uuid.Validate(id); err != nil {
		abortWithError(c, fmt.Errorf("%w: call id must be a uuid", domain.ErrInvalidRequest))
		return "", false
	}
	return id, true
}

func (s *Server) createOffer(c *gin.Context) {
	var req createOfferRequest
	if !bindJSON(c, &req) {
		return
	}
	offer, err := s.Orch.CreateOffer(c.Request.Context(), identityOf(c), domain.UserID(req.CalleeUserID))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, createOfferResponse{
		CallID:      offer.CallID,
		ChannelName: offer.ChannelName,
		Status:      offer.Status,
	})
}

func (s *Server) getOffer(c *gin.Context) {
	callID, ok := callIDParam(c)
	if !ok {
		return
	}
	offer, err := s.Orch.GetOffer(callID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, offerView{
		CallID:      offer.CallID,
		ChannelName: offer.ChannelName,
		Status:      offer.Status,
		CallerName:  offer.CallerDisplayName,
	})
}

func (s *Server) acceptOffer(c *gin.Context) {
	callID, ok := callIDParam(c)
	if !ok {
		return
	}
	res, err := s.Orch.AcceptOffer(c.Request.Context(), callID, identityOf(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) declineOffer(c *gin.Context) {
	callID, ok := callIDParam(c)
	if !ok {
		return
	}
	if err := s.Orch.DeclineOffer(c.Request.Context(), callID, identityOf(c)); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": domain.CallDeclined})
}

func (s *Server) cancelOffer(c *gin.Context) {
	callID, ok := callIDParam(c)
	if !ok {
		return
	}
	if err := s.Orch.CancelOffer(c.Request.Context(), callID, identityOf(c)); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": domain.CallCancelled})
}

func (s *Server) mintToken(c *gin.Context) {
	var req tokenRequest
	if !bindJSON(c, &req) {
		return
	}
	var uid uint32
	if req.UID != nil {
		if *req.UID < 1 || *req.UID > math.MaxUint32 {
			abortWithError(c, fmt.Errorf("%w: uid must be in [1, 2^32-1]", domain.ErrInvalidRequest))
			return
		}
		uid = uint32(*req.UID)
	}
	tok, err := s.Orch.MintToken(identityOf(c), req.ChannelName, uid, core.MediaRole(req.Role))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tok)
}

func (s *Server) mediaConfig(c *gin.Context) {
	appID, err := s.Orch.MediaConfig()
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appId": appID})
}

func (s *Server) mediaStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.Orch.MediaStatus())
}
