package orch

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkeye/Ringcast/internal/core"
	"github.com/dkeye/Ringcast/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// errAlreadyResolved marks decline/cancel on a resolved offer, which is a no-op.
var errAlreadyResolved = errors.New("already resolved")

type incomingCallPayload struct {
	CallID      string          `json:"callId"`
	ChannelName string          `json:"channelName"`
	CallerID    domain.Identity `json:"callerId"`
	CallerName  string          `json:"callerName"`
}

type callAcceptedPayload struct {
	CallID      string `json:"callId"`
	ChannelName string `json:"channelName"`
}

type callResolvedPayload struct {
	CallID string `json:"callId"`
}

type AcceptResult struct {
	CallID string `json:"callId"`
	core.MediaToken
}

// CreateOffer rings callee on behalf of caller.
func (o *Orchestrator) CreateOffer(ctx context.Context, caller domain.Identity, callee domain.UserID) (domain.CallOffer, error) {
	o.Calls.PruneExpired()

	if caller == "" || callee == "" {
		return domain.CallOffer{}, fmt.Errorf("%w: caller and callee are required", domain.ErrInvalidRequest)
	}
	callerUser, err := o.Users.FindByIdentity(ctx, caller)
	if err != nil {
		return domain.CallOffer{}, fmt.Errorf("%w: lookup caller: %w", domain.ErrUnavailable, err)
	}
	if callerUser == nil {
		return domain.CallOffer{}, fmt.Errorf("%w: caller user not found", domain.ErrNotFound)
	}
	calleeUser, err := o.Users.FindByID(ctx, callee)
	if err != nil {
		return domain.CallOffer{}, fmt.Errorf("%w: lookup callee: %w", domain.ErrUnavailable, err)
	}
	if calleeUser == nil {
		return domain.CallOffer{}, fmt.Errorf("%w: callee user not found", domain.ErrNotFound)
	}
	if calleeUser.Identity == caller {
		return domain.CallOffer{}, fmt.Errorf("%w: cannot call yourself", domain.ErrInvalidRequest)
	}

	callID := uuid.NewString()
	offer, err := o.Calls.Insert(domain.CallOffer{
		CallID:            callID,
		ChannelName:       domain.CallChannelName(callID),
		CallerIdentity:    caller,
		CalleeIdentity:    calleeUser.Identity,
		CallerDisplayName: callerUser.Name(),
		CalleeDisplayName: calleeUser.Name(),
		Status:            domain.CallRinging,
	})
	if err != nil {
		return domain.CallOffer{}, err
	}
	log.Info().Str("module", "orch").Str("call_id", callID).Str("caller", string(caller)).
		Str("callee", string(offer.CalleeIdentity)).Msg("call offer created")

	// Data-only so the client's background handler can raise a full-screen call UI.
	o.pushToUser(calleeUser, map[string]string{
		"type":        EventIncomingCall,
		"callId":      offer.CallID,
		"channelName": offer.ChannelName,
		"callerId":    string(offer.CallerIdentity),
		"callerName":  offer.CallerDisplayName,
	}, nil)
	o.Registry.SendTo(offer.CalleeIdentity, EventIncomingCall, incomingCallPayload{
		CallID:      offer.CallID,
		ChannelName: offer.ChannelName,
		CallerID:    offer.CallerIdentity,
		CallerName:  offer.CallerDisplayName,
	})
	return offer, nil
}

// AcceptOffer commits the accept before minting so a retried accept sees InvalidState.
func (o *Orchestrator) AcceptOffer(ctx context.Context, callID string, callee domain.Identity) (AcceptResult, error) {
	offer, err := o.Calls.Transition(callID, domain.CallAccepted, func(cur domain.CallOffer) error {
		if cur.Status != domain.CallRinging {
			return fmt.Errorf("%w: call already %s", domain.ErrInvalidState, cur.Status)
		}
		if cur.CalleeIdentity != callee {
			return fmt.Errorf("%w: not the callee of this call", domain.ErrForbidden)
		}
		return nil
	})
	if err != nil {
		return AcceptResult{}, err
	}

	o.pushToIdentity(offer.CallerIdentity, map[string]string{
		"type":        EventCallAccepted,
		"callId":      offer.CallID,
		"channelName": offer.ChannelName,
	}, &core.Notification{
		Title: "Call accepted",
		Body:  offer.CalleeDisplayName + " accepted your call",
	})
	o.Registry.SendTo(offer.CallerIdentity, EventCallAccepted, callAcceptedPayload{
		CallID:      offer.CallID,
		ChannelName: offer.ChannelName,
	})

	tok, err := o.mint(offer.ChannelName, domain.SessionUID(callee), core.RolePublisher)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("call_id", callID).Msg("accepted call without media token")
		return AcceptResult{}, err
	}
	return AcceptResult{CallID: offer.CallID, MediaToken: tok}, nil
}

// DeclineOffer is tolerant: declining an already resolved offer succeeds silently.
func (o *Orchestrator) DeclineOffer(ctx context.Context, callID string, callee domain.Identity) error {
	offer, err := o.Calls.Transition(callID, domain.CallDeclined, func(cur domain.CallOffer) error {
		if cur.Status != domain.CallRinging {
			return errAlreadyResolved
		}
		if cur.CalleeIdentity != callee {
			return fmt.Errorf("%w: not the callee of this call", domain.ErrForbidden)
		}
		return nil
	})
	if errors.Is(err, errAlreadyResolved) {
		log.Debug().Str("module", "orch").Str("call_id", callID).Str("status", string(offer.Status)).Msg("decline ignored")
		return nil
	}
	if err != nil {
		return err
	}

	o.pushToIdentity(offer.CallerIdentity, map[string]string{
		"type":   EventCallDeclined,
		"callId": offer.CallID,
	}, &core.Notification{
		Title: "Call declined",
		Body:  offer.CalleeDisplayName + " declined your call",
	})
	o.Registry.SendTo(offer.CallerIdentity, EventCallDeclined, callResolvedPayload{CallID: offer.CallID})
	return nil
}

// CancelOffer mirrors DeclineOffer from the caller's side.
func (o *Orchestrator) CancelOffer(ctx context.Context, callID string, caller domain.Identity) error {
	offer, err := o.Calls.Transition(callID, domain.CallCancelled, func(cur domain.CallOffer) error {
		if cur.Status != domain.CallRinging {
			return errAlreadyResolved
		}
		if cur.CallerIdentity != caller {
			return fmt.Errorf("%w: not the caller of this call", domain.ErrForbidden)
		}
		return nil
	})
	if errors.Is(err, errAlreadyResolved) {
		log.Debug().Str("module", "orch").Str("call_id", callID).Str("status", string(offer.Status)).Msg("cancel ignored")
		return nil
	}
	if err != nil {
		return err
	}

	o.pushToIdentity(offer.CalleeIdentity, map[string]string{
		"type":   EventCallCancelled,
		"callId": offer.CallID,
	}, &core.Notification{
		Title: "Call cancelled",
		Body:  offer.CallerDisplayName + " cancelled the call",
	})
	o.Registry.SendTo(offer.CalleeIdentity, EventCallCancelled, callResolvedPayload{CallID: offer.CallID})
	return nil
}

func (o *Orchestrator) GetOffer(callID string) (domain.CallOffer, error) {
	offer, ok := o.Calls.Get(callID)
	if !ok {
		return domain.CallOffer{}, fmt.Errorf("%w: call offer not found or expired", domain.ErrNotFound)
	}
	return offer, nil
}
