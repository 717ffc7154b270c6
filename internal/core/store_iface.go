package core

import "github.com/dkeye/Ringcast/internal/domain"

// CallOfferStore owns in-flight call offers. Every method returns copies.
type CallOfferStore interface {
	Insert(offer domain.CallOffer) (domain.CallOffer, error)
	Get(callID string) (domain.CallOffer, bool)
	// Transition runs check and, if it passes, moves the offer to `to`
	// inside one critical section.
	Transition(callID string, to domain.CallStatus, check func(domain.CallOffer) error) (domain.CallOffer, error)
	Remove(callID string) bool
	PruneExpired() int
	Len() int
}

// LiveSessionStore owns active broadcasts, at most one per host.
type LiveSessionStore interface {
	Insert(session domain.LiveSession) error
	GetByHost(host domain.Identity) (domain.LiveSession, bool)
	// RemoveByHost removes the host's session; a non-empty sessionID must match.
	RemoveByHost(host domain.Identity, sessionID string) (domain.LiveSession, bool)
	List() []domain.LiveSession
}
