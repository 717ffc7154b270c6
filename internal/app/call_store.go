package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/dkeye/Ringcast/internal/core"
	"github.com/dkeye/Ringcast/internal/domain"
	"github.com/rs/zerolog/log"
)

const DefaultRingTTL = 60 * time.Second

// CallStore is a threadsafe in-memory table of call offers.
// Ringing offers expire after ringTTL; resolved offers are kept for
// terminalTTL after resolution (zero keeps them forever).
type CallStore struct {
	mu     sync.RWMutex
	offers map[string]*domain.CallOffer

	ringTTL     time.Duration
	terminalTTL time.Duration
	now         func() time.Time
}

var _ core.CallOfferStore = (*CallStore)(nil)

func NewCallStore(ringTTL, terminalTTL time.Duration, now func() time.Time) *CallStore {
	if ringTTL <= 0 {
		ringTTL = DefaultRingTTL
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &CallStore{
		offers:      make(map[string]*domain.CallOffer),
		ringTTL:     ringTTL,
		terminalTTL: terminalTTL,
		now:         now,
	}
}

func (s *CallStore) Insert(offer domain.CallOffer) (domain.CallOffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.offers[offer.CallID]; ok {
		return domain.CallOffer{}, fmt.Errorf("%w: call %s already exists", domain.ErrInvalidState, offer.CallID)
	}
	if offer.CreatedAt.IsZero() {
		offer.CreatedAt = s.now()
	}
	s.offers[offer.CallID] = &offer
	log.Info().Str("module", "app.calls").Str("call_id", offer.CallID).Str("status", string(offer.Status)).Msg("offer stored")
	return offer, nil
}

func (s *CallStore) Get(callID string) (domain.CallOffer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.offers[callID]
	if !ok {
		return domain.CallOffer{}, false
	}
	return *o, true
}

func (s *CallStore) Transition(
	callID string,
	to domain.CallStatus,
	check func(domain.CallOffer) error,
) (domain.CallOffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.offers[callID]
	if !ok {
		return domain.CallOffer{}, fmt.Errorf("%w: call offer not found or expired", domain.ErrNotFound)
	}
	if check != nil {
		if err := check(*o); err != nil {
			return *o, err
		}
	}
	if !o.Status.CanTransition(to) {
		return *o, fmt.Errorf("%w: call already %s", domain.ErrInvalidState, o.Status)
	}
	o.Status = to
	o.ResolvedAt = s.now()
	log.Info().Str("module", "app.calls").Str("call_id", callID).Str("status", string(to)).Msg("offer transitioned")
	return *o, nil
}

func (s *CallStore) Remove(callID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.offers[callID]
	delete(s.offers, callID)
	return ok
}

// PruneExpired drops unanswered offers older than the ringing TTL and
// resolved offers older than the terminal grace TTL.
func (s *CallStore) PruneExpired() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, o := range s.offers {
		if s.expired(o, now) {
			delete(s.offers, id)
			removed++
		}
	}
	if removed > 0 {
		log.Info().Str("module", "app.calls").Int("removed", removed).Int("remaining", len(s.offers)).Msg("pruned offers")
	}
	return removed
}

func (s *CallStore) expired(o *domain.CallOffer, now time.Time) bool {
	if o.Status == domain.CallRinging {
		return now.Sub(o.CreatedAt) > s.ringTTL
	}
	return s.terminalTTL > 0 && now.Sub(o.ResolvedAt) > s.terminalTTL
}

func (s *CallStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.offers)
}
