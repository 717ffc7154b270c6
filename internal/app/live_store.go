package app

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"github.com/dkeye/Ringcast/internal/core"
	"github.com/dkeye/Ringcast/internal/domain"
	"github.com/rs/zerolog/log"
)

// LiveStore keeps active broadcasts keyed by host.
type LiveStore struct {
	mu     sync.RWMutex
	byHost map[domain.Identity]*domain.LiveSession
}

var _ core.LiveSessionStore = (*LiveStore)(nil)

func NewLiveStore() *LiveStore {
	return &LiveStore{byHost: make(map[domain.Identity]*domain.LiveSession)}
}

// Insert is the single check-and-write for the one-session-per-host rule.
func (s *LiveStore) Insert(session domain.LiveSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byHost[session.HostIdentity]; ok {
		return fmt.Errorf("%w: already live, end the current stream first", domain.ErrInvalidState)
	}
	s.byHost[session.HostIdentity] = &session
	log.Info().Str("module", "app.live").Str("session_id", session.SessionID).Str("host", string(session.HostIdentity)).Msg("session stored")
	return nil
}

func (s *LiveStore) GetByHost(host domain.Identity) (domain.LiveSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ls, ok := s.byHost[host]
	if !ok {
		return domain.LiveSession{}, false
	}
	return *ls, true
}

func (s *LiveStore) RemoveByHost(host domain.Identity, sessionID string) (domain.LiveSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ls, ok := s.byHost[host]
	if !ok || (sessionID != "" && ls.SessionID != sessionID) {
		return domain.LiveSession{}, false
	}
	delete(s.byHost, host)
	log.Info().Str("module", "app.live").Str("session_id", ls.SessionID).Str("host", string(host)).Msg("session removed")
	return *ls, true
}

// List returns a snapshot ordered by start time.
func (s *LiveStore) List() []domain.LiveSession {
	s.mu.RLock()
	out := make([]domain.LiveSession, 0, len(s.byHost))
	for _, ls := range s.byHost {
		out = append(out, *ls)
	}
	s.mu.RUnlock()
	slices.SortFunc(out, func(a, b domain.LiveSession) int {
		if c := a.StartedAt.Compare(b.StartedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.SessionID, b.SessionID)
	})
	return out
}
