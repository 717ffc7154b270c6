package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/dkeye/Ringcast/internal/core"
	"github.com/dkeye/Ringcast/internal/domain"
	"github.com/rs/zerolog/log"
)

type connEntry struct {
	conn     core.SignalConnection
	identity domain.Identity // empty until register succeeds
}

// Registry is the two-sided index identity <-> connections.
// It is the only place live connections are mapped to identities.
type Registry struct {
	mu         sync.RWMutex
	conns      map[core.ConnectionID]*connEntry
	byIdentity map[domain.Identity]map[core.ConnectionID]struct{}

	verifier core.IdentityVerifier
	policy   Policy
}

func NewRegistry(verifier core.IdentityVerifier, policy Policy) *Registry {
	if policy == nil {
		policy = SimplePolicy{}
	}
	return &Registry{
		conns:      make(map[core.ConnectionID]*connEntry),
		byIdentity: make(map[domain.Identity]map[core.ConnectionID]struct{}),
		verifier:   verifier,
		policy:     policy,
	}
}

// Attach records a freshly connected, not yet authenticated transport endpoint.
func (r *Registry) Attach(cid core.ConnectionID, conn core.SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[cid] = &connEntry{conn: conn}
	log.Info().Str("module", "app.registry").Str("cid", string(cid)).Msg("attached connection")
}

// Register verifies credential and binds the connection to the resulting identity.
// Re-registering with another identity moves the connection (last write wins).
func (r *Registry) Register(ctx context.Context, cid core.ConnectionID, credential string) (domain.Identity, error) {
	if credential == "" {
		return "", fmt.Errorf("%w: credential required", domain.ErrUnauthenticated)
	}
	claims, err := r.verifier.Verify(ctx, credential)
	if err != nil {
		log.Warn().Err(err).Str("module", "app.registry").Str("cid", string(cid)).Msg("register rejected")
		return "", err
	}
	identity := claims.Identity

	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.conns[cid]
	if !ok {
		return "", fmt.Errorf("%w: connection %s is gone", domain.ErrNotFound, cid)
	}
	if entry.identity != "" && entry.identity != identity {
		r.unbindLocked(cid, entry.identity)
		log.Info().Str("module", "app.registry").Str("cid", string(cid)).
			Str("from", string(entry.identity)).Str("to", string(identity)).Msg("rebinding connection")
	}
	entry.identity = identity
	set, ok := r.byIdentity[identity]
	if !ok {
		set = make(map[core.ConnectionID]struct{})
		r.byIdentity[identity] = set
	}
	set[cid] = struct{}{}
	log.Info().Str("module", "app.registry").Str("cid", string(cid)).Str("identity", string(identity)).
		Int("connections", len(set)).Msg("registered connection")
	return identity, nil
}

// Unregister drops the connection from both indexes. Unknown ids are a no-op.
func (r *Registry) Unregister(cid core.ConnectionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.conns[cid]
	if !ok {
		return
	}
	delete(r.conns, cid)
	if entry.identity != "" {
		r.unbindLocked(cid, entry.identity)
	}
	log.Info().Str("module", "app.registry").Str("cid", string(cid)).Str("identity", string(entry.identity)).Msg("unregistered connection")
}

func (r *Registry) unbindLocked(cid core.ConnectionID, identity domain.Identity) {
	set, ok := r.byIdentity[identity]
	if !ok {
		return
	}
	delete(set, cid)
	if len(set) == 0 {
		delete(r.byIdentity, identity)
	}
}

func (r *Registry) IdentityOf(cid core.ConnectionID) (domain.Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.conns[cid]
	if !ok || entry.identity == "" {
		return "", false
	}
	return entry.identity, true
}

func (r *Registry) ConnectionCount(identity domain.Identity) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byIdentity[identity])
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

type target struct {
	cid      core.ConnectionID
	identity domain.Identity
	conn     core.SignalConnection
}

// SendTo pushes an event to every connection of identity and returns the number
// of connections that accepted it. Zero connections is not an error.
func (r *Registry) SendTo(identity domain.Identity, event string, payload any) int {
	r.mu.RLock()
	set := r.byIdentity[identity]
	targets := make([]target, 0, len(set))
	for cid := range set {
		targets = append(targets, target{cid: cid, identity: identity, conn: r.conns[cid].conn})
	}
	r.mu.RUnlock()

	if len(targets) == 0 {
		log.Warn().Str("module", "app.registry").Str("identity", string(identity)).Str("event", event).
			Msg("no live connection for identity")
		return 0
	}
	return r.deliver(targets, event, payload)
}

// BroadcastAll pushes an event to every attached connection, registered or not.
func (r *Registry) BroadcastAll(event string, payload any) int {
	r.mu.RLock()
	targets := make([]target, 0, len(r.conns))
	for cid, e := range r.conns {
		targets = append(targets, target{cid: cid, identity: e.identity, conn: e.conn})
	}
	r.mu.RUnlock()
	return r.deliver(targets, event, payload)
}

func (r *Registry) deliver(targets []target, event string, payload any) int {
	frame, err := core.EncodeEvent(event, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "app.registry").Str("event", event).Msg("encode event")
		return 0
	}
	sent := 0
	for _, t := range targets {
		if err := t.conn.TrySend(frame); err != nil {
			r.onSendError(t, event, err)
			continue
		}
		sent++
	}
	log.Debug().Str("module", "app.registry").Str("event", event).Int("sent_to", sent).
		Int("dropped", len(targets)-sent).Msg("delivery result")
	return sent
}

func (r *Registry) onSendError(t target, event string, err error) {
	action := r.policy.OnBackPressure(t.cid, t.identity)
	log.Warn().Err(err).Str("module", "app.registry").Str("cid", string(t.cid)).
		Str("event", event).Int("action", int(action)).Msg("send failed")
	if action == Disconnect {
		// The transport unregisters itself once its read loop exits.
		t.conn.Close()
	}
}
