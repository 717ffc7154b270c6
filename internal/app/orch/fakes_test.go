package orch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/Ringcast/internal/app"
	"github.com/dkeye/Ringcast/internal/core"
	"github.com/dkeye/Ringcast/internal/domain"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {}

func (c *fakeConn) events(t *testing.T) []core.Envelope {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.Envelope, 0, len(c.frames))
	for _, f := range c.frames {
		var env core.Envelope
		require.NoError(t, json.Unmarshal(f, &env))
		out = append(out, env)
	}
	return out
}

func (c *fakeConn) types(t *testing.T) []string {
	var out []string
	for _, e := range c.events(t) {
		out = append(out, e.Type)
	}
	return out
}

type prefixVerifier struct{}

func (prefixVerifier) Verify(_ context.Context, credential string) (core.Claims, error) {
	id, ok := strings.CutPrefix(credential, "tok:")
	if !ok || id == "" {
		return core.Claims{}, fmt.Errorf("%w: bad token", domain.ErrUnauthenticated)
	}
	return core.Claims{Identity: domain.Identity(id)}, nil
}

type fakeDirectory struct {
	mu      sync.Mutex
	users   map[domain.UserID]*domain.User
	cleared []domain.UserID
	err     error
}

func newFakeDirectory(users ...*domain.User) *fakeDirectory {
	d := &fakeDirectory{users: make(map[domain.UserID]*domain.User)}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

func (d *fakeDirectory) FindByIdentity(_ context.Context, id domain.Identity) (*domain.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	for _, u := range d.users {
		if u.Identity == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (d *fakeDirectory) FindByID(_ context.Context, id domain.UserID) (*domain.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	if u, ok := d.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (d *fakeDirectory) SetPushToken(_ context.Context, id domain.Identity, token string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range d.users {
		if u.Identity == id {
			u.PushToken = token
			return nil
		}
	}
	return fmt.Errorf("%w: user", domain.ErrNotFound)
}

func (d *fakeDirectory) ClearPushToken(_ context.Context, id domain.UserID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cleared = append(d.cleared, id)
	if u, ok := d.users[id]; ok {
		u.PushToken = ""
	}
	return nil
}

func (d *fakeDirectory) pushToken(id domain.UserID) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.users[id].PushToken
}

type fakeMedia struct {
	mu    sync.Mutex
	mints int
	err   error
}

func (m *fakeMedia) Mint(channel string, uid uint32, role core.MediaRole, ttl time.Duration) (core.MediaToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return core.MediaToken{}, m.err
	}
	m.mints++
	return core.MediaToken{
		Token:       fmt.Sprintf("media:%s:%d:%s", channel, uid, role),
		ChannelName: channel,
		UID:         uid,
		AppID:       "app",
		ExpiresIn:   int64(ttl.Seconds()),
	}, nil
}

func (m *fakeMedia) AppID() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	return "app", nil
}

func (m *fakeMedia) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mints
}

type sentPush struct {
	Token        string
	Data         map[string]string
	Notification *core.Notification
}

type fakePush struct {
	mu    sync.Mutex
	sent  []sentPush
	fails map[string]error
}

func (p *fakePush) SendToDevice(_ context.Context, token string, data map[string]string, n *core.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fails[token]; err != nil {
		return err
	}
	p.sent = append(p.sent, sentPush{Token: token, Data: data, Notification: n})
	return nil
}

func (p *fakePush) all() []sentPush {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]sentPush(nil), p.sent...)
}

type published struct {
	Topic        string
	Data         map[string]string
	Notification *core.Notification
}

type fakeTopics struct {
	mu   sync.Mutex
	sent []published
}

func (f *fakeTopics) PublishToTopic(_ context.Context, topic string, data map[string]string, n *core.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, published{Topic: topic, Data: data, Notification: n})
	return nil
}

func (f *fakeTopics) all() []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]published(nil), f.sent...)
}

var (
	alice = &domain.User{ID: "u-alice", Identity: "alice", DisplayName: "Alice", PushToken: "push-alice"}
	bob   = &domain.User{ID: "u-bob", Identity: "bob", DisplayName: "Bob", PushToken: "push-bob"}
	carol = &domain.User{ID: "u-carol", Identity: "carol"}
)

type harness struct {
	o      *Orchestrator
	clock  *fakeClock
	users  *fakeDirectory
	media  *fakeMedia
	push   *fakePush
	topics *fakeTopics
	conns  map[string]*fakeConn
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)}
	users := newFakeDirectory(
		&domain.User{ID: alice.ID, Identity: alice.Identity, DisplayName: alice.DisplayName, PushToken: alice.PushToken},
		&domain.User{ID: bob.ID, Identity: bob.Identity, DisplayName: bob.DisplayName, PushToken: bob.PushToken},
		&domain.User{ID: carol.ID, Identity: carol.Identity},
	)
	reg := app.NewRegistry(prefixVerifier{}, app.TolerantPolicy{})
	conns := map[string]*fakeConn{}
	for _, name := range []string{"alice", "bob", "carol", "anon"} {
		c := &fakeConn{}
		conns[name] = c
		cid := core.ConnectionID("conn-" + name)
		reg.Attach(cid, c)
		if name != "anon" {
			_, err := reg.Register(context.Background(), cid, "tok:"+name)
			require.NoError(t, err)
		}
	}
	tasks := app.NewDispatcher(2, 64, time.Second)
	t.Cleanup(tasks.Close)

	h := &harness{
		clock:  clock,
		users:  users,
		media:  &fakeMedia{},
		push:   &fakePush{fails: map[string]error{}},
		topics: &fakeTopics{},
		conns:  conns,
	}
	h.o = &Orchestrator{
		Registry: reg,
		Calls:    app.NewCallStore(time.Minute, 0, clock.Now),
		Live:     app.NewLiveStore(),
		Users:    users,
		Media:    h.media,
		Push:     h.push,
		Topics:   h.topics,
		Tasks:    tasks,
		TokenTTL: 30 * time.Minute,
		Clock:    clock.Now,
	}
	return h
}

func (h *harness) drain() { h.o.Tasks.Drain() }
