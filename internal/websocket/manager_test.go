package websocket

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type presenceCall struct {
	UserID uuid.UUID
	Online bool
}

// fakeStore records presence writes in order.
type fakeStore struct {
	mu    sync.Mutex
	calls []presenceCall
}

func (s *fakeStore) SetOnline(userID uuid.UUID, online bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, presenceCall{UserID: userID, Online: online})
	return nil
}

func (s *fakeStore) snapshot() []presenceCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]presenceCall, len(s.calls))
	copy(out, s.calls)
	return out
}

func newTestManager(heartbeat time.Duration) (*Manager, *fakeStore) {
	store := &fakeStore{}
	m := NewManager(store, heartbeat)
	go m.Run()
	return m, store
}

// statusPayload mirrors the userStatus payload shape.
type statusPayload struct {
	UserID uuid.UUID `json:"userId"`
	Online bool      `json:"online"`
}

func nextEnvelope(t *testing.T, ch chan []byte) Envelope {
	t.Helper()
	select {
	case raw, ok := <-ch:
		require.True(t, ok, "send channel closed while waiting for event")
		var env Envelope
		require.NoError(t, json.Unmarshal(raw, &env))
		return env
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
	return Envelope{}
}

func assertNoEnvelope(t *testing.T, ch chan []byte) {
	t.Helper()
	select {
	case raw, ok := <-ch:
		if ok {
			t.Fatalf("unexpected event: %s", raw)
		}
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRegisterReplacesExistingConnection(t *testing.T) {
	m, _ := newTestManager(time.Hour)

	userID := uuid.New()
	c1 := newClient(userID, nil)
	c2 := newClient(userID, nil)

	m.Register(c1)
	m.Register(c2)

	current, ok := m.Lookup(userID)
	require.True(t, ok)
	assert.Same(t, c2, current)

	// The evicted connection's send channel is closed.
	_, open := <-c1.Send
	assert.False(t, open)
}

func TestStaleUnregisterKeepsNewerConnection(t *testing.T) {
	m, store := newTestManager(time.Hour)

	userID := uuid.New()
	c1 := newClient(userID, nil)
	c2 := newClient(userID, nil)

	m.Register(c1)
	m.Register(c2)

	// c1's close handler fires late, after c2 already replaced it.
	m.Unregister(c1)
	time.Sleep(50 * time.Millisecond)

	current, ok := m.Lookup(userID)
	require.True(t, ok)
	assert.Same(t, c2, current)

	// No offline transition was persisted: the user never left.
	for _, call := range store.snapshot() {
		assert.True(t, call.Online)
	}
}

func TestPresenceTransitionsBroadcastOnce(t *testing.T) {
	m, store := newTestManager(time.Hour)

	observerID := uuid.New()
	observer := newClient(observerID, nil)
	m.Register(observer)

	userID := uuid.New()
	client := newClient(userID, nil)
	m.Register(client)

	env := nextEnvelope(t, observer.Send)
	require.Equal(t, EventUserStatus, env.Type)
	var status statusPayload
	require.NoError(t, json.Unmarshal(env.Payload, &status))
	assert.Equal(t, userID, status.UserID)
	assert.True(t, status.Online)

	m.Unregister(client)

	env = nextEnvelope(t, observer.Send)
	require.Equal(t, EventUserStatus, env.Type)
	require.NoError(t, json.Unmarshal(env.Payload, &status))
	assert.Equal(t, userID, status.UserID)
	assert.False(t, status.Online)

	// Exactly one event per transition, nothing else queued.
	assertNoEnvelope(t, observer.Send)

	calls := store.snapshot()
	require.Len(t, calls, 3) // observer online, user online, user offline
	assert.Equal(t, presenceCall{observerID, true}, calls[0])
	assert.Equal(t, presenceCall{userID, true}, calls[1])
	assert.Equal(t, presenceCall{userID, false}, calls[2])
}

func TestDuplicateLoginDoesNotRebroadcastPresence(t *testing.T) {
	m, store := newTestManager(time.Hour)

	observer := newClient(uuid.New(), nil)
	m.Register(observer)

	userID := uuid.New()
	m.Register(newClient(userID, nil))
	m.Register(newClient(userID, nil)) // tab reload: same user, new connection
	time.Sleep(50 * time.Millisecond)

	env := nextEnvelope(t, observer.Send)
	require.Equal(t, EventUserStatus, env.Type)
	assertNoEnvelope(t, observer.Send)

	// Still online, exactly one online write for the user.
	var userCalls []presenceCall
	for _, call := range store.snapshot() {
		if call.UserID == userID {
			userCalls = append(userCalls, call)
		}
	}
	require.Len(t, userCalls, 1)
	assert.True(t, userCalls[0].Online)
}

func TestSendToUserAbsentTargetIsDropped(t *testing.T) {
	m, _ := newTestManager(time.Hour)

	// Nobody connected: must not panic or error.
	m.SendToUser(uuid.New(), []byte(`{"type":"typing"}`))
}

func TestBroadcastSurvivesFullPeerBuffer(t *testing.T) {
	m, _ := newTestManager(time.Hour)

	healthy := newClient(uuid.New(), nil)
	stuck := newClient(uuid.New(), nil)
	stuck.Send = make(chan []byte) // unbuffered and never drained

	m.Register(healthy)
	m.Register(stuck)
	// Drain the presence event the healthy peer saw for "stuck".
	nextEnvelope(t, healthy.Send)

	payload := UserStatusEvent(uuid.New(), true)
	m.Broadcast(nil, payload)

	env := nextEnvelope(t, healthy.Send)
	assert.Equal(t, EventUserStatus, env.Type)
}

func TestHeartbeatEvictsSilentConnection(t *testing.T) {
	m, store := newTestManager(50 * time.Millisecond)

	userID := uuid.New()
	client := newClient(userID, nil)
	m.Register(client)

	// First sweep marks it pending, second finds it still pending.
	require.Eventually(t, func() bool {
		_, ok := m.Lookup(userID)
		return !ok
	}, time.Second, 10*time.Millisecond, "silent connection was not evicted")

	require.Eventually(t, func() bool {
		calls := store.snapshot()
		last := calls[len(calls)-1]
		return last.UserID == userID && !last.Online
	}, time.Second, 10*time.Millisecond, "offline transition was not persisted")
}

func TestHeartbeatAckKeepsConnectionAlive(t *testing.T) {
	m, _ := newTestManager(50 * time.Millisecond)

	userID := uuid.New()
	client := newClient(userID, nil)
	m.Register(client)

	// Simulate pongs arriving: keep clearing the pending flag.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				client.pending.Store(false)
			case <-done:
				return
			}
		}
	}()

	time.Sleep(300 * time.Millisecond)

	_, ok := m.Lookup(userID)
	assert.True(t, ok, "responsive connection must not be evicted")
}
