package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/manish14071/rca-app/internal/logger"
)

var log = logger.New("websocket")

const defaultHeartbeatInterval = 30 * time.Second

// Manager is the connection registry: the single source of truth for
// which users are currently reachable and how. At most one live
// connection per user is held at any instant; registering a second one
// for the same user evicts the first. All registry mutations are
// serialized by Run.
type Manager struct {
	clients map[uuid.UUID]*Client
	mutex   sync.Mutex

	register   chan *Client
	unregister chan *Client

	presence *PresenceTracker

	// heartbeatInterval is the liveness probe period. A connection is
	// evicted after one full missed interval with no pong, so worst
	// case detection latency is twice this.
	heartbeatInterval time.Duration
}

// NewManager creates a registry whose presence transitions are
// persisted through store. A non-positive heartbeat falls back to 30s.
func NewManager(store PresenceStore, heartbeat time.Duration) *Manager {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeatInterval
	}
	m := &Manager{
		clients:           make(map[uuid.UUID]*Client),
		register:          make(chan *Client),
		unregister:        make(chan *Client),
		heartbeatInterval: heartbeat,
	}
	m.presence = &PresenceTracker{store: store, manager: m}
	return m
}

// Register installs the client as its user's one live connection.
func (m *Manager) Register(client *Client) {
	m.register <- client
}

// Unregister removes the client if it is still the registered
// connection for its user. A close handler firing after a newer
// connection replaced the entry is a no-op.
func (m *Manager) Unregister(client *Client) {
	m.unregister <- client
}

// Run drains registration traffic and drives the liveness monitor.
// Registry mutations only happen here, one at a time.
func (m *Manager) Run() {
	ticker := time.NewTicker(m.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case client := <-m.register:
			m.mutex.Lock()
			old, replacing := m.clients[client.ID]
			m.clients[client.ID] = client
			m.mutex.Unlock()

			if replacing {
				// Duplicate login: last writer wins, the previous
				// session is told to go away cleanly.
				evict(old, "duplicate session")
			}

			log.Infof("client connected: %s", client.ID)
			if !replacing {
				// The user was already online when replacing; only an
				// actual offline->online transition is announced.
				m.presence.MarkOnline(client.ID)
			}

		case client := <-m.unregister:
			m.mutex.Lock()
			current, ok := m.clients[client.ID]
			stale := !ok || current != client
			if !stale {
				delete(m.clients, client.ID)
				client.closeSend()
			}
			m.mutex.Unlock()

			if !stale {
				log.Infof("client disconnected: %s", client.ID)
				m.presence.MarkOffline(client.ID)
			}

		case <-ticker.C:
			m.sweep()
		}
	}
}

// sweep is the two-strike heartbeat: connections still pending from the
// previous probe are dead and reaped; the rest are probed again.
func (m *Manager) sweep() {
	m.mutex.Lock()
	var dead []*Client
	for _, client := range m.clients {
		if client.pending.Load() {
			dead = append(dead, client)
			continue
		}
		client.pending.Store(true)
		client.requestPing()
	}
	for _, client := range dead {
		delete(m.clients, client.ID)
	}
	m.mutex.Unlock()

	for _, client := range dead {
		evict(client, "heartbeat timeout")
		log.Warnf("client %s missed two heartbeats, evicted", client.ID)
		m.presence.MarkOffline(client.ID)
	}
}

// closeWait bounds how long evict spends pushing a close frame at a
// peer that may already be gone.
const closeWait = time.Second

// evict tears down a connection the registry no longer wants. Call it
// only after the client is out of the clients map and never while
// m.mutex is held: the control write can block until closeWait. The
// close frame carries a normal closure code so client-side reconnect
// logic does not fight the server over duplicate sessions.
func evict(client *Client, reason string) {
	if client.Socket != nil {
		deadline := time.Now().Add(closeWait)
		client.Socket.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason), deadline)
		client.Socket.Close()
	}
	client.closeSend()
}

// Lookup returns the live connection for a user, if any.
func (m *Manager) Lookup(userID uuid.UUID) (*Client, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	client, ok := m.clients[userID]
	return client, ok
}

// SendToUser pushes a payload to one user's connection, best-effort. An
// absent or unwritable target drops the payload silently; the
// counterpart will catch up on its next fetch.
func (m *Manager) SendToUser(userID uuid.UUID, payload []byte) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	client, ok := m.clients[userID]
	if !ok {
		log.Debugf("user %s not connected, dropping payload", userID)
		return
	}

	select {
	case client.Send <- payload:
	default:
		log.Warnf("send buffer full for user %s, dropping payload", userID)
	}
}

// Broadcast pushes a payload to every connection whose user satisfies
// the predicate. Delivery is best-effort per peer: one full buffer
// never blocks delivery to the rest.
func (m *Manager) Broadcast(predicate func(uuid.UUID) bool, payload []byte) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for id, client := range m.clients {
		if predicate != nil && !predicate(id) {
			continue
		}
		select {
		case client.Send <- payload:
		default:
			log.Warnf("send buffer full for user %s, dropping broadcast", id)
		}
	}
}
