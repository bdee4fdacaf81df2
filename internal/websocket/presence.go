package websocket

import (
	"github.com/google/uuid"
)

// PresenceStore is the slice of persistence the presence tracker needs.
type PresenceStore interface {
	SetOnline(userID uuid.UUID, online bool) error
}

// PresenceTracker keeps the persisted online flag in sync with registry
// membership and tells everyone else about transitions. For each
// transition the persistence write happens before the broadcast, so a
// peer reacting to the event by re-querying the user observes the
// updated row.
type PresenceTracker struct {
	store   PresenceStore
	manager *Manager
}

// MarkOnline persists the transition and announces it to all peers
// except the user themselves.
func (t *PresenceTracker) MarkOnline(userID uuid.UUID) {
	if err := t.store.SetOnline(userID, true); err != nil {
		log.Errorf("persisting online flag for %s: %v", userID, err)
	}
	t.manager.Broadcast(func(id uuid.UUID) bool { return id != userID },
		UserStatusEvent(userID, true))
}

// MarkOffline persists the transition and announces it to all peers.
func (t *PresenceTracker) MarkOffline(userID uuid.UUID) {
	if err := t.store.SetOnline(userID, false); err != nil {
		log.Errorf("persisting offline flag for %s: %v", userID, err)
	}
	t.manager.Broadcast(func(id uuid.UUID) bool { return id != userID },
		UserStatusEvent(userID, false))
}
