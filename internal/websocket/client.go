package websocket

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 64 * 1024
)

// Client is one live connection bound to a user identity. It is owned
// by the Manager from registration until removal.
type Client struct {
	ID     uuid.UUID
	Socket *websocket.Conn

	// Send carries framed envelopes to the write pump.
	Send chan []byte

	// ping asks the write pump to emit a heartbeat probe.
	ping chan struct{}

	// pending is the liveness flag: set when a probe goes out, cleared
	// by the pong handler. A probe finding it still set means the
	// previous one went unanswered and the connection is dead.
	pending atomic.Bool

	closeOnce sync.Once

	// registered flips once the auth envelope has been accepted. Only
	// touched by this connection's read pump.
	registered bool
}

func newClient(id uuid.UUID, conn *websocket.Conn) *Client {
	return &Client{
		ID:     id,
		Socket: conn,
		Send:   make(chan []byte, 256),
		ping:   make(chan struct{}, 1),
	}
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() {
		close(c.Send)
	})
}

// trySend queues a payload without blocking. Recover guards the race
// where the manager closed Send between our check and the send.
func (c *Client) trySend(payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Debugf("dropped payload for closed client %s", c.ID)
		}
	}()
	select {
	case c.Send <- payload:
	default:
		log.Warnf("send buffer full for client %s, dropping payload", c.ID)
	}
}

// requestPing signals the write pump to probe the peer.
func (c *Client) requestPing() {
	select {
	case c.ping <- struct{}{}:
	default:
	}
}

// readPump pumps frames from the connection into the core. One
// goroutine per connection; inbound events are handled in arrival
// order.
func (c *Client) readPump(m *Manager, relay *Relay) {
	defer func() {
		if c.registered {
			m.Unregister(c)
		} else {
			// Never made it into the registry, so nobody else will
			// release the write pump.
			c.closeSend()
		}
		c.Socket.Close()
	}()

	c.Socket.SetReadLimit(maxMessageSize)
	// Until registration the liveness sweep does not know this
	// connection exists; the auth deadline is what reaps it.
	c.Socket.SetReadDeadline(time.Now().Add(m.heartbeatInterval))
	c.Socket.SetPongHandler(func(string) error {
		c.pending.Store(false)
		return nil
	})

	for {
		_, raw, err := c.Socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Errorf("read error from client %s: %v", c.ID, err)
			} else {
				log.Infof("client %s closed connection: %v", c.ID, err)
			}
			break
		}

		event, err := DecodeInbound(raw)
		if err != nil {
			// Malformed input is reported back; the connection stays open.
			c.trySend(ErrorEvent(err.Error()))
			continue
		}

		switch ev := event.(type) {
		case AuthEvent:
			if ev.UserID != c.ID {
				c.trySend(ErrorEvent("auth userId does not match connection identity"))
				continue
			}
			if !c.registered {
				m.Register(c)
				c.registered = true
				// From here on the heartbeat sweep owns liveness.
				c.Socket.SetReadDeadline(time.Time{})
			}
		case TypingEvent:
			if !c.registered {
				c.trySend(ErrorEvent("authenticate before sending typing events"))
				continue
			}
			relay.NotifyTyping(c.ID, ev.ReceiverID)
		}
	}
}

// writePump owns all writes to the connection: queued envelopes and
// heartbeat probes requested by the liveness monitor.
func (c *Client) writePump() {
	defer c.Socket.Close()

	for {
		select {
		case message, ok := <-c.Send:
			c.Socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The manager closed the channel.
				c.Socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Socket.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-c.ping:
			c.Socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
