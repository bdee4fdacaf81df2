package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manish14071/rca-app/internal/models"
)

func TestNotifyNewMessageFansOutToBothParties(t *testing.T) {
	m, _ := newTestManager(time.Hour)
	relay := NewRelay(m)

	sender := newClient(uuid.New(), nil)
	receiver := newClient(uuid.New(), nil)
	m.Register(sender)
	m.Register(receiver)
	// The earlier-registered sender saw the receiver come online.
	nextEnvelope(t, sender.Send)

	msg := &models.Message{
		ID:         uuid.New(),
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		Content:    "hello",
		CreatedAt:  time.Now().UTC(),
	}
	relay.NotifyNewMessage(msg)

	senderEnv := nextEnvelope(t, sender.Send)
	receiverEnv := nextEnvelope(t, receiver.Send)
	require.Equal(t, EventNewMessage, senderEnv.Type)
	require.Equal(t, EventNewMessage, receiverEnv.Type)

	// Echo and delivery carry the identical message.
	assert.JSONEq(t, string(senderEnv.Payload), string(receiverEnv.Payload))

	var got models.Message
	require.NoError(t, json.Unmarshal(receiverEnv.Payload, &got))
	assert.Equal(t, msg.ID, got.ID)
	assert.Equal(t, "hello", got.Content)
}

func TestNotifyNewMessageWithOfflineReceiver(t *testing.T) {
	m, _ := newTestManager(time.Hour)
	relay := NewRelay(m)

	sender := newClient(uuid.New(), nil)
	m.Register(sender)

	msg := &models.Message{
		ID:         uuid.New(),
		SenderID:   sender.ID,
		ReceiverID: uuid.New(), // not connected
		Content:    "hello",
	}
	relay.NotifyNewMessage(msg)

	// The sender still gets its echo; the absent receiver is no error.
	env := nextEnvelope(t, sender.Send)
	assert.Equal(t, EventNewMessage, env.Type)
}

func TestNotifyTypingForwardsToReceiver(t *testing.T) {
	m, _ := newTestManager(time.Hour)
	relay := NewRelay(m)

	sender := newClient(uuid.New(), nil)
	receiver := newClient(uuid.New(), nil)
	m.Register(sender)
	m.Register(receiver)
	nextEnvelope(t, sender.Send)

	relay.NotifyTyping(sender.ID, receiver.ID)

	env := nextEnvelope(t, receiver.Send)
	require.Equal(t, EventTyping, env.Type)

	var payload struct {
		UserID uuid.UUID `json:"userId"`
	}
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, sender.ID, payload.UserID)

	// The sender does not get its own typing signal back.
	assertNoEnvelope(t, sender.Send)
}

func TestNotifyTypingOfflineReceiverIsDropped(t *testing.T) {
	m, _ := newTestManager(time.Hour)
	relay := NewRelay(m)

	relay.NotifyTyping(uuid.New(), uuid.New())
}
