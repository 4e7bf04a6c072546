package ws

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"promptcraft/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func receive(t *testing.T, conn *Connection) Message {
	t.Helper()
	select {
	case data, ok := <-conn.Send:
		require.True(t, ok, "send queue closed")
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message")
		return Message{}
	}
}

func TestHubBroadcastsToSessionSubscribers(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub(logger.Nop())
	defer hub.Close()

	a1 := NewConnection("a")
	a2 := NewConnection("a")
	b := NewConnection("b")
	hub.Register(a1)
	hub.Register(a2)
	hub.Register(b)
	require.Eventually(t, func() bool { return hub.Subscribers("a") == 2 }, time.Second, 5*time.Millisecond)

	hub.BroadcastToSession("a", string(MsgPromptReady), map[string]string{"finalText": "X"})

	for _, conn := range []*Connection{a1, a2} {
		msg := receive(t, conn)
		assert.Equal(t, MsgPromptReady, msg.Type)
		assert.JSONEq(t, `{"finalText":"X"}`, string(msg.Payload))
	}

	select {
	case <-b.Send:
		t.Fatal("other session must not receive the message")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubUnregisterClosesQueue(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub(logger.Nop())
	defer hub.Close()

	conn := NewConnection("a")
	hub.Register(conn)
	hub.Unregister(conn)

	require.Eventually(t, func() bool { return hub.Subscribers("a") == 0 }, time.Second, 5*time.Millisecond)
	_, ok := <-conn.Send
	assert.False(t, ok)

	// unregistering twice is harmless
	hub.Unregister(conn)
}

func TestHubCloseStopsEverything(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub(logger.Nop())
	conn := NewConnection("a")
	hub.Register(conn)

	hub.Close()
	hub.Close()

	_, ok := <-conn.Send
	assert.False(t, ok)

	// calls after Close return instead of blocking
	hub.BroadcastToSession("a", string(MsgSessionUpdated), nil)
	late := NewConnection("a")
	hub.Register(late)
	_, ok = <-late.Send
	assert.False(t, ok)
	hub.Unregister(late)
}

func TestHubDropsWhenQueueFull(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub(logger.Nop())
	defer hub.Close()

	conn := &Connection{SessionID: "a", Send: make(chan []byte, 1)}
	hub.Register(conn)
	require.Eventually(t, func() bool { return hub.Subscribers("a") == 1 }, time.Second, 5*time.Millisecond)

	hub.BroadcastToSession("a", string(MsgSessionUpdated), 1)
	hub.BroadcastToSession("a", string(MsgSessionUpdated), 2)
	hub.BroadcastToSession("a", string(MsgSessionUpdated), 3)

	msg := receive(t, conn)
	assert.Equal(t, "1", string(msg.Payload))
}

func TestHubSubscribeQueuesSnapshotBeforeRacingBroadcast(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub(logger.Nop())
	defer hub.Close()

	conn := NewConnection("a")
	hub.Subscribe(conn, func() (interface{}, error) {
		// the session settles while its snapshot is being read
		hub.BroadcastToSession("a", string(MsgPromptReady), map[string]string{"lifecycle": "completed"})
		return map[string]string{"lifecycle": "submitting"}, nil
	})

	first := receive(t, conn)
	assert.Equal(t, MsgSessionUpdated, first.Type)
	assert.JSONEq(t, `{"lifecycle":"submitting"}`, string(first.Payload))

	second := receive(t, conn)
	assert.Equal(t, MsgPromptReady, second.Type)
	assert.JSONEq(t, `{"lifecycle":"completed"}`, string(second.Payload))
}

func TestHubSubscribeSkipsFailedSnapshot(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub(logger.Nop())
	defer hub.Close()

	conn := NewConnection("a")
	hub.Subscribe(conn, func() (interface{}, error) {
		return nil, errors.New("store down")
	})
	require.Eventually(t, func() bool { return hub.Subscribers("a") == 1 }, time.Second, 5*time.Millisecond)

	hub.BroadcastToSession("a", string(MsgSessionUpdated), 1)
	msg := receive(t, conn)
	assert.Equal(t, "1", string(msg.Payload))
}
