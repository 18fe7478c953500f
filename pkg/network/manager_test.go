package network

import (
	"context"
	"testing"

	"github.com/metahead-arena/headball/pkg/events"
	"github.com/metahead-arena/headball/pkg/messages"
	"github.com/metahead-arena/headball/pkg/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*Manager, *events.Bus, queue.Queue) {
	t.Helper()
	bus := events.NewBus()
	messageQueue := queue.NewInMemoryQueue(10)
	manager := NewManager(NewManagerOptions{
		ServerURL:    "ws://localhost:0/ws",
		MessageQueue: messageQueue,
		EventBus:     bus,
	})
	return manager, bus, messageQueue
}

func serializeFrame(t *testing.T, messageType string, payload interface{}) []byte {
	t.Helper()
	msg, err := messages.NewMessage(messageType, payload)
	require.NoError(t, err)
	b, err := messages.SerializeMessage(msg)
	require.NoError(t, err)
	return b
}

func TestManager_HandleMessageRouting(t *testing.T) {
	manager, bus, messageQueue := newTestManager(t)

	var busTypes []string
	for _, topic := range []string{
		messages.MessageTypeServerRoomJoined,
		messages.MessageTypeServerPlayerPosition,
	} {
		topic := topic
		bus.Subscribe(topic, func(events.Event) {
			busTypes = append(busTypes, topic)
		})
	}

	welcomeChan := make(chan *messages.ServerWelcome, 1)

	// Control-plane messages go to the bus only.
	frame := serializeFrame(t, messages.MessageTypeServerRoomJoined, &messages.ServerRoomJoined{RoomID: "room-1"})
	require.NoError(t, manager.handleMessage(frame, welcomeChan))
	assert.Equal(t, 0, messageQueue.Size())

	// Simulation messages are additionally queued for the engine.
	frame = serializeFrame(t, messages.MessageTypeServerPlayerPosition, &messages.ClientPlayerPosition{Position: "player2"})
	require.NoError(t, manager.handleMessage(frame, welcomeChan))
	assert.Equal(t, 1, messageQueue.Size())

	assert.Equal(t, []string{
		messages.MessageTypeServerRoomJoined,
		messages.MessageTypeServerPlayerPosition,
	}, busTypes)

	// The welcome resolves the handshake and is not re-published.
	frame = serializeFrame(t, messages.MessageTypeServerWelcome, &messages.ServerWelcome{PlayerID: "abc"})
	require.NoError(t, manager.handleMessage(frame, welcomeChan))
	select {
	case welcome := <-welcomeChan:
		assert.Equal(t, "abc", welcome.PlayerID)
	default:
		t.Fatal("expected a welcome on the channel")
	}
	assert.Equal(t, 1, messageQueue.Size())
}

func TestIsSimulationMessage(t *testing.T) {
	assert.True(t, isSimulationMessage(messages.MessageTypeServerPlayerPosition))
	assert.True(t, isSimulationMessage(messages.MessageTypeServerBallState))
	assert.True(t, isSimulationMessage(messages.MessageTypeServerGoalScored))
	assert.True(t, isSimulationMessage(messages.MessageTypeServerPlayerLeft))
	assert.False(t, isSimulationMessage(messages.MessageTypeServerRoomJoined))
	assert.False(t, isSimulationMessage(messages.MessageTypeServerMatchEnded))
}

type stubConn struct{}

func (c *stubConn) Read(ctx context.Context) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (c *stubConn) Write(ctx context.Context, b []byte) error { return nil }

func (c *stubConn) Close() error { return nil }

func TestManager_ReadLoopSurvivesEarlyDisconnect(t *testing.T) {
	manager, _, _ := newTestManager(t)

	// Disconnect may clear the field before the read loop runs at all;
	// the loop must still close the channel it was handed.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	manager.readDone = nil

	done := make(chan struct{})
	welcomeChan := make(chan *messages.ServerWelcome, 1)
	require.NotPanics(t, func() {
		manager.readLoop(ctx, &stubConn{}, done, welcomeChan)
	})

	select {
	case <-done:
	default:
		t.Fatal("expected the read loop to close its done channel")
	}
}

func TestManager_SendWithoutConnection(t *testing.T) {
	manager, _, _ := newTestManager(t)
	msg, err := messages.NewMessage(messages.MessageTypeClientFindMatch, nil)
	require.NoError(t, err)

	err = manager.Send(msg)
	require.Error(t, err)
	assert.ErrorAs(t, err, new(*ErrNotConnected))
}

func TestManager_HealthDefaults(t *testing.T) {
	manager, _, _ := newTestManager(t)
	health := manager.Health()
	assert.Equal(t, "disconnected", health.Status)
	assert.Empty(t, health.LocalID)
	assert.Zero(t, health.MessagesSent)
	assert.False(t, manager.IsConnected())
}
