package room

import (
	"sync"
	"testing"
	"time"

	"github.com/metahead-arena/headball/pkg/events"
	"github.com/metahead-arena/headball/pkg/game/types"
	"github.com/metahead-arena/headball/pkg/messages"
	"github.com/metahead-arena/headball/pkg/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	lock sync.Mutex
	sent []*messages.Message
}

func (f *fakeSender) Send(msg *messages.Message) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) sentTypes() []string {
	f.lock.Lock()
	defer f.lock.Unlock()
	sentTypes := make([]string, 0, len(f.sent))
	for _, msg := range f.sent {
		sentTypes = append(sentTypes, msg.Type)
	}
	return sentTypes
}

type testHarness struct {
	manager *Manager
	sender  *fakeSender
	bus     *events.Bus
}

func newTestHarness(t *testing.T, opts NewManagerOptions) *testHarness {
	t.Helper()
	sender := &fakeSender{}
	bus := events.NewBus()
	opts.Conn = sender
	opts.EventBus = bus
	if opts.LocalID == nil {
		opts.LocalID = func() string { return "local" }
	}
	manager := NewManager(opts)
	t.Cleanup(manager.Close)
	return &testHarness{manager: manager, sender: sender, bus: bus}
}

func (h *testHarness) publish(t *testing.T, messageType string, payload interface{}) {
	t.Helper()
	msg, err := messages.NewMessage(messageType, payload)
	require.NoError(t, err)
	h.bus.Publish(messageType, msg)
}

func twoPlayerRoom(local string, peer string) *messages.ServerRoomJoined {
	return &messages.ServerRoomJoined{
		RoomID: "room-1",
		Players: []messages.RoomPlayer{
			{ID: peer},
			{ID: local},
		},
	}
}

func TestManager_MatchmakingToRoomFull(t *testing.T) {
	h := newTestHarness(t, NewManagerOptions{})

	require.NoError(t, h.manager.FindMatch())
	assert.Equal(t, PhaseMatchmaking, h.manager.Phase())
	assert.Contains(t, h.sender.sentTypes(), messages.MessageTypeClientFindMatch)

	h.publish(t, messages.MessageTypeServerRoomJoined, &messages.ServerRoomJoined{
		RoomID:  "room-1",
		Players: []messages.RoomPlayer{{ID: "local"}},
	})
	assert.Equal(t, PhaseRoomWaiting, h.manager.Phase())
	assert.Equal(t, types.RolePlayer1, h.manager.Role())

	h.publish(t, messages.MessageTypeServerPlayerJoinedRoom, &messages.ServerPlayerJoinedRoom{
		Players: []messages.RoomPlayer{{ID: "local"}, {ID: "peer"}},
	})
	assert.Equal(t, PhaseRoomFull, h.manager.Phase())
	// Role resolution is first-wins: the reordered snapshot cannot flip it.
	assert.Equal(t, types.RolePlayer1, h.manager.Role())
}

func TestManager_RoleFromExplicitPosition(t *testing.T) {
	h := newTestHarness(t, NewManagerOptions{})
	require.NoError(t, h.manager.FindMatch())

	h.publish(t, messages.MessageTypeServerRoomJoined, &messages.ServerRoomJoined{
		RoomID: "room-1",
		Players: []messages.RoomPlayer{
			{ID: "peer", Position: "player1"},
			{ID: "local", Position: "player2"},
		},
	})
	assert.Equal(t, types.RolePlayer2, h.manager.Role())
	assert.Equal(t, PhaseRoomFull, h.manager.Phase())
}

func TestManager_RoleFallbackWhenMissingFromSnapshot(t *testing.T) {
	h := newTestHarness(t, NewManagerOptions{})
	require.NoError(t, h.manager.FindMatch())

	h.publish(t, messages.MessageTypeServerRoomJoined, &messages.ServerRoomJoined{
		RoomID:  "room-1",
		Players: []messages.RoomPlayer{{ID: "peer"}, {ID: "other"}},
	})
	assert.Equal(t, types.RolePlayer2, h.manager.Role())
}

func TestManager_GameStartedCallback(t *testing.T) {
	startedChan := make(chan types.Role, 1)
	h := newTestHarness(t, NewManagerOptions{
		OnGameStarted: func(role types.Role, matchDuration time.Duration) {
			assert.Equal(t, 90*time.Second, matchDuration)
			startedChan <- role
		},
	})
	require.NoError(t, h.manager.FindMatch())
	h.publish(t, messages.MessageTypeServerRoomJoined, twoPlayerRoom("local", "peer"))
	require.NoError(t, h.manager.SetReady())
	assert.Contains(t, h.sender.sentTypes(), messages.MessageTypeClientPlayerReady)

	h.publish(t, messages.MessageTypeServerGameStarted, &messages.ServerGameStarted{
		MatchDuration: 90,
	})
	assert.Equal(t, PhasePlaying, h.manager.Phase())

	select {
	case role := <-startedChan:
		assert.Equal(t, types.RolePlayer2, role)
	default:
		t.Fatal("expected the game-started callback")
	}
}

func TestManager_MatchEndedAndRematchConfirmed(t *testing.T) {
	endedChan := make(chan *messages.ServerMatchEnded, 1)
	h := newTestHarness(t, NewManagerOptions{
		OnMatchEnded: func(final *messages.ServerMatchEnded) {
			endedChan <- final
		},
	})
	require.NoError(t, h.manager.FindMatch())
	h.publish(t, messages.MessageTypeServerRoomJoined, twoPlayerRoom("local", "peer"))
	h.publish(t, messages.MessageTypeServerGameStarted, &messages.ServerGameStarted{MatchDuration: 90})

	h.publish(t, messages.MessageTypeServerMatchEnded, &messages.ServerMatchEnded{
		FinalScore: messages.Score{Player1: 2, Player2: 1},
		Winner:     "player1",
	})
	assert.Equal(t, PhaseEnded, h.manager.Phase())
	select {
	case final := <-endedChan:
		assert.Equal(t, "player1", final.Winner)
	default:
		t.Fatal("expected the match-ended callback")
	}

	require.NoError(t, h.manager.RequestRematch())
	assert.Contains(t, h.sender.sentTypes(), messages.MessageTypeClientRequestRematch)

	h.publish(t, messages.MessageTypeServerRematchConfirmed, nil)
	assert.Equal(t, PhaseRoomFull, h.manager.Phase())
	// Roles carry over to the next match.
	assert.Equal(t, types.RolePlayer2, h.manager.Role())
}

func TestManager_RematchDeclinedResetsRoom(t *testing.T) {
	h := newTestHarness(t, NewManagerOptions{})
	require.NoError(t, h.manager.FindMatch())
	h.publish(t, messages.MessageTypeServerRoomJoined, twoPlayerRoom("local", "peer"))
	h.publish(t, messages.MessageTypeServerGameStarted, &messages.ServerGameStarted{MatchDuration: 90})
	h.publish(t, messages.MessageTypeServerMatchEnded, &messages.ServerMatchEnded{Winner: "draw"})

	h.publish(t, messages.MessageTypeServerRematchDeclined, nil)
	assert.Equal(t, PhaseIdle, h.manager.Phase())
	assert.Nil(t, h.manager.Snapshot())
	assert.Equal(t, types.RoleNone, h.manager.Role())
}

func TestManager_RoomConflictRetriesOnce(t *testing.T) {
	h := newTestHarness(t, NewManagerOptions{})
	require.NoError(t, h.manager.FindMatch())

	conflict := &messages.ServerError{Type: "matchmaking", Message: "player is already in a room"}
	h.publish(t, messages.MessageTypeServerError, conflict)

	sentTypes := h.sender.sentTypes()
	assert.Equal(t, []string{
		messages.MessageTypeClientFindMatch,
		messages.MessageTypeClientLeaveRoom,
		messages.MessageTypeClientFindMatch,
	}, sentTypes)

	// A second conflict does not loop.
	h.publish(t, messages.MessageTypeServerError, conflict)
	assert.Len(t, h.sender.sentTypes(), 3)
}

func TestManager_PeerLeavesBeforeStart(t *testing.T) {
	h := newTestHarness(t, NewManagerOptions{})
	require.NoError(t, h.manager.FindMatch())
	h.publish(t, messages.MessageTypeServerRoomJoined, twoPlayerRoom("local", "peer"))
	require.Equal(t, PhaseRoomFull, h.manager.Phase())

	h.publish(t, messages.MessageTypeServerPlayerLeft, &messages.ServerPlayerLeft{PlayerID: "peer"})
	assert.Equal(t, PhaseRoomWaiting, h.manager.Phase())
	snapshot := h.manager.Snapshot()
	require.NotNil(t, snapshot)
	assert.Len(t, snapshot.Players, 1)
}

func TestManager_DisconnectResetsRoom(t *testing.T) {
	resetChan := make(chan struct{}, 1)
	h := newTestHarness(t, NewManagerOptions{
		OnRoomReset: func() { resetChan <- struct{}{} },
	})
	require.NoError(t, h.manager.FindMatch())
	h.publish(t, messages.MessageTypeServerRoomJoined, twoPlayerRoom("local", "peer"))

	h.bus.Publish(network.TopicDisconnected, nil)
	assert.Equal(t, PhaseIdle, h.manager.Phase())
	select {
	case <-resetChan:
	default:
		t.Fatal("expected the room-reset callback")
	}
}

func TestManager_PhaseChangesDeliveredInOrder(t *testing.T) {
	var phases []Phase
	h := newTestHarness(t, NewManagerOptions{
		OnPhaseChange: func(phase Phase) { phases = append(phases, phase) },
	})

	require.NoError(t, h.manager.FindMatch())
	h.publish(t, messages.MessageTypeServerRoomJoined, twoPlayerRoom("local", "peer"))
	require.NoError(t, h.manager.SetReady())
	h.publish(t, messages.MessageTypeServerGameStarted, &messages.ServerGameStarted{MatchDuration: 90})
	h.publish(t, messages.MessageTypeServerMatchEnded, &messages.ServerMatchEnded{Winner: "draw"})

	assert.Equal(t, []Phase{
		PhaseMatchmaking,
		PhaseRoomFull,
		PhaseReadyNegotiation,
		PhasePlaying,
		PhaseEnded,
	}, phases)
}

func TestManager_CancelMatchmaking(t *testing.T) {
	h := newTestHarness(t, NewManagerOptions{})
	require.NoError(t, h.manager.FindMatch())
	require.NoError(t, h.manager.CancelMatchmaking())
	assert.Equal(t, PhaseIdle, h.manager.Phase())

	// Ready-up outside a room is rejected.
	assert.Error(t, h.manager.SetReady())
}
