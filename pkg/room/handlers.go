package room

import (
	"strings"
	"time"

	"github.com/metahead-arena/headball/pkg/events"
	"github.com/metahead-arena/headball/pkg/game/types"
	"github.com/metahead-arena/headball/pkg/log"
	"github.com/metahead-arena/headball/pkg/messages"
)

func (m *Manager) handleRoomJoined(event events.Event) {
	msg, ok := event.Payload.(*messages.Message)
	if !ok {
		log.Error("Failed to cast room-joined message")
		return
	}
	joined := &messages.ServerRoomJoined{}
	if err := messages.UnmarshalPayload(msg, joined); err != nil {
		log.Error("Failed to unmarshal room-joined payload: %v", err)
		return
	}

	m.lock.Lock()
	m.snapshot = &Snapshot{
		RoomID:   joined.RoomID,
		RoomCode: joined.RoomCode,
		Players:  joined.Players,
	}
	m.pendingIntent = intent{}
	m.resolveRoleLocked()
	if len(joined.Players) >= RoomCapacity {
		m.setPhaseLocked(PhaseRoomFull)
	} else {
		m.setPhaseLocked(PhaseRoomWaiting)
	}
	m.lock.Unlock()
	m.flushPhaseChanges()
}

func (m *Manager) handlePlayerJoinedRoom(event events.Event) {
	msg, ok := event.Payload.(*messages.Message)
	if !ok {
		log.Error("Failed to cast player-joined-room message")
		return
	}
	joined := &messages.ServerPlayerJoinedRoom{}
	if err := messages.UnmarshalPayload(msg, joined); err != nil {
		log.Error("Failed to unmarshal player-joined-room payload: %v", err)
		return
	}

	defer m.flushPhaseChanges()
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.snapshot == nil {
		return
	}
	if len(joined.Players) > RoomCapacity {
		log.Warn("Ignoring membership snapshot with %d players", len(joined.Players))
		return
	}
	m.snapshot.Players = joined.Players
	m.resolveRoleLocked()
	if len(m.snapshot.Players) >= RoomCapacity {
		m.setPhaseLocked(PhaseRoomFull)
	}
}

func (m *Manager) handleRoomFull(_ events.Event) {
	defer m.flushPhaseChanges()
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.snapshot == nil {
		return
	}
	m.resolveRoleLocked()
	m.setPhaseLocked(PhaseRoomFull)
}

func (m *Manager) handleLeftRoom(_ events.Event) {
	m.Reset()
}

// handlePlayerLeft covers the peer leaving before the match starts. During
// a match the same message is routed through the simulation queue and
// handled by the engine; here we only unwind the pre-match room state.
func (m *Manager) handlePlayerLeft(event events.Event) {
	msg, ok := event.Payload.(*messages.Message)
	if !ok {
		log.Error("Failed to cast player-left message")
		return
	}
	left := &messages.ServerPlayerLeft{}
	if err := messages.UnmarshalPayload(msg, left); err != nil {
		log.Error("Failed to unmarshal player-left payload: %v", err)
		return
	}

	defer m.flushPhaseChanges()
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.snapshot == nil || m.phase == PhasePlaying {
		return
	}
	remaining := m.snapshot.Players[:0]
	for _, p := range m.snapshot.Players {
		if p.ID != left.PlayerID {
			remaining = append(remaining, p)
		}
	}
	m.snapshot.Players = remaining
	delete(m.ready, left.PlayerID)

	if m.phase == PhaseEnded {
		// Rematch is off the table once the peer leaves.
		m.resetLocked()
		if m.onRoomReset != nil {
			go m.onRoomReset()
		}
		return
	}
	m.setPhaseLocked(PhaseRoomWaiting)
}

func (m *Manager) handlePlayerReady(event events.Event) {
	msg, ok := event.Payload.(*messages.Message)
	if !ok {
		log.Error("Failed to cast player-ready message")
		return
	}
	ready := &messages.ServerPlayerReady{}
	if err := messages.UnmarshalPayload(msg, ready); err != nil {
		log.Error("Failed to unmarshal player-ready payload: %v", err)
		return
	}

	defer m.flushPhaseChanges()
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.snapshot == nil {
		return
	}
	m.ready[ready.PlayerID] = ready.IsReady
	if m.phase == PhaseRoomFull {
		m.setPhaseLocked(PhaseReadyNegotiation)
	}
	// The transition to playing waits for the explicit game-started
	// confirmation, even when AllPlayersReady is set here.
}

func (m *Manager) handleGameStarted(event events.Event) {
	msg, ok := event.Payload.(*messages.Message)
	if !ok {
		log.Error("Failed to cast game-started message")
		return
	}
	started := &messages.ServerGameStarted{}
	if err := messages.UnmarshalPayload(msg, started); err != nil {
		log.Error("Failed to unmarshal game-started payload: %v", err)
		return
	}

	m.lock.Lock()
	if m.snapshot == nil {
		m.lock.Unlock()
		log.Warn("Ignoring game-started outside of a room")
		return
	}
	if started.Room != nil && len(started.Room.Players) > 0 {
		m.snapshot.Players = started.Room.Players
		m.resolveRoleLocked()
	}
	role := m.role
	duration := time.Duration(started.MatchDuration * float64(time.Second))
	m.setPhaseLocked(PhasePlaying)
	callback := m.onGameStarted
	m.lock.Unlock()
	m.flushPhaseChanges()

	if callback != nil {
		callback(role, duration)
	}
}

func (m *Manager) handleMatchEnded(event events.Event) {
	msg, ok := event.Payload.(*messages.Message)
	if !ok {
		log.Error("Failed to cast match-ended message")
		return
	}
	final := &messages.ServerMatchEnded{}
	if err := messages.UnmarshalPayload(msg, final); err != nil {
		log.Error("Failed to unmarshal match-ended payload: %v", err)
		return
	}

	m.lock.Lock()
	if m.phase != PhasePlaying {
		m.lock.Unlock()
		return
	}
	m.ready = make(map[string]bool)
	m.rematchAsked = false
	m.setPhaseLocked(PhaseEnded)
	callback := m.onMatchEnded
	m.lock.Unlock()
	m.flushPhaseChanges()

	if callback != nil {
		callback(final)
	}
}

func (m *Manager) handleRematchRequest(_ events.Event) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.phase != PhaseEnded {
		return
	}
	if m.rematchAsked {
		log.Info("Peer also wants a rematch, waiting for confirmation")
		return
	}
	log.Info("Peer requested a rematch")
}

// handleRematchConfirmed resets the room for another match. Roles carry
// over unchanged; the server follows up with a fresh game-started.
func (m *Manager) handleRematchConfirmed(_ events.Event) {
	defer m.flushPhaseChanges()
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.phase != PhaseEnded {
		return
	}
	m.ready = make(map[string]bool)
	m.rematchAsked = false
	m.setPhaseLocked(PhaseRoomFull)
}

func (m *Manager) handleRematchDeclined(_ events.Event) {
	m.lock.Lock()
	if m.phase != PhaseEnded {
		m.lock.Unlock()
		return
	}
	m.lock.Unlock()

	log.Info("Rematch declined, leaving the room")
	delay := m.graceDelay
	if delay <= 0 {
		m.Reset()
		return
	}
	time.AfterFunc(delay, func() {
		m.lock.Lock()
		ended := m.phase == PhaseEnded
		m.lock.Unlock()
		if ended {
			m.Reset()
		}
	})
}

// handleServerError retries a matchmaking intent exactly once when the
// server reports a stale room membership, after asking to leave it.
func (m *Manager) handleServerError(event events.Event) {
	msg, ok := event.Payload.(*messages.Message)
	if !ok {
		log.Error("Failed to cast error message")
		return
	}
	serverErr := &messages.ServerError{}
	if err := messages.UnmarshalPayload(msg, serverErr); err != nil {
		log.Error("Failed to unmarshal error payload: %v", err)
		return
	}
	log.Warn("Server error %s: %s", serverErr.Type, serverErr.Message)

	m.lock.Lock()
	pending := m.pendingIntent
	canRetry := m.phase == PhaseMatchmaking && pending.kind != intentNone &&
		!m.retriedIntent && isRoomConflict(serverErr)
	if canRetry {
		m.retriedIntent = true
	}
	m.lock.Unlock()

	if !canRetry {
		return
	}

	log.Info("Server reports a stale room, leaving and retrying")
	if leave, err := messages.NewMessage(messages.MessageTypeClientLeaveRoom, nil); err == nil {
		if err := m.conn.Send(leave); err != nil {
			log.Error("Failed to send leave-room before retry: %v", err)
		}
	}
	if err := m.sendIntent(pending); err != nil {
		log.Error("Failed to retry matchmaking intent: %v", err)
		m.lock.Lock()
		m.pendingIntent = intent{}
		m.setPhaseLocked(PhaseIdle)
		m.lock.Unlock()
		m.flushPhaseChanges()
	}
}

func isRoomConflict(serverErr *messages.ServerError) bool {
	return strings.Contains(strings.ToLower(serverErr.Message), "already in a room")
}

func (m *Manager) handleDisconnected(_ events.Event) {
	m.Reset()
}

// resolveRoleLocked derives the local role from the room snapshot. The
// first successful resolution wins for the lifetime of the room, so a
// later reordered snapshot cannot flip authority mid-session.
func (m *Manager) resolveRoleLocked() {
	if m.roleResolved || m.snapshot == nil {
		return
	}
	localID := m.localID()
	if localID == "" {
		return
	}

	for i, p := range m.snapshot.Players {
		if p.ID != localID {
			continue
		}
		if role, err := types.ParseRole(p.Position); err == nil {
			m.role = role
		} else if i == 0 {
			m.role = types.RolePlayer1
		} else {
			m.role = types.RolePlayer2
		}
		m.roleResolved = true
		log.Info("Resolved local role %s in room %s", m.role, m.snapshot.RoomID)
		return
	}

	// The snapshot does not list us yet. A solo snapshot implies we are
	// the first joiner; a fuller one implies we are the newcomer.
	if len(m.snapshot.Players) <= 1 {
		m.role = types.RolePlayer1
	} else {
		m.role = types.RolePlayer2
	}
	m.roleResolved = true
	log.Warn("Local player %s missing from snapshot, falling back to role %s", localID, m.role)
}
