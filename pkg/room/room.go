package room

import (
	"fmt"
	"sync"
	"time"

	"github.com/metahead-arena/headball/pkg/events"
	"github.com/metahead-arena/headball/pkg/game/types"
	"github.com/metahead-arena/headball/pkg/log"
	"github.com/metahead-arena/headball/pkg/messages"
	"github.com/metahead-arena/headball/pkg/network"
)

// RoomCapacity is the maximum number of players in a room.
const RoomCapacity = 2

// Phase is the matchmaking/room lifecycle phase.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseMatchmaking
	PhaseRoomWaiting
	PhaseRoomFull
	PhaseReadyNegotiation
	PhasePlaying
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseMatchmaking:
		return "matchmaking"
	case PhaseRoomWaiting:
		return "room-waiting"
	case PhaseRoomFull:
		return "room-full"
	case PhaseReadyNegotiation:
		return "ready-negotiation"
	case PhasePlaying:
		return "playing"
	case PhaseEnded:
		return "ended"
	}
	return "unknown"
}

// Snapshot is the current room membership as pushed by the server.
// Player ordering is join order and is the sole source of truth for roles.
type Snapshot struct {
	RoomID   string
	RoomCode string
	Players  []messages.RoomPlayer
}

// Sender writes outbound messages to the transport.
type Sender interface {
	Send(msg *messages.Message) error
}

type intentKind int

const (
	intentNone intentKind = iota
	intentFindMatch
	intentCreateRoom
	intentJoinByCode
)

type intent struct {
	kind intentKind
	code string
}

// Manager is the room/matchmaking state machine. Transitions are driven by
// inbound server snapshots and confirmations, not local optimism, except
// entering matchmaking on local intent.
type Manager struct {
	lock sync.Mutex

	conn       Sender
	bus        *events.Bus
	localID    func() string
	graceDelay time.Duration

	phase         Phase
	pendingPhases []Phase
	snapshot      *Snapshot
	role          types.Role
	roleResolved  bool
	ready         map[string]bool
	pendingIntent intent
	retriedIntent bool
	rematchAsked  bool

	onGameStarted func(role types.Role, matchDuration time.Duration)
	onMatchEnded  func(final *messages.ServerMatchEnded)
	onRoomReset   func()
	onPhaseChange func(phase Phase)

	subscriptions []*events.Subscription
}

// NewManagerOptions contains options for creating a new Manager.
type NewManagerOptions struct {
	Conn     Sender
	EventBus *events.Bus
	// LocalID returns the player ID assigned at connect time.
	LocalID func() string
	// GraceDelay is the delay before returning to idle after a declined
	// rematch. Zero means return immediately.
	GraceDelay time.Duration

	// OnGameStarted is invoked when the server confirms all-ready.
	// The resolved role is passed explicitly, scoped to this match session.
	OnGameStarted func(role types.Role, matchDuration time.Duration)
	// OnMatchEnded is invoked when the server confirms the end of the match.
	OnMatchEnded func(final *messages.ServerMatchEnded)
	// OnRoomReset is invoked when the room state is torn down.
	OnRoomReset func()
	// OnPhaseChange is invoked synchronously after every phase
	// transition, in transition order.
	OnPhaseChange func(phase Phase)
}

// NewManager creates a new room manager and subscribes it to the bus.
func NewManager(opts NewManagerOptions) *Manager {
	m := &Manager{
		conn:          opts.Conn,
		bus:           opts.EventBus,
		localID:       opts.LocalID,
		graceDelay:    opts.GraceDelay,
		phase:         PhaseIdle,
		ready:         make(map[string]bool),
		onGameStarted: opts.OnGameStarted,
		onMatchEnded:  opts.OnMatchEnded,
		onRoomReset:   opts.OnRoomReset,
		onPhaseChange: opts.OnPhaseChange,
	}

	handlers := map[string]events.Handler{
		messages.MessageTypeServerRoomJoined:       m.handleRoomJoined,
		messages.MessageTypeServerRoomCreated:      m.handleRoomJoined,
		messages.MessageTypeServerPlayerJoinedRoom: m.handlePlayerJoinedRoom,
		messages.MessageTypeServerRoomFull:         m.handleRoomFull,
		messages.MessageTypeServerLeftRoom:         m.handleLeftRoom,
		messages.MessageTypeServerPlayerLeft:       m.handlePlayerLeft,
		messages.MessageTypeServerPlayerReady:      m.handlePlayerReady,
		messages.MessageTypeServerGameStarted:      m.handleGameStarted,
		messages.MessageTypeServerMatchEnded:       m.handleMatchEnded,
		messages.MessageTypeServerRematchRequest:   m.handleRematchRequest,
		messages.MessageTypeServerRematchConfirmed: m.handleRematchConfirmed,
		messages.MessageTypeServerRematchDeclined:  m.handleRematchDeclined,
		messages.MessageTypeServerError:            m.handleServerError,
		network.TopicDisconnected:                  m.handleDisconnected,
	}
	for topic, handler := range handlers {
		m.subscriptions = append(m.subscriptions, m.bus.Subscribe(topic, handler))
	}

	return m
}

// Close unsubscribes the manager from the bus.
func (m *Manager) Close() {
	for _, sub := range m.subscriptions {
		sub.Unsubscribe()
	}
	m.subscriptions = nil
}

// Phase returns the current lifecycle phase.
func (m *Manager) Phase() Phase {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.phase
}

// Role returns the resolved role for the current room.
func (m *Manager) Role() types.Role {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.role
}

// Snapshot returns the current room snapshot, or nil when not in a room.
func (m *Manager) Snapshot() *Snapshot {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.snapshot == nil {
		return nil
	}
	players := make([]messages.RoomPlayer, len(m.snapshot.Players))
	copy(players, m.snapshot.Players)
	return &Snapshot{
		RoomID:   m.snapshot.RoomID,
		RoomCode: m.snapshot.RoomCode,
		Players:  players,
	}
}

// FindMatch enters matchmaking. This is the one locally optimistic
// transition; it is reverted if the transport rejects the intent.
func (m *Manager) FindMatch() error {
	return m.submitIntent(intent{kind: intentFindMatch})
}

// CreateRoom asks the server for a new private room.
func (m *Manager) CreateRoom() error {
	return m.submitIntent(intent{kind: intentCreateRoom})
}

// JoinRoomByCode joins a private room by its code.
func (m *Manager) JoinRoomByCode(code string) error {
	return m.submitIntent(intent{kind: intentJoinByCode, code: code})
}

func (m *Manager) submitIntent(in intent) error {
	m.lock.Lock()
	if m.phase != PhaseIdle {
		m.lock.Unlock()
		return fmt.Errorf("cannot start matchmaking from phase %s", m.phase)
	}
	m.setPhaseLocked(PhaseMatchmaking)
	m.pendingIntent = in
	m.retriedIntent = false
	m.lock.Unlock()
	m.flushPhaseChanges()

	if err := m.sendIntent(in); err != nil {
		m.lock.Lock()
		m.setPhaseLocked(PhaseIdle)
		m.pendingIntent = intent{}
		m.lock.Unlock()
		m.flushPhaseChanges()
		return fmt.Errorf("failed to send matchmaking intent: %v", err)
	}
	return nil
}

func (m *Manager) sendIntent(in intent) error {
	var msg *messages.Message
	var err error
	switch in.kind {
	case intentFindMatch:
		msg, err = messages.NewMessage(messages.MessageTypeClientFindMatch, nil)
	case intentCreateRoom:
		msg, err = messages.NewMessage(messages.MessageTypeClientCreateRoom, nil)
	case intentJoinByCode:
		msg, err = messages.NewMessage(messages.MessageTypeClientJoinRoomByCode, &messages.ClientJoinRoomByCode{
			RoomCode: in.code,
		})
	default:
		return fmt.Errorf("no matchmaking intent to send")
	}
	if err != nil {
		return err
	}
	return m.conn.Send(msg)
}

// CancelMatchmaking cancels a local matchmaking intent. It is only
// possible before a room has been joined.
func (m *Manager) CancelMatchmaking() error {
	m.lock.Lock()
	if m.phase != PhaseMatchmaking {
		phase := m.phase
		m.lock.Unlock()
		return fmt.Errorf("cannot cancel matchmaking from phase %s", phase)
	}
	m.pendingIntent = intent{}
	m.setPhaseLocked(PhaseIdle)
	m.lock.Unlock()
	m.flushPhaseChanges()
	return nil
}

// LeaveRoom notifies the transport that we are leaving the room, so the
// peer's snapshot updates. Local state resets on the left-room confirmation.
func (m *Manager) LeaveRoom() error {
	m.lock.Lock()
	inRoom := m.snapshot != nil
	m.lock.Unlock()
	if !inRoom {
		return fmt.Errorf("not in a room")
	}

	msg, err := messages.NewMessage(messages.MessageTypeClientLeaveRoom, nil)
	if err != nil {
		return err
	}
	return m.conn.Send(msg)
}

// SetReady signals readiness for the current room.
func (m *Manager) SetReady() error {
	m.lock.Lock()
	if m.phase != PhaseRoomFull && m.phase != PhaseReadyNegotiation {
		phase := m.phase
		m.lock.Unlock()
		return fmt.Errorf("cannot ready up from phase %s", phase)
	}
	roomID := m.snapshot.RoomID
	position := m.role.String()
	m.setPhaseLocked(PhaseReadyNegotiation)
	m.lock.Unlock()
	m.flushPhaseChanges()

	msg, err := messages.NewMessage(messages.MessageTypeClientPlayerReady, &messages.ClientPlayerReady{
		RoomID:    roomID,
		Position:  position,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		return err
	}
	return m.conn.Send(msg)
}

// RequestRematch asks the peer for a rematch after a match has ended.
func (m *Manager) RequestRematch() error {
	m.lock.Lock()
	if m.phase != PhaseEnded {
		phase := m.phase
		m.lock.Unlock()
		return fmt.Errorf("cannot request a rematch from phase %s", phase)
	}
	m.rematchAsked = true
	m.lock.Unlock()

	msg, err := messages.NewMessage(messages.MessageTypeClientRequestRematch, nil)
	if err != nil {
		return err
	}
	return m.conn.Send(msg)
}

// DeclineRematch declines the peer's rematch request.
func (m *Manager) DeclineRematch() error {
	m.lock.Lock()
	if m.phase != PhaseEnded {
		phase := m.phase
		m.lock.Unlock()
		return fmt.Errorf("cannot decline a rematch from phase %s", phase)
	}
	m.lock.Unlock()

	msg, err := messages.NewMessage(messages.MessageTypeClientDeclineRematch, nil)
	if err != nil {
		return err
	}
	return m.conn.Send(msg)
}

func (m *Manager) setPhaseLocked(phase Phase) {
	if m.phase == phase {
		return
	}
	log.Debug("Room phase %s -> %s", m.phase, phase)
	m.phase = phase
	m.pendingPhases = append(m.pendingPhases, phase)
}

// flushPhaseChanges delivers queued phase notifications synchronously,
// in transition order. Callers invoke it after releasing the lock.
func (m *Manager) flushPhaseChanges() {
	m.lock.Lock()
	pending := m.pendingPhases
	m.pendingPhases = nil
	m.lock.Unlock()

	if m.onPhaseChange == nil {
		return
	}
	for _, phase := range pending {
		m.onPhaseChange(phase)
	}
}

// resetLocked clears all room state back to idle.
func (m *Manager) resetLocked() {
	m.snapshot = nil
	m.role = types.RoleNone
	m.roleResolved = false
	m.ready = make(map[string]bool)
	m.rematchAsked = false
	m.setPhaseLocked(PhaseIdle)
}

// Reset clears all room state and notifies the consumer.
func (m *Manager) Reset() {
	m.lock.Lock()
	m.resetLocked()
	m.lock.Unlock()
	m.flushPhaseChanges()
	if m.onRoomReset != nil {
		m.onRoomReset()
	}
}
