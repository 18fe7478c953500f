package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/metahead-arena/headball/pkg/game/constants"
	"github.com/metahead-arena/headball/pkg/game/types"
	"github.com/metahead-arena/headball/pkg/log"
	"github.com/metahead-arena/headball/pkg/messages"
	"github.com/metahead-arena/headball/pkg/queue"
	"github.com/metahead-arena/headball/pkg/state"
	"github.com/solarlune/resolv"
)

// Engine runs the local fixed-tick simulation: it drains inbound
// simulation messages, steps the owned entities, reconciles the mirrored
// ones, and publishes throttled broadcasts. All gameplay work happens on
// the single tick goroutine; public methods only hand data across a lock.
type Engine struct {
	lock sync.Mutex

	conn         Sender
	messageQueue queue.Queue
	stateManager state.StateManager
	onState      func(gameState *types.GameState)
	tickInterval time.Duration

	active       bool
	singlePlayer bool
	role         types.Role
	match        *Match
	localPlayer  *types.PlayerState
	remotePlayer *types.PlayerState
	ball         *types.BallState
	space        *resolv.Space
	broadcaster  *Broadcaster

	input         types.InputState
	lastSentInput types.InputState
	kickLatch     bool
	goalReported  bool
	resultSent    bool
	lastTick      time.Time
}

// NewEngineOptions contains options for creating a new Engine.
type NewEngineOptions struct {
	Conn         Sender
	MessageQueue queue.Queue
	StateManager state.StateManager
	// OnState receives a copy of the game state after every tick.
	OnState func(gameState *types.GameState)
	// TickInterval overrides the default simulation interval.
	TickInterval time.Duration
}

// NewEngine creates a new simulation engine.
func NewEngine(opts NewEngineOptions) *Engine {
	tickInterval := opts.TickInterval
	if tickInterval <= 0 {
		tickInterval = constants.TickInterval
	}
	return &Engine{
		conn:         opts.Conn,
		messageQueue: opts.MessageQueue,
		stateManager: opts.StateManager,
		onState:      opts.OnState,
		tickInterval: tickInterval,
		broadcaster:  NewBroadcaster(opts.Conn),
	}
}

// Start starts the simulation loop. It blocks until the context is done.
func (e *Engine) Start(ctx context.Context) error {
	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-ticker.C:
			if err := e.tick(ctx, t); err != nil {
				log.Error("Failed to run simulation tick: %v", err)
			}
		}
	}
}

// ActivateOptions describes one match session.
type ActivateOptions struct {
	// Role is the local role resolved for this room. It is scoped to the
	// session and passed in explicitly rather than read from shared state.
	Role          types.Role
	LocalID       string
	RemoteID      string
	MatchDuration time.Duration
	// SinglePlayer runs a practice session with no peer and no transport
	// traffic. The local role owns the ball.
	SinglePlayer bool
}

// Activate starts a new match session at kickoff positions.
func (e *Engine) Activate(opts ActivateOptions) error {
	if opts.Role == types.RoleNone {
		return fmt.Errorf("cannot activate a match without a role")
	}
	duration := opts.MatchDuration
	if duration <= 0 {
		duration = constants.DefaultMatchDuration
	}

	e.lock.Lock()
	defer e.lock.Unlock()

	e.active = true
	e.singlePlayer = opts.SinglePlayer
	e.role = opts.Role
	e.match = NewMatch(duration)
	e.localPlayer = types.NewPlayerState(opts.LocalID, opts.Role, true)
	e.remotePlayer = nil
	if !opts.SinglePlayer {
		e.remotePlayer = types.NewPlayerState(opts.RemoteID, opts.Role.Opponent(), false)
	}

	ownsBall := opts.SinglePlayer || opts.Role.IsAuthority()
	e.ball = types.NewBallState(ownsBall)

	e.space = resolv.NewSpace(
		int(constants.StageWidth),
		int(constants.StageHeight),
		16, 16,
	)
	e.space.Add(e.localPlayer.Object)
	if e.remotePlayer != nil {
		e.space.Add(e.remotePlayer.Object)
	}
	e.space.Add(e.ball.Object)

	e.input = types.InputState{}
	e.lastSentInput = types.InputState{}
	e.kickLatch = false
	e.goalReported = false
	e.resultSent = false
	e.lastTick = time.Time{}
	e.broadcaster.Reset()

	log.Info("Match %s activated as %s (authority: %t)", e.match.ID, e.role, ownsBall)
	return nil
}

// Deactivate tears the session down without a result, for room resets
// and disconnects.
func (e *Engine) Deactivate() {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.teardownLocked()
}

// EndMatch applies a confirmed final result and ends the session. The
// entities stay in place so the presentation can show the final frame.
func (e *Engine) EndMatch(final *messages.ServerMatchEnded) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.match != nil && final != nil {
		e.match.OverwriteScore(types.Score{
			Player1: final.FinalScore.Player1,
			Player2: final.FinalScore.Player2,
		})
	}
	e.active = false
}

func (e *Engine) teardownLocked() {
	e.active = false
	e.match = nil
	e.localPlayer = nil
	e.remotePlayer = nil
	e.ball = nil
	e.space = nil
	e.input = types.InputState{}
	e.lastSentInput = types.InputState{}
}

// SetInput records the sampled local input for the next tick.
func (e *Engine) SetInput(input types.InputState) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.input = input
}

// Snapshot returns a copy of the current game state.
func (e *Engine) Snapshot() *types.GameState {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.snapshotLocked(time.Now())
}

func (e *Engine) snapshotLocked(t time.Time) *types.GameState {
	gameState := &types.GameState{
		Timestamp: t.UnixMilli(),
		Active:    e.active,
	}
	if e.match != nil {
		gameState.MatchID = e.match.ID
		gameState.RemainingSeconds = e.match.Remaining()
		gameState.Score = e.match.Score()
	}
	if e.localPlayer != nil {
		gameState.LocalPlayer = e.localPlayer.Copy()
	}
	if e.remotePlayer != nil {
		gameState.RemotePlayer = e.remotePlayer.Copy()
	}
	if e.ball != nil {
		gameState.Ball = e.ball.Copy()
	}
	return gameState
}

// tick runs one iteration of the simulation loop.
func (e *Engine) tick(ctx context.Context, t time.Time) error {
	e.lock.Lock()

	delta := e.tickInterval.Seconds()
	if !e.lastTick.IsZero() {
		delta = t.Sub(e.lastTick).Seconds()
		if delta > constants.MaxTickDelta {
			delta = constants.MaxTickDelta
		}
	}
	e.lastTick = t

	e.processSimulationMessages()

	if e.active {
		e.simulateLocked(delta)
		e.sendInputEdgesLocked()
	}

	gameState := e.snapshotLocked(t)
	e.lock.Unlock()

	if err := e.stateManager.Set(ctx, gameState); err != nil {
		log.Error("Failed to store game state: %v", err)
	}
	if e.onState != nil {
		e.onState(gameState)
	}
	return nil
}

func (e *Engine) simulateLocked(delta float64) {
	stepPlayer(e.localPlayer, e.input, delta)

	if e.ball.Owned {
		collidePlayerBall(e.localPlayer, e.ball)
		if e.remotePlayer != nil {
			collidePlayerBall(e.remotePlayer, e.ball)
		}
		if e.input.Kick && !e.kickLatch {
			if tryKick(e.space, e.localPlayer, e.ball) {
				log.Debug("Kick connected")
			}
		}
		stepBall(e.ball, delta)
		e.checkGoalsLocked()
	}
	e.kickLatch = e.input.Kick

	if e.match.Advance(delta) {
		e.handleTimerExpiredLocked()
	}

	if !e.singlePlayer {
		e.broadcaster.Tick(e.localPlayer, e.ball)
	}
}

// checkGoalsLocked reports a goal crossing to the server, at most once
// per entry into the goal band. The score itself only changes on the
// server's confirmation, so both peers apply it in the same order.
func (e *Engine) checkGoalsLocked() {
	scorer := checkGoal(e.ball)
	if scorer == types.RoleNone {
		// Re-arm once the ball is back in play.
		e.goalReported = false
		return
	}
	if e.goalReported {
		return
	}
	e.goalReported = true

	if e.singlePlayer {
		e.applyGoalLocked(scorer.String(), nil)
		return
	}

	log.Info("Goal crossing by %s, reporting", scorer)
	msg, err := messages.NewMessage(messages.MessageTypeClientGoalScored, &messages.ClientGoalScored{
		Scorer: scorer.String(),
	})
	if err != nil {
		log.Error("Failed to create goal message: %v", err)
		return
	}
	if err := e.conn.Send(msg); err != nil {
		log.Error("Failed to report goal: %v", err)
	}
}

// applyGoalLocked applies a confirmed goal and resets to kickoff.
func (e *Engine) applyGoalLocked(scorer string, newScore *messages.Score) {
	if e.match == nil {
		return
	}
	if newScore != nil {
		e.match.OverwriteScore(types.Score{
			Player1: newScore.Player1,
			Player2: newScore.Player2,
		})
	} else if role, err := types.ParseRole(scorer); err == nil {
		e.match.ApplyGoal(role)
	} else {
		log.Warn("Goal confirmation with unknown scorer %q", scorer)
		return
	}

	e.localPlayer.ResetKickoff()
	if e.remotePlayer != nil {
		e.remotePlayer.ResetKickoff()
	}
	e.ball.ResetKickoff()
	e.goalReported = false
	log.Info("Score is now %d - %d", e.match.Score().Player1, e.match.Score().Player2)
}

// handleTimerExpiredLocked submits the local result when the countdown
// runs out. The session stays active until the server confirms the end;
// in a practice session there is no server, so it ends immediately.
func (e *Engine) handleTimerExpiredLocked() {
	if e.singlePlayer {
		e.active = false
		log.Info("Practice session ended %d - %d", e.match.Score().Player1, e.match.Score().Player2)
		return
	}
	if e.resultSent {
		return
	}
	e.resultSent = true

	msg, err := messages.NewMessage(messages.MessageTypeClientGameEnd, &messages.ClientGameEnd{
		FinalScore: messages.Score{
			Player1: e.match.Score().Player1,
			Player2: e.match.Score().Player2,
		},
		Duration: e.match.Duration.Seconds(),
		Winner:   e.match.Winner(),
	})
	if err != nil {
		log.Error("Failed to create game-end message: %v", err)
		return
	}
	if err := e.conn.Send(msg); err != nil {
		log.Error("Failed to submit match result: %v", err)
	}
}

// sendInputEdgesLocked publishes input transitions so the server sees
// press and release events rather than a per-tick stream.
func (e *Engine) sendInputEdgesLocked() {
	if e.singlePlayer {
		return
	}
	edges := []struct {
		msgType string
		now     bool
		last    bool
	}{
		{messages.MessageTypeClientMoveLeft, e.input.Left, e.lastSentInput.Left},
		{messages.MessageTypeClientMoveRight, e.input.Right, e.lastSentInput.Right},
		{messages.MessageTypeClientJump, e.input.Jump, e.lastSentInput.Jump},
		{messages.MessageTypeClientKick, e.input.Kick, e.lastSentInput.Kick},
	}
	for _, edge := range edges {
		if edge.now == edge.last {
			continue
		}
		msg, err := messages.NewMessage(edge.msgType, &messages.ClientInput{Pressed: edge.now})
		if err != nil {
			log.Error("Failed to create input message: %v", err)
			continue
		}
		if err := e.conn.Send(msg); err != nil {
			log.Error("Failed to send input message: %v", err)
		}
	}
	e.lastSentInput = e.input
}

// processSimulationMessages drains the inbound simulation queue and
// applies each message to the session.
func (e *Engine) processSimulationMessages() {
	items, err := e.messageQueue.ReadAllMessages()
	if err != nil {
		log.Error("Failed to read simulation messages: %v", err)
		return
	}
	for _, item := range items {
		msg, ok := item.(*messages.Message)
		if !ok {
			log.Error("Failed to cast simulation message")
			continue
		}
		switch msg.Type {
		case messages.MessageTypeServerPlayerPosition:
			e.handlePlayerPositionLocked(msg)
		case messages.MessageTypeServerBallState:
			e.handleBallStateLocked(msg)
		case messages.MessageTypeServerGoalScored:
			e.handleGoalScoredLocked(msg)
		case messages.MessageTypeServerPlayerLeft:
			e.handlePlayerLeftLocked(msg)
		default:
			log.Warn("Unhandled simulation message type: %s", msg.Type)
		}
	}
}

func (e *Engine) handlePlayerPositionLocked(msg *messages.Message) {
	if !e.active || e.remotePlayer == nil {
		return
	}
	update := &messages.ClientPlayerPosition{}
	if err := messages.UnmarshalPayload(msg, update); err != nil {
		log.Error("Failed to unmarshal player position: %v", err)
		return
	}
	// A relayed echo of our own broadcast never overwrites the owned entity.
	if update.Position == e.role.String() {
		return
	}
	reconcilePlayer(e.remotePlayer, update.Player)
}

func (e *Engine) handleBallStateLocked(msg *messages.Message) {
	if !e.active || e.ball == nil || e.ball.Owned {
		return
	}
	update := &messages.ClientBallState{}
	if err := messages.UnmarshalPayload(msg, update); err != nil {
		log.Error("Failed to unmarshal ball state: %v", err)
		return
	}
	reconcileBall(e.ball, update.Ball)
}

func (e *Engine) handleGoalScoredLocked(msg *messages.Message) {
	if !e.active {
		return
	}
	confirmed := &messages.ServerGoalScored{}
	if err := messages.UnmarshalPayload(msg, confirmed); err != nil {
		log.Error("Failed to unmarshal goal confirmation: %v", err)
		return
	}
	e.applyGoalLocked(confirmed.Scorer, confirmed.NewScore)
}

// handlePlayerLeftLocked promotes the surviving peer to ball authority
// when the other player drops mid-match, so the ball keeps simulating.
func (e *Engine) handlePlayerLeftLocked(msg *messages.Message) {
	if !e.active || e.remotePlayer == nil {
		return
	}
	left := &messages.ServerPlayerLeft{}
	if err := messages.UnmarshalPayload(msg, left); err != nil {
		log.Error("Failed to unmarshal player-left: %v", err)
		return
	}
	if left.PlayerID != "" && left.PlayerID != e.remotePlayer.ID {
		return
	}

	log.Info("Peer left mid-match, continuing alone")
	if e.remotePlayer.Object != nil {
		e.space.Remove(e.remotePlayer.Object)
	}
	e.remotePlayer = nil
	e.promoteAuthorityLocked()
}

// PromoteAuthority makes the local player the ball authority.
func (e *Engine) PromoteAuthority() {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.promoteAuthorityLocked()
}

func (e *Engine) promoteAuthorityLocked() {
	if e.ball == nil || e.ball.Owned {
		return
	}
	e.ball.Owned = true
	log.Info("Promoted to ball authority")
}
