package game

import (
	"time"

	"github.com/google/uuid"
	"github.com/metahead-arena/headball/pkg/game/types"
)

// Match tracks the lifecycle of one match session: identity, countdown
// and score. The countdown advances by wall-clock deltas supplied by the
// engine tick, so a stalled loop loses no match time.
type Match struct {
	ID        string
	Duration  time.Duration
	remaining float64
	score     types.Score
	ended     bool
}

// NewMatch creates a new match session with a fresh identity.
func NewMatch(duration time.Duration) *Match {
	return &Match{
		ID:        uuid.New().String(),
		Duration:  duration,
		remaining: duration.Seconds(),
	}
}

// Advance consumes delta seconds of match time and reports whether the
// countdown expired on this call. It reports true at most once.
func (m *Match) Advance(delta float64) bool {
	if m.ended {
		return false
	}
	m.remaining -= delta
	if m.remaining <= 0 {
		m.remaining = 0
		m.ended = true
		return true
	}
	return false
}

// Remaining returns the match time left in seconds.
func (m *Match) Remaining() float64 {
	return m.remaining
}

// Ended reports whether the countdown has expired.
func (m *Match) Ended() bool {
	return m.ended
}

// Score returns the current tally.
func (m *Match) Score() types.Score {
	return m.score
}

// ApplyGoal increments the scorer's tally. The score only ever grows.
func (m *Match) ApplyGoal(scorer types.Role) {
	switch scorer {
	case types.RolePlayer1:
		m.score.Player1++
	case types.RolePlayer2:
		m.score.Player2++
	}
}

// OverwriteScore replaces the tally with a confirmed authoritative one,
// unless that would move either side backwards.
func (m *Match) OverwriteScore(score types.Score) {
	if score.Player1 < m.score.Player1 || score.Player2 < m.score.Player2 {
		return
	}
	m.score = score
}

// Winner returns "player1", "player2" or "draw" for the current tally.
func (m *Match) Winner() string {
	switch {
	case m.score.Player1 > m.score.Player2:
		return types.RolePlayer1.String()
	case m.score.Player2 > m.score.Player1:
		return types.RolePlayer2.String()
	}
	return "draw"
}
