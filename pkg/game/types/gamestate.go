package types

// InputState is the client-local input sampling. It is never transmitted
// directly; only its physics effects are.
type InputState struct {
	Left  bool `json:"left"`
	Right bool `json:"right"`
	Jump  bool `json:"jump"`
	Kick  bool `json:"kick"`
}

// Score is the per-side goal tally.
type Score struct {
	Player1 int `json:"player1"`
	Player2 int `json:"player2"`
}

// ForRole returns the tally of one side.
func (s Score) ForRole(role Role) int {
	if role == RolePlayer2 {
		return s.Player2
	}
	return s.Player1
}

// GameState is the per-tick snapshot handed to the presentation layer
// and the telemetry endpoint.
type GameState struct {
	// Timestamp is the time at which the game state was generated
	Timestamp int64 `json:"timestamp"`
	// Active reports whether a match is in progress
	Active bool `json:"active"`
	// MatchID identifies the current match session
	MatchID string `json:"matchId,omitempty"`
	// RemainingSeconds is the match time left
	RemainingSeconds float64 `json:"remainingSeconds"`
	Score            Score   `json:"score"`

	LocalPlayer  *PlayerState `json:"localPlayer,omitempty"`
	RemotePlayer *PlayerState `json:"remotePlayer,omitempty"`
	Ball         *BallState   `json:"ball,omitempty"`
}

// Copy returns a deep copy of the game state.
func (g *GameState) Copy() *GameState {
	copied := &GameState{
		Timestamp:        g.Timestamp,
		Active:           g.Active,
		MatchID:          g.MatchID,
		RemainingSeconds: g.RemainingSeconds,
		Score:            g.Score,
	}
	if g.LocalPlayer != nil {
		copied.LocalPlayer = g.LocalPlayer.Copy()
	}
	if g.RemotePlayer != nil {
		copied.RemotePlayer = g.RemotePlayer.Copy()
	}
	if g.Ball != nil {
		copied.Ball = g.Ball.Copy()
	}
	return copied
}
