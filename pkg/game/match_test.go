package game

import (
	"testing"
	"time"

	"github.com/metahead-arena/headball/pkg/game/types"
	"github.com/stretchr/testify/assert"
)

func TestMatch_Advance(t *testing.T) {
	m := NewMatch(1 * time.Second)
	assert.NotEmpty(t, m.ID)

	assert.False(t, m.Advance(0.4))
	assert.InDelta(t, 0.6, m.Remaining(), 1e-9)

	assert.True(t, m.Advance(0.7))
	assert.Equal(t, 0.0, m.Remaining())
	assert.True(t, m.Ended())

	// Expiry fires once.
	assert.False(t, m.Advance(0.1))
}

func TestMatch_Score(t *testing.T) {
	m := NewMatch(time.Minute)

	m.ApplyGoal(types.RolePlayer1)
	m.ApplyGoal(types.RolePlayer2)
	m.ApplyGoal(types.RolePlayer2)
	assert.Equal(t, types.Score{Player1: 1, Player2: 2}, m.Score())
	assert.Equal(t, "player2", m.Winner())

	// A confirmed score may only move forward.
	m.OverwriteScore(types.Score{Player1: 0, Player2: 1})
	assert.Equal(t, types.Score{Player1: 1, Player2: 2}, m.Score())

	m.OverwriteScore(types.Score{Player1: 2, Player2: 2})
	assert.Equal(t, types.Score{Player1: 2, Player2: 2}, m.Score())
	assert.Equal(t, "draw", m.Winner())
}
