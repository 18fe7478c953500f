package game

import (
	"math"
	"testing"

	"github.com/metahead-arena/headball/pkg/game/types"
	"github.com/metahead-arena/headball/pkg/messages"
	"github.com/stretchr/testify/assert"
)

func TestReconcilePlayer_Converges(t *testing.T) {
	remote := types.NewPlayerState("p2", types.RolePlayer2, false)
	snap := messages.PlayerSnapshot{
		X:          300,
		Y:          200,
		VelocityX:  -250,
		Direction:  -1,
		IsOnGround: false,
	}

	previousError := math.Inf(1)
	for i := 0; i < 20; i++ {
		reconcilePlayer(remote, snap)
		err := math.Hypot(remote.Position.X-snap.X, remote.Position.Y-snap.Y)
		assert.Less(t, err, previousError)
		previousError = err
	}
	assert.InDelta(t, snap.X, remote.Position.X, 0.01)
	assert.InDelta(t, snap.Y, remote.Position.Y, 0.01)
	assert.InDelta(t, -250.0, remote.Velocity.X, 0.01)
	assert.Equal(t, -1, remote.Direction)
	assert.False(t, remote.IsOnGround)
}

func TestReconcilePlayer_NeverOvershoots(t *testing.T) {
	remote := types.NewPlayerState("p2", types.RolePlayer2, false)
	remote.Position = kinematicVector(100, 100)
	snap := messages.PlayerSnapshot{X: 200, Y: 100}

	reconcilePlayer(remote, snap)
	assert.LessOrEqual(t, remote.Position.X, snap.X)
	assert.Greater(t, remote.Position.X, 100.0)
}

func TestReconcileBall_Converges(t *testing.T) {
	ball := types.NewBallState(false)
	snap := messages.BallSnapshot{X: 120, Y: 80, VelocityX: 50, VelocityY: -30}

	for i := 0; i < 20; i++ {
		reconcileBall(ball, snap)
	}
	assert.InDelta(t, snap.X, ball.Position.X, 0.01)
	assert.InDelta(t, snap.Y, ball.Position.Y, 0.01)
	assert.InDelta(t, 50.0, ball.Velocity.X, 0.01)
	assert.InDelta(t, -30.0, ball.Velocity.Y, 0.01)
}
