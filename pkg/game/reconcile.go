package game

import (
	"github.com/metahead-arena/headball/pkg/game/constants"
	"github.com/metahead-arena/headball/pkg/game/types"
	"github.com/metahead-arena/headball/pkg/kinematic"
	"github.com/metahead-arena/headball/pkg/messages"
)

// reconcilePlayer smooths a remote player mirror toward a broadcast
// snapshot. Position and velocity converge exponentially; the discrete
// fields snap so the mirror faces and animates correctly right away.
// Applying the same snapshot again only moves the mirror closer to it,
// which makes duplicated or redelivered broadcasts harmless.
func reconcilePlayer(remote *types.PlayerState, snap messages.PlayerSnapshot) {
	alpha := constants.PlayerSmoothingAlpha
	remote.Position.X = kinematic.Lerp(remote.Position.X, snap.X, alpha)
	remote.Position.Y = kinematic.Lerp(remote.Position.Y, snap.Y, alpha)
	remote.Velocity.X = kinematic.Lerp(remote.Velocity.X, snap.VelocityX, alpha)
	remote.Velocity.Y = kinematic.Lerp(remote.Velocity.Y, snap.VelocityY, alpha)
	remote.Direction = snap.Direction
	remote.IsOnGround = snap.IsOnGround
	remote.SyncObject()
}

// reconcileBall smooths the unowned ball mirror toward an authority
// broadcast.
func reconcileBall(ball *types.BallState, snap messages.BallSnapshot) {
	alpha := constants.BallSmoothingAlpha
	ball.Position.X = kinematic.Lerp(ball.Position.X, snap.X, alpha)
	ball.Position.Y = kinematic.Lerp(ball.Position.Y, snap.Y, alpha)
	ball.Velocity.X = kinematic.Lerp(ball.Velocity.X, snap.VelocityX, alpha)
	ball.Velocity.Y = kinematic.Lerp(ball.Velocity.Y, snap.VelocityY, alpha)
	ball.SyncObject()
}
