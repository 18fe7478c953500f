package types

import (
	"github.com/metahead-arena/headball/pkg/game/constants"
	"github.com/metahead-arena/headball/pkg/kinematic"
	"github.com/solarlune/resolv"
)

// BallState is the singleton shared ball. Exactly one client, the
// authority, simulates it; the other smooths a mirror toward the
// authority's broadcasts.
type BallState struct {
	Position kinematic.Vector `json:"position"`
	Velocity kinematic.Vector `json:"velocity"`
	Owned    bool             `json:"owned"`

	Object *resolv.Object `json:"-"`
}

// NewBallState creates the ball at its kickoff position.
func NewBallState(owned bool) *BallState {
	return &BallState{
		Position: kinematic.Vector{X: constants.BallKickoffX, Y: constants.BallKickoffY},
		Owned:    owned,
		Object: resolv.NewObject(
			constants.BallKickoffX-constants.BallRadius,
			constants.BallKickoffY-constants.BallRadius,
			2*constants.BallRadius,
			2*constants.BallRadius,
			CollisionSpaceTagBall,
		),
	}
}

// ResetKickoff moves the ball back to the kickoff position at rest.
func (b *BallState) ResetKickoff() {
	b.Position = kinematic.Vector{X: constants.BallKickoffX, Y: constants.BallKickoffY}
	b.Velocity = kinematic.Vector{}
	b.SyncObject()
}

// SyncObject updates the collision object to match the ball position.
func (b *BallState) SyncObject() {
	if b.Object == nil {
		return
	}
	b.Object.Position.X = b.Position.X - constants.BallRadius
	b.Object.Position.Y = b.Position.Y - constants.BallRadius
	b.Object.Update()
}

// Copy returns a copy of the ball state with an empty object reference.
func (b *BallState) Copy() *BallState {
	return &BallState{
		Position: b.Position,
		Velocity: b.Velocity,
		Owned:    b.Owned,
	}
}
