package types

import (
	"github.com/metahead-arena/headball/pkg/game/constants"
	"github.com/metahead-arena/headball/pkg/kinematic"
	"github.com/solarlune/resolv"
)

const (
	CollisionSpaceTagPlayer string = "player"
	CollisionSpaceTagBall   string = "ball"
	CollisionSpaceTagLevel  string = "level"
)

// PlayerState is the state of one player entity. Exactly one per role per
// room; at most one is owned by this client.
type PlayerState struct {
	ID         string           `json:"id"`
	Role       Role             `json:"role"`
	Position   kinematic.Vector `json:"position"`
	Velocity   kinematic.Vector `json:"velocity"`
	IsOnGround bool             `json:"isOnGround"`
	// Direction is the facing of the player: -1 left, 1 right.
	Direction int  `json:"direction"`
	Owned     bool `json:"owned"`

	Object *resolv.Object `json:"-"`
}

// NewPlayerState creates a player entity at its kickoff position.
func NewPlayerState(id string, role Role, owned bool) *PlayerState {
	x := constants.Player1KickoffX
	direction := 1
	if role == RolePlayer2 {
		x = constants.Player2KickoffX
		direction = -1
	}
	p := &PlayerState{
		ID:        id,
		Role:      role,
		Direction: direction,
		Owned:     owned,
		Position: kinematic.Vector{
			X: x,
			Y: constants.GroundY - constants.PlayerRadius,
		},
		IsOnGround: true,
		Object: resolv.NewObject(
			x-constants.PlayerRadius,
			constants.GroundY-2*constants.PlayerRadius,
			2*constants.PlayerRadius,
			2*constants.PlayerRadius,
			CollisionSpaceTagPlayer,
		),
	}
	return p
}

// ResetKickoff moves the player back to its kickoff position.
func (p *PlayerState) ResetKickoff() {
	x := constants.Player1KickoffX
	p.Direction = 1
	if p.Role == RolePlayer2 {
		x = constants.Player2KickoffX
		p.Direction = -1
	}
	p.Position = kinematic.Vector{X: x, Y: constants.GroundY - constants.PlayerRadius}
	p.Velocity = kinematic.Vector{}
	p.IsOnGround = true
	p.SyncObject()
}

// SyncObject updates the collision object to match the entity position.
func (p *PlayerState) SyncObject() {
	if p.Object == nil {
		return
	}
	p.Object.Position.X = p.Position.X - constants.PlayerRadius
	p.Object.Position.Y = p.Position.Y - constants.PlayerRadius
	p.Object.Update()
}

// Copy returns a copy of the player state with an empty object reference.
func (p *PlayerState) Copy() *PlayerState {
	return &PlayerState{
		ID:         p.ID,
		Role:       p.Role,
		Position:   p.Position,
		Velocity:   p.Velocity,
		IsOnGround: p.IsOnGround,
		Direction:  p.Direction,
		Owned:      p.Owned,
	}
}
