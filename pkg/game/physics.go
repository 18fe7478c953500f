package game

import (
	"github.com/metahead-arena/headball/pkg/game/constants"
	"github.com/metahead-arena/headball/pkg/game/types"
	"github.com/metahead-arena/headball/pkg/kinematic"
	"github.com/solarlune/resolv"
)

// stepPlayer advances the locally owned player by deltaTime seconds.
func stepPlayer(p *types.PlayerState, input types.InputState, deltaTime float64) {
	// X-axis
	vx := p.Velocity.X
	switch {
	case input.Left && !input.Right:
		vx = -constants.PlayerSpeed
		p.Direction = -1
	case input.Right && !input.Left:
		vx = constants.PlayerSpeed
		p.Direction = 1
	case p.IsOnGround:
		vx *= constants.PlayerFriction
	}
	if !p.IsOnGround {
		vx *= constants.AirDamping
	}
	dx := vx * deltaTime

	// Y-axis
	vy := p.Velocity.Y
	if input.Jump && p.IsOnGround {
		vy = -constants.PlayerJumpSpeed
		p.IsOnGround = false
	}
	dy := 0.0
	if !p.IsOnGround {
		vy *= constants.AirDamping
		dy = kinematic.Displacement(vy, deltaTime, constants.Gravity)
		vy = kinematic.FinalVelocity(vy, deltaTime, constants.Gravity)
	}

	p.Position.X += dx
	p.Position.Y += dy

	// Ground plane
	if p.Position.Y >= constants.GroundY-constants.PlayerRadius {
		p.Position.Y = constants.GroundY - constants.PlayerRadius
		vy = 0
		p.IsOnGround = true
	}

	// Stage walls
	if p.Position.X < constants.PlayerRadius {
		p.Position.X = constants.PlayerRadius
		vx = 0
	} else if p.Position.X > constants.StageWidth-constants.PlayerRadius {
		p.Position.X = constants.StageWidth - constants.PlayerRadius
		vx = 0
	}

	p.Velocity.X = vx
	p.Velocity.Y = vy
	p.SyncObject()
}

// stepBall advances the ball by deltaTime seconds. Only the authority
// calls this; the mirror side smooths toward broadcasts instead.
func stepBall(b *types.BallState, deltaTime float64) {
	vx := b.Velocity.X * constants.AirDamping
	vy := b.Velocity.Y * constants.AirDamping

	dx := vx * deltaTime
	dy := kinematic.Displacement(vy, deltaTime, constants.Gravity)
	vy = kinematic.FinalVelocity(vy, deltaTime, constants.Gravity)

	b.Position.X += dx
	b.Position.Y += dy

	// Ground bounce
	if b.Position.Y >= constants.GroundY-constants.BallRadius {
		b.Position.Y = constants.GroundY - constants.BallRadius
		vy = -vy * constants.BallRestitution
		vx *= constants.BallRestitution
		// Settle instead of bouncing forever
		if vy > -20.0 {
			vy = 0
		}
	}

	// Ceiling
	if b.Position.Y < constants.BallRadius {
		b.Position.Y = constants.BallRadius
		vy = -vy * constants.BallRestitution
	}

	// Side walls reflect only above the goal mouth. Inside the goal band
	// the ball may cross the plane, which is what goal detection watches.
	inGoalBand := b.Position.Y >= constants.GroundY-constants.GoalHeight
	if !inGoalBand {
		if b.Position.X < constants.BallRadius {
			b.Position.X = constants.BallRadius
			vx = -vx * constants.BallRestitution
		} else if b.Position.X > constants.StageWidth-constants.BallRadius {
			b.Position.X = constants.StageWidth - constants.BallRadius
			vx = -vx * constants.BallRestitution
		}
	}

	b.Velocity.X = vx
	b.Velocity.Y = vy
	b.SyncObject()
}

// collidePlayerBall applies a touch impulse when a player overlaps the
// ball, pushing the ball out along the contact normal.
func collidePlayerBall(p *types.PlayerState, b *types.BallState) bool {
	minDistance := constants.PlayerRadius + constants.BallRadius
	distance := p.Position.DistanceTo(b.Position)
	if distance >= minDistance {
		return false
	}

	// Contact normal from the player center to the ball center. A dead
	// center overlap pushes in the player's facing direction.
	nx := b.Position.X - p.Position.X
	ny := b.Position.Y - p.Position.Y
	if distance > 0 {
		nx /= distance
		ny /= distance
	} else {
		nx = float64(p.Direction)
		ny = 0
	}

	b.Position.X = p.Position.X + nx*minDistance
	b.Position.Y = p.Position.Y + ny*minDistance
	b.Velocity = kinematic.Vector{
		X: nx*constants.BallCollisionImpulse + p.Velocity.X*0.5,
		Y: ny*constants.BallCollisionImpulse + p.Velocity.Y*0.5,
	}
	b.SyncObject()
	return true
}

// tryKick checks a hitbox in front of the kicking player against the ball
// and launches it in the facing direction on contact.
func tryKick(space *resolv.Space, p *types.PlayerState, b *types.BallState) bool {
	hitbox := p.Object.Clone()
	hitbox.Size.X += constants.KickRange
	if p.Direction < 0 {
		hitbox.Position.X -= constants.KickRange
	}
	space.Add(hitbox)
	defer space.Remove(hitbox)

	if !hitbox.SharesCells(b.Object) {
		return false
	}

	b.Velocity = kinematic.Vector{
		X: constants.KickImpulseX * float64(p.Direction),
		Y: constants.KickImpulseY,
	}
	return true
}

// checkGoal reports which role scored, or RoleNone. The goal planes are
// the stage edges within the goal mouth band above the ground.
func checkGoal(b *types.BallState) types.Role {
	if b.Position.Y < constants.GroundY-constants.GoalHeight {
		return types.RoleNone
	}
	if b.Position.X <= 0 {
		// Left goal belongs to player1, so player2 scores.
		return types.RolePlayer2
	}
	if b.Position.X >= constants.StageWidth {
		return types.RolePlayer1
	}
	return types.RoleNone
}
