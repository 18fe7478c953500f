package constants

import "time"

const (
	// TickInterval is the target interval of the local simulation loop.
	TickInterval = 16 * time.Millisecond
	// MaxTickDelta bounds the wall-clock delta applied in a single tick,
	// so a backgrounded host page does not produce a huge catch-up step.
	MaxTickDelta float64 = 0.25 // seconds

	// StageWidth is the width of the stage
	StageWidth float64 = 800.0
	// StageHeight is the height of the stage
	StageHeight float64 = 500.0
	// GroundY is the y coordinate of the fixed ground plane (y grows downward)
	GroundY float64 = 450.0

	// Gravity is the downward acceleration applied to airborne entities
	Gravity float64 = 1200.0
	// PlayerSpeed is the constant horizontal speed of a moving player
	PlayerSpeed float64 = 250.0
	// PlayerJumpSpeed is the upward speed applied on jump
	PlayerJumpSpeed float64 = 600.0
	// PlayerRadius is the collision radius of a player
	PlayerRadius float64 = 30.0
	// PlayerFriction is the per-tick horizontal damping applied when idle
	PlayerFriction float64 = 0.85
	// AirDamping is the per-tick air resistance damping on both axes
	AirDamping float64 = 0.995

	// BallRadius is the collision radius of the ball
	BallRadius float64 = 15.0
	// BallRestitution is the bounce energy retention on ground/wall/ceiling hits
	BallRestitution float64 = 0.8
	// BallCollisionImpulse is the speed imparted to the ball by a player touch
	BallCollisionImpulse float64 = 320.0
	// BallKickoffX is the x coordinate of the ball at kickoff
	BallKickoffX float64 = 400.0
	// BallKickoffY is the y coordinate of the ball at kickoff
	BallKickoffY float64 = 250.0

	// KickImpulseX is the horizontal speed of a kicked ball
	KickImpulseX float64 = 520.0
	// KickImpulseY is the vertical speed of a kicked ball (upward)
	KickImpulseY float64 = -380.0
	// KickRange is how far the kick hitbox extends in front of the player
	KickRange float64 = 24.0

	// Player1KickoffX is the kickoff x coordinate of player1
	Player1KickoffX float64 = 200.0
	// Player2KickoffX is the kickoff x coordinate of player2
	Player2KickoffX float64 = 600.0

	// GoalHeight is the height of the goal mouth above the ground plane
	GoalHeight float64 = 120.0
	// GoalDepth is the depth of the goal zone behind the goal plane
	GoalDepth float64 = 40.0

	// PlayerBroadcastInterval publishes the local player every Nth tick
	PlayerBroadcastInterval = 3
	// BallBroadcastInterval publishes the ball every Nth tick (authority only).
	// The ball is more latency sensitive than the players.
	BallBroadcastInterval = 2

	// PlayerSmoothingAlpha is the reconciliation weight for player mirrors
	PlayerSmoothingAlpha float64 = 0.7
	// BallSmoothingAlpha is the reconciliation weight for the ball mirror
	BallSmoothingAlpha float64 = 0.8

	// DefaultMatchDuration is the match length when the server does not specify one
	DefaultMatchDuration = 120 * time.Second
	// RematchGraceDelay is the delay before returning to idle after a declined rematch
	RematchGraceDelay = 3 * time.Second
)
