package game

import (
	"time"

	"github.com/metahead-arena/headball/pkg/game/constants"
	"github.com/metahead-arena/headball/pkg/game/types"
	"github.com/metahead-arena/headball/pkg/log"
	"github.com/metahead-arena/headball/pkg/messages"
)

// Sender writes outbound messages to the transport.
type Sender interface {
	Send(msg *messages.Message) error
}

// Broadcaster is the throttled outbound state publisher. The owned player
// goes out every few ticks; the ball, only from the authority, goes out
// on a tighter interval because it changes direction more abruptly.
type Broadcaster struct {
	conn        Sender
	playerTicks int
	ballTicks   int
}

// NewBroadcaster creates a broadcaster on top of the given transport.
func NewBroadcaster(conn Sender) *Broadcaster {
	return &Broadcaster{conn: conn}
}

// Reset restarts the throttle counters for a new match.
func (b *Broadcaster) Reset() {
	b.playerTicks = 0
	b.ballTicks = 0
}

// Tick publishes the owned entities due on this simulation tick.
func (b *Broadcaster) Tick(local *types.PlayerState, ball *types.BallState) {
	b.playerTicks++
	if local != nil && local.Owned && b.playerTicks >= constants.PlayerBroadcastInterval {
		b.playerTicks = 0
		if err := b.sendPlayer(local); err != nil {
			log.Error("Failed to broadcast player state: %v", err)
		}
	}

	b.ballTicks++
	if ball != nil && ball.Owned && b.ballTicks >= constants.BallBroadcastInterval {
		b.ballTicks = 0
		if err := b.sendBall(ball); err != nil {
			log.Error("Failed to broadcast ball state: %v", err)
		}
	}
}

func (b *Broadcaster) sendPlayer(local *types.PlayerState) error {
	msg, err := messages.NewMessage(messages.MessageTypeClientPlayerPosition, &messages.ClientPlayerPosition{
		Position: local.Role.String(),
		Player: messages.PlayerSnapshot{
			X:          local.Position.X,
			Y:          local.Position.Y,
			VelocityX:  local.Velocity.X,
			VelocityY:  local.Velocity.Y,
			Direction:  local.Direction,
			IsOnGround: local.IsOnGround,
		},
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		return err
	}
	return b.conn.Send(msg)
}

func (b *Broadcaster) sendBall(ball *types.BallState) error {
	msg, err := messages.NewMessage(messages.MessageTypeClientBallState, &messages.ClientBallState{
		Ball: messages.BallSnapshot{
			X:         ball.Position.X,
			Y:         ball.Position.Y,
			VelocityX: ball.Velocity.X,
			VelocityY: ball.Velocity.Y,
		},
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		return err
	}
	return b.conn.Send(msg)
}
