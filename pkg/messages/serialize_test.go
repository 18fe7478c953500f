package messages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeDeserializeMessage(t *testing.T) {
	tests := []struct {
		name    string
		message *Message
	}{
		{
			name: "player position broadcast",
			message: mustNewMessage(t, MessageTypeClientPlayerPosition, &ClientPlayerPosition{
				Position: "player1",
				Player: PlayerSnapshot{
					X:          200,
					Y:          420,
					VelocityX:  250,
					Direction:  1,
					IsOnGround: true,
				},
				Timestamp: 1700000000000,
			}),
		},
		{
			name:    "message without payload",
			message: mustNewMessage(t, MessageTypeClientFindMatch, nil),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := SerializeMessage(tt.message)
			require.NoError(t, err)

			got, err := DeserializeMessage(b)
			require.NoError(t, err)
			assert.Equal(t, tt.message.Type, got.Type)
			assert.JSONEq(t, orEmptyObject(tt.message.Payload), orEmptyObject(got.Payload))
		})
	}
}

func TestUnmarshalPayload(t *testing.T) {
	msg, err := NewMessage(MessageTypeServerGoalScored, &ServerGoalScored{
		Scorer:   "player2",
		NewScore: &Score{Player1: 0, Player2: 1},
	})
	require.NoError(t, err)

	got := &ServerGoalScored{}
	require.NoError(t, UnmarshalPayload(msg, got))
	assert.Equal(t, "player2", got.Scorer)
	require.NotNil(t, got.NewScore)
	assert.Equal(t, 1, got.NewScore.Player2)
}

func mustNewMessage(t *testing.T, messageType string, payload interface{}) *Message {
	t.Helper()
	msg, err := NewMessage(messageType, payload)
	require.NoError(t, err)
	return msg
}

func orEmptyObject(raw []byte) string {
	if len(raw) == 0 {
		return "{}"
	}
	return string(raw)
}
