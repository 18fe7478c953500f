package messages

import "encoding/json"

const (
	// MessageBufferSize represents the maximum size of a message
	MessageBufferSize = 1024
)

// Client message types
const (
	MessageTypeClientFindMatch      = "find-match"
	MessageTypeClientCreateRoom     = "create-room"
	MessageTypeClientJoinRoomByCode = "join-room-by-code"
	MessageTypeClientLeaveRoom      = "leave-room"
	MessageTypeClientPlayerReady    = "player-ready"
	MessageTypeClientMoveLeft       = "move-left"
	MessageTypeClientMoveRight      = "move-right"
	MessageTypeClientJump           = "jump"
	MessageTypeClientKick           = "kick"
	MessageTypeClientPlayerPosition = "player-position"
	MessageTypeClientBallState      = "ball-state"
	MessageTypeClientGoalScored     = "goal-scored"
	MessageTypeClientGameEnd        = "game-end"
	MessageTypeClientRequestRematch = "request-rematch"
	MessageTypeClientDeclineRematch = "decline-rematch"
)

// Server message types
const (
	MessageTypeServerWelcome          = "welcome"
	MessageTypeServerPlayerCreated    = "player-created"
	MessageTypeServerRoomJoined       = "room-joined"
	MessageTypeServerRoomCreated      = "room-created"
	MessageTypeServerPlayerJoinedRoom = "player-joined-room"
	MessageTypeServerRoomFull         = "room-full"
	MessageTypeServerLeftRoom         = "left-room"
	MessageTypeServerPlayerLeft       = "player-left"
	MessageTypeServerPlayerReady      = "player-ready"
	MessageTypeServerGameStarted      = "game-started"
	MessageTypeServerPlayerPosition   = "player-position"
	MessageTypeServerBallState        = "ball-state"
	MessageTypeServerGoalScored       = "goal-scored"
	MessageTypeServerMatchEnded       = "match-ended"
	MessageTypeServerRematchRequest   = "rematch-request"
	MessageTypeServerRematchConfirmed = "rematch-confirmed"
	MessageTypeServerRematchDeclined  = "rematch-declined"
	MessageTypeServerError            = "error"
)

// Message represents a generic message for serialization/deserialization
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Score is the per-side goal tally of a match.
type Score struct {
	Player1 int `json:"player1"`
	Player2 int `json:"player2"`
}

// ClientJoinRoomByCode asks the server to join a private room.
type ClientJoinRoomByCode struct {
	RoomCode string `json:"roomCode"`
}

// ClientPlayerReady signals the local player is ready to start.
type ClientPlayerReady struct {
	RoomID    string `json:"roomId"`
	Position  string `json:"position"`
	Timestamp int64  `json:"timestamp"`
}

// ClientInput is the payload of the move-left, move-right, jump and kick messages.
type ClientInput struct {
	Pressed bool `json:"pressed"`
}

// PlayerSnapshot is the over-the-wire state of a player entity.
type PlayerSnapshot struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	VelocityX  float64 `json:"velocityX"`
	VelocityY  float64 `json:"velocityY"`
	Direction  int     `json:"direction"`
	IsOnGround bool    `json:"isOnGround"`
}

// BallSnapshot is the over-the-wire state of the ball.
type BallSnapshot struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	VelocityX float64 `json:"velocityX"`
	VelocityY float64 `json:"velocityY"`
}

// ClientPlayerPosition is the throttled broadcast of the locally owned player.
type ClientPlayerPosition struct {
	Position  string         `json:"position"`
	Player    PlayerSnapshot `json:"player"`
	Timestamp int64          `json:"timestamp"`
}

// ClientBallState is the throttled broadcast of the ball, sent by the authority only.
type ClientBallState struct {
	Ball      BallSnapshot `json:"ball"`
	Timestamp int64        `json:"timestamp"`
}

// ClientGoalScored reports a goal detected by the ball authority.
type ClientGoalScored struct {
	Scorer string `json:"scorer"`
}

// ClientGameEnd submits the local match result when the timer expires.
type ClientGameEnd struct {
	FinalScore Score   `json:"finalScore"`
	Duration   float64 `json:"duration"`
	Winner     string  `json:"winner"`
}

// ServerWelcome is the handshake confirmation carrying the assigned player ID.
type ServerWelcome struct {
	PlayerID   string `json:"playerId"`
	ServerTime int64  `json:"serverTime"`
}

// RoomPlayer is one entry of a room membership snapshot.
// Ordering is join order and is the sole source of truth for role assignment.
type RoomPlayer struct {
	ID       string `json:"id"`
	Position string `json:"position,omitempty"`
}

// ServerRoomJoined is the payload of both room-joined and room-created.
type ServerRoomJoined struct {
	RoomID   string       `json:"roomId"`
	RoomCode string       `json:"roomCode"`
	Players  []RoomPlayer `json:"players"`
}

// ServerPlayerJoinedRoom carries the refreshed membership snapshot.
type ServerPlayerJoinedRoom struct {
	Players []RoomPlayer `json:"players"`
}

// ServerPlayerLeft notifies that the peer left the room.
type ServerPlayerLeft struct {
	PlayerID string `json:"playerId"`
}

// ServerPlayerReady is the readiness status of a room member.
type ServerPlayerReady struct {
	PlayerID        string `json:"playerId"`
	IsReady         bool   `json:"isReady"`
	AllPlayersReady bool   `json:"allPlayersReady,omitempty"`
}

// ServerGameStarted confirms all-ready and starts the match on both peers.
type ServerGameStarted struct {
	MatchDuration float64           `json:"matchDuration"`
	Room          *ServerRoomJoined `json:"room,omitempty"`
}

// ServerGoalScored confirms a goal and carries the authoritative score.
type ServerGoalScored struct {
	Scorer   string `json:"scorer"`
	NewScore *Score `json:"newScore,omitempty"`
}

// ServerMatchEnded confirms the end of the match.
type ServerMatchEnded struct {
	FinalScore Score   `json:"finalScore"`
	Duration   float64 `json:"duration"`
	Winner     string  `json:"winner"`
}

// ServerError is an opaque error event surfaced to the consumer.
type ServerError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
