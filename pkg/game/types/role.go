package types

import "fmt"

// Role identifies a player slot in a room. The first joiner is player1 and
// simulates the ball; the second is player2.
type Role int

const (
	RoleNone Role = iota
	RolePlayer1
	RolePlayer2
)

func (r Role) String() string {
	switch r {
	case RolePlayer1:
		return "player1"
	case RolePlayer2:
		return "player2"
	}
	return "none"
}

// ParseRole parses a wire role string into a Role.
func ParseRole(role string) (Role, error) {
	switch role {
	case "player1":
		return RolePlayer1, nil
	case "player2":
		return RolePlayer2, nil
	default:
		return RoleNone, fmt.Errorf("unknown role: %s", role)
	}
}

// Opponent returns the other player slot.
func (r Role) Opponent() Role {
	switch r {
	case RolePlayer1:
		return RolePlayer2
	case RolePlayer2:
		return RolePlayer1
	}
	return RoleNone
}

// IsAuthority reports whether this role simulates the ball.
func (r Role) IsAuthority() bool {
	return r == RolePlayer1
}
