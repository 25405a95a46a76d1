package game

import "errors"

// Player identifies the owner of a line or a box. None marks an unowned one.
type Player int8

const (
	None Player = iota
	PlayerA
	PlayerB
)

var (
	ErrNotAPlayer  = errors.New("not a player")
	ErrUnknownLine = errors.New("line is not on the grid")
	ErrLineOwned   = errors.New("line is already owned")
	ErrWrongTurn   = errors.New("player is not the current mover")
)

// Players lists both movers in a fixed order.
var Players = [2]Player{PlayerA, PlayerB}

func (p Player) Valid() bool {
	return p == PlayerA || p == PlayerB
}

// Opponent returns the other mover. None has no opponent.
func (p Player) Opponent() Player {
	switch p {
	case PlayerA:
		return PlayerB
	case PlayerB:
		return PlayerA
	}
	return None
}

func (p Player) String() string {
	switch p {
	case PlayerA:
		return "A"
	case PlayerB:
		return "B"
	}
	return "-"
}

// ParsePlayer accepts "A" or "B" (case-insensitive).
func ParsePlayer(s string) (Player, error) {
	switch s {
	case "A", "a":
		return PlayerA, nil
	case "B", "b":
		return PlayerB, nil
	}
	return None, ErrNotAPlayer
}
