package game

// Action is a line placement by a player.
type Action struct {
	Player Player
	Line   Line
}

// ScoreBoard counts owned boxes. A + B + Unowned always equals the number
// of boxes on the grid.
type ScoreBoard struct {
	A       int
	B       int
	Unowned int
}

func (s ScoreBoard) Of(p Player) int {
	switch p {
	case PlayerA:
		return s.A
	case PlayerB:
		return s.B
	}
	return s.Unowned
}

func (s ScoreBoard) Total() int {
	return s.A + s.B + s.Unowned
}

// Winner returns the player with more boxes, or None on a tie.
func (s ScoreBoard) Winner() Player {
	switch {
	case s.A > s.B:
		return PlayerA
	case s.B > s.A:
		return PlayerB
	}
	return None
}
