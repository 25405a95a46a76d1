package game

import "fmt"

// Board holds line and box ownership on a Grid. The coordinator owns the
// canonical instance; everybody else works on copies returned by Copy.
type Board struct {
	Grid  *Grid // Static topology, shared between copies
	lines map[Line]Player
	boxes map[Box]Player
}

// NewBoard returns a board with every line and box unowned.
func NewBoard(grid *Grid) *Board {
	b := &Board{
		Grid:  grid,
		lines: make(map[Line]Player, grid.NumLines()),
		boxes: make(map[Box]Player, grid.NumBoxes()),
	}
	for _, l := range grid.lines {
		b.lines[l] = None
	}
	for _, box := range grid.boxes {
		b.boxes[box] = None
	}
	return b
}

// Copy returns a deep, independent copy of the board.
func (b *Board) Copy() *Board {
	return &Board{
		Grid:  b.Grid,
		lines: b.Lines(),
		boxes: b.Boxes(),
	}
}

// Lines returns a copy of the line ownership map.
func (b *Board) Lines() map[Line]Player {
	lines := make(map[Line]Player, len(b.lines))
	for l, owner := range b.lines {
		lines[l] = owner
	}
	return lines
}

// Boxes returns a copy of the box ownership map.
func (b *Board) Boxes() map[Box]Player {
	boxes := make(map[Box]Player, len(b.boxes))
	for box, owner := range b.boxes {
		boxes[box] = owner
	}
	return boxes
}

func (b *Board) LineOwner(l Line) Player { return b.lines[l] }
func (b *Board) BoxOwner(box Box) Player { return b.boxes[box] }

// LegalMoves returns every unowned line in grid order.
func (b *Board) LegalMoves() []Line {
	moves := make([]Line, 0, len(b.Grid.lines))
	for _, l := range b.Grid.lines {
		if b.lines[l] == None {
			moves = append(moves, l)
		}
	}
	return moves
}

// Check reports why the action cannot be played when turn is to move.
func (b *Board) Check(a Action, turn Player) error {
	if a.Player != turn {
		return fmt.Errorf("%s played while %s is to move: %w", a.Player, turn, ErrWrongTurn)
	}
	return b.checkLine(a.Player, a.Line)
}

func (b *Board) checkLine(p Player, l Line) error {
	if !p.Valid() {
		return fmt.Errorf("player %d: %w", p, ErrNotAPlayer)
	}
	owner, ok := b.lines[l]
	if !ok {
		return fmt.Errorf("line %s: %w", l, ErrUnknownLine)
	}
	if owner != None {
		return fmt.Errorf("line %s owned by %s: %w", l, owner, ErrLineOwned)
	}
	return nil
}

// Apply sets the owner of an unowned line. Boxes are left untouched until
// ResolveCompletions runs.
func (b *Board) Apply(p Player, l Line) error {
	if err := b.checkLine(p, l); err != nil {
		return err
	}
	b.lines[l] = p
	return nil
}

// ResolveCompletions hands every unowned box whose four sides are owned to p
// and returns the newly completed boxes in grid order.
func (b *Board) ResolveCompletions(p Player) []Box {
	var completed []Box
	for _, box := range b.Grid.boxes {
		if b.boxes[box] == None && b.closed(box) {
			b.boxes[box] = p
			completed = append(completed, box)
		}
	}
	return completed
}

// Play applies the line and resolves completions among the boxes it bounds.
// Equivalent to Apply followed by ResolveCompletions on any reachable board.
func (b *Board) Play(p Player, l Line) ([]Box, error) {
	if err := b.Apply(p, l); err != nil {
		return nil, err
	}
	var completed []Box
	for _, box := range b.Grid.adjacent[l] {
		if b.boxes[box] == None && b.closed(box) {
			b.boxes[box] = p
			completed = append(completed, box)
		}
	}
	return completed, nil
}

// Unplay reverts a Play on a working copy. Only search code may call it:
// ownership on the canonical board is set-once.
func (b *Board) Unplay(l Line, completed []Box) {
	for _, box := range completed {
		b.boxes[box] = None
	}
	b.lines[l] = None
}

func (b *Board) closed(box Box) bool {
	for _, side := range box.Sides() {
		if b.lines[side] == None {
			return false
		}
	}
	return true
}

// IsTerminal reports whether every box has an owner.
func (b *Board) IsTerminal() bool {
	for _, owner := range b.boxes {
		if owner == None {
			return false
		}
	}
	return true
}

// Tally counts boxes per owner.
func (b *Board) Tally() ScoreBoard {
	var s ScoreBoard
	for _, owner := range b.boxes {
		switch owner {
		case PlayerA:
			s.A++
		case PlayerB:
			s.B++
		default:
			s.Unowned++
		}
	}
	return s
}

// Advantage is p's box count minus its opponent's.
func (b *Board) Advantage(p Player) int {
	s := b.Tally()
	return s.Of(p) - s.Of(p.Opponent())
}
