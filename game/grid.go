package game

import "fmt"

// Point is a dot on the (Rows+1)×(Cols+1) dot lattice.
type Point struct {
	Row int
	Col int
}

func (p Point) less(q Point) bool {
	if p.Row != q.Row {
		return p.Row < q.Row
	}
	return p.Col < q.Col
}

// Line is an edge between two adjacent dots. From always precedes To in
// row-major order so the same edge compares equal however it was built.
type Line struct {
	From Point
	To   Point
}

// NewLine builds the canonical line between p and q.
func NewLine(p, q Point) Line {
	if q.less(p) {
		p, q = q, p
	}
	return Line{From: p, To: q}
}

func (l Line) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", l.From.Row, l.From.Col, l.To.Row, l.To.Col)
}

// Box is a unit cell named by its top-left dot.
type Box struct {
	Row int
	Col int
}

// Sides returns the top, bottom, left and right lines of the box.
func (b Box) Sides() [4]Line {
	i, j := b.Row, b.Col
	return [4]Line{
		NewLine(Point{i, j}, Point{i, j + 1}),
		NewLine(Point{i + 1, j}, Point{i + 1, j + 1}),
		NewLine(Point{i, j}, Point{i + 1, j}),
		NewLine(Point{i, j + 1}, Point{i + 1, j + 1}),
	}
}

func (b Box) String() string {
	return fmt.Sprintf("[%d,%d]", b.Row, b.Col)
}

// Grid is the static topology of a Rows×Cols box board. It is never mutated
// after construction and is shared by every board built on it.
type Grid struct {
	Rows int
	Cols int

	lines    []Line
	boxes    []Box
	adjacent map[Line][]Box
}

// NewGrid returns the topology of a board with rows×cols boxes.
func NewGrid(rows, cols int) *Grid {
	if rows < 1 || cols < 1 {
		panic(fmt.Sprintf("grid needs at least one box, got %dx%d", rows, cols))
	}

	g := &Grid{
		Rows:     rows,
		Cols:     cols,
		adjacent: make(map[Line][]Box),
	}
	// Horizontal lines first, then vertical ones
	for i := 0; i <= rows; i++ {
		for j := 0; j < cols; j++ {
			g.lines = append(g.lines, NewLine(Point{i, j}, Point{i, j + 1}))
		}
	}
	for i := 0; i < rows; i++ {
		for j := 0; j <= cols; j++ {
			g.lines = append(g.lines, NewLine(Point{i, j}, Point{i + 1, j}))
		}
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			box := Box{i, j}
			g.boxes = append(g.boxes, box)
			for _, side := range box.Sides() {
				g.adjacent[side] = append(g.adjacent[side], box)
			}
		}
	}
	return g
}

// Lines returns every line of the grid in a fixed order.
func (g *Grid) Lines() []Line {
	lines := make([]Line, len(g.lines))
	copy(lines, g.lines)
	return lines
}

// Boxes returns every box of the grid in row-major order.
func (g *Grid) Boxes() []Box {
	boxes := make([]Box, len(g.boxes))
	copy(boxes, g.boxes)
	return boxes
}

func (g *Grid) NumLines() int { return len(g.lines) }
func (g *Grid) NumBoxes() int { return len(g.boxes) }

// Contains reports whether the line joins two adjacent dots of the grid.
func (g *Grid) Contains(l Line) bool {
	_, ok := g.adjacent[l]
	return ok
}

// BoxesOf returns the one or two boxes bounded by the line.
func (g *Grid) BoxesOf(l Line) []Box {
	return g.adjacent[l]
}
