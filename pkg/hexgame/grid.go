package hexgame

import "fmt"

// Coord addresses a cell by column and row. Odd columns are shifted half a
// cell down when drawn.
type Coord struct {
	Col int `json:"x"`
	Row int `json:"y"`
}

func (c Coord) String() string {
	return fmt.Sprintf("%d:%d", c.Col, c.Row)
}

// Grid is the minimal view of a rectangular hex field needed for adjacency.
type Grid interface {
	Width() int
	Height() int
	Active(col, row int) bool
}

// candidates returns the in-bounds cells adjacent to c, active or not.
func candidates(g Grid, c Coord) ([6]Coord, int) {
	var out [6]Coord
	n := 0
	add := func(col, row int) {
		if col < 0 || col >= g.Width() || row < 0 || row >= g.Height() {
			return
		}
		out[n] = Coord{col, row}
		n++
	}
	add(c.Col, c.Row-1)
	add(c.Col, c.Row+1)
	diag := -1
	if c.Col%2 == 1 {
		diag = 1
	}
	add(c.Col-1, c.Row)
	add(c.Col-1, c.Row+diag)
	add(c.Col+1, c.Row)
	add(c.Col+1, c.Row+diag)
	return out, n
}

// Neighbours returns the active cells adjacent to c: up and down in the same
// column, left and right, and the diagonal pair, which lies below for odd
// columns and above for even ones.
func Neighbours(g Grid, c Coord) []Coord {
	all, n := candidates(g, c)
	out := all[:0]
	for _, nb := range all[:n] {
		if g.Active(nb.Col, nb.Row) {
			out = append(out, nb)
		}
	}
	return out
}

// ActiveNeighbourCount returns how many of the six adjacent cells are active.
func ActiveNeighbourCount(g Grid, c Coord) int {
	return len(Neighbours(g, c))
}
