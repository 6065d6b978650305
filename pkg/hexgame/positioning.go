package hexgame

import "math"

// Screen geometry shared with clients. Distances are in canvas pixels for
// menu widgets and in field units for hexes.
const (
	MenuButtonHorizontalAdjustment = 32
	MenuButtonSize                 = 64
	MenuButtonTotalAdjustment      = MenuButtonHorizontalAdjustment + MenuButtonSize

	HexSize      = 30
	HexHeight    = 23
	UnitSize     = 26
	HalfUnitSize = UnitSize / 2

	HouseSelectionSize          = 130
	UnitSelectionSize           = 110
	UnitAdditionSize            = 150
	SelectionVerticalAdjustment = 115
	AdditionVerticalAdjustment  = 225
)

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Dimension struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Transform is the uniform scale and translation applied when the field is
// drawn.
type Transform struct {
	Scale float64 `json:"scale"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// DefaultTransform matches the initial camera of the client.
var DefaultTransform = Transform{Scale: 1.7, X: 150, Y: 50}

// Invert maps a screen point back to field coordinates.
func (t Transform) Invert(p Position) Position {
	scale := t.Scale
	if scale == 0 {
		scale = 1
	}
	return Position{X: (p.X - t.X) / scale, Y: (p.Y - t.Y) / scale}
}

func (t Transform) Apply(p Position) Position {
	return Position{X: p.X*t.Scale + t.X, Y: p.Y*t.Scale + t.Y}
}

// HexDrawingLocation is the top-left corner of a cell in field coordinates.
func HexDrawingLocation(c Coord) Position {
	y := float64(c.Row * UnitSize)
	if c.Col%2 == 1 {
		y += HalfUnitSize
	}
	return Position{X: float64(c.Col * HexHeight), Y: y}
}

// HexIndices is the inverse of HexDrawingLocation.
func HexIndices(p Position) Coord {
	col := int(math.Floor(p.X / HexHeight))
	y := p.Y
	if col%2 == 1 {
		y -= HalfUnitSize
	}
	return Coord{Col: col, Row: int(math.Floor(y / UnitSize))}
}

func within(p Position, x0, x1, y0, y1 float64) bool {
	return p.X >= x0 && p.X <= x1 && p.Y >= y0 && p.Y <= y1
}

func IsUndoClicked(p Position, d Dimension) bool {
	return within(p,
		MenuButtonHorizontalAdjustment, MenuButtonHorizontalAdjustment+MenuButtonSize,
		d.Height-MenuButtonTotalAdjustment, d.Height-MenuButtonTotalAdjustment+MenuButtonSize)
}

func IsNextTurnClicked(p Position, d Dimension) bool {
	return within(p,
		d.Width-MenuButtonTotalAdjustment, d.Width-MenuButtonTotalAdjustment+MenuButtonSize,
		d.Height-MenuButtonTotalAdjustment, d.Height-MenuButtonTotalAdjustment+MenuButtonSize)
}

func IsHouseSelectionClicked(p Position, d Dimension) bool {
	return within(p,
		d.Width/4, d.Width/4+HouseSelectionSize,
		d.Height-HouseSelectionSize, d.Height)
}

func IsUnitSelectionClicked(p Position, d Dimension) bool {
	return within(p,
		3*d.Width/4-UnitSelectionSize, 3*d.Width/4,
		d.Height-SelectionVerticalAdjustment, d.Height-SelectionVerticalAdjustment+UnitSelectionSize)
}

// ClassifyClick turns a screen point into a Click. Buttons are tested in
// the order the field manager gives them priority; anything else is mapped
// through the inverted transform onto the grid.
func ClassifyClick(p Position, d Dimension, t Transform) Click {
	switch {
	case IsUndoClicked(p, d):
		return Click{Kind: ClickUndo}
	case IsNextTurnClicked(p, d):
		return Click{Kind: ClickEndTurn}
	case IsHouseSelectionClicked(p, d):
		return Click{Kind: ClickHouseSelector}
	case IsUnitSelectionClicked(p, d):
		return Click{Kind: ClickUnitSelector}
	}
	c := HexIndices(t.Invert(p))
	return HexClick(c.Col, c.Row)
}

// ease is a cubic ease-out.
func ease(v float64) float64 {
	return 1 - math.Pow(1-v, 3)
}
