package hexgame

import "time"

const moveDuration = 250 * time.Millisecond

// MovingUnit is a unit on its way between two hexes. The source hex is
// snapshotted and emptied as soon as the move starts.
type MovingUnit struct {
	Src      *Hex
	Dst      *Hex
	UnitType UnitType

	from, delta Position
	start       time.Time
}

func NewMovingUnit(src, dst *Hex, now time.Time) *MovingUnit {
	from := HexDrawingLocation(src.Coord())
	to := HexDrawingLocation(dst.Coord())
	m := &MovingUnit{
		Src:      src,
		Dst:      dst,
		UnitType: src.UnitType(),
		from:     from,
		delta:    Position{X: to.X - from.X, Y: to.Y - from.Y},
		start:    now,
	}
	src.SaveState()
	src.RemoveUnit()
	return m
}

func (m *MovingUnit) Completed(now time.Time) bool {
	return now.Sub(m.start) >= moveDuration
}

// Position is where the unit is drawn at now, in field coordinates.
func (m *MovingUnit) Position(now time.Time) Position {
	progress := ease(float64(now.Sub(m.start)) / float64(moveDuration))
	if progress > 1 {
		progress = 1
	}
	return Position{
		X: m.from.X + m.delta.X*progress,
		Y: m.from.Y + m.delta.Y*progress,
	}
}
