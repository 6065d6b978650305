package hexgame

type hexSnapshot struct {
	fraction      int
	provinceIndex int
	unit          *Unit
	object        Obj
}

// Hex is a single field cell. It implements StateHolder.
type Hex struct {
	col    int
	row    int
	active bool

	fraction      int
	unit          *Unit
	object        Obj
	provinceIndex int

	highlightedUnit   bool
	highlightedBorder bool

	history []hexSnapshot

	// fired by RestoreState so the field can keep its town/tower index current
	onTownOrTowerRemoved func(*Hex)
	onTownOrTowerAdded   func(*Hex)
}

// NewHex creates a hex without a unit.
func NewHex(col, row int, active bool, fraction int, obj Obj, provinceIndex int) *Hex {
	return &Hex{
		col:           col,
		row:           row,
		active:        active,
		fraction:      fraction,
		object:        obj,
		provinceIndex: provinceIndex,
	}
}

func (h *Hex) Col() int      { return h.col }
func (h *Hex) Row() int      { return h.row }
func (h *Hex) Coord() Coord  { return Coord{h.col, h.row} }
func (h *Hex) Active() bool  { return h.active }
func (h *Hex) Fraction() int { return h.fraction }

func (h *Hex) SetFraction(fraction int) { h.fraction = fraction }

func (h *Hex) ProvinceIndex() int { return h.provinceIndex }

func (h *Hex) SetProvinceIndex(index int) { h.provinceIndex = index }

func (h *Hex) Object() Obj { return h.object }

func (h *Hex) SetObject(obj Obj) { h.object = obj }

// Unit returns a copy of the unit on the hex and whether there is one.
func (h *Hex) Unit() (Unit, bool) {
	if h.unit == nil {
		return Unit{}, false
	}
	return *h.unit, true
}

// UnitType returns the type of the unit on the hex, or UnitNone.
func (h *Hex) UnitType() UnitType {
	if h.unit == nil {
		return UnitNone
	}
	return h.unit.Type
}

func (h *Hex) HasUnit() bool { return h.unit != nil }

func (h *Hex) SetUnit(t UnitType, animating bool) {
	h.unit = &Unit{Type: t, Animating: animating}
}

func (h *Hex) RemoveUnit() { h.unit = nil }

// HasActiveUnit reports whether the hex holds a unit that can still move.
func (h *Hex) HasActiveUnit() bool {
	return h.unit != nil && h.unit.Animating
}

func (h *Hex) StopUnitAnimation() {
	if h.unit != nil && h.unit.Animating {
		h.unit = &Unit{Type: h.unit.Type}
	}
}

// IsFree reports whether the hex has neither a unit nor an object.
func (h *Hex) IsFree() bool {
	return h.unit == nil && h.object == ObjNone
}

func (h *Hex) HighlightUnit()   { h.highlightedUnit = true }
func (h *Hex) HighlightBorder() { h.highlightedBorder = true }

func (h *Hex) ResetHighlight() {
	h.highlightedUnit = false
	h.highlightedBorder = false
}

func (h *Hex) UnitHighlighted() bool   { return h.highlightedUnit }
func (h *Hex) BorderHighlighted() bool { return h.highlightedBorder }

func (h *Hex) SaveState() {
	h.history = append(h.history, hexSnapshot{
		fraction:      h.fraction,
		provinceIndex: h.provinceIndex,
		unit:          h.unit,
		object:        h.object,
	})
}

func (h *Hex) RestoreState() {
	if len(h.history) == 0 {
		return
	}
	s := h.history[len(h.history)-1]
	h.history = h.history[:len(h.history)-1]

	if h.object.IsTownOrTower() && h.onTownOrTowerRemoved != nil {
		h.onTownOrTowerRemoved(h)
	}
	h.fraction = s.fraction
	h.provinceIndex = s.provinceIndex
	h.unit = s.unit
	h.object = s.object
	if h.object.IsTownOrTower() && h.onTownOrTowerAdded != nil {
		h.onTownOrTowerAdded(h)
	}
}

// HistoryLen returns the number of saved snapshots.
func (h *Hex) HistoryLen() int { return len(h.history) }

func (h *Hex) watchTownOrTower(removed, added func(*Hex)) {
	h.onTownOrTowerRemoved = removed
	h.onTownOrTowerAdded = added
}
