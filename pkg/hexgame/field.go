package hexgame

import (
	"time"

	"github.com/rs/zerolog"
)

// State is what the field manager is waiting for.
type State int

const (
	StateIdle State = iota
	// StateUnitSelected: a unit is picked, highlighted hexes are move targets.
	StateUnitSelected
	// StateUnitPending: a unit is picked in the overlay, highlighted hexes are placements.
	StateUnitPending
	// StateBuildingPending: a building is picked in the overlay.
	StateBuildingPending
	// StateUnitMoving: a move is in flight and input is ignored until it lands.
	StateUnitMoving
	// StateTurnEnded: the turn is over; the game has to be reloaded.
	StateTurnEnded
)

var stateNames = [...]string{"idle", "unit_selected", "unit_pending", "building_pending", "unit_moving", "turn_ended"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// FieldManager owns the field of one turn and turns clicks into game
// actions. It is not safe for concurrent use.
type FieldManager struct {
	width, height int
	field         [][]*Hex // field[col][row]

	activeFraction      int
	activeProvinceIndex int
	state               State
	won                 bool

	townsAndTowers map[*Hex]struct{}

	selectedHex *Hex
	highlighted *hexSet
	movingUnit  *MovingUnit

	provinces *Provinces
	history   *ActionHistory
	spawn     *SpawnCheck

	players []string

	rng         Random
	log         zerolog.Logger
	now         func() time.Time
	transform   Transform
	onSerialize func()
	onWin       func(fraction int)
}

// Option configures a FieldManager.
type Option func(*FieldManager)

func WithRandom(r Random) Option {
	return func(fm *FieldManager) { fm.rng = r }
}

// WithSerializationHook is called once the turn has ended and the field is
// ready to be serialized.
func WithSerializationHook(fn func()) Option {
	return func(fm *FieldManager) { fm.onSerialize = fn }
}

// WithWinHook is called with the winning fraction after the turn in which
// the last opponent province fell.
func WithWinHook(fn func(fraction int)) Option {
	return func(fm *FieldManager) { fm.onWin = fn }
}

func WithLogger(l zerolog.Logger) Option {
	return func(fm *FieldManager) { fm.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(fm *FieldManager) { fm.now = now }
}

func WithTransform(t Transform) Option {
	return func(fm *FieldManager) { fm.transform = t }
}

func (fm *FieldManager) Width() int  { return fm.width }
func (fm *FieldManager) Height() int { return fm.height }

func (fm *FieldManager) Active(col, row int) bool {
	return fm.inRange(col, row) && fm.field[col][row].Active()
}

func (fm *FieldManager) inRange(col, row int) bool {
	return col >= 0 && col < fm.width && row >= 0 && row < fm.height
}

// Hex returns the cell at col,row or nil when out of range.
func (fm *FieldManager) Hex(col, row int) *Hex {
	if !fm.inRange(col, row) {
		return nil
	}
	return fm.field[col][row]
}

func (fm *FieldManager) neighbours(h *Hex) []*Hex {
	all, n := candidates(fm, h.Coord())
	out := make([]*Hex, 0, n)
	for _, c := range all[:n] {
		if nb := fm.field[c.Col][c.Row]; nb.Active() {
			out = append(out, nb)
		}
	}
	return out
}

func (fm *FieldManager) forEachHex(fn func(*Hex)) {
	for _, col := range fm.field {
		for _, h := range col {
			fn(h)
		}
	}
}

func (fm *FieldManager) ActiveFraction() int      { return fm.activeFraction }
func (fm *FieldManager) ActiveProvinceIndex() int { return fm.activeProvinceIndex }
func (fm *FieldManager) State() State             { return fm.state }
func (fm *FieldManager) TurnEnded() bool          { return fm.state == StateTurnEnded }
func (fm *FieldManager) Won() bool                { return fm.won }
func (fm *FieldManager) Provinces() *Provinces    { return fm.provinces }
func (fm *FieldManager) History() *ActionHistory  { return fm.history }
func (fm *FieldManager) SelectedHex() *Hex        { return fm.selectedHex }
func (fm *FieldManager) Players() []string        { return fm.players }
func (fm *FieldManager) Transform() Transform     { return fm.transform }

// SetTransform records the transform of the latest draw so screen clicks
// can be mapped back onto the grid.
func (fm *FieldManager) SetTransform(t Transform) { fm.transform = t }

// ActiveOverlay is the economy of the selected province, nil when no
// province is selected.
func (fm *FieldManager) ActiveOverlay() *Overlay {
	return fm.provinces.Overlay(fm.activeFraction, fm.activeProvinceIndex)
}

func (fm *FieldManager) HexCountOfActiveProvince() (int, bool) {
	return fm.provinces.HexCount(fm.activeFraction, fm.activeProvinceIndex)
}

func (fm *FieldManager) ProvinceCountOfActiveFraction() int {
	return fm.provinces.ProvinceCount(fm.activeFraction)
}

// HighlightedHexes returns the current move or placement targets.
func (fm *FieldManager) HighlightedHexes() []*Hex {
	if fm.highlighted == nil {
		return nil
	}
	return fm.highlighted.slice()
}

// MovingUnit returns the move in flight, if any.
func (fm *FieldManager) MovingUnit() *MovingUnit { return fm.movingUnit }

// Update advances time-driven state: overlay transitions and a move that
// has reached its destination.
func (fm *FieldManager) Update(now time.Time) {
	if o := fm.ActiveOverlay(); o != nil {
		o.Update(now)
	}
	if fm.movingUnit != nil && fm.movingUnit.Completed(now) {
		fm.finishMovement()
	}
}

// CompleteMovement lands the move in flight without waiting for its
// animation.
func (fm *FieldManager) CompleteMovement() {
	if fm.movingUnit != nil {
		fm.finishMovement()
	}
}

// Settle completes every pending animation. Headless callers use it after
// each click.
func (fm *FieldManager) Settle() {
	fm.CompleteMovement()
	for f := 1; f <= fm.provinces.FractionCount(); f++ {
		for _, p := range fm.provinces.Provinces(f) {
			p.Overlay().finishTransition()
		}
	}
}

func (fm *FieldManager) finishMovement() {
	m := fm.movingUnit
	fm.movingUnit = nil
	if o := fm.ActiveOverlay(); o != nil {
		o.SaveState()
	}
	fm.placeUnit(unitPlacement{
		dst:        m.Dst,
		src:        m.Src,
		unitType:   m.UnitType,
		actionType: ActionMoveUnit,
	})
	fm.state = StateIdle
	fm.resetSelection()
}

func (fm *FieldManager) resetSelection() {
	if fm.selectedHex != nil {
		fm.selectedHex.ResetHighlight()
		fm.selectedHex = nil
	}
	if fm.highlighted != nil {
		for _, h := range fm.highlighted.order {
			h.ResetHighlight()
		}
		fm.highlighted = nil
	}
	switch fm.state {
	case StateUnitSelected, StateUnitPending, StateBuildingPending:
		fm.state = StateIdle
	}
}

func (fm *FieldManager) setHighlighted(hexes []*Hex) {
	for _, h := range hexes {
		h.HighlightBorder()
	}
	fm.highlighted = newHexSet(hexes...)
}

func (fm *FieldManager) hideOverlay(o *Overlay) {
	if o != nil && o.IsShown() {
		o.ToggleShown(fm.now())
	}
}

func (fm *FieldManager) trackTownOrTower(h *Hex)   { fm.townsAndTowers[h] = struct{}{} }
func (fm *FieldManager) untrackTownOrTower(h *Hex) { delete(fm.townsAndTowers, h) }
