package hexgame

import (
	"errors"
	"fmt"
)

// ClickKind tells what a click landed on.
type ClickKind int

const (
	ClickOutside ClickKind = iota
	ClickHex
	ClickUndo
	ClickEndTurn
	ClickHouseSelector
	ClickUnitSelector
)

var clickKindNames = [...]string{"outside", "hex", "undo", "end_turn", "house", "unit"}

func (k ClickKind) String() string {
	if int(k) < len(clickKindNames) {
		return clickKindNames[k]
	}
	return "unknown"
}

var ErrUnknownClick = errors.New("unknown click kind")

func ParseClickKind(s string) (ClickKind, error) {
	for i, name := range clickKindNames {
		if name == s {
			return ClickKind(i), nil
		}
	}
	return ClickOutside, fmt.Errorf("parse click %q: %w", s, ErrUnknownClick)
}

// Click is one user input. Col and Row are only meaningful for ClickHex.
type Click struct {
	Kind ClickKind
	Col  int
	Row  int
}

func HexClick(col, row int) Click {
	return Click{Kind: ClickHex, Col: col, Row: row}
}

func (c Click) String() string {
	if c.Kind == ClickHex {
		return fmt.Sprintf("hex(%d:%d)", c.Col, c.Row)
	}
	return c.Kind.String()
}

// HandleScreenClick resolves a canvas point against the button layout and
// the latest transform. Buttons that would do nothing right now let the
// click through to the hex underneath.
func (fm *FieldManager) HandleScreenClick(p Position, d Dimension) bool {
	c := ClassifyClick(p, d, fm.transform)
	passThrough := false
	switch c.Kind {
	case ClickUndo:
		passThrough = !fm.history.HasActions()
	case ClickHouseSelector, ClickUnitSelector:
		o := fm.ActiveOverlay()
		passThrough = o == nil || !o.IsShown()
	}
	if passThrough {
		idx := HexIndices(fm.transform.Invert(p))
		c = HexClick(idx.Col, idx.Row)
	}
	return fm.HandleClick(c)
}

// HandleClick applies c and reports whether it was consumed as a game
// action. A false result means the caller may treat it as a pan.
func (fm *FieldManager) HandleClick(c Click) bool {
	switch fm.state {
	case StateTurnEnded, StateUnitMoving:
		return false
	}

	overlay := fm.ActiveOverlay()
	switch c.Kind {
	case ClickUndo:
		return fm.undo()
	case ClickEndTurn:
		fm.endTurn()
		return true
	case ClickHouseSelector:
		if overlay == nil || !overlay.IsShown() {
			return false
		}
		return fm.selectBuilding(overlay)
	case ClickUnitSelector:
		if overlay == nil || !overlay.IsShown() {
			return false
		}
		fm.selectUnit(overlay)
		return true
	case ClickHex:
		if h := fm.Hex(c.Col, c.Row); h != nil {
			return fm.clickHex(h, overlay)
		}
	}
	fm.resetSelection()
	fm.hideOverlay(overlay)
	return false
}

func (fm *FieldManager) undo() bool {
	if !fm.history.HasActions() {
		return false
	}
	if err := fm.history.Pop(); err != nil {
		panic(fmt.Sprintf("undo: %v", err))
	}
	fm.resetSelection()
	fm.log.Debug().Int("remaining", fm.history.Len()).Msg("action undone")
	return true
}

func (fm *FieldManager) clickHex(h *Hex, overlay *Overlay) bool {
	if fm.highlighted == nil {
		return fm.tryHighlight(h)
	}
	if !fm.highlighted.has(h) {
		if overlay != nil {
			overlay.ResetSelection()
		}
		fm.resetSelection()
		return false
	}

	if fm.state == StateUnitSelected && fm.selectedHex != nil {
		fm.movingUnit = NewMovingUnit(fm.selectedHex, h, fm.now())
		fm.resetSelection()
		fm.state = StateUnitMoving
		return true
	}

	fm.addFromOverlay(h, overlay)
	overlay.ResetSelection()
	fm.resetSelection()
	return true
}

// addFromOverlay buys whatever is selected in overlay and puts it on h.
func (fm *FieldManager) addFromOverlay(h *Hex, overlay *Overlay) {
	overlay.SaveState()
	switch {
	case overlay.UpdateWithNewUnitAddition():
		fm.placeUnit(unitPlacement{
			dst:        h,
			unitType:   overlay.UnitToBeAdded(),
			animate:    h.Object() == ObjNone,
			actionType: ActionAddUnit,
		})
	case overlay.UpdateWithNewBuildingAddition():
		b := overlay.BuildingToBeAdded()
		tx := NewTransaction()
		tx.Save(h)
		tx.Adopt(overlay)
		fm.commit(tx, Action{Type: ActionAddBuilding, Dst: h.Coord(), ObjectType: b})
		h.SetObject(b)
		if b != ObjFarm {
			fm.trackTownOrTower(h)
		}
	default:
		overlay.RestoreState()
	}
}

func (fm *FieldManager) commit(tx *Transaction, a Action) {
	if err := tx.Commit(fm.history, a); err != nil {
		panic(fmt.Sprintf("commit %s: %v", a.Type, err))
	}
	fm.log.Debug().Stringer("action", a.Type).Stringer("dst", a.Dst).Msg("action recorded")
}

func (fm *FieldManager) selectBuilding(overlay *Overlay) bool {
	overlay.CycleBuildingToBeAdded()
	fm.resetSelection()
	switch overlay.BuildingToBeAdded() {
	case ObjFarm:
		fm.setHighlighted(fm.farmTargets())
	case ObjTower, ObjStrongTower:
		fm.setHighlighted(fm.towerTargets())
	default:
		return false
	}
	fm.state = StateBuildingPending
	return true
}

func (fm *FieldManager) selectUnit(overlay *Overlay) {
	overlay.CycleUnitToBeAdded()
	fm.resetSelection()
	fm.setHighlighted(fm.placementTargets(overlay.UnitToBeAdded()))
	fm.state = StateUnitPending
}

// farmTargets are the empty hexes of the province next to its town or one
// of its farms.
func (fm *FieldManager) farmTargets() []*Hex {
	out := newHexSet()
	for _, h := range fm.provinces.Hexes(fm.activeFraction, fm.activeProvinceIndex) {
		if h.Object() != ObjTown && h.Object() != ObjFarm {
			continue
		}
		for _, n := range fm.neighbours(h) {
			if n.Fraction() == h.Fraction() && n.IsFree() {
				out.add(n)
			}
		}
	}
	return out.order
}

func (fm *FieldManager) towerTargets() []*Hex {
	var out []*Hex
	for _, h := range fm.provinces.Hexes(fm.activeFraction, fm.activeProvinceIndex) {
		if h.IsFree() {
			out = append(out, h)
		}
	}
	return out
}

// placementTargets are the hexes a newly bought unit of type t may be put
// on: the province itself and the ring of foreign hexes around it.
func (fm *FieldManager) placementTargets(t UnitType) []*Hex {
	hexes := fm.provinces.Hexes(fm.activeFraction, fm.activeProvinceIndex)
	if len(hexes) == 0 {
		return nil
	}
	fraction := hexes[0].Fraction()

	visited := newHexSet()
	queue := hexes
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		if visited.has(h) {
			continue
		}
		visited.add(h)
		if h.Fraction() != fraction {
			continue
		}
		queue = append(queue, fm.neighbours(h)...)
	}

	var out []*Hex
	for _, h := range visited.order {
		if h.Fraction() != fraction {
			if fm.canCapture(t, h) {
				out = append(out, h)
			}
			continue
		}
		if h.HasUnit() {
			if h.UnitType()+t <= UnitKnight {
				out = append(out, h)
			}
			continue
		}
		switch h.Object() {
		case ObjNone, ObjGrave, ObjPalm, ObjPine:
			out = append(out, h)
		}
	}
	return out
}

func (fm *FieldManager) tryHighlight(h *Hex) bool {
	overlay := fm.ActiveOverlay()
	if !h.Active() || h.Fraction() != fm.activeFraction {
		fm.resetSelection()
		fm.hideOverlay(overlay)
		return false
	}

	fm.activeProvinceIndex = h.ProvinceIndex()
	overlay = fm.ActiveOverlay()
	if !h.HasActiveUnit() {
		fm.resetSelection()
		if overlay != nil && !overlay.IsShown() && !overlay.IsAnimating() {
			overlay.ToggleShown(fm.now())
		}
		return false
	}

	fm.resetSelection()
	fm.selectedHex = h
	h.HighlightUnit()
	fm.setHighlighted(fm.moveTargets(h))
	fm.state = StateUnitSelected
	if overlay != nil && !overlay.IsShown() && !overlay.IsAnimating() {
		overlay.ToggleShown(fm.now())
	}
	return true
}

type hexWithDistance struct {
	hex      *Hex
	distance int
}

// moveTargets runs the reachability search from origin: up to four hops
// through own land, stepping onto foreign land only where the unit can
// win, and never past it.
func (fm *FieldManager) moveTargets(origin *Hex) []*Hex {
	attacker := origin.UnitType()
	visited := newHexSet()
	queue := []hexWithDistance{{origin, 0}}
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		if !fm.isReachable(item, origin, attacker) {
			continue
		}
		visited.add(item.hex)
		if item.hex.Fraction() != fm.activeFraction {
			continue
		}
		for _, n := range fm.neighbours(item.hex) {
			if !visited.has(n) {
				queue = append(queue, hexWithDistance{n, item.distance + 1})
			}
		}
	}
	visited.remove(origin)

	var out []*Hex
	for _, h := range visited.order {
		if h.Fraction() == fm.activeFraction {
			if h.Object().IsBuilding() {
				continue
			}
			if h.HasUnit() && h.UnitType()+attacker > UnitKnight {
				continue
			}
		}
		out = append(out, h)
	}
	return out
}

func (fm *FieldManager) isReachable(item hexWithDistance, origin *Hex, attacker UnitType) bool {
	switch {
	case item.distance > maxMoveDistance:
		return false
	case item.hex == origin:
		return true
	case item.hex.Fraction() == origin.Fraction():
		return true
	}
	return fm.canCapture(attacker, item.hex)
}

// canCapture applies the defense table: the attacker has to beat the
// strongest unit guarding target (a knight may face a knight) and the
// strongest fortification next to it.
func (fm *FieldManager) canCapture(attacker UnitType, target *Hex) bool {
	if defender, ok := fm.strongestUnitAround(target); ok {
		if attacker != UnitKnight && attacker <= defender {
			return false
		}
	}
	switch fm.strongestObjAround(target) {
	case ObjTown:
		return attacker >= UnitSpearman
	case ObjTower:
		return attacker >= UnitWarrior
	case ObjStrongTower:
		return attacker == UnitKnight
	}
	return true
}

func (fm *FieldManager) strongestUnitAround(h *Hex) (UnitType, bool) {
	best, found := h.UnitType(), h.HasUnit()
	for _, n := range fm.neighbours(h) {
		if n.Fraction() != h.Fraction() || !n.HasUnit() {
			continue
		}
		if !found || n.UnitType() > best {
			best, found = n.UnitType(), true
		}
	}
	return best, found
}

func (fm *FieldManager) strongestObjAround(h *Hex) Obj {
	best := ObjNone
	for _, n := range fm.neighbours(h) {
		if _, ok := fm.townsAndTowers[n]; !ok {
			continue
		}
		if n.Fraction() == h.Fraction() && n.Object().IsTownOrTower() && n.Object() > best {
			best = n.Object()
		}
	}
	if obj := h.Object(); obj.IsTownOrTower() && obj > best {
		best = obj
	}
	return best
}
