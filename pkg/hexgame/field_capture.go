package hexgame

type unitPlacement struct {
	dst        *Hex
	src        *Hex // nil for a purchase
	unitType   UnitType
	animate    bool
	actionType ActionType
}

// placeUnit lands a moved or purchased unit on dst. The active overlay's
// snapshot has already been pushed by the caller.
func (fm *FieldManager) placeUnit(p unitPlacement) {
	a := Action{Type: p.actionType, Dst: p.dst.Coord(), UnitType: p.unitType}
	if p.src != nil {
		src := p.src.Coord()
		a.Src = &src
	}
	if p.dst.Fraction() == fm.activeFraction {
		fm.placeOnOwnHex(p, a)
		return
	}
	fm.capture(p, a)
}

func (fm *FieldManager) placeOnOwnHex(p unitPlacement, a Action) {
	overlay := fm.ActiveOverlay()
	tx := NewTransaction()
	if overlay != nil {
		tx.Adopt(overlay)
	}
	tx.Save(p.dst)
	if p.src != nil {
		tx.Adopt(p.src)
	}
	fm.commit(tx, a)

	if existing, ok := p.dst.Unit(); ok {
		p.dst.SetUnit(existing.Type+p.unitType, existing.Animating)
		if overlay != nil {
			overlay.UpdateWithMerging(p.unitType, existing.Type)
		}
		return
	}
	p.dst.SetUnit(p.unitType, p.animate)
	if obj := p.dst.Object(); obj != ObjNone {
		if overlay != nil {
			overlay.UpdateWithObjRemoval(obj)
		}
		p.dst.SetObject(ObjNone)
	}
}

// capture takes dst from its owner. Provinces of the attacker that become
// adjacent through dst are merged; the defender's remaining land is split
// into its connected components.
func (fm *FieldManager) capture(p unitPlacement, a Action) {
	dst := p.dst
	overlay := fm.ActiveOverlay()

	// The whole registry is snapshotted. The source hex goes back to its
	// pre-move state first so that snapshot holds the unit, and the active
	// overlay keeps the snapshot pushed before the purchase or move.
	tx := NewTransaction()
	if p.src != nil {
		p.src.RestoreState()
	}
	if overlay != nil {
		overlay.SetSkipStateSave()
	}
	tx.Save(fm.provinces)
	if p.src != nil {
		if p.src.ProvinceIndex() == ProvincelessIndex {
			tx.Save(p.src)
		}
		p.src.RemoveUnit()
	}
	if dst.Fraction() == NeutralFraction || dst.ProvinceIndex() == ProvincelessIndex {
		tx.Save(dst)
	}

	var singles []*Hex
	var toMerge []int
	for _, n := range fm.neighbours(dst) {
		if n.Fraction() != fm.activeFraction {
			continue
		}
		if n.ProvinceIndex() == ProvincelessIndex {
			tx.Save(n)
			singles = append(singles, n)
			continue
		}
		if !containsInt(toMerge, n.ProvinceIndex()) {
			toMerge = append(toMerge, n.ProvinceIndex())
		}
	}
	fm.commit(tx, a)

	fm.untrackTownOrTower(dst)
	oldFraction, oldIndex := dst.Fraction(), dst.ProvinceIndex()

	if len(toMerge) > 1 {
		for i, idx := range toMerge {
			if idx == fm.activeProvinceIndex {
				toMerge[0], toMerge[i] = toMerge[i], toMerge[0]
				break
			}
		}
		for _, idx := range toMerge[1:] {
			fm.provinces.Merge(fm.activeFraction, toMerge[0], idx, func(town *Hex) {
				fm.untrackTownOrTower(town)
				town.SetObject(ObjNone)
			})
		}
		fm.activeProvinceIndex = toMerge[0]
		fm.log.Debug().
			Int("fraction", fm.activeFraction).
			Ints("provinces", toMerge).
			Msg("provinces merged")
	}
	if fm.activeProvinceIndex == ProvincelessIndex {
		fm.activeProvinceIndex = fm.provinces.NextID(fm.activeFraction)
	}

	fm.provinces.RemoveHexFromItsOriginalFractionAndProvince(oldFraction, oldIndex, dst)
	dst.RemoveUnit()
	dst.SetObject(ObjNone)
	fm.provinces.AddHexes(append(singles, dst), fm.activeFraction, fm.activeProvinceIndex, 0)

	if oldFraction != NeutralFraction {
		dst.SetFraction(fm.activeFraction)
		var roots []*Hex
		for _, n := range fm.neighbours(dst) {
			if n.Fraction() == oldFraction {
				roots = append(roots, n)
			}
		}
		if len(roots) > 0 {
			split := fm.provinces.Split(fm.components(roots))
			for _, prov := range split {
				if town := prov.CheckHexWithTown(); town != nil {
					fm.trackTownOrTower(town)
				}
			}
			fm.log.Debug().
				Int("fraction", oldFraction).
				Int("province", oldIndex).
				Int("parts", len(split)).
				Msg("province split")
		}
	}

	dst.SetFraction(fm.activeFraction)
	dst.SetUnit(p.unitType, false)
	fm.log.Debug().
		Stringer("hex", dst.Coord()).
		Int("from", oldFraction).
		Int("by", fm.activeFraction).
		Msg("hex captured")
}

// components partitions the land reachable from roots into connected
// groups of the same fraction.
func (fm *FieldManager) components(roots []*Hex) [][]*Hex {
	pending := newHexSet(roots...)
	var out [][]*Hex
	for pending.len() > 0 {
		root := pending.order[0]
		pending.remove(root)

		comp := newHexSet(root)
		queue := []*Hex{root}
		for len(queue) > 0 {
			h := queue[0]
			queue = queue[1:]
			for _, n := range fm.neighbours(h) {
				if comp.has(n) || n.Fraction() != root.Fraction() {
					continue
				}
				pending.remove(n)
				comp.add(n)
				queue = append(queue, n)
			}
		}
		out = append(out, comp.order)
	}
	return out
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
