package hexgame

import "fmt"

// endTurn closes the turn of the active fraction: trees spread, graves
// turn into trees, provinces collect income, units stranded outside a
// province die. The field is frozen afterwards.
func (fm *FieldManager) endTurn() {
	fm.resetSelection()
	fm.spreadTrees()
	fm.forEachHex(func(h *Hex) {
		if h.Object() == ObjGrave {
			fm.spawn.SpawnTree(h)
		}
	})

	bankrupt, err := fm.provinces.Advance(fm.activeFraction)
	if err != nil {
		panic(fmt.Sprintf("end turn: %v", err))
	}
	if len(bankrupt) > 0 {
		fm.log.Debug().
			Int("fraction", fm.activeFraction).
			Ints("provinces", bankrupt).
			Msg("provinces bankrupt")
	}

	fm.forEachHex(func(h *Hex) {
		if h.ProvinceIndex() == ProvincelessIndex && h.HasUnit() {
			h.RemoveUnit()
			fm.spawn.SpawnTree(h)
		}
	})
	fm.forEachHex(func(h *Hex) { h.StopUnitAnimation() })

	fm.state = StateTurnEnded
	fm.log.Debug().Int("fraction", fm.activeFraction).Int("actions", fm.history.Len()).Msg("turn ended")
	if fm.onSerialize != nil {
		fm.onSerialize()
	}

	if fm.provinces.AreAllOpponentProvincesTaken() {
		fm.won = true
		fm.log.Info().Int("fraction", fm.activeFraction).Msg("game won")
		if fm.onWin != nil {
			fm.onWin(fm.activeFraction)
		}
	}
}

// spreadTrees decides every spawn before planting any, so a tree planted
// this turn cannot seed another one in the same pass.
func (fm *FieldManager) spreadTrees() {
	var palms, pines []*Hex
	fm.forEachHex(func(h *Hex) {
		switch {
		case fm.spawn.CanSpawnPalm(h):
			palms = append(palms, h)
		case fm.spawn.CanSpawnPine(h):
			pines = append(pines, h)
		}
	})
	for _, h := range palms {
		h.SetObject(ObjPalm)
	}
	for _, h := range pines {
		h.SetObject(ObjPine)
	}
}
