package hexgame

type provinceSnapshot struct {
	hexWithTown *Hex
	hexes       *hexSet
	overlay     *Overlay
}

// Province is a connected group of same-fraction hexes sharing one economy
// and one town. Hexes know their province only by index.
type Province struct {
	index       int
	hexes       *hexSet
	hexWithTown *Hex
	overlay     *Overlay
	rng         Random

	history []provinceSnapshot
}

// NewProvince claims hexes for province id and makes sure one of them holds
// the town. A nil townHex means the town is found or placed automatically.
func NewProvince(id int, hexes []*Hex, townHex *Hex, balance int, rng Random) *Province {
	p := &Province{
		index: id,
		hexes: newHexSet(hexes...),
		rng:   rng,
	}
	for _, h := range p.hexes.order {
		h.SetProvinceIndex(id)
	}
	p.overlay = NewOverlay(ParamsFromHexes(p.hexes.order, 0), balance)
	p.hexWithTown = p.assignHexWithTown(townHex)
	return p
}

func (p *Province) Index() int           { return p.index }
func (p *Province) Overlay() *Overlay    { return p.overlay }
func (p *Province) HexWithTown() *Hex    { return p.hexWithTown }
func (p *Province) HexCount() int        { return p.hexes.len() }
func (p *Province) Hexes() []*Hex        { return p.hexes.slice() }
func (p *Province) Contains(h *Hex) bool { return p.hexes.has(h) }
func (p *Province) firstHex() *Hex       { return p.hexes.order[0] }

// Fraction returns the owner of the province's first hex.
func (p *Province) Fraction() int {
	if p.hexes.len() == 0 {
		return NeutralFraction
	}
	return p.firstHex().Fraction()
}

func (p *Province) SaveState() {
	p.overlay.SaveState()
	for _, h := range p.hexes.order {
		h.SaveState()
	}
	p.history = append(p.history, provinceSnapshot{
		hexWithTown: p.hexWithTown,
		hexes:       p.hexes.clone(),
		overlay:     p.overlay,
	})
}

func (p *Province) RestoreState() {
	if len(p.history) == 0 {
		return
	}
	s := p.history[len(p.history)-1]
	p.history = p.history[:len(p.history)-1]

	for _, h := range s.hexes.order {
		h.RestoreState()
	}
	p.hexes = s.hexes
	p.hexWithTown = s.hexWithTown
	s.overlay.RestoreState()
	p.overlay = s.overlay
}

func (p *Province) assignHexWithTown(townHex *Hex) *Hex {
	if townHex != nil {
		return townHex
	}
	for _, h := range p.hexes.order {
		if h.Object() == ObjTown {
			return h
		}
	}
	if p.hexes.len() == 0 {
		return nil
	}

	var free []*Hex
	for _, h := range p.hexes.order {
		if h.IsFree() {
			free = append(free, h)
		}
	}
	if len(free) > 0 {
		h := free[pick(p.rng, len(free))]
		h.SetObject(ObjTown)
		return h
	}

	// no free hex left: evict whatever is on a random one
	h := p.hexes.order[pick(p.rng, p.hexes.len())]
	p.overlay.UpdateWithTownOverride(h)
	h.SetObject(ObjTown)
	h.RemoveUnit()
	return h
}

// CheckHexWithTown re-designates the town when the current one was captured
// or destroyed, and returns it.
func (p *Province) CheckHexWithTown() *Hex {
	if p.hexWithTown == nil ||
		p.hexWithTown.ProvinceIndex() != p.index ||
		p.hexWithTown.Object() != ObjTown {
		p.hexWithTown = p.assignHexWithTown(nil)
	}
	return p.hexWithTown
}

// MergeWith absorbs other, including its balance. postMerge receives the
// absorbed province's town so the caller can demote it.
func (p *Province) MergeWith(other *Province, postMerge func(*Hex)) {
	p.AddHexes(other.hexes.order, other.overlay.Balance())
	if postMerge != nil && other.hexWithTown != nil {
		postMerge(other.hexWithTown)
	}
}

// AddHexes claims hexes and folds their income into the overlay.
func (p *Province) AddHexes(hexes []*Hex, additionalBalance int) {
	for _, h := range hexes {
		h.SetProvinceIndex(p.index)
		p.hexes.add(h)
	}
	p.overlay.UpdateWith(ParamsFromHexes(hexes, additionalBalance))
}

func (p *Province) RemoveHex(h *Hex) {
	p.hexes.remove(h)
	p.overlay.UpdateWithHexRemoval(h)
}

// Advance applies the turn's income. A bankrupt province loses every unit
// to a grave and restarts from a zero balance. No history is kept: the
// turn is over.
func (p *Province) Advance() bool {
	if p.overlay.Advance() {
		return true
	}
	for _, h := range p.hexes.order {
		if h.HasUnit() {
			h.RemoveUnit()
			h.SetObject(ObjGrave)
		}
	}
	p.overlay = NewOverlay(ParamsFromHexes(p.hexes.order, 0), 0)
	return false
}
