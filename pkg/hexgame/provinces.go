package hexgame

import (
	"errors"
	"fmt"
)

var ErrInvalidFraction = errors.New("invalid fraction")

// Provinces is the registry of every province, bucketed by fraction.
// Fraction f lives in bucket f-1; the neutral fraction has no provinces.
type Provinces struct {
	lists   []*OrderedList[*Province]
	rng     Random
	history [][]*Province
}

func NewProvinces(numFractions int, rng Random) *Provinces {
	p := &Provinces{rng: rng}
	p.grow(numFractions)
	return p
}

func (ps *Provinces) grow(numFractions int) {
	for len(ps.lists) < numFractions {
		ps.lists = append(ps.lists, NewOrderedList[*Province]())
	}
}

func (ps *Provinces) list(fraction int) *OrderedList[*Province] {
	if fraction < 1 || fraction > len(ps.lists) {
		return nil
	}
	return ps.lists[fraction-1]
}

// SaveState snapshots every province, its overlay and its hexes.
func (ps *Provinces) SaveState() {
	var state []*Province
	for _, l := range ps.lists {
		for _, p := range l.All() {
			p.SaveState()
			state = append(state, p)
		}
	}
	ps.history = append(ps.history, state)
}

// RestoreState reinstates the provinces of the latest snapshot. Provinces
// do not know their fraction, so buckets are rebuilt from each restored
// province's hexes.
func (ps *Provinces) RestoreState() {
	if len(ps.history) == 0 {
		return
	}
	state := ps.history[len(ps.history)-1]
	ps.history = ps.history[:len(ps.history)-1]

	n := len(ps.lists)
	ps.lists = nil
	ps.grow(n)
	for _, p := range state {
		p.RestoreState()
		if p.HexCount() == 0 {
			continue
		}
		f := p.Fraction()
		if f < 1 {
			continue
		}
		ps.grow(f)
		ps.lists[f-1].Insert(p)
	}
}

// Advance applies end-of-turn income to every province of fraction and
// returns the indices of the provinces that went bankrupt.
func (ps *Provinces) Advance(fraction int) ([]int, error) {
	l := ps.list(fraction)
	if l == nil {
		return nil, fmt.Errorf("advance fraction %d: %w", fraction, ErrInvalidFraction)
	}
	var bankrupt []int
	for _, p := range l.All() {
		if !p.Advance() {
			bankrupt = append(bankrupt, p.Index())
		}
	}
	return bankrupt, nil
}

func (ps *Provinces) FractionCount() int { return len(ps.lists) }

// AddHexes extends province index of fraction, creating it with balance
// when it does not exist yet.
func (ps *Provinces) AddHexes(hexes []*Hex, fraction, index, balance int) *Province {
	if len(hexes) == 0 || fraction < 1 {
		return nil
	}
	ps.grow(fraction)
	l := ps.lists[fraction-1]
	if p, ok := l.Get(index); ok {
		p.AddHexes(hexes, 0)
		return p
	}
	p := NewProvince(index, hexes, nil, balance, ps.rng)
	l.Insert(p)
	return p
}

// NextID returns a province index not yet used by fraction.
func (ps *Provinces) NextID(fraction int) int {
	l := ps.list(fraction)
	if l == nil {
		return 0
	}
	return l.NextID()
}

// Split replaces the province the components came from with one province
// per multi-hex component. Single-hex components lose their building and
// become provinceless; their units are left for the end-of-turn cleanup.
// Only the first new province inherits the old balance.
func (ps *Provinces) Split(components [][]*Hex) []*Province {
	if len(components) == 0 {
		return nil
	}
	fraction := NeutralFraction
	oldIndex := ProvincelessIndex
	for _, c := range components {
		for _, h := range c {
			if h.ProvinceIndex() != ProvincelessIndex {
				fraction, oldIndex = h.Fraction(), h.ProvinceIndex()
				break
			}
		}
		if oldIndex != ProvincelessIndex {
			break
		}
	}
	if oldIndex == ProvincelessIndex && len(components[0]) > 0 {
		fraction = components[0][0].Fraction()
	}
	l := ps.list(fraction)
	if l == nil {
		return nil
	}

	oldBalance := 0
	if old, ok := l.Get(oldIndex); ok {
		oldBalance = old.Overlay().Balance()
	}
	l.Delete(oldIndex)

	var out []*Province
	balanceUsed := false
	for _, c := range components {
		if len(c) == 1 {
			h := c[0]
			if h.Object() == ObjTown {
				h.SetObject(ObjPine)
			} else {
				h.SetObject(ObjNone)
			}
			h.SetProvinceIndex(ProvincelessIndex)
			continue
		}
		balance := 0
		if !balanceUsed {
			balance = oldBalance
			balanceUsed = true
		}
		if p := ps.AddHexes(c, fraction, ps.NextID(fraction), balance); p != nil {
			out = append(out, p)
		}
	}
	return out
}

// Merge folds province second into first. Both must belong to fraction.
func (ps *Provinces) Merge(fraction, first, second int, postMerge func(*Hex)) bool {
	l := ps.list(fraction)
	if l == nil {
		return false
	}
	a, okA := l.Get(first)
	b, okB := l.Get(second)
	if !okA || !okB {
		return false
	}
	a.MergeWith(b, postMerge)
	l.Delete(second)
	return true
}

func (ps *Provinces) Province(fraction, index int) (*Province, bool) {
	l := ps.list(fraction)
	if l == nil {
		return nil, false
	}
	return l.Get(index)
}

// Provinces returns the provinces of fraction in index order.
func (ps *Provinces) Provinces(fraction int) []*Province {
	l := ps.list(fraction)
	if l == nil {
		return nil
	}
	return l.All()
}

func (ps *Provinces) Overlay(fraction, index int) *Overlay {
	if p, ok := ps.Province(fraction, index); ok {
		return p.Overlay()
	}
	return nil
}

func (ps *Provinces) HexCount(fraction, index int) (int, bool) {
	if p, ok := ps.Province(fraction, index); ok {
		return p.HexCount(), true
	}
	return 0, false
}

func (ps *Provinces) Hexes(fraction, index int) []*Hex {
	if p, ok := ps.Province(fraction, index); ok {
		return p.Hexes()
	}
	return nil
}

// EnsureHexWithTown re-validates the town of a province and returns it.
func (ps *Provinces) EnsureHexWithTown(fraction, index int) *Hex {
	if p, ok := ps.Province(fraction, index); ok {
		return p.CheckHexWithTown()
	}
	return nil
}

func (ps *Provinces) HexWithTown(fraction, index int) *Hex {
	if p, ok := ps.Province(fraction, index); ok {
		return p.HexWithTown()
	}
	return nil
}

func (ps *Provinces) AllHexesWithTowns() []*Hex {
	var out []*Hex
	for _, l := range ps.lists {
		for _, p := range l.All() {
			if t := p.HexWithTown(); t != nil {
				out = append(out, t)
			}
		}
	}
	return out
}

func (ps *Provinces) ProvinceCount(fraction int) int {
	l := ps.list(fraction)
	if l == nil {
		return 0
	}
	return l.Count()
}

// RemoveHexFromItsOriginalFractionAndProvince detaches h from the province
// it belonged to before a capture. Neutral hexes have nothing to detach.
func (ps *Provinces) RemoveHexFromItsOriginalFractionAndProvince(fraction, index int, h *Hex) {
	if fraction < 1 {
		return
	}
	if p, ok := ps.Province(fraction, index); ok {
		p.RemoveHex(h)
	}
}

// AreAllOpponentProvincesTaken reports whether fewer than two fractions
// still hold a province.
func (ps *Provinces) AreAllOpponentProvincesTaken() bool {
	alive := 0
	for _, l := range ps.lists {
		if l.Count() > 0 {
			alive++
		}
	}
	return alive < 2
}

// Balances returns fraction -> province index -> balance for every fraction.
func (ps *Provinces) Balances() map[int]map[int]int {
	out := make(map[int]map[int]int, len(ps.lists))
	for i, l := range ps.lists {
		m := make(map[int]int, l.Count())
		for _, p := range l.All() {
			m[p.Index()] = p.Overlay().Balance()
		}
		out[i+1] = m
	}
	return out
}
