package hexgame

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type cell struct {
	col, row int
	fraction int
	province int
	obj      Obj
	unit     UnitType
}

// newGame returns a w×h game of active neutral land with cells applied on
// top. Fraction 1 is to move.
func newGame(w, h int, cells ...cell) SerializedGame {
	sg := SerializedGame{FWidth: w, FHeight: h, ActiveFraction: 1, Field: make([][]SerializedHex, w)}
	for col := range sg.Field {
		sg.Field[col] = make([]SerializedHex, h)
		for row := range sg.Field[col] {
			sg.Field[col][row] = SerializedHex{
				ColIndex:      col,
				RowIndex:      row,
				Active:        true,
				ProvinceIndex: ProvincelessIndex,
			}
		}
	}
	for _, c := range cells {
		s := &sg.Field[c.col][c.row]
		s.Fraction = c.fraction
		s.ProvinceIndex = c.province
		s.ObjectInside = c.obj
		if c.unit != UnitNone {
			s.Unit = &SerializedUnit{UnitType: c.unit}
		}
	}
	return sg
}

// sixBySix splits a 6×6 board between two fractions: columns 0-1 belong to
// fraction 1 with a town at 0:0 and a peasant at 1:2, the rest to fraction 2
// with a town at 5:5.
func sixBySix() SerializedGame {
	var cells []cell
	for col := 0; col < 6; col++ {
		for row := 0; row < 6; row++ {
			c := cell{col: col, row: row, fraction: 2}
			if col < 2 {
				c.fraction = 1
			}
			switch {
			case col == 0 && row == 0, col == 5 && row == 5:
				c.obj = ObjTown
			case col == 1 && row == 2:
				c.unit = UnitPeasant
			}
			cells = append(cells, c)
		}
	}
	return newGame(6, 6, cells...)
}

func newField(t *testing.T, sg SerializedGame, opts ...Option) *FieldManager {
	t.Helper()
	opts = append([]Option{WithRandom(NewSplitMix32(7))}, opts...)
	fm, err := NewFieldManager(sg, opts...)
	require.NoError(t, err)
	return fm
}

// openOverlay selects the province of col:row and waits out the overlay
// transition.
func openOverlay(t *testing.T, fm *FieldManager, col, row int) *Overlay {
	t.Helper()
	fm.HandleClick(HexClick(col, row))
	fm.Settle()
	o := fm.ActiveOverlay()
	require.NotNil(t, o)
	require.True(t, o.IsShown())
	return o
}

// requireConsistent checks that every hex with a province index is a
// member of that province, and that provinces only hold their own hexes.
func requireConsistent(t *testing.T, fm *FieldManager) {
	t.Helper()
	fm.forEachHex(func(h *Hex) {
		if h.ProvinceIndex() == ProvincelessIndex {
			return
		}
		p, ok := fm.Provinces().Province(h.Fraction(), h.ProvinceIndex())
		require.True(t, ok, "hex %s points at missing province %d/%d", h.Coord(), h.Fraction(), h.ProvinceIndex())
		require.True(t, p.Contains(h), "province %d/%d does not hold %s", h.Fraction(), h.ProvinceIndex(), h.Coord())
	})
	for f := 1; f <= fm.Provinces().FractionCount(); f++ {
		for _, p := range fm.Provinces().Provinces(f) {
			for _, h := range p.Hexes() {
				require.Equal(t, f, h.Fraction(), "province %d/%d holds %s", f, p.Index(), h.Coord())
				require.Equal(t, p.Index(), h.ProvinceIndex())
			}
		}
	}
}

// snapshot is the observable state compared across undo.
type snapshot struct {
	Field    [][]SerializedHex
	Balances map[int]map[int]int
}

func takeSnapshot(fm *FieldManager) snapshot {
	sg := fm.Serialize()
	return snapshot{Field: sg.Field, Balances: sg.ProvinceBalances}
}

type fixedRandom float64

func (r fixedRandom) Float64() float64 { return float64(r) }
