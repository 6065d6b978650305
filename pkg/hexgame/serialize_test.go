package hexgame

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializedGame_Validate(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		sg := SerializedGame{Field: make([][]SerializedHex, DefaultWidth)}
		for col := range sg.Field {
			sg.Field[col] = make([]SerializedHex, DefaultHeight)
		}
		require.NoError(t, sg.Validate())
		assert.Equal(t, DefaultWidth, sg.FWidth)
		assert.Equal(t, DefaultHeight, sg.FHeight)
		assert.Equal(t, 1, sg.ActiveFraction)
	})

	tests := []struct {
		name string
		sg   SerializedGame
	}{
		{"negative size", SerializedGame{FWidth: -1, FHeight: 2}},
		{"missing columns", SerializedGame{FWidth: 2, FHeight: 1, Field: make([][]SerializedHex, 1)}},
		{"short column", SerializedGame{FWidth: 1, FHeight: 2, Field: [][]SerializedHex{make([]SerializedHex, 1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.sg.Validate(), ErrInvalidField)
		})
	}
}

func TestDecodeGame(t *testing.T) {
	_, err := DecodeGame([]byte("{"))
	assert.Error(t, err)

	_, err = DecodeGame([]byte(`{"fWidth":3,"fHeight":3,"field":[]}`))
	assert.ErrorIs(t, err, ErrInvalidField)

	_, err = NewFieldManager(SerializedGame{FWidth: 1, FHeight: 1})
	assert.ErrorIs(t, err, ErrInvalidField)
}

func TestFieldManager_SerializeRoundTrip(t *testing.T) {
	sg := sixBySix()
	sg.ProvinceBalances = map[int]map[int]int{1: {0: 42}}
	sg.Players = []string{"alice", "bob"}
	fm := newField(t, sg)

	assert.Equal(t, 42, fm.Provinces().Overlay(1, 0).Balance())
	assert.Equal(t, InitialBalance, fm.Provinces().Overlay(2, 0).Balance())
	assert.True(t, fm.Hex(1, 2).HasActiveUnit())

	out := fm.Serialize()
	assert.Equal(t, sg.Field, out.Field)
	assert.Equal(t, 2, out.ActiveFraction)
	assert.Equal(t, map[int]map[int]int{1: {0: 42}, 2: {0: 10}}, out.ProvinceBalances)
	assert.Equal(t, []string{"alice", "bob"}, out.Players)
	assert.NotNil(t, out.History)
	assert.NotEmpty(t, out.ID)
	assert.NotEqual(t, out.ID, fm.Serialize().ID)

	data, err := EncodeGame(out)
	require.NoError(t, err)
	for _, key := range []string{`"fWidth":6`, `"activeFraction":2`, `"provinceIndex":0`, `"objectInside":3`, `"unitType":1`} {
		assert.True(t, strings.Contains(string(data), key), "missing %s", key)
	}

	decoded, err := DecodeGame(data)
	require.NoError(t, err)
	next := newField(t, decoded)
	assert.Equal(t, 2, next.ActiveFraction())
	assert.False(t, next.Hex(1, 2).HasActiveUnit(), "units of the idle fraction wait")
	assert.Equal(t, out.Field, next.Serialize().Field)
}

func TestNewFieldManager_SkipsProvincelessHexes(t *testing.T) {
	sg := newGame(4, 1,
		cell{col: 0, row: 0, fraction: 1, obj: ObjTown},
		cell{col: 1, row: 0, fraction: 1},
		cell{col: 2, row: 0, fraction: 1, province: ProvincelessIndex, unit: UnitPeasant},
		cell{col: 3, row: 0, fraction: NeutralFraction, province: 0},
	)
	fm := newField(t, sg)

	n, ok := fm.Provinces().HexCount(1, 0)
	require.True(t, ok)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, fm.ProvinceCountOfActiveFraction())
	assert.Equal(t, 2, fm.Provinces().FractionCount())
	assert.True(t, fm.Hex(2, 0).HasActiveUnit())
}

func TestNewFieldManager_ThreeFractions(t *testing.T) {
	sg := newGame(3, 1,
		cell{col: 0, row: 0, fraction: 1},
		cell{col: 1, row: 0, fraction: 2},
		cell{col: 2, row: 0, fraction: 3},
	)
	sg.ActiveFraction = 3
	fm := newField(t, sg)

	assert.Equal(t, 3, fm.Provinces().FractionCount())
	for f := 1; f <= 3; f++ {
		assert.Equal(t, ObjTown, fm.Provinces().HexWithTown(f, 0).Object(), "fraction %d", f)
	}
	assert.Equal(t, 1, fm.Serialize().ActiveFraction, "turn wraps to the first fraction")
}
