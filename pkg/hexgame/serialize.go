package hexgame

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"
)

var ErrInvalidField = errors.New("invalid field")

type SerializedUnit struct {
	UnitType UnitType `json:"unitType"`
}

type SerializedHex struct {
	ColIndex      int             `json:"colIndex"`
	RowIndex      int             `json:"rowIndex"`
	Active        bool            `json:"active"`
	Fraction      int             `json:"fraction"`
	Unit          *SerializedUnit `json:"unit"`
	ProvinceIndex int             `json:"provinceIndex"`
	ObjectInside  Obj             `json:"objectInside"`
}

// SerializedGame is the persisted form of a field between turns. Field is
// indexed [col][row].
type SerializedGame struct {
	FWidth           int                 `json:"fWidth"`
	FHeight          int                 `json:"fHeight"`
	ActiveFraction   int                 `json:"activeFraction"`
	Field            [][]SerializedHex   `json:"field"`
	ProvinceBalances map[int]map[int]int `json:"provinceBalances,omitempty"`
	History          []SerializedAction  `json:"history"`
	ID               string              `json:"id"`
	Players          []string            `json:"players,omitempty"`
	LastModifiedBy   string              `json:"lastModifiedBy,omitempty"`
}

// Validate fills in the default size and checks the field matches it.
func (sg *SerializedGame) Validate() error {
	if sg.FWidth == 0 {
		sg.FWidth = DefaultWidth
	}
	if sg.FHeight == 0 {
		sg.FHeight = DefaultHeight
	}
	if sg.FWidth < 0 || sg.FHeight < 0 {
		return fmt.Errorf("size %dx%d: %w", sg.FWidth, sg.FHeight, ErrInvalidField)
	}
	if len(sg.Field) != sg.FWidth {
		return fmt.Errorf("%d columns, want %d: %w", len(sg.Field), sg.FWidth, ErrInvalidField)
	}
	for col, hexes := range sg.Field {
		if len(hexes) != sg.FHeight {
			return fmt.Errorf("column %d has %d rows, want %d: %w", col, len(hexes), sg.FHeight, ErrInvalidField)
		}
	}
	if sg.ActiveFraction < 1 {
		sg.ActiveFraction = 1
	}
	return nil
}

// DecodeGame parses and validates a serialized game.
func DecodeGame(data []byte) (SerializedGame, error) {
	var sg SerializedGame
	if err := json.Unmarshal(data, &sg); err != nil {
		return SerializedGame{}, fmt.Errorf("decode game: %w", err)
	}
	if err := sg.Validate(); err != nil {
		return SerializedGame{}, fmt.Errorf("decode game: %w", err)
	}
	return sg, nil
}

func EncodeGame(sg SerializedGame) ([]byte, error) {
	data, err := json.Marshal(sg)
	if err != nil {
		return nil, fmt.Errorf("encode game: %w", err)
	}
	return data, nil
}

// NewFieldManager rebuilds a field from its serialized form. Provinces are
// recovered from the per-hex fraction and province index; units of the
// fraction to move are ready to act.
func NewFieldManager(sg SerializedGame, opts ...Option) (*FieldManager, error) {
	if err := sg.Validate(); err != nil {
		return nil, fmt.Errorf("new field manager: %w", err)
	}
	fm := &FieldManager{
		width:               sg.FWidth,
		height:              sg.FHeight,
		activeFraction:      sg.ActiveFraction,
		activeProvinceIndex: ProvincelessIndex,
		townsAndTowers:      make(map[*Hex]struct{}),
		history:             NewActionHistory(),
		players:             sg.Players,
		log:                 zerolog.Nop(),
		now:                 time.Now,
		transform:           DefaultTransform,
	}
	for _, opt := range opts {
		opt(fm)
	}
	if fm.rng == nil {
		fm.rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}

	type provinceKey struct{ fraction, index int }
	var keys []provinceKey
	groups := make(map[provinceKey][]*Hex)
	maxFraction := 2

	fm.field = make([][]*Hex, fm.width)
	for col := range fm.field {
		fm.field[col] = make([]*Hex, fm.height)
		for row := range fm.field[col] {
			s := sg.Field[col][row]
			h := NewHex(col, row, s.Active, s.Fraction, s.ObjectInside, s.ProvinceIndex)
			h.watchTownOrTower(fm.untrackTownOrTower, fm.trackTownOrTower)
			if s.Unit != nil {
				h.SetUnit(s.Unit.UnitType, s.Fraction == fm.activeFraction)
			}
			if h.Object().IsTownOrTower() {
				fm.trackTownOrTower(h)
			}
			fm.field[col][row] = h

			if s.ProvinceIndex == ProvincelessIndex || s.Fraction == NeutralFraction {
				continue
			}
			k := provinceKey{s.Fraction, s.ProvinceIndex}
			if _, ok := groups[k]; !ok {
				keys = append(keys, k)
			}
			groups[k] = append(groups[k], h)
			if s.Fraction > maxFraction {
				maxFraction = s.Fraction
			}
		}
	}

	fm.provinces = NewProvinces(maxFraction, fm.rng)
	for _, k := range keys {
		balance := InitialBalance
		if b, ok := sg.ProvinceBalances[k.fraction][k.index]; ok {
			balance = b
		}
		fm.provinces.AddHexes(groups[k], k.fraction, k.index, balance)
	}
	for _, h := range fm.provinces.AllHexesWithTowns() {
		fm.trackTownOrTower(h)
	}
	fm.spawn = NewSpawnCheck(fm.rng, fm.neighbours, fm.log)

	fm.log.Debug().
		Int("width", fm.width).
		Int("height", fm.height).
		Int("fraction", fm.activeFraction).
		Int("provinces", len(keys)).
		Msg("field loaded")
	return fm, nil
}

// Serialize captures the field for the next player. The active fraction
// is handed over and a fresh id marks the new state.
func (fm *FieldManager) Serialize() SerializedGame {
	sg := SerializedGame{
		FWidth:           fm.width,
		FHeight:          fm.height,
		ActiveFraction:   fm.activeFraction%fm.provinces.FractionCount() + 1,
		Field:            make([][]SerializedHex, fm.width),
		ProvinceBalances: fm.provinces.Balances(),
		History:          fm.history.Serialize(),
		ID:               uuid.NewString(),
		Players:          fm.players,
	}
	for col := range fm.field {
		sg.Field[col] = make([]SerializedHex, fm.height)
		for row, h := range fm.field[col] {
			s := SerializedHex{
				ColIndex:      col,
				RowIndex:      row,
				Active:        h.Active(),
				Fraction:      h.Fraction(),
				ProvinceIndex: h.ProvinceIndex(),
				ObjectInside:  h.Object(),
			}
			if h.HasUnit() {
				s.Unit = &SerializedUnit{UnitType: h.UnitType()}
			}
			sg.Field[col][row] = s
		}
	}
	return sg
}
