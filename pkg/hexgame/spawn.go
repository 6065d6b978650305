package hexgame

import "github.com/rs/zerolog"

const (
	palmSpawnChance = 0.3
	pineSpawnChance = 0.2
)

// SpawnCheck decides where trees grow at the end of a turn.
type SpawnCheck struct {
	rng        Random
	neighbours func(*Hex) []*Hex
	log        zerolog.Logger
}

func NewSpawnCheck(rng Random, neighbours func(*Hex) []*Hex, log zerolog.Logger) *SpawnCheck {
	return &SpawnCheck{rng: rng, neighbours: neighbours, log: log}
}

// SpawnTree plants a palm next to water and a pine elsewhere.
func (s *SpawnCheck) SpawnTree(h *Hex) {
	if !h.Active() {
		s.log.Warn().Stringer("hex", h.Coord()).Msg("spawn tree on inactive hex")
		return
	}
	if s.IsNearWater(h) {
		h.SetObject(ObjPalm)
	} else {
		h.SetObject(ObjPine)
	}
}

func (s *SpawnCheck) CanSpawnPalm(h *Hex) bool {
	return h.Active() && h.IsFree() &&
		s.IsNearWater(h) &&
		s.hasNeighbour(h, ObjPalm) &&
		s.rng.Float64() < palmSpawnChance
}

func (s *SpawnCheck) CanSpawnPine(h *Hex) bool {
	return h.Active() && h.IsFree() &&
		s.treesNearby(h) >= 2 &&
		s.hasNeighbour(h, ObjPine) &&
		s.rng.Float64() < pineSpawnChance
}

// IsNearWater reports whether any of the six surrounding cells is water,
// i.e. inactive or off the map.
func (s *SpawnCheck) IsNearWater(h *Hex) bool {
	return len(s.neighbours(h)) < 6
}

func (s *SpawnCheck) hasNeighbour(h *Hex, obj Obj) bool {
	for _, n := range s.neighbours(h) {
		if n.Object() == obj {
			return true
		}
	}
	return false
}

func (s *SpawnCheck) treesNearby(h *Hex) int {
	count := 0
	for _, n := range s.neighbours(h) {
		if n.Object().IsTree() {
			count++
		}
	}
	return count
}
