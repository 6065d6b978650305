package hexgame

import (
	"errors"
	"fmt"
	"strings"
	"time"

	opensimplex "github.com/ojrac/opensimplex-go"
	"golang.org/x/exp/rand"
)

// MapSize selects the dimensions of a generated map.
type MapSize int

const (
	MapSmall MapSize = iota
	MapMedium
	MapLarge
)

const (
	DefaultFillPercent = 0.66

	smoothingPasses = 4
	treeThreshold   = 0.6
)

var mapSizes = [...]struct{ width, height int }{
	MapSmall:  {13, 20},
	MapMedium: {26, 24},
	MapLarge:  {13, 20},
}

var mapSizeNames = [...]string{"small", "medium", "large"}

var ErrUnknownMapSize = errors.New("unknown map size")

func (s MapSize) String() string {
	if s >= 0 && int(s) < len(mapSizeNames) {
		return mapSizeNames[s]
	}
	return "unknown"
}

func ParseMapSize(s string) (MapSize, error) {
	for i, name := range mapSizeNames {
		if strings.EqualFold(name, s) {
			return MapSize(i), nil
		}
	}
	return MapSmall, fmt.Errorf("parse map size %q: %w", s, ErrUnknownMapSize)
}

// MapConfig holds map generation parameters.
type MapConfig struct {
	Size        MapSize
	FillPercent float64 // share of land before smoothing (0 = default)
	Seed        int64   // 0 = random
	Fractions   int     // players to place (0 = 2)
}

// MapCell is one cell of a generated map.
type MapCell struct {
	Active   bool
	Fraction int
	Province int
	Object   Obj
	Unit     UnitType
}

// MapData is a generated island, cropped to its bounding box. Cells is
// indexed [col][row].
type MapData struct {
	Seed   int64
	Cells  [][]MapCell
	width  int
	height int
}

func (m *MapData) Width() int  { return m.width }
func (m *MapData) Height() int { return m.height }

func (m *MapData) Active(col, row int) bool {
	return col >= 0 && col < m.width && row >= 0 && row < m.height && m.Cells[col][row].Active
}

// GenerateMap builds a random island: noisy fill, cellular smoothing, the
// largest landmass kept, then starting territories and trees.
func GenerateMap(cfg MapConfig) *MapData {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(uint64(seed)))
	landNoise := opensimplex.NewNormalized(seed)
	treeNoise := opensimplex.NewNormalized(seed + 1)

	size := mapSizes[MapSmall]
	if cfg.Size >= 0 && int(cfg.Size) < len(mapSizes) {
		size = mapSizes[cfg.Size]
	}
	fill := cfg.FillPercent
	if fill <= 0 {
		fill = DefaultFillPercent
	}
	fill = rng.Float64()*0.1 + (fill - 0.05)

	m := &MapData{Seed: seed, width: size.width, height: size.height}
	m.Cells = make([][]MapCell, m.width)
	for x := range m.Cells {
		m.Cells[x] = make([]MapCell, m.height)
		for y := range m.Cells[x] {
			if x == 0 || y == 0 || x == m.width-1 || y == m.height-1 {
				continue
			}
			// low-frequency noise nudges the fill so land clumps together
			bias := (octaveNoise(landNoise, float64(x), float64(y), 3, 0.15, 0.5) - 0.5) * 0.2
			m.Cells[x][y].Active = rng.Float64() < fill+bias
		}
	}

	for i := 0; i < smoothingPasses; i++ {
		m.smooth()
	}
	m.keepLargestIsland()

	fractions := cfg.Fractions
	if fractions <= 0 {
		fractions = 2
	}
	m.placeTerritories(fractions, rng)
	m.scatterTrees(treeNoise, rng)
	return m
}

func (m *MapData) smooth() {
	for col := 0; col < m.width; col++ {
		for row := 0; row < m.height; row++ {
			n := ActiveNeighbourCount(m, Coord{col, row})
			if n > 3 {
				m.Cells[col][row].Active = true
			} else if n < 3 {
				m.Cells[col][row].Active = false
			}
		}
	}
}

// keepLargestIsland drops every landmass but the biggest and crops the map
// to it.
func (m *MapData) keepLargestIsland() {
	seen := make(map[Coord]bool)
	var best []Coord
	for row := 0; row < m.height; row++ {
		for col := 0; col < m.width; col++ {
			c := Coord{col, row}
			if !m.Active(col, row) || seen[c] {
				continue
			}
			island := []Coord{c}
			seen[c] = true
			for i := 0; i < len(island); i++ {
				for _, n := range Neighbours(m, island[i]) {
					if !seen[n] {
						seen[n] = true
						island = append(island, n)
					}
				}
			}
			if len(island) > len(best) {
				best = island
			}
		}
	}
	if len(best) == 0 {
		return
	}

	minCol, maxCol, minRow, maxRow := best[0].Col, best[0].Col, best[0].Row, best[0].Row
	keep := make(map[Coord]bool, len(best))
	for _, c := range best {
		keep[c] = true
		minCol, maxCol = min(minCol, c.Col), max(maxCol, c.Col)
		minRow, maxRow = min(minRow, c.Row), max(maxRow, c.Row)
	}

	cells := make([][]MapCell, maxCol-minCol+1)
	for col := range cells {
		cells[col] = make([]MapCell, maxRow-minRow+1)
		for row := range cells[col] {
			cells[col][row].Active = keep[Coord{col + minCol, row + minRow}]
		}
	}
	m.Cells, m.width, m.height = cells, len(cells), maxRow-minRow+1
}

// placeTerritories gives each fraction a seed hex as far from the others
// as possible, plus its land neighbours, a town and a peasant.
func (m *MapData) placeTerritories(fractions int, rng *rand.Rand) {
	var seeds []Coord
	for f := 1; f <= fractions; f++ {
		var dist map[Coord]int
		if len(seeds) > 0 {
			dist = m.distances(seeds)
		}
		var candidates []Coord
		bestDist := -1
		for col := 0; col < m.width; col++ {
			for row := 0; row < m.height; row++ {
				c := Coord{col, row}
				if !m.Active(col, row) || !m.unclaimedAround(c) {
					continue
				}
				d := 0
				if dist != nil {
					var ok bool
					if d, ok = dist[c]; !ok {
						continue
					}
				}
				switch {
				case d > bestDist:
					bestDist, candidates = d, []Coord{c}
				case d == bestDist:
					candidates = append(candidates, c)
				}
			}
		}
		if len(candidates) == 0 {
			return
		}
		seed := candidates[rng.Intn(len(candidates))]
		seeds = append(seeds, seed)

		m.claim(seed, f)
		m.Cells[seed.Col][seed.Row].Object = ObjTown
		for i, n := range Neighbours(m, seed) {
			m.claim(n, f)
			if i == 0 {
				m.Cells[n.Col][n.Row].Unit = UnitPeasant
			}
		}
	}
}

func (m *MapData) claim(c Coord, fraction int) {
	cell := &m.Cells[c.Col][c.Row]
	cell.Fraction = fraction
	cell.Province = 0
}

func (m *MapData) unclaimedAround(c Coord) bool {
	if m.Cells[c.Col][c.Row].Fraction != NeutralFraction {
		return false
	}
	for _, n := range Neighbours(m, c) {
		if m.Cells[n.Col][n.Row].Fraction != NeutralFraction {
			return false
		}
	}
	return true
}

// distances is a multi-source breadth-first hop count over land.
func (m *MapData) distances(from []Coord) map[Coord]int {
	dist := make(map[Coord]int, m.width*m.height)
	queue := append([]Coord(nil), from...)
	for _, c := range from {
		dist[c] = 0
	}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		for _, n := range Neighbours(m, c) {
			if _, ok := dist[n]; !ok {
				dist[n] = dist[c] + 1
				queue = append(queue, n)
			}
		}
	}
	return dist
}

func (m *MapData) scatterTrees(noise opensimplex.Noise, rng *rand.Rand) {
	for col := 0; col < m.width; col++ {
		for row := 0; row < m.height; row++ {
			cell := &m.Cells[col][row]
			if !cell.Active || cell.Fraction != NeutralFraction || cell.Object != ObjNone {
				continue
			}
			if octaveNoise(noise, float64(col), float64(row), 2, 0.3, 0.5) < treeThreshold || rng.Float64() < 0.5 {
				continue
			}
			if ActiveNeighbourCount(m, Coord{col, row}) < 6 {
				cell.Object = ObjPalm
			} else {
				cell.Object = ObjPine
			}
		}
	}
}

// ToSerializedGame turns the map into the opening state of a game.
func (m *MapData) ToSerializedGame(id string, players []string) SerializedGame {
	sg := SerializedGame{
		FWidth:           m.width,
		FHeight:          m.height,
		ActiveFraction:   1,
		Field:            make([][]SerializedHex, m.width),
		ProvinceBalances: make(map[int]map[int]int),
		History:          []SerializedAction{},
		ID:               id,
		Players:          players,
	}
	for col := range m.Cells {
		sg.Field[col] = make([]SerializedHex, m.height)
		for row, cell := range m.Cells[col] {
			s := SerializedHex{
				ColIndex:      col,
				RowIndex:      row,
				Active:        cell.Active,
				Fraction:      cell.Fraction,
				ProvinceIndex: ProvincelessIndex,
				ObjectInside:  cell.Object,
			}
			if cell.Fraction != NeutralFraction {
				s.ProvinceIndex = cell.Province
				sg.ProvinceBalances[cell.Fraction] = map[int]int{cell.Province: InitialBalance}
			}
			if cell.Unit != UnitNone {
				s.Unit = &SerializedUnit{UnitType: cell.Unit}
			}
			sg.Field[col][row] = s
		}
	}
	return sg
}

// MapStats summarises a generated map.
type MapStats struct {
	Cells       int
	Land        int
	Trees       int
	PerFraction map[int]int
}

func (m *MapData) Stats() MapStats {
	s := MapStats{Cells: m.width * m.height, PerFraction: make(map[int]int)}
	for _, col := range m.Cells {
		for _, cell := range col {
			if !cell.Active {
				continue
			}
			s.Land++
			if cell.Object.IsTree() {
				s.Trees++
			}
			if cell.Fraction != NeutralFraction {
				s.PerFraction[cell.Fraction]++
			}
		}
	}
	return s
}

// Render draws the map row by row: ~ water, . land, ^ tree, T town and
// the fraction number for owned land.
func (m *MapData) Render() string {
	var b strings.Builder
	for row := 0; row < m.height; row++ {
		for col := 0; col < m.width; col++ {
			cell := m.Cells[col][row]
			switch {
			case !cell.Active:
				b.WriteByte('~')
			case cell.Object == ObjTown:
				b.WriteByte('T')
			case cell.Object.IsTree():
				b.WriteByte('^')
			case cell.Fraction != NeutralFraction:
				b.WriteByte(byte('0' + cell.Fraction%10))
			default:
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// octaveNoise layers several frequencies of noise into a value in [0, 1].
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0
	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	return total / maxVal
}
