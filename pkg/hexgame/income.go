package hexgame

const FarmIncome = 4

var (
	UnitWages     = [4]int{2, 6, 18, 36}
	TowerExpenses = [2]int{2, 6}
)

// IncomeParams summarises a set of hexes for income purposes.
type IncomeParams struct {
	Hexes             int
	TreesAndGraves    int
	Farms             int
	Units             [4]int // by UnitType-1
	Towers            [2]int // tower, strong tower
	AdditionalBalance int
}

// ParamsFromHexes counts the economically relevant content of hexes.
// Inactive hexes are ignored.
func ParamsFromHexes(hexes []*Hex, additionalBalance int) IncomeParams {
	p := IncomeParams{AdditionalBalance: additionalBalance}
	for _, h := range hexes {
		if !h.Active() {
			continue
		}
		p.Hexes++
		switch h.Object() {
		case ObjTower:
			p.Towers[0]++
		case ObjStrongTower:
			p.Towers[1]++
		case ObjFarm:
			p.Farms++
		case ObjPalm, ObjPine, ObjGrave:
			p.TreesAndGraves++
		}
		if t := h.UnitType(); t.Valid() {
			p.Units[t-1]++
		}
	}
	return p
}

// CalculateIncome returns the per-turn income delta described by p.
func CalculateIncome(p IncomeParams) int {
	income := p.Hexes + p.Farms*FarmIncome - p.TreesAndGraves
	for i, n := range p.Units {
		income -= UnitWages[i] * n
	}
	for i, n := range p.Towers {
		income -= TowerExpenses[i] * n
	}
	return income
}

// IncomeFromHexes is CalculateIncome(ParamsFromHexes(hexes, 0)).
func IncomeFromHexes(hexes []*Hex) int {
	return CalculateIncome(ParamsFromHexes(hexes, 0))
}

func unitWage(t UnitType) int {
	if !t.Valid() {
		return 0
	}
	return UnitWages[t-1]
}
