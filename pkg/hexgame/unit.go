package hexgame

// UnitType is the strength rank of a unit. Merging two units sums their ranks.
type UnitType uint8

const (
	UnitNone UnitType = iota
	UnitPeasant
	UnitSpearman
	UnitWarrior
	UnitKnight
)

var unitNames = [...]string{"none", "peasant", "spearman", "warrior", "knight"}

func (u UnitType) String() string {
	if int(u) < len(unitNames) {
		return unitNames[u]
	}
	return "unknown"
}

// Valid reports whether u names an actual unit.
func (u UnitType) Valid() bool {
	return u >= UnitPeasant && u <= UnitKnight
}

// Unit occupies a hex. Units are replaced, never mutated in place, so hex
// snapshots can share them.
type Unit struct {
	Type UnitType
	// Animating marks a unit that can still act this turn.
	Animating bool
}
