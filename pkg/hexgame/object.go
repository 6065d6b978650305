package hexgame

// Obj is the static content of a hex: a tree, a grave or a building.
// The numeric values are part of the serialized game format.
type Obj uint8

const (
	ObjNone Obj = iota
	ObjPine
	ObjPalm
	ObjTown
	ObjTower
	ObjGrave
	ObjFarm
	ObjStrongTower
)

// AddableBuildings is the cycle order of the building selector.
var AddableBuildings = [3]Obj{ObjFarm, ObjTower, ObjStrongTower}

var objNames = [...]string{"none", "pine", "palm", "town", "tower", "grave", "farm", "strong_tower"}

func (o Obj) String() string {
	if int(o) < len(objNames) {
		return objNames[o]
	}
	return "unknown"
}

// IsBuilding reports whether o is a farm, town, tower or strong tower.
func (o Obj) IsBuilding() bool {
	switch o {
	case ObjFarm, ObjTown, ObjTower, ObjStrongTower:
		return true
	}
	return false
}

// IsTownOrTower reports whether o contributes to the defense of its neighbours.
func (o Obj) IsTownOrTower() bool {
	return o == ObjTown || o == ObjTower || o == ObjStrongTower
}

// IsTree reports whether o is a palm or a pine.
func (o Obj) IsTree() bool {
	return o == ObjPalm || o == ObjPine
}
