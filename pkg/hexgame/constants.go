package hexgame

const (
	// ProvincelessIndex marks a hex that belongs to no province.
	ProvincelessIndex = -1
	// NeutralFraction owns unclaimed land.
	NeutralFraction = 0

	InitialBalance = 10

	DefaultWidth  = 16
	DefaultHeight = 14

	// maxMoveDistance is how many hops a unit may travel in one move.
	maxMoveDistance = 4
)
