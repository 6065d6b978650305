package hexgame

import "errors"

// ActionType identifies what a player did.
type ActionType int

const (
	ActionNone ActionType = iota
	ActionAddUnit
	ActionMoveUnit
	ActionAddBuilding
)

func (t ActionType) String() string {
	switch t {
	case ActionAddUnit:
		return "add_unit"
	case ActionMoveUnit:
		return "move_unit"
	case ActionAddBuilding:
		return "add_building"
	}
	return "none"
}

var ErrNoActions = errors.New("no actions to pop")

// Action is one undoable step of a turn.
type Action struct {
	Type       ActionType
	Dst        Coord
	Src        *Coord
	UnitType   UnitType
	ObjectType Obj

	affected []StateHolder
}

// SerializedAction is the persisted form of an Action.
type SerializedAction struct {
	Type           ActionType `json:"type"`
	DstHexPosition Coord      `json:"dstHexPosition"`
	SrcHexPosition *Coord     `json:"srcHexPosition,omitempty"`
	UnitType       UnitType   `json:"unitType,omitempty"`
	ObjectType     Obj        `json:"objectType,omitempty"`
}

// ActionHistory is the linear undo log of the current turn.
type ActionHistory struct {
	actions []Action
}

func NewActionHistory() *ActionHistory {
	return &ActionHistory{}
}

func (h *ActionHistory) Push(a Action) {
	h.actions = append(h.actions, a)
}

// Pop removes the latest action and restores every holder it touched, in
// the order they were captured.
func (h *ActionHistory) Pop() error {
	if len(h.actions) == 0 {
		return ErrNoActions
	}
	a := h.actions[len(h.actions)-1]
	h.actions = h.actions[:len(h.actions)-1]
	for _, s := range a.affected {
		s.RestoreState()
	}
	return nil
}

func (h *ActionHistory) HasActions() bool { return len(h.actions) > 0 }

func (h *ActionHistory) Len() int { return len(h.actions) }

// Serialize returns the log without the runtime state references.
func (h *ActionHistory) Serialize() []SerializedAction {
	out := make([]SerializedAction, 0, len(h.actions))
	for _, a := range h.actions {
		out = append(out, SerializedAction{
			Type:           a.Type,
			DstHexPosition: a.Dst,
			SrcHexPosition: a.Src,
			UnitType:       a.UnitType,
			ObjectType:     a.ObjectType,
		})
	}
	return out
}
