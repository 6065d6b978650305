package hexgame

import (
	"fmt"
	"time"
)

const (
	overlayTransition = 350 * time.Millisecond

	InitialFarmCost  = 12
	FarmCostIncrease = 2
)

var TowerCosts = [2]int{15, 35}

// mergingCost[a-1][b-1] is the income refund when units a and b merge: the
// combined unit's wage minus the two wages already paid.
var mergingCost = [3][3]int{
	{-2 - 2 + 6, -2 - 6 + 18, -2 - 18 + 36},
	{-2 - 6 + 18, -6 - 6 + 36, 0},
	{-2 - 18 + 36, 0, 0},
}

type overlaySnapshot struct {
	balance      int
	income       int
	nextFarmCost int
}

// Overlay is the economy of one province plus its purchase selector.
type Overlay struct {
	balance       int
	income        int
	nextFarmCost  int
	unitToBeAdded UnitType
	buildingIndex int

	skipStateSave bool

	shown       bool
	animating   bool
	animStarted time.Time

	history []overlaySnapshot
}

// NewOverlay builds an overlay from a full count of the province hexes.
func NewOverlay(p IncomeParams, balance int) *Overlay {
	o := &Overlay{
		balance:       balance + p.AdditionalBalance,
		income:        CalculateIncome(p),
		nextFarmCost:  InitialFarmCost,
		buildingIndex: -1,
	}
	o.updateFarmCost(p.Farms)
	return o
}

func (o *Overlay) Balance() int      { return o.balance }
func (o *Overlay) Income() int       { return o.income }
func (o *Overlay) NextFarmCost() int { return o.nextFarmCost }

// Advance applies one turn of income. It returns false when the province
// went bankrupt; the balance is then clamped to zero.
func (o *Overlay) Advance() bool {
	o.balance += o.income
	if o.balance < 0 {
		o.balance = 0
		return false
	}
	return true
}

// SetSkipStateSave makes the next SaveState a no-op.
func (o *Overlay) SetSkipStateSave() { o.skipStateSave = true }

func (o *Overlay) SaveState() {
	if o.skipStateSave {
		o.skipStateSave = false
		return
	}
	o.history = append(o.history, overlaySnapshot{o.balance, o.income, o.nextFarmCost})
}

func (o *Overlay) RestoreState() {
	if len(o.history) == 0 {
		return
	}
	s := o.history[len(o.history)-1]
	o.history = o.history[:len(o.history)-1]
	o.balance, o.income, o.nextFarmCost = s.balance, s.income, s.nextFarmCost
}

// UpdateWith folds newly added hexes into the economy.
func (o *Overlay) UpdateWith(p IncomeParams) {
	o.income += CalculateIncome(p)
	o.balance += p.AdditionalBalance
	o.updateFarmCost(p.Farms)
}

// UpdateWithHexRemoval takes hex out of the economy.
func (o *Overlay) UpdateWithHexRemoval(h *Hex) {
	o.income += unitWage(h.UnitType())
	o.refundObject(h.Object())
	o.income--
}

// UpdateWithMerging refunds the wage difference when two units merge.
func (o *Overlay) UpdateWithMerging(first, second UnitType) {
	if !first.Valid() || !second.Valid() {
		return
	}
	o.income -= mergingCost[first-1][second-1]
}

// UpdateWithTownOverride accounts for a town being forced onto h. A unit
// there is removed; otherwise the object is.
func (o *Overlay) UpdateWithTownOverride(h *Hex) {
	if h.HasUnit() {
		o.income += unitWage(h.UnitType())
		return
	}
	o.refundObject(h.Object())
}

func (o *Overlay) refundObject(obj Obj) {
	switch obj {
	case ObjFarm:
		o.updateFarmCost(-1)
		o.income -= FarmIncome
	case ObjTower:
		o.income += TowerExpenses[0]
	case ObjStrongTower:
		o.income += TowerExpenses[1]
	case ObjPine, ObjPalm, ObjGrave:
		o.income++
	}
}

// UpdateWithObjRemoval accounts for a unit clearing obj from an owned hex.
// Cutting a tree yields 3 coins.
func (o *Overlay) UpdateWithObjRemoval(obj Obj) {
	o.income++
	if obj.IsTree() {
		o.balance += 3
	}
}

// UpdateWithNewUnitAddition pays for the selected unit. It returns false
// when nothing is selected or the province cannot afford it.
func (o *Overlay) UpdateWithNewUnitAddition() bool {
	if o.unitToBeAdded == UnitNone {
		return false
	}
	cost := UnitCost(o.unitToBeAdded)
	if o.balance < cost {
		return false
	}
	o.balance -= cost
	o.income -= unitWage(o.unitToBeAdded)
	return true
}

// UpdateWithNewBuildingAddition pays for the selected building.
func (o *Overlay) UpdateWithNewBuildingAddition() bool {
	if o.buildingIndex < 0 {
		return false
	}
	b := AddableBuildings[o.buildingIndex]
	cost := o.BuildingCost(b)
	if o.balance < cost {
		return false
	}
	o.balance -= cost
	switch b {
	case ObjTower:
		o.income -= TowerExpenses[0]
	case ObjStrongTower:
		o.income -= TowerExpenses[1]
	case ObjFarm:
		o.income += FarmIncome
		o.updateFarmCost(1)
	}
	return true
}

// UnitCost is the purchase price of a unit.
func UnitCost(t UnitType) int {
	return int(t) * 10
}

// BuildingCost is the purchase price of obj in this province.
func (o *Overlay) BuildingCost(obj Obj) int {
	switch obj {
	case ObjFarm:
		return o.nextFarmCost
	case ObjTower:
		return TowerCosts[0]
	case ObjStrongTower:
		return TowerCosts[1]
	}
	return 0
}

// CycleUnitToBeAdded steps the unit selector and clears the building one.
func (o *Overlay) CycleUnitToBeAdded() {
	if o.unitToBeAdded == UnitKnight {
		o.unitToBeAdded = UnitPeasant
	} else {
		o.unitToBeAdded++
	}
	o.buildingIndex = -1
}

// CycleBuildingToBeAdded steps the building selector and clears the unit one.
func (o *Overlay) CycleBuildingToBeAdded() {
	o.buildingIndex = (o.buildingIndex + 1) % len(AddableBuildings)
	o.unitToBeAdded = UnitNone
}

func (o *Overlay) UnitToBeAdded() UnitType { return o.unitToBeAdded }

func (o *Overlay) BuildingToBeAdded() Obj {
	if o.buildingIndex < 0 {
		return ObjNone
	}
	return AddableBuildings[o.buildingIndex]
}

// ResetSelection clears both selectors.
func (o *Overlay) ResetSelection() {
	o.unitToBeAdded = UnitNone
	o.buildingIndex = -1
}

// ToggleShown starts a show or hide transition.
func (o *Overlay) ToggleShown(now time.Time) {
	o.animStarted = now
	o.animating = true
	o.ResetSelection()
}

// Update finishes a transition once it has run its course.
func (o *Overlay) Update(now time.Time) {
	if o.animating && now.Sub(o.animStarted) >= overlayTransition {
		o.finishTransition()
	}
}

func (o *Overlay) finishTransition() {
	if !o.animating {
		return
	}
	o.shown = !o.shown
	o.animating = false
}

func (o *Overlay) IsShown() bool     { return o.shown }
func (o *Overlay) IsAnimating() bool { return o.animating }

func (o *Overlay) updateFarmCost(farms int) {
	o.nextFarmCost += farms * FarmCostIncrease
}

func (o *Overlay) String() string {
	sign := ""
	if o.income > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%d %s%d", o.balance, sign, o.income)
}
