package combat

import (
	"math"

	"github.com/cory-johannsen/dungeon/internal/game/dice"
)

// Formula computes the damage an attacker deals to a defender.
//
// Implementations MUST return a value >= 0.
type Formula interface {
	Damage(attacker, defender Snapshot) float32
}

// FormulaFunc adapts a function to Formula.
type FormulaFunc func(attacker, defender Snapshot) float32

// Damage calls f.
func (f FormulaFunc) Damage(attacker, defender Snapshot) float32 { return f(attacker, defender) }

// Outcome is the 4-tier attack result.
type Outcome int

const (
	CritSuccess Outcome = iota
	Success
	Failure
	CritFailure
)

// String returns a human-readable outcome label.
func (o Outcome) String() string {
	switch o {
	case CritSuccess:
		return "critical success"
	case Success:
		return "success"
	case Failure:
		return "failure"
	case CritFailure:
		return "critical failure"
	default:
		return "unknown"
	}
}

// OutcomeFor determines the attack outcome of roll against defence.
//
// Postcondition: Returns one of CritSuccess, Success, Failure, CritFailure.
func OutcomeFor(roll, defence int) Outcome {
	switch {
	case roll >= defence+10:
		return CritSuccess
	case roll >= defence:
		return Success
	case roll >= defence-10:
		return Failure
	default:
		return CritFailure
	}
}

// UnarmedDamage is rolled when the attacker has no weapon.
const UnarmedDamage = "1d2"

// StandardFormula rolls d20 + attacker Dex against 10 + defender Dex + armour
// defence. A success deals the weapon roll plus half the attacker's Str, a
// critical success doubles it, and the defender's Con/4 is subtracted.
type StandardFormula struct {
	src dice.Source
}

// NewStandardFormula returns a StandardFormula rolling with src.
//
// Precondition: src must be non-nil.
func NewStandardFormula(src dice.Source) *StandardFormula {
	return &StandardFormula{src: src}
}

// Damage implements Formula.
//
// Postcondition: Returns >= 0.
func (f *StandardFormula) Damage(attacker, defender Snapshot) float32 {
	roll := f.src.Intn(20) + 1 + int(attacker.Stats.Dex)
	defence := 10 + int(defender.Stats.Dex) + int(defender.Inventory.Armour.Defence)

	var mult float32
	switch OutcomeFor(roll, defence) {
	case CritSuccess:
		mult = 2
	case Success:
		mult = 1
	default:
		return 0
	}

	expr, err := dice.Parse(attacker.Inventory.Weapon.Damage)
	if err != nil {
		expr, _ = dice.Parse(UnarmedDamage)
	}
	base := float32(expr.Roll(f.src)) + attacker.Stats.Str/2
	dmg := base*mult - defender.Stats.Con/4
	if dmg < 0 {
		return 0
	}
	return dmg
}

// RoundDamage rounds a formula result to the nearest whole number, half away
// from zero. Negative results are treated as zero.
func RoundDamage(d float32) float32 {
	if d <= 0 || math.IsNaN(float64(d)) {
		return 0
	}
	return float32(math.Round(float64(d)))
}
