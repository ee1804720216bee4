package dice

import (
	_ "embed"
	"fmt"
	"math"
	"strings"

	"gopkg.in/yaml.v3"
)

// SuccessLevel is the discrete outcome band of a roll. Levels are ordered
// by favorability.
type SuccessLevel int

const (
	CriticalFailure SuccessLevel = iota
	Failure
	Success
	GreatSuccess
	CriticalSuccess
)

var levelNames = [...]string{"critical_failure", "failure", "success", "great_success", "critical_success"}

func (l SuccessLevel) String() string {
	if l < CriticalFailure || l > CriticalSuccess {
		return "unknown"
	}
	return levelNames[l]
}

// MarshalText encodes the level by name.
func (l SuccessLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText decodes a level name.
func (l *SuccessLevel) UnmarshalText(b []byte) error {
	parsed, err := ParseSuccessLevel(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseSuccessLevel accepts the snake_case names produced by String.
func ParseSuccessLevel(s string) (SuccessLevel, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, name := range levelNames {
		if name == key {
			return SuccessLevel(i), nil
		}
	}
	return Failure, fmt.Errorf("unknown success level %q", s)
}

// Succeeded reports whether the level lets an action take effect.
func (l SuccessLevel) Succeeded() bool { return l >= Success }

// Multiplier returns the damage/heal factor for a level:
// 0, 0, 1.0, 1.5, 2.0. Non-decreasing across the order.
func Multiplier(l SuccessLevel) float64 {
	switch l {
	case Success:
		return 1.0
	case GreatSuccess:
		return 1.5
	case CriticalSuccess:
		return 2.0
	default:
		return 0
	}
}

// ApplyMultiplier returns round(base × m).
func ApplyMultiplier(base int, m float64) int {
	return int(math.Round(float64(base) * m))
}

// Bands holds the inclusive upper bound of the first four levels.
type Bands struct {
	CriticalFailure int `yaml:"critical_failure"`
	Failure         int `yaml:"failure"`
	Success         int `yaml:"success"`
	GreatSuccess    int `yaml:"great_success"`
}

func (b Bands) valid() bool {
	return b.CriticalFailure < b.Failure && b.Failure < b.Success && b.Success < b.GreatSuccess
}

// Table maps die types onto their band boundaries.
type Table map[DieType]Bands

//go:embed tables.yaml
var defaultTables []byte

// DefaultTable returns the embedded band configuration.
func DefaultTable() Table {
	t, err := ParseTable(defaultTables)
	if err != nil {
		panic(fmt.Sprintf("dice: embedded tables are invalid: %v", err))
	}
	return t
}

// ParseTable decodes a YAML band table and checks each band is contiguous.
func ParseTable(raw []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("failed to decode dice table: %w", err)
	}
	for die, b := range t {
		if die.Sides() == 0 {
			return nil, fmt.Errorf("die %q has no face count", die)
		}
		if !b.valid() {
			return nil, fmt.Errorf("bands for %s are not strictly increasing", die)
		}
		if b.GreatSuccess >= die.Sides() {
			return nil, fmt.Errorf("bands for %s leave no critical success face", die)
		}
	}
	return t, nil
}

// Roll draws a value for die. Dice missing from the table still roll by
// their face count.
func (t Table) Roll(src Source, die DieType) Roll {
	return RollDie(src, die)
}

// SuccessLevel maps value onto a band. Unknown die types resolve to
// Failure.
func (t Table) SuccessLevel(value int, die DieType) SuccessLevel {
	b, ok := t[die]
	if !ok {
		return Failure
	}
	switch {
	case value <= b.CriticalFailure:
		return CriticalFailure
	case value <= b.Failure:
		return Failure
	case value <= b.Success:
		return Success
	case value <= b.GreatSuccess:
		return GreatSuccess
	default:
		return CriticalSuccess
	}
}

// Resolve rolls die and maps the result in one step.
func (t Table) Resolve(src Source, die DieType) (Roll, SuccessLevel) {
	r := t.Roll(src, die)
	return r, t.SuccessLevel(r.Value, die)
}
