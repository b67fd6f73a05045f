package tiers

import "github.com/pkg/errors"

// BaseMultiplier is the neutral multiplier in percentage units, 1.0x.
const BaseMultiplier = 100

var (
	ErrInvalidTiersLength    = errors.New("Tier durations and multipliers length mismatch.")
	ErrInvalidTiersDurations = errors.New("Tier durations are not strictly ascending.")
)

// Tier maps a minimal boosting duration to a reward multiplier.
type Tier struct {
	MinStakingDuration uint64 `json:"minStakingDuration"` // seconds
	Multiplier         uint64 `json:"multiplier"`         // percentage units, 100 = 1.0x
}

// Table is an ordered tier list with strictly ascending durations.
// An empty table disables boosting entirely.
type Table []Tier

// NewTable validates the given duration/multiplier pairs and builds a table.
func NewTable(durations, multipliers []uint64) (Table, error) {
	if err := Validate(durations, multipliers); err != nil {
		return nil, err
	}

	t := make(Table, 0, len(durations))
	for i := range durations {
		t = append(t, Tier{
			MinStakingDuration: durations[i],
			Multiplier:         multipliers[i],
		})
	}

	return t, nil
}

// Validate checks the tier update payload shape.
func Validate(durations, multipliers []uint64) error {
	if len(durations) == 0 || len(durations) != len(multipliers) {
		return ErrInvalidTiersLength
	}

	for i := 1; i < len(durations); i++ {
		if durations[i] <= durations[i-1] {
			return ErrInvalidTiersDurations
		}
	}

	return nil
}

// Multiplier returns the reward multiplier earned after elapsed seconds of
// qualifying deposit. Boosting applies only when the table is non-empty, the
// staked balance reaches minBoost and a boost origin has been set.
func (t Table) Multiplier(elapsed, staked, minBoost uint64, originSet bool) uint64 {
	if len(t) == 0 || staked < minBoost || !originSet {
		return BaseMultiplier
	}

	multiplier := uint64(BaseMultiplier)
	for _, tier := range t {
		if tier.MinStakingDuration > elapsed {
			break
		}
		multiplier = tier.Multiplier
	}

	return multiplier
}
