package condition

import "github.com/pkg/errors"

var ErrInvalidRewardRatio = errors.New("Invalid reward ratio given.")

// Condition is a single reward-rate regime. EndTimestamp is zero while the
// condition is still open.
type Condition struct {
	RewardRatioNumerator uint64 `json:"rewardRatioNumerator"`
	StartTimestamp       uint64 `json:"startTimestamp"`
	EndTimestamp         uint64 `json:"endTimestamp"`
}

// History is an append-only arena of reward-rate regimes. Indexes double as
// condition ids, exactly one condition (the last) is open at any time.
// History is not safe for concurrent use, callers serialize access.
type History struct {
	conditions []Condition
}

// NewHistory creates a history with the initial open condition.
func NewHistory(numerator, now uint64) (*History, error) {
	if numerator == 0 {
		return nil, ErrInvalidRewardRatio
	}

	return &History{
		conditions: []Condition{{
			RewardRatioNumerator: numerator,
			StartTimestamp:       now,
		}},
	}, nil
}

// Restore rebuilds a history from persisted conditions.
func Restore(conditions []Condition) (*History, error) {
	if len(conditions) == 0 {
		return nil, errors.New("Empty condition history given.")
	}

	for i, c := range conditions {
		if c.RewardRatioNumerator == 0 {
			return nil, ErrInvalidRewardRatio
		}

		isLast := i == len(conditions)-1
		if isLast != (c.EndTimestamp == 0) {
			return nil, errors.Errorf("Broken condition chain at id %d.", i)
		}

		if !isLast && conditions[i+1].StartTimestamp != c.EndTimestamp {
			return nil, errors.Errorf("Condition gap between ids %d and %d.", i, i+1)
		}
	}

	h := &History{conditions: make([]Condition, len(conditions))}
	copy(h.conditions, conditions)

	return h, nil
}

// Open closes the current condition at now and appends a new open condition
// with the given numerator.
func (h *History) Open(numerator, now uint64) error {
	current := &h.conditions[len(h.conditions)-1]
	if numerator == 0 || numerator == current.RewardRatioNumerator {
		return ErrInvalidRewardRatio
	}

	current.EndTimestamp = now
	h.conditions = append(h.conditions, Condition{
		RewardRatioNumerator: numerator,
		StartTimestamp:       now,
	})

	return nil
}

// Count returns the number of conditions ever opened.
func (h *History) Count() int {
	return len(h.conditions)
}

// LatestID returns the id of the open condition.
func (h *History) LatestID() int {
	return len(h.conditions) - 1
}

// Latest returns the open condition.
func (h *History) Latest() Condition {
	return h.conditions[len(h.conditions)-1]
}

// At returns the condition with the given id. The id must exist.
func (h *History) At(id int) Condition {
	return h.conditions[id]
}

// Conditions returns a copy of the full regime chain for persistence.
func (h *History) Conditions() []Condition {
	out := make([]Condition, len(h.conditions))
	copy(out, h.conditions)
	return out
}
