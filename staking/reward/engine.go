// Package reward implements the pure settlement computation combining a
// staker record, the reward-rate regime history and the boost tier table.
package reward

import (
	rmath "github.com/stakevault/svault/shared/math"
	"github.com/stakevault/svault/staking/condition"
	"github.com/stakevault/svault/staking/ledger"
	"github.com/stakevault/svault/staking/tiers"
)

// Params is the configuration aggregate the engine reads. It is passed
// explicitly so the engine stays testable without the full controller.
type Params struct {
	History          *condition.History
	Tiers            tiers.Table
	MinBoostAmount   uint64
	TimeUnit         uint64
	RatioDenominator uint64
}

// Settle computes the rewards accrued by st from its last settlement up to
// now. It does not mutate the record, callers fold the delta into
// UnclaimedRewards and advance LastUpdate/ConditionID themselves.
//
// The multiplier is evaluated once at call time and applied uniformly to
// every historical interval being settled, including intervals that predate
// the multiplier's current value.
//
// An interval whose arithmetic would overflow uint64 contributes zero
// instead of failing the settlement, so adversarially large balances can
// never make the operation abort.
func Settle(st *ledger.Staker, p Params, now uint64) uint64 {
	var boostElapsed uint64
	if st.BoostOrigin != 0 && now > st.BoostOrigin {
		boostElapsed = now - st.BoostOrigin
	}
	multiplier := p.Tiers.Multiplier(boostElapsed, st.Amount, p.MinBoostAmount, st.BoostOrigin != 0)

	divisor, overflow := rmath.Mul64(p.TimeUnit, p.RatioDenominator)
	if overflow || divisor == 0 {
		return 0
	}

	var total uint64
	for id := st.ConditionID; id <= p.History.LatestID(); id++ {
		cond := p.History.At(id)

		start := cond.StartTimestamp
		if id == st.ConditionID {
			start = st.LastUpdate
		}

		end := cond.EndTimestamp
		if end == 0 {
			end = now
		}

		if end <= start {
			continue
		}

		delta, ok := intervalReward(end-start, st.Amount, cond.RewardRatioNumerator, multiplier, divisor)
		if !ok {
			// saturate: drop this interval, keep the rest
			continue
		}

		sum, overflow := rmath.Add64(total, delta)
		if overflow {
			continue
		}
		total = sum
	}

	return total
}

// intervalReward computes duration * amount * (numerator * multiplier / 100)
// / divisor with overflow detection on both multiplications.
func intervalReward(duration, amount, numerator, multiplier, divisor uint64) (uint64, bool) {
	stakeTime, overflow := rmath.Mul64(duration, amount)
	if overflow {
		return 0, false
	}

	ratio := numerator * multiplier / tiers.BaseMultiplier

	product, overflow := rmath.Mul64(stakeTime, ratio)
	if overflow {
		return 0, false
	}

	return product / divisor, true
}
