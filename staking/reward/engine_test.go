package reward

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakevault/svault/staking/condition"
	"github.com/stakevault/svault/staking/ledger"
	"github.com/stakevault/svault/staking/tiers"
)

func baseParams(t *testing.T, numerator uint64) Params {
	history, err := condition.NewHistory(numerator, 1000)
	require.NoError(t, err)

	return Params{
		History:          history,
		MinBoostAmount:   1_000_000,
		TimeUnit:         31104000,
		RatioDenominator: 10000,
	}
}

func TestSettleBaseRate(t *testing.T) {
	p := baseParams(t, 350)

	st := &ledger.Staker{
		Amount:     1000,
		LastUpdate: 1000,
	}

	// one full time unit at 3.5% yields exactly 35 on a 1000 stake
	assert.Equal(t, uint64(35), Settle(st, p, 1000+p.TimeUnit))

	// half a time unit on a doubled stake yields the same amount
	st.Amount = 2000
	assert.Equal(t, uint64(35), Settle(st, p, 1000+p.TimeUnit/2))

	// zero elapsed time yields nothing
	assert.Equal(t, uint64(0), Settle(st, p, 1000))
	assert.Equal(t, uint64(0), Settle(st, p, 500))
}

func TestSettleIdempotent(t *testing.T) {
	p := baseParams(t, 350)

	st := &ledger.Staker{Amount: 5000, LastUpdate: 1000}
	now := uint64(1000) + p.TimeUnit/4

	first := Settle(st, p, now)
	assert.Equal(t, first, Settle(st, p, now), "same instant must settle identically")

	// after folding the delta and advancing the markers nothing is left
	st.UnclaimedRewards += first
	st.LastUpdate = now
	st.ConditionID = p.History.LatestID()
	assert.Equal(t, uint64(0), Settle(st, p, now))
}

func TestSettleAcrossConditions(t *testing.T) {
	history, err := condition.NewHistory(10, 500)
	require.NoError(t, err)
	require.NoError(t, history.Open(20, 1050))

	table, err := tiers.NewTable([]uint64{50}, []uint64{200})
	require.NoError(t, err)

	p := Params{
		History:          history,
		Tiers:            table,
		MinBoostAmount:   10,
		TimeUnit:         100,
		RatioDenominator: 100,
	}

	st := &ledger.Staker{
		Amount:      100,
		LastUpdate:  1000,
		BoostOrigin: 1000,
		ConditionID: 0,
	}

	// boost duration is 100s at now, past the 50s tier, so the 2.0x
	// multiplier applies to the interval under the old regime too:
	// 50s * 100 * (10 * 2) / (100 * 100) + 50s * 100 * (20 * 2) / (100 * 100)
	assert.Equal(t, uint64(10+20), Settle(st, p, 1100))
}

func TestSettleSkipsStaleConditions(t *testing.T) {
	history, err := condition.NewHistory(10, 0)
	require.NoError(t, err)
	require.NoError(t, history.Open(20, 100))
	require.NoError(t, history.Open(30, 200))

	p := Params{
		History:          history,
		TimeUnit:         100,
		RatioDenominator: 100,
	}

	// the staker settled mid-regime 1; regime 0 contributes nothing even
	// though its id is below the staker's marker start
	st := &ledger.Staker{Amount: 100, LastUpdate: 150, ConditionID: 1}

	// 50s at 20/100 + 100s at 30/100
	assert.Equal(t, uint64(10+30), Settle(st, p, 300))
}

func TestSettleOverflowSaturates(t *testing.T) {
	history, err := condition.NewHistory(1, 0)
	require.NoError(t, err)
	require.NoError(t, history.Open(2, 10))

	p := Params{
		History:          history,
		TimeUnit:         10,
		RatioDenominator: 1,
	}

	st := &ledger.Staker{Amount: math.MaxUint64 / 12}

	// the closed condition settles cleanly, the open one overflows
	// duration*amount and is dropped instead of poisoning the total
	total := Settle(st, p, math.MaxUint64/2)
	assert.Equal(t, st.Amount, total)
}

func TestSettleZeroDivisor(t *testing.T) {
	p := baseParams(t, 350)
	p.TimeUnit = math.MaxUint64
	p.RatioDenominator = 2

	st := &ledger.Staker{Amount: 1000}
	assert.Equal(t, uint64(0), Settle(st, p, 5000))
}
