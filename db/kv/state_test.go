package kv

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakevault/svault/db/iface"
	"github.com/stakevault/svault/shared/common"
	"github.com/stakevault/svault/staking/condition"
	"github.com/stakevault/svault/staking/ledger"
	"github.com/stakevault/svault/staking/tiers"
)

func setupDB(t *testing.T) *Store {
	store, err := NewKVStore(context.Background(), filepath.Join(t.TempDir(), "db"), &Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func TestLoadStateEmpty(t *testing.T) {
	store := setupDB(t)

	_, found, err := store.LoadState()
	require.NoError(t, err)
	assert.False(t, found, "no snapshot written yet")
}

func TestStateRoundtrip(t *testing.T) {
	store := setupDB(t)

	history, err := condition.NewHistory(350, 1000)
	require.NoError(t, err)
	require.NoError(t, history.Open(500, 2000))

	table, err := tiers.NewTable([]uint64{100, 200}, []uint64{110, 150})
	require.NoError(t, err)

	global := &iface.GlobalState{
		Conditions:      history.Conditions(),
		Tiers:           table,
		StakingTokenCap: 1_000_000,
		MinBoostAmount:  5_000,
		Paused:          true,
	}
	require.NoError(t, store.SaveGlobalState(global))

	stakers := []ledger.Staker{
		{
			Address:          common.HexToAddress("0x1111111111111111111111111111111111111111"),
			Amount:           700,
			UnclaimedRewards: 12,
			LastUpdate:       1500,
			BoostOrigin:      1200,
			ConditionID:      1,
		},
		{
			Address:    common.HexToAddress("0x2222222222222222222222222222222222222222"),
			Amount:     300,
			LastUpdate: 1800,
		},
	}
	var total uint64
	for i := range stakers {
		total += stakers[i].Amount
		require.NoError(t, store.SaveStaker(&stakers[i], total))
	}

	state, found, err := store.LoadState()
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, *global, state.Global)
	assert.Equal(t, uint64(1000), state.TotalStaked)
	assert.ElementsMatch(t, stakers, state.Stakers)
}

func TestSaveStakerOverwrites(t *testing.T) {
	store := setupDB(t)

	st := &ledger.Staker{
		Address: common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Amount:  100,
	}
	require.NoError(t, store.SaveStaker(st, 100))

	st.Amount = 250
	st.UnclaimedRewards = 9
	require.NoError(t, store.SaveStaker(st, 250))

	require.NoError(t, store.SaveGlobalState(&iface.GlobalState{}))

	state, found, err := store.LoadState()
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, state.Stakers, 1)
	assert.Equal(t, uint64(250), state.Stakers[0].Amount)
	assert.Equal(t, uint64(9), state.Stakers[0].UnclaimedRewards)
	assert.Equal(t, uint64(250), state.TotalStaked)
}
