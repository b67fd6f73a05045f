package ledger

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakevault/svault/shared/common"
)

var (
	addrA = common.HexToAddress("0x1111111111111111111111111111111111111111")
	addrB = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func TestEnsureReturnsWorkingCopy(t *testing.T) {
	l := New()

	st := l.Ensure(addrA)
	assert.Equal(t, uint64(0), st.Amount)

	st.Amount = 500
	l.Commit(st, 500)

	// a second working copy does not alias the stored record
	work := l.Ensure(addrA)
	work.Amount = 9000

	stored, ok := l.Staker(addrA)
	require.True(t, ok)
	assert.Equal(t, uint64(500), stored.Amount)
}

func TestTotals(t *testing.T) {
	l := New()

	sum, err := l.AddTotal(100)
	require.NoError(t, err)
	l.Commit(l.Ensure(addrA), sum)
	assert.Equal(t, uint64(100), l.TotalStaked())

	_, err = l.AddTotal(math.MaxUint64)
	assert.Error(t, err)

	_, err = l.SubTotal(101)
	assert.Error(t, err)

	diff, err := l.SubTotal(40)
	require.NoError(t, err)
	assert.Equal(t, uint64(60), diff)
}

func TestSnapshotRestore(t *testing.T) {
	l := New()

	a := l.Ensure(addrA)
	a.Amount = 100
	a.UnclaimedRewards = 7
	l.Commit(a, 100)

	b := l.Ensure(addrB)
	b.Amount = 250
	l.Commit(b, 350)

	stakers, total := l.Snapshot()
	require.Len(t, stakers, 2)
	assert.Equal(t, uint64(350), total)

	restored := New()
	require.NoError(t, restored.Restore(stakers, total))
	assert.Equal(t, uint64(350), restored.TotalStaked())
	assert.Equal(t, 2, restored.Count())

	st, ok := restored.Staker(addrA)
	require.True(t, ok)
	assert.Equal(t, uint64(7), st.UnclaimedRewards)

	// a snapshot whose amounts disagree with the stored total is rejected
	assert.Error(t, New().Restore(stakers, 351))
}
