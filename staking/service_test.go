package staking

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakevault/svault/db/iface"
	"github.com/stakevault/svault/shared/common"
	"github.com/stakevault/svault/shared/params"
	"github.com/stakevault/svault/staking/tiers"
	"github.com/stakevault/svault/token"
)

const ownerHex = "0xfe9353d875707a028ca049d776256da27f2c2359"

var (
	owner = common.HexToAddress(ownerHex)
	alice = common.HexToAddress("0x1111111111111111111111111111111111111111")
	bob   = common.HexToAddress("0x2222222222222222222222222222222222222222")
	carol = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

type testClock struct {
	now uint64
}

func (c *testClock) fn() uint64 {
	return c.now
}

func testConfig() *params.StakingConfig {
	return &params.StakingConfig{
		TimeUnit:              31104000,
		RatioDenominator:      10000,
		RewardRatioNumerator:  350,
		StakingTokenCap:       math.MaxUint64,
		MinStakingBoostAmount: 1_000_000,
		OwnerAddress:          ownerHex,
	}
}

// boostConfig uses small round numbers so boost tier transitions are easy
// to drive with the manual clock.
func boostConfig() *params.StakingConfig {
	return &params.StakingConfig{
		TimeUnit:              100,
		RatioDenominator:      100,
		RewardRatioNumerator:  10,
		StakingTokenCap:       math.MaxUint64,
		MinStakingBoostAmount: 500,
		TierDurations:         []uint64{100},
		TierMultipliers:       []uint64{200},
		OwnerAddress:          ownerHex,
	}
}

func newTestService(t *testing.T, sc *params.StakingConfig, feeBps uint64) (*Service, *token.Ledger, *testClock) {
	tok := token.NewLedger(9, feeBps)
	clk := &testClock{now: 1000}

	s, err := NewService(&Config{
		StakingConfig: sc,
		Token:         tok,
		Clock:         clk.fn,
	})
	require.NoError(t, err)

	return s, tok, clk
}

func fund(t *testing.T, tok *token.Ledger, addr common.Address, amount uint64) {
	require.NoError(t, tok.Mint(addr, amount))
	tok.Approve(addr, VaultAddress(), math.MaxUint64)
}

func TestStakeAndAccrue(t *testing.T) {
	s, tok, clk := newTestService(t, testConfig(), 0)
	fund(t, tok, alice, 10_000)

	received, err := s.Stake(alice, 1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), received)
	assert.Equal(t, uint64(1000), s.TotalStaked())
	assert.Equal(t, uint64(1000), tok.BalanceOf(VaultAddress()))

	// one full time unit at 3.5% on a 1000 stake
	clk.now += s.timeUnit
	info := s.GetStakeInfo(alice)
	assert.Equal(t, uint64(1000), info.Staked)
	assert.Equal(t, uint64(35), info.AvailableRewards)
}

func TestStakeValidation(t *testing.T) {
	s, tok, _ := newTestService(t, testConfig(), 0)
	fund(t, tok, alice, 10_000)

	_, err := s.Stake(alice, 0)
	assert.Equal(t, ErrInvalidAmount, err)

	_, err = s.Stake(common.Address{}, 100)
	assert.Equal(t, ErrInvalidAmount, err)
}

func TestStakeCap(t *testing.T) {
	sc := testConfig()
	sc.StakingTokenCap = 1000
	s, tok, _ := newTestService(t, sc, 0)
	fund(t, tok, alice, 10_000)

	_, err := s.Stake(alice, 1001)
	assert.Equal(t, ErrCannotStakeMoreThanCap, err)

	_, err = s.Stake(alice, 600)
	require.NoError(t, err)

	_, err = s.Stake(alice, 401)
	assert.Equal(t, ErrCannotStakeMoreThanCap, err)

	_, err = s.Stake(alice, 400)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), s.TotalStaked())
}

func TestWithdrawStopsAccrual(t *testing.T) {
	s, tok, clk := newTestService(t, testConfig(), 0)
	fund(t, tok, alice, 10_000)

	_, err := s.Stake(alice, 1000)
	require.NoError(t, err)

	// 1000 * 0.5 time units * 350/10000 = 17 (integer division)
	clk.now += s.timeUnit / 2
	require.NoError(t, s.Withdraw(alice, 1000))
	assert.Equal(t, uint64(10_000), tok.BalanceOf(alice))
	assert.Equal(t, uint64(0), s.TotalStaked())

	// nothing accrues on a zero balance no matter how much time passes
	clk.now += 10 * s.timeUnit
	info := s.GetStakeInfo(alice)
	assert.Equal(t, uint64(0), info.Staked)
	assert.Equal(t, uint64(17), info.AvailableRewards)

	// settled rewards stay claimable after a full withdrawal
	require.NoError(t, tok.Mint(VaultAddress(), 100))
	payout, err := s.ClaimRewards(alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(17), payout)
	assert.Equal(t, uint64(10_017), tok.BalanceOf(alice))
}

func TestWithdrawValidation(t *testing.T) {
	s, tok, _ := newTestService(t, testConfig(), 0)
	fund(t, tok, alice, 10_000)

	assert.Equal(t, ErrInvalidAmount, s.Withdraw(alice, 100), "unknown staker")

	_, err := s.Stake(alice, 500)
	require.NoError(t, err)

	assert.Equal(t, ErrInvalidAmount, s.Withdraw(alice, 0))
	assert.Equal(t, ErrInvalidAmount, s.Withdraw(alice, 501))
	assert.NoError(t, s.Withdraw(alice, 500))
}

func TestBoostThresholdCrossing(t *testing.T) {
	s, tok, clk := newTestService(t, boostConfig(), 0)
	fund(t, tok, alice, 10_000)

	// below the threshold, no boost origin is set
	_, err := s.Stake(alice, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(tiers.BaseMultiplier), s.GetCurrentMultiplier(alice))

	// the deposit crossing the threshold restarts boost timing
	clk.now = 1050
	_, err = s.Stake(alice, 400)
	require.NoError(t, err)
	assert.Equal(t, uint64(tiers.BaseMultiplier), s.GetCurrentMultiplier(alice), "tier duration counts from the crossing")

	clk.now = 1200
	assert.Equal(t, uint64(200), s.GetCurrentMultiplier(alice))

	// a further deposit above the threshold must not reset the origin
	_, err = s.Stake(alice, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), s.GetCurrentMultiplier(alice))

	// any withdrawal resets the origin, even with the balance still boosted
	require.NoError(t, s.Withdraw(alice, 1))
	clk.now = 1250
	assert.Equal(t, uint64(tiers.BaseMultiplier), s.GetCurrentMultiplier(alice))
}

func TestBoostCrossingMeasuresReceivedAmount(t *testing.T) {
	// a 1% fee-on-transfer token: crossing the threshold is judged by what
	// the vault received, not by the requested amount
	sc := boostConfig()
	sc.MinStakingBoostAmount = 1000
	s, tok, clk := newTestService(t, sc, 100)
	fund(t, tok, alice, 10_000)

	received, err := s.Stake(alice, 1000)
	require.NoError(t, err)
	require.Equal(t, uint64(990), received)

	// the requested 1000 would have crossed, the received 990 did not
	clk.now = 1200
	assert.Equal(t, uint64(tiers.BaseMultiplier), s.GetCurrentMultiplier(alice))

	// topping up past the threshold starts the boost timer now
	received, err = s.Stake(alice, 11)
	require.NoError(t, err)
	require.Equal(t, uint64(11), received)
	assert.Equal(t, uint64(tiers.BaseMultiplier), s.GetCurrentMultiplier(alice))

	clk.now = 1350
	assert.Equal(t, uint64(200), s.GetCurrentMultiplier(alice))
}

func TestViewsConcurrentWithAdmin(t *testing.T) {
	s, tok, _ := newTestService(t, testConfig(), 0)
	fund(t, tok, alice, 10_000)

	_, err := s.Stake(alice, 1000)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := uint64(0); i < 500; i++ {
			assert.NoError(t, s.SetRewardRatio(owner, 400+i))
		}
	}()

	for i := 0; i < 500; i++ {
		s.GetStakeInfo(alice)
		s.GetCurrentMultiplier(alice)
		s.CalculateAPR()
		s.Paused()
	}
	wg.Wait()

	assert.Equal(t, uint64(400+499), s.history.Latest().RewardRatioNumerator)
}

func TestClaimKeepsBoost(t *testing.T) {
	s, tok, clk := newTestService(t, boostConfig(), 0)
	fund(t, tok, alice, 10_000)
	require.NoError(t, tok.Mint(VaultAddress(), 1000))

	_, err := s.Stake(alice, 600)
	require.NoError(t, err)

	clk.now = 1200
	require.Equal(t, uint64(200), s.GetCurrentMultiplier(alice))

	_, err = s.ClaimRewards(alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), s.GetCurrentMultiplier(alice), "claiming must not interrupt boosting")
}

func TestFeeOnTransferCredit(t *testing.T) {
	// a 1% fee-on-transfer token: the vault receives less than requested
	s, tok, _ := newTestService(t, testConfig(), 100)
	fund(t, tok, alice, 100_000)

	received, err := s.Stake(alice, 10_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(9_900), received)
	assert.Equal(t, uint64(9_900), s.TotalStaked())
	assert.Equal(t, uint64(9_900), s.GetStakeInfo(alice).Staked)
	assert.Equal(t, uint64(9_900), tok.BalanceOf(VaultAddress()))
}

func TestClaimErrors(t *testing.T) {
	s, tok, clk := newTestService(t, testConfig(), 0)
	fund(t, tok, alice, 10_000)

	_, err := s.ClaimRewards(alice)
	assert.Equal(t, ErrNoRewards, err, "unknown staker")

	_, err = s.Stake(alice, 1000)
	require.NoError(t, err)

	_, err = s.ClaimRewards(alice)
	assert.Equal(t, ErrNoRewards, err, "no time has passed")

	// rewards accrued but the vault holds nothing beyond the deposits
	clk.now += s.timeUnit
	_, err = s.ClaimRewards(alice)
	assert.Equal(t, ErrMissingRewards, err)

	require.NoError(t, tok.Mint(VaultAddress(), 35))
	payout, err := s.ClaimRewards(alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(35), payout)
}

func TestEmergencyWithdraw(t *testing.T) {
	s, tok, clk := newTestService(t, testConfig(), 0)
	fund(t, tok, alice, 10_000)

	_, err := s.EmergencyWithdraw(alice)
	assert.Equal(t, ErrInvalidAmount, err, "nothing staked")

	_, err = s.Stake(alice, 1000)
	require.NoError(t, err)

	clk.now += s.timeUnit
	require.NoError(t, s.SetPaused(owner, true))

	// gated operations reject, the emergency exit does not
	assert.Equal(t, ErrPaused, s.Withdraw(alice, 1000))

	amount, err := s.EmergencyWithdraw(alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), amount)
	assert.Equal(t, uint64(10_000), tok.BalanceOf(alice))
	assert.Equal(t, uint64(0), s.TotalStaked())

	// settled rewards survived the emergency exit
	info := s.GetStakeInfo(alice)
	assert.Equal(t, uint64(0), info.Staked)
	assert.Equal(t, uint64(35), info.AvailableRewards)

	require.NoError(t, s.SetPaused(owner, false))
	require.NoError(t, tok.Mint(VaultAddress(), 35))
	payout, err := s.ClaimRewards(alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(35), payout)
}

func TestPauseGate(t *testing.T) {
	s, tok, _ := newTestService(t, testConfig(), 0)
	fund(t, tok, alice, 10_000)

	require.NoError(t, s.SetPaused(owner, true))
	assert.True(t, s.Paused())
	assert.Equal(t, ErrAlreadyPaused, s.SetPaused(owner, true))

	_, err := s.Stake(alice, 100)
	assert.Equal(t, ErrPaused, err)
	assert.Equal(t, ErrPaused, s.Withdraw(alice, 100))
	_, err = s.ClaimRewards(alice)
	assert.Equal(t, ErrPaused, err)

	require.NoError(t, s.SetPaused(owner, false))
	assert.Equal(t, ErrNotPaused, s.SetPaused(owner, false))

	_, err = s.Stake(alice, 100)
	assert.NoError(t, err)
}

func TestOwnerGate(t *testing.T) {
	s, _, _ := newTestService(t, testConfig(), 0)

	assert.Equal(t, ErrNotOwner, s.SetRewardRatio(alice, 700))
	assert.Equal(t, ErrNotOwner, s.SetTiers(alice, []uint64{10}, []uint64{110}))
	assert.Equal(t, ErrNotOwner, s.SetStakingTokenCap(alice, 1))
	assert.Equal(t, ErrNotOwner, s.SetMinStakingBoostAmount(alice, 1))
	assert.Equal(t, ErrNotOwner, s.WithdrawExcessTokens(alice, bob, 1))
	assert.Equal(t, ErrNotOwner, s.SetPaused(alice, true))
}

func TestAdminOps(t *testing.T) {
	s, tok, clk := newTestService(t, testConfig(), 0)
	fund(t, tok, alice, 10_000)

	// 350/10000 per 360 days annualizes to 354 bps
	assert.Equal(t, uint64(354), s.CalculateAPR())

	clk.now += 10
	require.NoError(t, s.SetRewardRatio(owner, 700))
	assert.Equal(t, uint64(709), s.CalculateAPR())

	assert.Error(t, s.SetRewardRatio(owner, 700), "unchanged numerator")

	assert.Equal(t, tiers.ErrInvalidTiersLength, s.SetTiers(owner, nil, nil))
	require.NoError(t, s.SetTiers(owner, []uint64{50}, []uint64{150}))

	assert.Equal(t, ErrInvalidAmount, s.SetMinStakingBoostAmount(owner, 0))
	require.NoError(t, s.SetMinStakingBoostAmount(owner, 100))

	require.NoError(t, s.SetStakingTokenCap(owner, 500))
	_, err := s.Stake(alice, 501)
	assert.Equal(t, ErrCannotStakeMoreThanCap, err)
}

func TestWithdrawExcess(t *testing.T) {
	s, tok, _ := newTestService(t, testConfig(), 0)
	fund(t, tok, alice, 10_000)

	_, err := s.Stake(alice, 1000)
	require.NoError(t, err)

	assert.Equal(t, ErrInvalidTokenAddress, s.WithdrawExcessTokens(owner, common.Address{}, 10))
	assert.Equal(t, ErrInvalidAmount, s.WithdrawExcessTokens(owner, bob, 0))

	// deposits are not sweepable
	assert.Equal(t, ErrNoExcessStakingToken, s.WithdrawExcessTokens(owner, bob, 10))

	require.NoError(t, tok.Mint(VaultAddress(), 50))
	assert.Equal(t, ErrWithdrawExceedsLimit, s.WithdrawExcessTokens(owner, bob, 51))

	require.NoError(t, s.WithdrawExcessTokens(owner, bob, 30))
	assert.Equal(t, uint64(30), tok.BalanceOf(bob))
	assert.Equal(t, uint64(1000), s.TotalStaked(), "deposits untouched")

	// sweeping to the vault itself must not inflate the excess
	require.NoError(t, s.WithdrawExcessTokens(owner, VaultAddress(), 10))
	assert.Equal(t, uint64(20), s.rewardFunding())
}

// reentrantToken calls back into the controller from inside a transfer the
// way a malicious token contract would.
type reentrantToken struct {
	*token.Ledger
	svc         *Service
	reentryErrs []error
}

func (r *reentrantToken) TransferFrom(spender, from, to common.Address, amount uint64) error {
	if err := r.svc.Withdraw(from, 1); err != nil {
		r.reentryErrs = append(r.reentryErrs, err)
	}
	return r.Ledger.TransferFrom(spender, from, to, amount)
}

func TestReentrancyGuard(t *testing.T) {
	tok := token.NewLedger(9, 0)
	clk := &testClock{now: 1000}
	rt := &reentrantToken{Ledger: tok}

	s, err := NewService(&Config{
		StakingConfig: testConfig(),
		Token:         rt,
		Clock:         clk.fn,
	})
	require.NoError(t, err)
	rt.svc = s

	fund(t, tok, alice, 10_000)

	received, err := s.Stake(alice, 1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), received)

	require.Len(t, rt.reentryErrs, 1)
	assert.Equal(t, ErrReentrantCall, rt.reentryErrs[0])
	assert.Equal(t, uint64(1000), s.TotalStaked(), "reentrant call must not corrupt the ledger")
}

func TestTotalStakedInvariant(t *testing.T) {
	s, tok, clk := newTestService(t, testConfig(), 0)
	for _, addr := range []common.Address{alice, bob, carol} {
		fund(t, tok, addr, 100_000)
	}

	_, err := s.Stake(alice, 12_345)
	require.NoError(t, err)
	_, err = s.Stake(bob, 777)
	require.NoError(t, err)
	_, err = s.Stake(carol, 50_000)
	require.NoError(t, err)

	clk.now += 5000
	require.NoError(t, s.Withdraw(alice, 2_345))
	_, err = s.Stake(bob, 223)
	require.NoError(t, err)
	_, err = s.EmergencyWithdraw(carol)
	require.NoError(t, err)

	var sum uint64
	for _, addr := range []common.Address{alice, bob, carol} {
		sum += s.GetStakeInfo(addr).Staked
	}
	assert.Equal(t, s.TotalStaked(), sum)
	assert.Equal(t, sum, tok.BalanceOf(VaultAddress()))
}

func TestFeedEmitsActions(t *testing.T) {
	s, tok, _ := newTestService(t, testConfig(), 0)
	fund(t, tok, alice, 10_000)

	ch := make(chan ActionRecord, 8)
	sub := s.Feed().Subscribe(ch)
	defer sub.Unsubscribe()

	_, err := s.Stake(alice, 1000)
	require.NoError(t, err)

	rec := <-ch
	assert.Equal(t, ActionStake, rec.Type)
	assert.Equal(t, alice.Hex(), rec.Staker.Hex())
	assert.Equal(t, uint64(1000), rec.Amount)
}

func TestRestoreSnapshot(t *testing.T) {
	s, tok, clk := newTestService(t, boostConfig(), 0)
	fund(t, tok, alice, 10_000)

	_, err := s.Stake(alice, 600)
	require.NoError(t, err)
	clk.now = 1200

	stakers, total := s.ledger.Snapshot()
	state := &iface.StakingState{
		Global: iface.GlobalState{
			Conditions:      s.history.Conditions(),
			Tiers:           s.tierTable,
			StakingTokenCap: s.cap,
			MinBoostAmount:  s.minBoost,
		},
		Stakers:     stakers,
		TotalStaked: total,
	}

	restored, err := NewService(&Config{
		StakingConfig: boostConfig(),
		Token:         tok,
		Restored:      state,
		Clock:         clk.fn,
	})
	require.NoError(t, err)

	assert.Equal(t, s.TotalStaked(), restored.TotalStaked())
	assert.Equal(t, s.GetStakeInfo(alice), restored.GetStakeInfo(alice))
	assert.Equal(t, s.GetCurrentMultiplier(alice), restored.GetCurrentMultiplier(alice))
}
