package staking

import (
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/stakevault/svault/db/iface"
	"github.com/stakevault/svault/events"
	"github.com/stakevault/svault/shared/common"
	"github.com/stakevault/svault/shared/crypto"
	rmath "github.com/stakevault/svault/shared/math"
	"github.com/stakevault/svault/shared/params"
	"github.com/stakevault/svault/staking/condition"
	"github.com/stakevault/svault/staking/ledger"
	"github.com/stakevault/svault/staking/reward"
	"github.com/stakevault/svault/staking/tiers"
)

var log = logrus.WithField("prefix", "staking")

const yearSeconds = 31536000

var vaultSeed = []byte("svault/treasury")

// VaultAddress is the token account holding every deposit and the reward
// funding.
func VaultAddress() common.Address {
	return common.BytesToAddress(crypto.Keccak256(vaultSeed)[12:])
}

// Token is the external fungible token collaborator. Amounts actually moved
// may differ from requested amounts, receivers measure balance deltas.
type Token interface {
	TransferFrom(spender, from, to common.Address, amount uint64) error
	Transfer(from, to common.Address, amount uint64) error
	BalanceOf(addr common.Address) uint64
	Decimals() uint8
}

// Database persists committed ledger mutations.
type Database interface {
	SaveStaker(st *ledger.Staker, totalStaked uint64) error
	SaveGlobalState(state *iface.GlobalState) error
}

// Clock supplies the current unix timestamp, replaceable in tests.
type Clock func() uint64

// Config collects the staking service dependencies.
type Config struct {
	StakingConfig *params.StakingConfig
	Token         Token
	Database      Database
	Restored      *iface.StakingState // nil on first start
	Clock         Clock
}

// Service is the staking controller. Every user and admin action enters
// here, settles pending rewards against the regime history before mutating
// balances, moves tokens through the external collaborator and emits an
// action record.
type Service struct {
	cfg    *Config
	ledger *ledger.Ledger

	// global mutable config aggregate. The operation guard serializes
	// writers against each other and against staking operations; mu covers
	// the lock-free views reading alongside a guarded mutation.
	mu        sync.RWMutex
	history   *condition.History
	tierTable tiers.Table
	cap       uint64
	minBoost  uint64
	paused    bool

	timeUnit    uint64
	denominator uint64
	owner       common.Address
	vault       common.Address

	token Token
	db    Database
	clock Clock
	guard reentryGuard
	feed  events.Bus

	failStatus error
}

// NewService assembles the controller from config and, when present, the
// persisted snapshot.
func NewService(cfg *Config) (*Service, error) {
	sc := cfg.StakingConfig
	if sc == nil {
		sc = params.VaultConfig()
	}

	clock := cfg.Clock
	if clock == nil {
		clock = func() uint64 { return uint64(time.Now().Unix()) }
	}

	s := &Service{
		cfg:         cfg,
		ledger:      ledger.New(),
		timeUnit:    sc.TimeUnit,
		denominator: sc.RatioDenominator,
		cap:         sc.StakingTokenCap,
		minBoost:    sc.MinStakingBoostAmount,
		owner:       common.HexToAddress(sc.OwnerAddress),
		vault:       VaultAddress(),
		token:       cfg.Token,
		db:          cfg.Database,
		clock:       clock,
	}

	if s.timeUnit == 0 || s.denominator == 0 {
		return nil, errors.New("Zero time unit or ratio denominator configured.")
	}

	if cfg.Restored != nil {
		if err := s.restore(cfg.Restored); err != nil {
			return nil, err
		}
		return s, nil
	}

	history, err := condition.NewHistory(sc.RewardRatioNumerator, clock())
	if err != nil {
		return nil, err
	}
	s.history = history

	if len(sc.TierDurations) > 0 {
		table, err := tiers.NewTable(sc.TierDurations, sc.TierMultipliers)
		if err != nil {
			return nil, err
		}
		s.tierTable = table
	}

	return s, nil
}

func (s *Service) restore(state *iface.StakingState) error {
	history, err := condition.Restore(state.Global.Conditions)
	if err != nil {
		return err
	}

	if err := s.ledger.Restore(state.Stakers, state.TotalStaked); err != nil {
		return err
	}

	s.history = history
	s.tierTable = state.Global.Tiers
	s.cap = state.Global.StakingTokenCap
	s.minBoost = state.Global.MinBoostAmount
	s.paused = state.Global.Paused

	log.Infof("Ledger snapshot loaded. Stakers: %d, total staked: %d", s.ledger.Count(), s.ledger.TotalStaked())
	return nil
}

// Feed returns the action record feed.
func (s *Service) Feed() events.Feed {
	return &s.feed
}

// Start implements the node service contract.
func (s *Service) Start() {
	log.WithFields(logrus.Fields{
		"timeUnit":    s.timeUnit,
		"denominator": s.denominator,
		"cap":         s.cap,
		"tiers":       len(s.tierTable),
	}).Info("Staking controller started")

	totalStakedGauge.Set(float64(s.ledger.TotalStaked()))
	stakersCountGauge.Set(float64(s.ledger.Count()))
}

// Stop implements the node service contract.
func (s *Service) Stop() error {
	log.Info("Stopping staking controller")
	return nil
}

// Status implements the node service contract.
func (s *Service) Status() error {
	return s.failStatus
}

// Stake deposits amount for the caller. The credited amount is the
// post-transfer vault balance delta, which defends against tokens that
// apply fees on transfer. Returns the credited amount.
func (s *Service) Stake(caller common.Address, amount uint64) (uint64, error) {
	if err := s.guard.Enter(); err != nil {
		return 0, err
	}
	defer s.guard.Exit()

	if s.paused {
		return 0, ErrPaused
	}

	if caller.IsEmpty() || amount == 0 {
		return 0, ErrInvalidAmount
	}

	total := s.ledger.TotalStaked()
	sum, overflow := rmath.Add64(total, amount)
	if overflow || sum > s.cap {
		return 0, ErrCannotStakeMoreThanCap
	}

	now := s.clock()
	st := s.ledger.Ensure(caller)

	before := s.token.BalanceOf(s.vault)
	if err := s.token.TransferFrom(s.vault, caller, s.vault, amount); err != nil {
		return 0, errors.Wrap(err, "stake transfer failed")
	}
	received := s.token.BalanceOf(s.vault) - before

	// boost policy: reset the origin only on an upward threshold crossing,
	// judged by the amount the vault actually received
	if st.Amount < s.minBoost && received >= s.minBoost-st.Amount {
		st.BoostOrigin = now
	}

	if st.Amount > 0 {
		s.fold(st, reward.Settle(st, s.rewardParams(), now), now)
	} else {
		st.LastUpdate = now
		st.ConditionID = s.history.LatestID()
	}

	staked, overflow := rmath.Add64(st.Amount, received)
	if overflow {
		return 0, ErrCannotStakeMoreThanCap
	}
	st.Amount = staked

	newTotal, err := s.ledger.AddTotal(received)
	if err != nil {
		return 0, ErrCannotStakeMoreThanCap
	}

	s.commit(st, newTotal)
	s.emit(ActionStake, caller, received, 0, now)

	return received, nil
}

// Withdraw returns amount of the caller's stake. Pending rewards are always
// settled first and the boost origin resets unconditionally, even when the
// remaining balance stays above the boost threshold.
func (s *Service) Withdraw(caller common.Address, amount uint64) error {
	if err := s.guard.Enter(); err != nil {
		return err
	}
	defer s.guard.Exit()

	if s.paused {
		return ErrPaused
	}

	st, ok := s.ledger.Staker(caller)
	if !ok || amount == 0 || amount > st.Amount {
		return ErrInvalidAmount
	}

	now := s.clock()
	work := st.Copy()

	s.fold(work, reward.Settle(work, s.rewardParams(), now), now)

	// boost policy: withdrawal always resets the origin
	work.BoostOrigin = now
	work.Amount -= amount

	newTotal, err := s.ledger.SubTotal(amount)
	if err != nil {
		return errors.Wrap(err, "withdraw amount exceeds tracked total")
	}

	if err := s.token.Transfer(s.vault, caller, amount); err != nil {
		return errors.Wrap(err, "withdraw transfer failed")
	}

	s.commit(work, newTotal)
	s.emit(ActionWithdraw, caller, amount, 0, now)

	return nil
}

// ClaimRewards settles and pays out every reward the caller accrued. The
// boost origin is untouched, boosting continues uninterrupted through a
// claim.
func (s *Service) ClaimRewards(caller common.Address) (uint64, error) {
	if err := s.guard.Enter(); err != nil {
		return 0, err
	}
	defer s.guard.Exit()

	if s.paused {
		return 0, ErrPaused
	}

	st, ok := s.ledger.Staker(caller)
	if !ok {
		return 0, ErrNoRewards
	}

	now := s.clock()
	work := st.Copy()

	s.fold(work, reward.Settle(work, s.rewardParams(), now), now)

	payout := work.UnclaimedRewards
	if payout == 0 {
		return 0, ErrNoRewards
	}

	if s.rewardFunding() < payout {
		return 0, ErrMissingRewards
	}

	work.UnclaimedRewards = 0

	if err := s.token.Transfer(s.vault, caller, payout); err != nil {
		return 0, errors.Wrap(err, "claim transfer failed")
	}

	s.commit(work, s.ledger.TotalStaked())
	s.emit(ActionClaim, caller, 0, payout, now)

	return payout, nil
}

// EmergencyWithdraw returns the full staked amount without paying rewards
// out. It stays usable while staking is paused. Settled rewards remain
// claimable later through ClaimRewards.
func (s *Service) EmergencyWithdraw(caller common.Address) (uint64, error) {
	if err := s.guard.Enter(); err != nil {
		return 0, err
	}
	defer s.guard.Exit()

	st, ok := s.ledger.Staker(caller)
	if !ok || st.Amount == 0 {
		return 0, ErrInvalidAmount
	}

	now := s.clock()
	work := st.Copy()

	s.fold(work, reward.Settle(work, s.rewardParams(), now), now)

	// boost policy: emergency withdrawal resets the origin like a withdrawal
	work.BoostOrigin = now

	amount := work.Amount
	work.Amount = 0

	newTotal, err := s.ledger.SubTotal(amount)
	if err != nil {
		return 0, errors.Wrap(err, "emergency amount exceeds tracked total")
	}

	if err := s.token.Transfer(s.vault, caller, amount); err != nil {
		return 0, errors.Wrap(err, "emergency transfer failed")
	}

	s.commit(work, newTotal)
	s.emit(ActionEmergencyWithdraw, caller, amount, 0, now)

	return amount, nil
}

// GetStakeInfo returns the staked balance and the rewards available right
// now, including not yet settled accrual.
func (s *Service) GetStakeInfo(staker common.Address) StakeInfo {
	st, ok := s.ledger.Staker(staker)
	if !ok {
		return StakeInfo{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	available := st.UnclaimedRewards
	if st.Amount > 0 {
		delta := reward.Settle(st, s.rewardParams(), s.clock())
		sum, overflow := rmath.Add64(available, delta)
		if overflow {
			sum = math.MaxUint64
		}
		available = sum
	}

	return StakeInfo{Staked: st.Amount, AvailableRewards: available}
}

// GetCurrentMultiplier returns the staker's active boost multiplier in
// percentage units.
func (s *Service) GetCurrentMultiplier(staker common.Address) uint64 {
	st, ok := s.ledger.Staker(staker)
	if !ok {
		return tiers.BaseMultiplier
	}

	now := s.clock()
	var elapsed uint64
	if st.BoostOrigin != 0 && now > st.BoostOrigin {
		elapsed = now - st.BoostOrigin
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.tierTable.Multiplier(elapsed, st.Amount, s.minBoost, st.BoostOrigin != 0)
}

// CalculateAPR estimates the unboosted annualized reward rate in basis
// points from the open regime.
func (s *Service) CalculateAPR() uint64 {
	s.mu.RLock()
	numerator := s.history.Latest().RewardRatioNumerator
	s.mu.RUnlock()

	rate, overflow := rmath.Mul64(numerator, yearSeconds)
	if overflow {
		return math.MaxUint64
	}

	bps, overflow := rmath.Mul64(rate, 10000)
	if overflow {
		return rate / s.timeUnit * 10000 / s.denominator
	}

	return bps / s.timeUnit / s.denominator
}

// TotalStaked returns the tracked global deposited amount.
func (s *Service) TotalStaked() uint64 {
	return s.ledger.TotalStaked()
}

// Paused reports whether gated operations are rejected.
func (s *Service) Paused() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.paused
}

// SetRewardRatio opens a new reward-rate regime. Owner only.
func (s *Service) SetRewardRatio(caller common.Address, numerator uint64) error {
	if err := s.adminEnter(caller); err != nil {
		return err
	}
	defer s.guard.Exit()

	now := s.clock()
	s.mu.Lock()
	err := s.history.Open(numerator, now)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.persistGlobal()
	s.emit(ActionSetRewardRatio, caller, numerator, 0, now)
	log.Infof("Reward ratio changed to %d/%d", numerator, s.denominator)

	return nil
}

// SetTiers replaces the boost tier table wholesale. Owner only.
func (s *Service) SetTiers(caller common.Address, durations, multipliers []uint64) error {
	if err := s.adminEnter(caller); err != nil {
		return err
	}
	defer s.guard.Exit()

	table, err := tiers.NewTable(durations, multipliers)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.tierTable = table
	s.mu.Unlock()

	s.persistGlobal()
	s.emit(ActionSetTiers, caller, uint64(len(table)), 0, s.clock())

	return nil
}

// SetStakingTokenCap adjusts the global deposit cap. Owner only.
func (s *Service) SetStakingTokenCap(caller common.Address, cap uint64) error {
	if err := s.adminEnter(caller); err != nil {
		return err
	}
	defer s.guard.Exit()

	s.mu.Lock()
	s.cap = cap
	s.mu.Unlock()

	s.persistGlobal()
	s.emit(ActionSetCap, caller, cap, 0, s.clock())

	return nil
}

// SetMinStakingBoostAmount adjusts the minimal balance eligible for
// boosting. Owner only.
func (s *Service) SetMinStakingBoostAmount(caller common.Address, amount uint64) error {
	if err := s.adminEnter(caller); err != nil {
		return err
	}
	defer s.guard.Exit()

	if amount == 0 {
		return ErrInvalidAmount
	}

	s.mu.Lock()
	s.minBoost = amount
	s.mu.Unlock()

	s.persistGlobal()
	s.emit(ActionSetMinBoost, caller, amount, 0, s.clock())

	return nil
}

// WithdrawExcessTokens sweeps vault holdings that are not part of the
// tracked deposited total. Owner only.
func (s *Service) WithdrawExcessTokens(caller, to common.Address, amount uint64) error {
	if err := s.adminEnter(caller); err != nil {
		return err
	}
	defer s.guard.Exit()

	if to.IsEmpty() {
		return ErrInvalidTokenAddress
	}

	if amount == 0 {
		return ErrInvalidAmount
	}

	excess := s.rewardFunding()
	if excess == 0 {
		return ErrNoExcessStakingToken
	}

	if amount > excess {
		return ErrWithdrawExceedsLimit
	}

	if err := s.token.Transfer(s.vault, to, amount); err != nil {
		return errors.Wrap(err, "excess transfer failed")
	}

	s.emit(ActionWithdrawExcess, to, amount, 0, s.clock())

	return nil
}

// SetPaused toggles the gate wrapping every transition except emergency
// withdrawal. Owner only.
func (s *Service) SetPaused(caller common.Address, paused bool) error {
	if err := s.adminEnter(caller); err != nil {
		return err
	}
	defer s.guard.Exit()

	if paused && s.paused {
		return ErrAlreadyPaused
	}

	if !paused && !s.paused {
		return ErrNotPaused
	}

	s.mu.Lock()
	s.paused = paused
	s.mu.Unlock()

	s.persistGlobal()

	action := ActionPause
	if !paused {
		action = ActionUnpause
	}
	s.emit(action, caller, 0, 0, s.clock())

	return nil
}

func (s *Service) adminEnter(caller common.Address) error {
	if err := s.guard.Enter(); err != nil {
		return err
	}

	if caller.Hex() != s.owner.Hex() {
		s.guard.Exit()
		return ErrNotOwner
	}

	return nil
}

func (s *Service) rewardParams() reward.Params {
	return reward.Params{
		History:          s.history,
		Tiers:            s.tierTable,
		MinBoostAmount:   s.minBoost,
		TimeUnit:         s.timeUnit,
		RatioDenominator: s.denominator,
	}
}

// fold adds the settled delta into unclaimed rewards and advances the
// bookkeeping markers.
func (s *Service) fold(st *ledger.Staker, delta, now uint64) {
	sum, overflow := rmath.Add64(st.UnclaimedRewards, delta)
	if overflow {
		sum = math.MaxUint64
	}

	st.UnclaimedRewards = sum
	st.LastUpdate = now
	st.ConditionID = s.history.LatestID()
}

// rewardFunding returns vault token holdings beyond the tracked deposited
// total.
func (s *Service) rewardFunding() uint64 {
	holdings := s.token.BalanceOf(s.vault)
	total := s.ledger.TotalStaked()
	if holdings <= total {
		return 0
	}

	return holdings - total
}

func (s *Service) commit(st *ledger.Staker, total uint64) {
	s.ledger.Commit(st, total)

	totalStakedGauge.Set(float64(total))
	stakersCountGauge.Set(float64(s.ledger.Count()))

	if s.db != nil {
		if err := s.db.SaveStaker(st, total); err != nil {
			log.WithError(err).Error("Can't persist staker record")
			s.failStatus = err
		}
	}
}

func (s *Service) persistGlobal() {
	if s.db == nil {
		return
	}

	state := &iface.GlobalState{
		Conditions:      s.history.Conditions(),
		Tiers:           s.tierTable,
		StakingTokenCap: s.cap,
		MinBoostAmount:  s.minBoost,
		Paused:          s.paused,
	}

	if err := s.db.SaveGlobalState(state); err != nil {
		log.WithError(err).Error("Can't persist global state")
		s.failStatus = err
	}
}

func (s *Service) emit(action string, staker common.Address, amount, rewardAmount, now uint64) {
	actionsCounter.WithLabelValues(action).Inc()

	s.feed.Send(ActionRecord{
		Type:      action,
		Staker:    ledger.BytesCopy(staker),
		Amount:    amount,
		Reward:    rewardAmount,
		Timestamp: now,
	})
}
