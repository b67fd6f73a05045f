package staking

import "github.com/pkg/errors"

var (
	ErrInvalidAmount           = errors.New("Invalid amount given.")
	ErrCannotStakeMoreThanCap  = errors.New("Stake exceeds the staking token cap.")
	ErrNoRewards               = errors.New("No rewards available.")
	ErrMissingRewards          = errors.New("Vault holdings can't cover the reward payout.")
	ErrInvalidTokenAddress     = errors.New("Invalid token address given.")
	ErrNoExcessStakingToken    = errors.New("No excess staking token to withdraw.")
	ErrWithdrawExceedsLimit    = errors.New("Withdraw amount exceeds the withdrawable excess.")
	ErrNotOwner                = errors.New("Caller is not the vault owner.")
	ErrPaused                  = errors.New("Staking is paused.")
	ErrNotPaused               = errors.New("Staking is not paused.")
	ErrAlreadyPaused           = errors.New("Staking is already paused.")
	ErrReentrantCall           = errors.New("Reentrant staking operation.")
)
