package params

// StakingConfig contains the constant configs of the staking vault.
type StakingConfig struct {
	// Reward constants
	TimeUnit             uint64 `yaml:"TIME_UNIT"`              // TimeUnit defines the interval, in seconds, the reward ratio is quoted against.
	RatioDenominator     uint64 `yaml:"RATIO_DENOMINATOR"`      // RatioDenominator is the denominator of every reward ratio.
	RewardRatioNumerator uint64 `yaml:"REWARD_RATIO_NUMERATOR"` // RewardRatioNumerator is the numerator of the initial reward-rate regime.

	// Stake config
	StakingTokenCap       uint64 `yaml:"STAKING_TOKEN_CAP"`        // StakingTokenCap limits the total deposited amount across all stakers.
	MinStakingBoostAmount uint64 `yaml:"MIN_STAKING_BOOST_AMOUNT"` // MinStakingBoostAmount is the minimal balance eligible for tier boosting.

	// Boost tiers. TierDurations[i] pairs with TierMultipliers[i],
	// multipliers use percentage units where 100 means 1.0x.
	TierDurations   []uint64 `yaml:"TIER_DURATIONS"`
	TierMultipliers []uint64 `yaml:"TIER_MULTIPLIERS"`

	// Access control
	OwnerAddress string `yaml:"OWNER_ADDRESS"` // OwnerAddress is allowed to call administrative operations.

	// Token collaborator config used by the local ledger token.
	TokenDecimals   uint8             `yaml:"TOKEN_DECIMALS"`
	TransferFeeBps  uint64            `yaml:"TRANSFER_FEE_BPS"` // TransferFeeBps simulates a fee-on-transfer token when non-zero.
	GenesisBalances map[string]uint64 `yaml:"GENESIS_BALANCES"` // GenesisBalances funds token accounts at startup.
}
