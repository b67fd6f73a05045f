package params

// DefaultConfig returns the configuration used when no config file is given.
func DefaultConfig() *StakingConfig {
	return defaultStakingConfig
}

// UseDefaultConfig for staking vault services.
func UseDefaultConfig() {
	stakingConfig = DefaultConfig()
}

var defaultStakingConfig = &StakingConfig{
	TimeUnit:             31104000, // 360 days
	RatioDenominator:     10000,
	RewardRatioNumerator: 350,

	StakingTokenCap:       500000000 * 1e9,
	MinStakingBoostAmount: 1000 * 1e9,

	TierDurations:   []uint64{2592000, 7776000, 15552000, 31104000}, // 30, 90, 180, 360 days
	TierMultipliers: []uint64{110, 125, 150, 200},

	OwnerAddress: "0xfe9353d875707a028ca049d776256da27f2c2359",

	TokenDecimals:   9,
	TransferFeeBps:  0,
	GenesisBalances: map[string]uint64{},
}
