package staking

import "github.com/stakevault/svault/shared/common"

// Staking action types recorded on the events feed.
const (
	ActionStake             = "stake"
	ActionWithdraw          = "withdraw"
	ActionClaim             = "claim"
	ActionEmergencyWithdraw = "emergency_withdraw"
	ActionSetRewardRatio    = "set_reward_ratio"
	ActionSetTiers          = "set_tiers"
	ActionSetCap            = "set_cap"
	ActionSetMinBoost       = "set_min_boost"
	ActionWithdrawExcess    = "withdraw_excess"
	ActionPause             = "pause"
	ActionUnpause           = "unpause"
)

// ActionRecord describes one committed staking action.
type ActionRecord struct {
	Type      string         `json:"type"`
	Staker    common.Address `json:"staker"`
	Amount    uint64         `json:"amount"`
	Reward    uint64         `json:"reward"`
	Timestamp uint64         `json:"timestamp"`
}

// StakeInfo is the view of a staker returned by the API.
type StakeInfo struct {
	Staked           uint64 `json:"staked"`
	AvailableRewards uint64 `json:"availableRewards"`
}
