// Package iface exists to prevent circular dependency between the staking
// services and the database implementations.
package iface

import (
	"github.com/stakevault/svault/staking/condition"
	"github.com/stakevault/svault/staking/ledger"
	"github.com/stakevault/svault/staking/tiers"
)

// GlobalState is the persisted global staking configuration.
type GlobalState struct {
	Conditions      []condition.Condition `json:"conditions"`
	Tiers           tiers.Table           `json:"tiers"`
	StakingTokenCap uint64                `json:"stakingTokenCap"`
	MinBoostAmount  uint64                `json:"minBoostAmount"`
	Paused          bool                  `json:"paused"`
}

// StakingState is the full persisted ledger snapshot.
type StakingState struct {
	Global      GlobalState
	Stakers     []ledger.Staker
	TotalStaked uint64
}

// Database defines the persistent storage of the staking ledger.
type Database interface {
	// SaveStaker writes the staker record and the global deposited total
	// in a single transaction.
	SaveStaker(st *ledger.Staker, totalStaked uint64) error
	// SaveGlobalState writes the regime history and global config.
	SaveGlobalState(state *GlobalState) error
	// LoadState reads back the full snapshot. The bool reports whether a
	// snapshot was ever written.
	LoadState() (*StakingState, bool, error)

	DatabasePath() string
	Close() error
	ClearDB() error
}
