package kv

var (
	stakersBucket = []byte("stakers")
	globalBucket  = []byte("global-state")

	globalStateKey = []byte("config")
	totalStakedKey = []byte("total-staked")
)
