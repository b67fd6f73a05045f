package ledger

import (
	"sync"

	"github.com/mohae/deepcopy"
	"github.com/pkg/errors"

	"github.com/stakevault/svault/shared/common"
	rmath "github.com/stakevault/svault/shared/math"
)

// Staker is the per-participant staking record. Created on first deposit,
// never deleted. Stored records are treated as immutable, mutations go
// through a working copy committed back via Ledger.Commit.
type Staker struct {
	Address          common.Address `json:"address"`
	Amount           uint64         `json:"amount"`
	UnclaimedRewards uint64         `json:"unclaimedRewards"`
	LastUpdate       uint64         `json:"lastUpdate"`  // rewards settled up to this timestamp
	BoostOrigin      uint64         `json:"boostOrigin"` // boost duration origin, 0 means unset
	ConditionID      int            `json:"conditionId"` // regime active at the last settlement
}

// Copy returns a deep copy of the record safe to mutate.
func (s *Staker) Copy() *Staker {
	cp, ok := deepcopy.Copy(*s).(Staker)
	if !ok {
		cp = *s
	}
	return &cp
}

// Ledger holds every staker record and the global deposited total. The sum
// of all staker amounts equals TotalStaked at every observable point.
type Ledger struct {
	stakers map[string]*Staker
	total   uint64
	mu      sync.RWMutex
}

func New() *Ledger {
	return &Ledger{
		stakers: map[string]*Staker{},
	}
}

// Staker returns the stored record for addr. The record must not be mutated
// in place.
func (l *Ledger) Staker(addr common.Address) (*Staker, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	st, ok := l.stakers[addr.Hex()]
	return st, ok
}

// Ensure returns a working copy of the record for addr, creating a fresh
// record on first deposit.
func (l *Ledger) Ensure(addr common.Address) *Staker {
	l.mu.RLock()
	st, ok := l.stakers[addr.Hex()]
	l.mu.RUnlock()

	if ok {
		return st.Copy()
	}

	return &Staker{Address: BytesCopy(addr)}
}

// Commit atomically replaces the staker record and the global total.
func (l *Ledger) Commit(st *Staker, total uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.stakers[st.Address.Hex()] = st
	l.total = total
}

// TotalStaked returns the tracked global deposited amount.
func (l *Ledger) TotalStaked() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.total
}

// AddTotal returns the new global total after depositing amount.
func (l *Ledger) AddTotal(amount uint64) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	sum, overflow := rmath.Add64(l.total, amount)
	if overflow {
		return 0, errors.New("Global staked total overflow.")
	}

	return sum, nil
}

// SubTotal returns the new global total after withdrawing amount.
func (l *Ledger) SubTotal(amount uint64) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	diff, borrow := rmath.Sub64(l.total, amount)
	if borrow {
		return 0, errors.New("Global staked total underflow.")
	}

	return diff, nil
}

// Count returns the number of stakers ever created.
func (l *Ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.stakers)
}

// Snapshot returns copies of every staker record and the global total.
func (l *Ledger) Snapshot() ([]Staker, uint64) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Staker, 0, len(l.stakers))
	for _, st := range l.stakers {
		out = append(out, *st.Copy())
	}

	return out, l.total
}

// Restore rebuilds the ledger from persisted records.
func (l *Ledger) Restore(stakers []Staker, total uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var sum uint64
	m := make(map[string]*Staker, len(stakers))
	for i := range stakers {
		st := stakers[i]
		m[st.Address.Hex()] = &st

		var overflow bool
		sum, overflow = rmath.Add64(sum, st.Amount)
		if overflow {
			return errors.New("Restored stakes overflow.")
		}
	}

	if sum != total {
		return errors.Errorf("Inconsistent ledger snapshot: staked sum %d, stored total %d.", sum, total)
	}

	l.stakers = m
	l.total = total

	return nil
}

// BytesCopy clones an address so ledger records never alias caller buffers.
func BytesCopy(addr common.Address) common.Address {
	out := make(common.Address, len(addr))
	copy(out, addr)
	return out
}
