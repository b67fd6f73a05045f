package kv

import (
	"encoding/binary"
	"encoding/json"

	"github.com/golang/snappy"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/stakevault/svault/db/iface"
	"github.com/stakevault/svault/staking/ledger"
)

// SaveStaker writes the staker record and the global deposited total in one
// transaction, so a crash can never leave the two out of sync.
func (s *Store) SaveStaker(st *ledger.Staker, totalStaked uint64) error {
	data, err := marshalValue(st)
	if err != nil {
		return errors.Wrap(err, "can't marshal staker record")
	}

	total := make([]byte, 8)
	binary.LittleEndian.PutUint64(total, totalStaked)

	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(stakersBucket).Put(st.Address.Bytes(), data); err != nil {
			return err
		}

		return tx.Bucket(globalBucket).Put(totalStakedKey, total)
	})
}

// SaveGlobalState writes the regime history and global staking config.
func (s *Store) SaveGlobalState(state *iface.GlobalState) error {
	data, err := marshalValue(state)
	if err != nil {
		return errors.Wrap(err, "can't marshal global state")
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(globalBucket).Put(globalStateKey, data)
	})
}

// LoadState reads the full persisted snapshot. The bool reports whether a
// snapshot was ever written.
func (s *Store) LoadState() (*iface.StakingState, bool, error) {
	state := &iface.StakingState{}
	found := false

	err := s.db.View(func(tx *bolt.Tx) error {
		enc := tx.Bucket(globalBucket).Get(globalStateKey)
		if enc == nil {
			return nil
		}
		found = true

		if err := unmarshalValue(enc, &state.Global); err != nil {
			return errors.Wrap(err, "can't unmarshal global state")
		}

		if enc := tx.Bucket(globalBucket).Get(totalStakedKey); enc != nil {
			state.TotalStaked = binary.LittleEndian.Uint64(enc)
		}

		return tx.Bucket(stakersBucket).ForEach(func(_, v []byte) error {
			var st ledger.Staker
			if err := unmarshalValue(v, &st); err != nil {
				return errors.Wrap(err, "can't unmarshal staker record")
			}

			state.Stakers = append(state.Stakers, st)
			return nil
		})
	})
	if err != nil {
		return nil, false, err
	}

	return state, found, nil
}

func marshalValue(val interface{}) ([]byte, error) {
	obj, err := json.Marshal(val)
	if err != nil {
		return nil, err
	}

	return snappy.Encode(nil, obj), nil
}

func unmarshalValue(enc []byte, val interface{}) error {
	obj, err := snappy.Decode(nil, enc)
	if err != nil {
		return err
	}

	return json.Unmarshal(obj, val)
}
