// Package journal persists every committed staking action into an
// append-only SQL table for off-process inspection.
package journal

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/hex"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/stakevault/svault/events"
	"github.com/stakevault/svault/shared/crypto"
	"github.com/stakevault/svault/staking"
)

var log = logrus.WithField("prefix", "journal")

const actionBufferSize = 512

// Config for the journal store.
type Config struct {
	DBType     string // "mysql" or "sqlite"
	ConfigPath string // mysql credentials .env file
	DataDir    string
}

// Service subscribes to the staking action feed and journals every record.
type Service struct {
	db         *sql.DB
	feed       events.Feed
	actionsCh  chan staking.ActionRecord
	sub        events.Subscription
	ctx        context.Context
	cancel     context.CancelFunc
	seq        uint64
	failStatus error
}

// NewService opens the journal database and prepares the actions schema.
func NewService(ctx context.Context, cfg *Config, feed events.Feed) (*Service, error) {
	var db *sql.DB
	var schema string
	var err error

	switch cfg.DBType {
	case "mysql":
		db, schema, err = newMySQLStore(cfg.ConfigPath)
	case "sqlite":
		db, schema, err = newSQLiteStore(cfg.DataDir)
	default:
		return nil, errors.Errorf("Unknown journal database type %s", cfg.DBType)
	}
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, errors.Wrap(err, "can't create journal schema")
	}

	sctx, cancel := context.WithCancel(ctx)
	return &Service{
		db:        db,
		feed:      feed,
		actionsCh: make(chan staking.ActionRecord, actionBufferSize),
		ctx:       sctx,
		cancel:    cancel,
	}, nil
}

// Start subscribes to the action feed and journals records until stopped.
func (s *Service) Start() {
	s.sub = s.feed.Subscribe(s.actionsCh)

	log.Info("Action journal started")

	for {
		select {
		case record := <-s.actionsCh:
			if err := s.writeRecord(record); err != nil {
				log.WithError(err).Error("Can't journal staking action")
				s.failStatus = err
			}
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Service) writeRecord(record staking.ActionRecord) error {
	_, err := s.db.ExecContext(
		s.ctx,
		insertActionQuery,
		s.recordID(record),
		record.Type,
		record.Staker.Hex(),
		record.Amount,
		record.Reward,
		record.Timestamp,
	)
	return err
}

// recordID derives a unique row id from the record contents and the
// journal sequence number.
func (s *Service) recordID(record staking.ActionRecord) string {
	s.seq++

	buf := make([]byte, 24)
	binary.LittleEndian.PutUint64(buf[:8], record.Amount)
	binary.LittleEndian.PutUint64(buf[8:16], record.Timestamp)
	binary.LittleEndian.PutUint64(buf[16:], s.seq)

	h := crypto.Keccak256([]byte(record.Type), record.Staker.Bytes(), buf)
	return "0x" + hex.EncodeToString(h)
}

// Stop terminates the journal loop and closes the database.
func (s *Service) Stop() error {
	log.Info("Stopping action journal")

	if s.sub != nil {
		s.sub.Unsubscribe()
	}
	s.cancel()

	return s.db.Close()
}

// Status checks for any service failure conditions.
func (s *Service) Status() error {
	return s.failStatus
}
