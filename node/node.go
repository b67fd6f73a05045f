// Package node defines the svault process, wiring every service into a
// registry and handling its lifecycle.
package node

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/stakevault/svault/api"
	"github.com/stakevault/svault/cmd/svault/flags"
	"github.com/stakevault/svault/db/iface"
	"github.com/stakevault/svault/db/journal"
	"github.com/stakevault/svault/db/kv"
	"github.com/stakevault/svault/metrics"
	"github.com/stakevault/svault/shared"
	"github.com/stakevault/svault/shared/cmd"
	"github.com/stakevault/svault/shared/common"
	"github.com/stakevault/svault/shared/params"
	"github.com/stakevault/svault/shared/version"
	"github.com/stakevault/svault/staking"
	"github.com/stakevault/svault/token"
)

var log = logrus.WithField("prefix", "node")

// VaultNode handles the services running the staking vault: the ledger
// database, the staking controller, the JSON API, the action journal and
// monitoring. It handles the lifecycle of the entire system and registers
// services to a service registry.
type VaultNode struct {
	cliCtx   *cli.Context
	ctx      context.Context
	cancel   context.CancelFunc
	services *shared.ServiceRegistry
	lock     sync.RWMutex
	stop     chan struct{} // Channel to wait for termination notifications.
	db       *kv.Store
	staking  *staking.Service
}

// New creates a new node instance, sets up configuration options, and registers
// every required service to the node.
func New(cliCtx *cli.Context) (*VaultNode, error) {
	if err := configureTracing(cliCtx); err != nil {
		return nil, err
	}

	// load staking config from file if special file has been given
	if err := configureStakingConfig(cliCtx); err != nil {
		return nil, err
	}

	registry := shared.NewServiceRegistry()

	ctx, cancel := context.WithCancel(cliCtx.Context)
	vault := &VaultNode{
		cliCtx:   cliCtx,
		ctx:      ctx,
		cancel:   cancel,
		services: registry,
		stop:     make(chan struct{}),
	}

	if err := vault.startDB(cliCtx); err != nil {
		cancel()
		return nil, err
	}

	if err := vault.registerStakingService(); err != nil {
		cancel()
		return nil, err
	}

	if err := vault.registerAPIService(); err != nil {
		cancel()
		return nil, err
	}

	if cliCtx.Bool(flags.EnableJournal.Name) {
		if err := vault.registerJournalService(); err != nil {
			cancel()
			return nil, err
		}
	}

	if err := vault.registerMetricsService(); err != nil {
		cancel()
		return nil, err
	}

	return vault, nil
}

func (v *VaultNode) startDB(cliCtx *cli.Context) error {
	baseDir := cliCtx.String(cmd.DataDirFlag.Name)
	dbPath := filepath.Join(baseDir, kv.VaultDbDirName)
	clearDB := cliCtx.Bool(cmd.ClearDB.Name)
	forceClearDB := cliCtx.Bool(cmd.ForceClearDB.Name)

	log.WithField("database-path", dbPath).Info("Checking DB")

	d, err := kv.NewKVStore(v.ctx, dbPath, &kv.Config{
		InitialMMapSize: cliCtx.Int(cmd.BoltMMapInitialSizeFlag.Name),
	})
	if err != nil {
		return err
	}

	clearDBConfirmed := false
	if clearDB && !forceClearDB {
		actionText := "This will delete your staking ledger database stored in your data directory. " +
			"Your database backups will not be removed - do you want to proceed? (Y/N)"
		deniedText := "Database will not be deleted. No changes have been made."
		clearDBConfirmed, err = cmd.ConfirmAction(actionText, deniedText)
		if err != nil {
			return err
		}
	}

	if clearDBConfirmed || forceClearDB {
		log.Warning("Removing database")
		if err := d.Close(); err != nil {
			return errors.Wrap(err, "could not close db prior to clearing")
		}
		if err := d.ClearDB(); err != nil {
			return errors.Wrap(err, "could not clear database")
		}
		d, err = kv.NewKVStore(v.ctx, dbPath, &kv.Config{
			InitialMMapSize: cliCtx.Int(cmd.BoltMMapInitialSizeFlag.Name),
		})
		if err != nil {
			return errors.Wrap(err, "could not create new database")
		}
	}

	v.db = d

	return nil
}

func (v *VaultNode) registerStakingService() error {
	cfg := params.VaultConfig()

	var restored *iface.StakingState
	state, found, err := v.db.LoadState()
	if err != nil {
		return errors.Wrap(err, "can't load ledger snapshot")
	}
	if found {
		restored = state
	}

	tok, err := v.createTokenLedger(cfg)
	if err != nil {
		return err
	}

	srv, err := staking.NewService(&staking.Config{
		StakingConfig: cfg,
		Token:         tok,
		Database:      v.db,
		Restored:      restored,
	})
	if err != nil {
		return err
	}

	v.staking = srv

	return v.services.RegisterService(srv)
}

// createTokenLedger funds the in-process token from the genesis balances
// config. Every funded account pre-approves the vault so deposits can be
// pulled, reward funding goes onto the vault account itself.
func (v *VaultNode) createTokenLedger(cfg *params.StakingConfig) (*token.Ledger, error) {
	tok := token.NewLedger(cfg.TokenDecimals, cfg.TransferFeeBps)
	vaultAddr := staking.VaultAddress()

	log.WithField("address", vaultAddr.Hex()).Info("Vault token account")

	for account, balance := range cfg.GenesisBalances {
		if !common.IsHexAddress(account) {
			return nil, errors.Errorf("Bad genesis account given: %s", account)
		}

		addr := common.HexToAddress(account)
		if err := tok.Mint(addr, balance); err != nil {
			return nil, err
		}

		tok.Approve(addr, vaultAddr, math.MaxUint64)
	}

	return tok, nil
}

func (v *VaultNode) registerAPIService() error {
	addr := fmt.Sprintf("%s:%d", v.cliCtx.String(flags.APIHost.Name), v.cliCtx.Int(flags.APIPort.Name))

	srv := api.NewService(&api.Config{
		Addr:           addr,
		AllowedOrigins: []string{v.cliCtx.String(flags.APICorsDomain.Name)},
	}, v.staking)

	return v.services.RegisterService(srv)
}

func (v *VaultNode) registerJournalService() error {
	baseDir := v.cliCtx.String(cmd.DataDirFlag.Name)

	srv, err := journal.NewService(v.ctx, &journal.Config{
		DBType:     v.cliCtx.String(flags.JournalDBType.Name),
		ConfigPath: v.cliCtx.String(cmd.SQLConfigPath.Name),
		DataDir:    filepath.Join(baseDir, kv.VaultDbDirName),
	}, v.staking.Feed())
	if err != nil {
		return err
	}

	return v.services.RegisterService(srv)
}

func (v *VaultNode) registerMetricsService() error {
	addr := fmt.Sprintf(":%d", v.cliCtx.Int(flags.MonitoringPortFlag.Name))
	srv := metrics.New(addr, v.services)

	return v.services.RegisterService(srv)
}

// Start the VaultNode and kicks off every registered service.
func (v *VaultNode) Start() {
	log.WithField("Version", version.Version()).Info("Starting svault node")

	v.lock.Lock()
	v.services.StartAll()
	stop := v.stop
	v.lock.Unlock()

	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigc)
		<-sigc
		log.Info("Got interrupt, shutting down...")

		go v.Close()
		for i := 10; i > 0; i-- {
			<-sigc
			if i > 1 {
				log.WithField("times", i-1).Info("Already shutting down, interrupt more to panic")
			}
		}
		panic("Panic closing the svault node")
	}()

	// Wait for stop channel to be closed.
	<-stop
}

// Close handles graceful shutdown of the system.
func (v *VaultNode) Close() {
	v.lock.Lock()
	defer v.lock.Unlock()

	log.Info("Stopping svault node")
	v.services.StopAll()

	if err := v.db.Close(); err != nil {
		log.Errorf("Failed to close database: %v", err)
	}

	v.cancel()
	close(v.stop)
}
