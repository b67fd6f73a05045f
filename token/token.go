package token

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/stakevault/svault/shared/common"
	rmath "github.com/stakevault/svault/shared/math"
)

var log = logrus.WithField("prefix", "token")

const feeDenominator = 10000

var (
	ErrZeroAddress           = errors.New("Zero token address given.")
	ErrInsufficientBalance   = errors.New("Insufficient token balance.")
	ErrInsufficientAllowance = errors.New("Insufficient token allowance.")
	ErrBalanceOverflow       = errors.New("Token balance overflow.")
)

// Ledger is an in-process fungible token with standard transfer semantics.
// A non-zero transfer fee burns a share of every transfer, so the amount
// received can be smaller than the amount sent. Receivers must measure
// balance deltas instead of trusting the requested amount.
type Ledger struct {
	balances   map[string]uint64
	allowances map[string]uint64 // owner hex + spender hex -> amount
	decimals   uint8
	feeBps     uint64
	mu         sync.RWMutex
}

// NewLedger creates a token ledger. feeBps is the transfer fee in basis
// points burned on every transfer, 0 disables the fee.
func NewLedger(decimals uint8, feeBps uint64) *Ledger {
	return &Ledger{
		balances:   map[string]uint64{},
		allowances: map[string]uint64{},
		decimals:   decimals,
		feeBps:     feeBps,
	}
}

// Mint credits amount to addr out of thin air.
func (l *Ledger) Mint(addr common.Address, amount uint64) error {
	if addr.IsEmpty() {
		return ErrZeroAddress
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	bal, overflow := rmath.Add64(l.balances[addr.Hex()], amount)
	if overflow {
		return ErrBalanceOverflow
	}

	l.balances[addr.Hex()] = bal
	return nil
}

// Approve allows spender to pull up to amount from owner's balance.
func (l *Ledger) Approve(owner, spender common.Address, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.allowances[owner.Hex()+spender.Hex()] = amount
}

// Allowance returns the amount spender can still pull from owner.
func (l *Ledger) Allowance(owner, spender common.Address) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.allowances[owner.Hex()+spender.Hex()]
}

// TransferFrom moves amount from the owner to the receiver using the
// spender's allowance.
func (l *Ledger) TransferFrom(spender, from, to common.Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	allowance := l.allowances[from.Hex()+spender.Hex()]
	if allowance < amount {
		return ErrInsufficientAllowance
	}

	if err := l.move(from, to, amount); err != nil {
		return err
	}

	l.allowances[from.Hex()+spender.Hex()] = allowance - amount
	return nil
}

// Transfer moves amount from one holder to another.
func (l *Ledger) Transfer(from, to common.Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.move(from, to, amount)
}

// BalanceOf returns current holder balance.
func (l *Ledger) BalanceOf(addr common.Address) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.balances[addr.Hex()]
}

// Decimals returns the token's decimal places.
func (l *Ledger) Decimals() uint8 {
	return l.decimals
}

func (l *Ledger) move(from, to common.Address, amount uint64) error {
	if from.IsEmpty() || to.IsEmpty() {
		return ErrZeroAddress
	}

	fromBal := l.balances[from.Hex()]
	if fromBal < amount {
		return ErrInsufficientBalance
	}

	received := amount
	if l.feeBps > 0 {
		fee := amount / feeDenominator * l.feeBps
		if rem := amount % feeDenominator; rem > 0 {
			fee += rem * l.feeBps / feeDenominator
		}
		received = amount - fee
	}

	// debit first so a self-transfer credits against the debited balance
	l.balances[from.Hex()] = fromBal - amount

	bal, overflow := rmath.Add64(l.balances[to.Hex()], received)
	if overflow {
		l.balances[from.Hex()] = fromBal
		return ErrBalanceOverflow
	}
	l.balances[to.Hex()] = bal

	if received != amount {
		log.Debugf("Transfer fee burned: %d", amount-received)
	}

	return nil
}
