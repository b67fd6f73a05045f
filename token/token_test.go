package token

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakevault/svault/shared/common"
)

var (
	holderA = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	holderB = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	spender = common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")
)

func TestMint(t *testing.T) {
	l := NewLedger(9, 0)

	assert.Equal(t, ErrZeroAddress, l.Mint(common.Address{}, 100))

	require.NoError(t, l.Mint(holderA, 100))
	require.NoError(t, l.Mint(holderA, 50))
	assert.Equal(t, uint64(150), l.BalanceOf(holderA))

	assert.Equal(t, ErrBalanceOverflow, l.Mint(holderA, math.MaxUint64))
}

func TestTransfer(t *testing.T) {
	l := NewLedger(9, 0)
	require.NoError(t, l.Mint(holderA, 1000))

	assert.Equal(t, ErrInsufficientBalance, l.Transfer(holderA, holderB, 1001))
	assert.Equal(t, ErrZeroAddress, l.Transfer(holderA, common.Address{}, 10))

	require.NoError(t, l.Transfer(holderA, holderB, 400))
	assert.Equal(t, uint64(600), l.BalanceOf(holderA))
	assert.Equal(t, uint64(400), l.BalanceOf(holderB))
}

func TestSelfTransfer(t *testing.T) {
	l := NewLedger(9, 0)
	require.NoError(t, l.Mint(holderA, 1000))

	// a transfer to oneself must never create supply
	require.NoError(t, l.Transfer(holderA, holderA, 400))
	assert.Equal(t, uint64(1000), l.BalanceOf(holderA))

	// with a 1% fee the self-transfer still burns the fee
	fl := NewLedger(9, 100)
	require.NoError(t, fl.Mint(holderA, 100_000))
	require.NoError(t, fl.Transfer(holderA, holderA, 10_000))
	assert.Equal(t, uint64(99_900), fl.BalanceOf(holderA))
}

func TestTransferFrom(t *testing.T) {
	l := NewLedger(9, 0)
	require.NoError(t, l.Mint(holderA, 1000))

	err := l.TransferFrom(spender, holderA, holderB, 100)
	assert.Equal(t, ErrInsufficientAllowance, err)

	l.Approve(holderA, spender, 300)
	assert.Equal(t, uint64(300), l.Allowance(holderA, spender))

	require.NoError(t, l.TransferFrom(spender, holderA, holderB, 200))
	assert.Equal(t, uint64(100), l.Allowance(holderA, spender), "allowance is spent down")
	assert.Equal(t, uint64(200), l.BalanceOf(holderB))

	err = l.TransferFrom(spender, holderA, holderB, 200)
	assert.Equal(t, ErrInsufficientAllowance, err)
}

func TestTransferFee(t *testing.T) {
	// 1% fee burned on every transfer
	l := NewLedger(9, 100)
	require.NoError(t, l.Mint(holderA, 100_000))

	require.NoError(t, l.Transfer(holderA, holderB, 10_000))
	assert.Equal(t, uint64(9_900), l.BalanceOf(holderB))
	assert.Equal(t, uint64(90_000), l.BalanceOf(holderA), "sender pays the full amount")

	// remainder below the fee denominator still pays a proportional fee
	require.NoError(t, l.Transfer(holderA, holderB, 15_000))
	assert.Equal(t, uint64(9_900+14_850), l.BalanceOf(holderB))
}
