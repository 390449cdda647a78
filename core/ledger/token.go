//   Copyright (C) 2018 ZVChain
//
//   This program is free software: you can redistribute it and/or modify
//   it under the terms of the GNU General Public License as published by
//   the Free Software Foundation, either version 3 of the License, or
//   (at your option) any later version.
//
//   This program is distributed in the hope that it will be useful,
//   but WITHOUT ANY WARRANTY; without even the implied warranty of
//   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
//   GNU General Public License for more details.
//
//   You should have received a copy of the GNU General Public License
//   along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package ledger implements the fee-splitting token every other contract moves
// value through
package ledger

import (
	"fmt"

	"github.com/diversify/divchain/common"
	"github.com/diversify/divchain/core/contract"
	"github.com/diversify/divchain/log"
	"github.com/diversify/divchain/middleware/types"
	"github.com/diversify/divchain/params"
	"github.com/diversify/divchain/storage/account"
	"github.com/holiman/uint256"
)

// Event names
const (
	EventTransfer                = "Transfer"
	EventApproval                = "Approval"
	EventFoundationRateChanged   = "FoundationRateChanged"
	EventCommunityRateChanged    = "CommunityRateChanged"
	EventFoundationWalletChanged = "FoundationWalletChanged"
	EventCommunityWalletChanged  = "CommunityWalletChanged"
)

var (
	prefixBalance   = []byte("b")
	prefixAllowance = []byte("a")

	keyName          = []byte("name")
	keySymbol        = []byte("symbol")
	keySupply        = []byte("supply")
	keyInitialSupply = []byte("initialSupply")
	keyBurnStop      = []byte("burnStop")
	keyFeeConfig     = []byte("fee")
	keyBurned        = []byte("burned")
	keyFounded       = []byte("founded")
	keyCommunity     = []byte("community")
)

// maxAllowance is never decremented by transferFrom
var maxAllowance = new(uint256.Int).SetAllOne()

// GenesisConfig is the construction input of a token
type GenesisConfig = params.Genesis

// Token is a handle on a deployed fee-splitting token
type Token struct {
	contract.Base
}

// Deploy constructs the token at self and mints the genesis allocations
func Deploy(state *account.AccountDB, self common.Address, owner common.Address, g *GenesisConfig) (*Token, error) {
	if len(g.Holders) == 0 {
		return nil, ErrNoHolders
	}
	if len(g.Holders) != len(g.Amounts) {
		return nil, ErrHolderMismatch
	}
	for _, holder := range g.Holders {
		if holder.IsZero() {
			return nil, ErrZeroHolder
		}
	}
	if g.Foundation.IsZero() || g.Community.IsZero() {
		return nil, ErrZeroWallet
	}
	cfg := &FeeConfig{
		BurnRate:       g.BurnRate,
		FoundationRate: g.FoundationRate,
		CommunityRate:  g.CommunityRate,
		Foundation:     g.Foundation,
		Community:      g.Community,
	}
	if cfg.TotalRate() > common.BpsDenominator {
		return nil, ErrRateTooHigh
	}
	total, err := g.TotalSupply()
	if err != nil {
		return nil, types.NewArgumentError(err.Error())
	}
	burnStop := g.BurnStopSupply
	if burnStop == nil {
		burnStop = new(uint256.Int)
	}
	if burnStop.Gt(total) {
		return nil, ErrBurnStopTooHigh
	}

	t := &Token{contract.NewBase(state, self)}
	if err := t.Init(contract.KindToken, owner); err != nil {
		return nil, err
	}
	t.SetString(keyName, g.Name)
	t.SetString(keySymbol, g.Symbol)
	if err := t.SetDetail(keyFeeConfig, cfg); err != nil {
		return nil, err
	}
	t.SetU256(keyBurnStop, burnStop)
	t.SetU256(keySupply, total)
	t.SetU256(keyInitialSupply, total)

	for i, holder := range g.Holders {
		t.addBalance(holder, g.Amounts[i])
		t.Emit(EventTransfer, common.ZeroAddress, holder, g.Amounts[i])
	}
	log.LedgerLogger.Infof("token %v deployed at %v, supply %v", g.Symbol, self.AddrPrefixString(), total.Dec())
	return t, nil
}

// Load returns the token deployed at addr
func Load(state *account.AccountDB, addr common.Address) (*Token, error) {
	t := &Token{contract.NewBase(state, addr)}
	if err := t.Expect(contract.KindToken); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Token) Name() string {
	return t.GetString(keyName)
}

func (t *Token) Symbol() string {
	return t.GetString(keySymbol)
}

func (t *Token) Decimals() uint8 {
	return params.Decimals
}

func (t *Token) TotalSupply() *uint256.Int {
	return t.GetU256(keySupply)
}

// InitialSupply is the supply minted at genesis
func (t *Token) InitialSupply() *uint256.Int {
	return t.GetU256(keyInitialSupply)
}

func (t *Token) BurnStopSupply() *uint256.Int {
	return t.GetU256(keyBurnStop)
}

func (t *Token) BalanceOf(addr common.Address) *uint256.Int {
	return t.GetU256(contract.Key(prefixBalance, addr))
}

func (t *Token) Allowance(owner, spender common.Address) *uint256.Int {
	return t.GetU256(contract.Key(prefixAllowance, owner, spender))
}

// AmountBurned is the running total burned since genesis
func (t *Token) AmountBurned() *uint256.Int {
	return t.GetU256(keyBurned)
}

// AmountFounded is the running total paid to the foundation wallet
func (t *Token) AmountFounded() *uint256.Int {
	return t.GetU256(keyFounded)
}

// AmountCommunity is the running total paid to the community wallet
func (t *Token) AmountCommunity() *uint256.Int {
	return t.GetU256(keyCommunity)
}

// FeeConfig returns the current fee policy including the burn floor
func (t *Token) FeeConfig() (*FeeConfig, error) {
	cfg := new(FeeConfig)
	ok, err := t.GetDetail(keyFeeConfig, cfg)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("token %v has no fee config", t.Addr.AddrPrefixString())
	}
	cfg.BurnStopSupply = t.BurnStopSupply()
	return cfg, nil
}

func (t *Token) addBalance(addr common.Address, amount *uint256.Int) {
	key := contract.Key(prefixBalance, addr)
	t.SetU256(key, new(uint256.Int).Add(t.GetU256(key), amount))
}

func (t *Token) addCounter(key []byte, amount *uint256.Int) {
	if amount.IsZero() {
		return
	}
	t.SetU256(key, new(uint256.Int).Add(t.GetU256(key), amount))
}

// Transfer moves amount from the caller to to, splitting off the fees
func (t *Token) Transfer(msg *types.Msg, to common.Address, amount *uint256.Int) (*Split, error) {
	return t.transfer(msg.Caller, to, amount)
}

// TransferFrom moves amount from from to to on behalf of the caller, consuming
// the caller's allowance
func (t *Token) TransferFrom(msg *types.Msg, from, to common.Address, amount *uint256.Int) (*Split, error) {
	if err := t.spendAllowance(from, msg.Caller, amount, ErrInsufficientAllowance); err != nil {
		return nil, err
	}
	return t.transfer(from, to, amount)
}

func (t *Token) transfer(from, to common.Address, amount *uint256.Int) (*Split, error) {
	if from.IsZero() {
		return nil, ErrTransferFromZero
	}
	if to.IsZero() {
		return nil, ErrTransferToZero
	}
	fromKey := contract.Key(prefixBalance, from)
	balance := t.GetU256(fromKey)
	if balance.Lt(amount) {
		return nil, ErrInsufficientBalance
	}
	cfg, err := t.FeeConfig()
	if err != nil {
		return nil, err
	}
	supply := t.TotalSupply()
	split := ComputeSplit(amount, cfg, supply)

	t.SetU256(fromKey, new(uint256.Int).Sub(balance, amount))
	if !split.Burn.IsZero() {
		t.SetU256(keySupply, new(uint256.Int).Sub(supply, split.Burn))
		t.addCounter(keyBurned, split.Burn)
		t.Emit(EventTransfer, from, common.ZeroAddress, split.Burn)
	}
	if !split.Foundation.IsZero() {
		t.addBalance(cfg.Foundation, split.Foundation)
		t.addCounter(keyFounded, split.Foundation)
		t.Emit(EventTransfer, from, cfg.Foundation, split.Foundation)
	}
	if !split.Community.IsZero() {
		t.addBalance(cfg.Community, split.Community)
		t.addCounter(keyCommunity, split.Community)
		t.Emit(EventTransfer, from, cfg.Community, split.Community)
	}
	t.addBalance(to, split.Received)
	t.Emit(EventTransfer, from, to, split.Received)

	log.LedgerLogger.Debugf("transfer %v -> %v amount %v burn %v foundation %v community %v",
		from.AddrPrefixString(), to.AddrPrefixString(), amount.Dec(), split.Burn.Dec(), split.Foundation.Dec(), split.Community.Dec())
	return split, nil
}

func (t *Token) approve(owner, spender common.Address, value *uint256.Int) error {
	if spender.IsZero() {
		return ErrApproveToZero
	}
	t.SetU256(contract.Key(prefixAllowance, owner, spender), value)
	t.Emit(EventApproval, owner, spender, value)
	return nil
}

// spendAllowance decrements the allowance of spender over owner's tokens. An
// unlimited allowance stays untouched.
func (t *Token) spendAllowance(owner, spender common.Address, amount *uint256.Int, errShort error) error {
	current := t.Allowance(owner, spender)
	if current.Eq(maxAllowance) {
		return nil
	}
	if current.Lt(amount) {
		return errShort
	}
	return t.approve(owner, spender, new(uint256.Int).Sub(current, amount))
}

// Approve sets the caller's allowance for spender to value
func (t *Token) Approve(msg *types.Msg, spender common.Address, value *uint256.Int) error {
	return t.approve(msg.Caller, spender, value)
}

func (t *Token) IncreaseAllowance(msg *types.Msg, spender common.Address, added *uint256.Int) error {
	v, err := common.SafeAdd(t.Allowance(msg.Caller, spender), added)
	if err != nil {
		return types.NewQuantityError(err.Error())
	}
	return t.approve(msg.Caller, spender, v)
}

func (t *Token) DecreaseAllowance(msg *types.Msg, spender common.Address, subtracted *uint256.Int) error {
	current := t.Allowance(msg.Caller, spender)
	if current.Lt(subtracted) {
		return ErrAllowanceBelowZero
	}
	return t.approve(msg.Caller, spender, new(uint256.Int).Sub(current, subtracted))
}

// Burn destroys up to amount of the caller's tokens. Only what fits above the
// burn floor is destroyed and debited; the burned amount is returned.
func (t *Token) Burn(msg *types.Msg, amount *uint256.Int) (*uint256.Int, error) {
	return t.burn(msg.Caller, amount)
}

// BurnFrom burns owner's tokens on behalf of the caller. The allowance is
// charged with the amount actually burned.
func (t *Token) BurnFrom(msg *types.Msg, owner common.Address, amount *uint256.Int) (*uint256.Int, error) {
	if t.Allowance(owner, msg.Caller).Lt(amount) {
		return nil, ErrBurnExceedsAllowance
	}
	burned, err := t.burn(owner, amount)
	if err != nil {
		return nil, err
	}
	if err := t.spendAllowance(owner, msg.Caller, burned, ErrBurnExceedsAllowance); err != nil {
		return nil, err
	}
	return burned, nil
}

func (t *Token) burn(holder common.Address, amount *uint256.Int) (*uint256.Int, error) {
	key := contract.Key(prefixBalance, holder)
	balance := t.GetU256(key)
	if balance.Lt(amount) {
		return nil, ErrBurnExceedsBalance
	}
	supply := t.TotalSupply()
	burned := capBurn(amount, supply, t.BurnStopSupply())
	if burned.IsZero() {
		return burned, nil
	}
	t.SetU256(key, new(uint256.Int).Sub(balance, burned))
	t.SetU256(keySupply, new(uint256.Int).Sub(supply, burned))
	t.addCounter(keyBurned, burned)
	t.Emit(EventTransfer, holder, common.ZeroAddress, burned)
	log.LedgerLogger.Debugf("burn %v of %v, requested %v", burned.Dec(), holder.AddrPrefixString(), amount.Dec())
	return burned, nil
}

func (t *Token) setFeeConfig(msg *types.Msg, mutate func(cfg *FeeConfig) error) error {
	if err := t.OnlyOwner(msg); err != nil {
		return err
	}
	cfg, err := t.FeeConfig()
	if err != nil {
		return err
	}
	if err := mutate(cfg); err != nil {
		return err
	}
	return t.SetDetail(keyFeeConfig, cfg)
}

// SetFoundationRate changes the foundation share, owner only
func (t *Token) SetFoundationRate(msg *types.Msg, rate uint16) error {
	return t.setFeeConfig(msg, func(cfg *FeeConfig) error {
		old := cfg.FoundationRate
		cfg.FoundationRate = rate
		if cfg.TotalRate() > common.BpsDenominator {
			return ErrRateTooHigh
		}
		t.Emit(EventFoundationRateChanged, old, rate)
		return nil
	})
}

// SetCommunityRate changes the community share, owner only
func (t *Token) SetCommunityRate(msg *types.Msg, rate uint16) error {
	return t.setFeeConfig(msg, func(cfg *FeeConfig) error {
		old := cfg.CommunityRate
		cfg.CommunityRate = rate
		if cfg.TotalRate() > common.BpsDenominator {
			return ErrRateTooHigh
		}
		t.Emit(EventCommunityRateChanged, old, rate)
		return nil
	})
}

func (t *Token) SetFoundationWallet(msg *types.Msg, wallet common.Address) error {
	return t.setFeeConfig(msg, func(cfg *FeeConfig) error {
		if wallet.IsZero() {
			return ErrZeroWallet
		}
		old := cfg.Foundation
		cfg.Foundation = wallet
		t.Emit(EventFoundationWalletChanged, old, wallet)
		return nil
	})
}

func (t *Token) SetCommunityWallet(msg *types.Msg, wallet common.Address) error {
	return t.setFeeConfig(msg, func(cfg *FeeConfig) error {
		if wallet.IsZero() {
			return ErrZeroWallet
		}
		old := cfg.Community
		cfg.Community = wallet
		t.Emit(EventCommunityWalletChanged, old, wallet)
		return nil
	})
}
