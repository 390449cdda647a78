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

// Package seedsale implements a crowdsale round: investors buy tokens with wei
// while the round is active, then either claim the tokens after a locking
// period or get refunded when the goal is missed.
package seedsale

import (
	"fmt"

	"github.com/diversify/divchain/common"
	"github.com/diversify/divchain/core/contract"
	"github.com/diversify/divchain/core/ledger"
	"github.com/diversify/divchain/log"
	"github.com/diversify/divchain/middleware/types"
	"github.com/diversify/divchain/storage/account"
	"github.com/holiman/uint256"
)

const (
	EventSetup          = "Setup"
	EventTokenPurchased = "TokenPurchased"
	EventClosed         = "Closed"
	EventRefundsEnabled = "RefundsEnabled"
	EventRefunded       = "Refunded"
	EventTokensClaimed  = "TokensClaimed"
)

var (
	ErrZeroBeneficiary = types.NewArgumentError("Beneficary not specified")
	ErrZeroDuration    = types.NewArgumentError("Duration needs to be bigger than 0")
	ErrZeroToken       = types.NewArgumentError("Token must be set")
	ErrNoTokenBalance  = types.NewQuantityError("Seedsale has no amount for the given token")
	ErrZeroRate        = types.NewArgumentError("Rate needs to be bigger than 0")
	ErrZeroGoal        = types.NewArgumentError("Goal needs to be bigger than 0")
	ErrAlreadySetup    = types.NewStateError("Seed already started")

	ErrNotReady        = types.NewStateError("SeedSale not ready")
	ErrNotActive       = types.NewStateError("SeedSale not active")
	ErrNotStarted      = types.NewStateError("SeedSale not started")
	ErrEnded           = types.NewStateError("End duration reached")
	ErrZeroWei         = types.NewQuantityError("Wei amount cant be zero")
	ErrBelowMin        = types.NewQuantityError("Transaction doesnt reach minTransactionLimit")
	ErrAboveMax        = types.NewQuantityError("Transaction exceeds investment limit!")
	ErrExceedsSupply   = types.NewQuantityError("Transaction overeaches totalSupply")
	ErrNotEnded        = types.NewStateError("End duration not reached")
	ErrNotOpen         = types.NewStateError("Seedsale needs to be active state")
	ErrRefundDisabled  = types.NewStateError("Refunding disabled")
	ErrNotClosed       = types.NewStateError("Sale not closed")
	ErrLocked          = types.NewStateError("Seed locking period not ended")
	ErrNotBeneficiary  = types.NewArgumentError("You can only transfer tokens to the beneficiary")
	ErrOnlyClosed      = types.NewStateError("Only allowed when closed")
	ErrConfiguredToken = types.NewArgumentError("You should only use this method to withdraw extraneous tokens.")
)

// State of a round as seen at a given time
type State byte

const (
	StateSetup State = iota
	StateReady
	StateActive
	StateEnded
	StateClosed
	StateRefunding
)

func (s State) String() string {
	switch s {
	case StateSetup:
		return "setup"
	case StateReady:
		return "ready"
	case StateActive:
		return "active"
	case StateEnded:
		return "ended"
	case StateClosed:
		return "closed"
	case StateRefunding:
		return "refunding"
	}
	return fmt.Sprintf("state(%d)", byte(s))
}

// phase is the stored part of the state, the rest depends on the time
type phase byte

const (
	phaseSetup phase = iota
	phaseOpen
	phaseClosed
	phaseRefunding
)

var (
	keyRound       = []byte("round")
	keyRate        = []byte("rate")
	keyWeiGoal     = []byte("weiGoal")
	keyMinWei      = []byte("minWei")
	keyMaxWei      = []byte("maxWei")
	keyTotalSupply = []byte("totalSupply")
	keyRaised      = []byte("raisedWei")
	keySold        = []byte("soldTokens")
	prefixTokens   = []byte("tokens")
	prefixWei      = []byte("wei")
)

// round holds everything but amounts
type round struct {
	Phase          phase          `msgpack:"phase"`
	Beneficiary    common.Address `msgpack:"beneficiary"`
	Token          common.Address `msgpack:"token"`
	StartTimestamp uint64         `msgpack:"start"`
	Duration       uint64         `msgpack:"duration"`
	LockingPeriod  uint64         `msgpack:"locking"`
	CloseTimestamp uint64         `msgpack:"closed"`
}

// Params configure a round in Setup
type Params struct {
	Beneficiary    common.Address
	StartTimestamp uint64
	Duration       uint64
	LockingPeriod  uint64
	Rate           *uint256.Int // tokens per wei
	WeiGoal        *uint256.Int
	MinWei         *uint256.Int // per transaction, 0 disables
	MaxWei         *uint256.Int // per investor, 0 disables
	Token          common.Address
}

type SeedSale struct {
	contract.Base
	r *round
}

// Deploy constructs an unconfigured round at self
func Deploy(state *account.AccountDB, self, owner common.Address) (*SeedSale, error) {
	s := &SeedSale{Base: contract.NewBase(state, self), r: new(round)}
	if err := s.Init(contract.KindSeedSale, owner); err != nil {
		return nil, err
	}
	if err := s.save(); err != nil {
		return nil, err
	}
	log.SaleLogger.Infof("seedsale %v deployed", self.AddrPrefixString())
	return s, nil
}

// Load returns the round deployed at addr
func Load(state *account.AccountDB, addr common.Address) (*SeedSale, error) {
	s := &SeedSale{Base: contract.NewBase(state, addr), r: new(round)}
	if err := s.Expect(contract.KindSeedSale); err != nil {
		return nil, err
	}
	ok, err := s.GetDetail(keyRound, s.r)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("seedsale %v has no round", addr.AddrPrefixString())
	}
	return s, nil
}

func (s *SeedSale) save() error {
	return s.SetDetail(keyRound, s.r)
}

func (s *SeedSale) Beneficiary() common.Address { return s.r.Beneficiary }
func (s *SeedSale) Token() common.Address       { return s.r.Token }
func (s *SeedSale) StartTimestamp() uint64      { return s.r.StartTimestamp }
func (s *SeedSale) Duration() uint64            { return s.r.Duration }
func (s *SeedSale) LockingPeriod() uint64       { return s.r.LockingPeriod }
func (s *SeedSale) CloseTimestamp() uint64      { return s.r.CloseTimestamp }

func (s *SeedSale) Rate() *uint256.Int        { return s.GetU256(keyRate) }
func (s *SeedSale) WeiGoal() *uint256.Int     { return s.GetU256(keyWeiGoal) }
func (s *SeedSale) MinWei() *uint256.Int      { return s.GetU256(keyMinWei) }
func (s *SeedSale) MaxWei() *uint256.Int      { return s.GetU256(keyMaxWei) }
func (s *SeedSale) TotalSupply() *uint256.Int { return s.GetU256(keyTotalSupply) }
func (s *SeedSale) RaisedWei() *uint256.Int   { return s.GetU256(keyRaised) }
func (s *SeedSale) SoldTokens() *uint256.Int  { return s.GetU256(keySold) }

// BalanceOf is the amount of tokens bought by investor and not yet claimed
func (s *SeedSale) BalanceOf(investor common.Address) *uint256.Int {
	return s.GetU256(contract.Key(prefixTokens, investor))
}

// WeiBalanceOf is what investor paid and has not been refunded
func (s *SeedSale) WeiBalanceOf(investor common.Address) *uint256.Int {
	return s.GetU256(contract.Key(prefixWei, investor))
}

func (s *SeedSale) endTimestamp() uint64 {
	return s.r.StartTimestamp + s.r.Duration
}

// StateAt is the state of the round at now
func (s *SeedSale) StateAt(now uint64) State {
	switch s.r.Phase {
	case phaseSetup:
		return StateSetup
	case phaseClosed:
		return StateClosed
	case phaseRefunding:
		return StateRefunding
	}
	if now < s.r.StartTimestamp {
		return StateReady
	}
	if now >= s.endTimestamp() {
		return StateEnded
	}
	return StateActive
}

// Setup configures the round once. Every token the round holds at this point
// is up for sale.
func (s *SeedSale) Setup(msg *types.Msg, p *Params) error {
	if err := s.OnlyOwner(msg); err != nil {
		return err
	}
	if s.r.Phase != phaseSetup {
		return ErrAlreadySetup
	}
	if p.Beneficiary.IsZero() {
		return ErrZeroBeneficiary
	}
	if p.Duration == 0 {
		return ErrZeroDuration
	}
	if p.Token.IsZero() {
		return ErrZeroToken
	}
	tk, err := ledger.Load(s.State, p.Token)
	if err != nil {
		return types.NewArgumentError(err.Error())
	}
	supply := tk.BalanceOf(s.Addr)
	if supply.IsZero() {
		return ErrNoTokenBalance
	}
	if p.Rate == nil || p.Rate.IsZero() {
		return ErrZeroRate
	}
	if p.WeiGoal == nil || p.WeiGoal.IsZero() {
		return ErrZeroGoal
	}

	s.r.Phase = phaseOpen
	s.r.Beneficiary = p.Beneficiary
	s.r.Token = p.Token
	s.r.StartTimestamp = p.StartTimestamp
	s.r.Duration = p.Duration
	s.r.LockingPeriod = p.LockingPeriod
	if err := s.save(); err != nil {
		return err
	}
	minWei, maxWei := orZero(p.MinWei), orZero(p.MaxWei)
	s.SetU256(keyRate, p.Rate)
	s.SetU256(keyWeiGoal, p.WeiGoal)
	s.SetU256(keyMinWei, minWei)
	s.SetU256(keyMaxWei, maxWei)
	s.SetU256(keyTotalSupply, supply)

	s.Emit(EventSetup, p.StartTimestamp, p.Rate, p.WeiGoal, minWei, maxWei, supply, p.Duration, p.LockingPeriod)
	log.SaleLogger.Infof("seedsale %v set up: start %v duration %v rate %v goal %v supply %v",
		s.Addr.AddrPrefixString(), p.StartTimestamp, p.Duration, p.Rate.Dec(), p.WeiGoal.Dec(), supply.Dec())
	return nil
}

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}

// BuyTokens books msg.Value*rate tokens for the caller. The wei has already
// been moved to the round with the call.
func (s *SeedSale) BuyTokens(msg *types.Msg) (*uint256.Int, error) {
	switch s.StateAt(msg.Now) {
	case StateSetup:
		return nil, ErrNotReady
	case StateClosed, StateRefunding:
		return nil, ErrNotActive
	case StateReady:
		return nil, ErrNotStarted
	case StateEnded:
		return nil, ErrEnded
	}
	value := msg.Value
	if value.IsZero() {
		return nil, ErrZeroWei
	}
	if lo := s.MinWei(); !lo.IsZero() && value.Lt(lo) {
		return nil, ErrBelowMin
	}
	weiKey := contract.Key(prefixWei, msg.Caller)
	invested, overflow := new(uint256.Int).AddOverflow(s.GetU256(weiKey), value)
	if hi := s.MaxWei(); !hi.IsZero() && (overflow || invested.Gt(hi)) {
		return nil, ErrAboveMax
	}
	tokens, overflow := new(uint256.Int).MulOverflow(value, s.Rate())
	if overflow {
		return nil, ErrExceedsSupply
	}
	sold := new(uint256.Int).Add(s.SoldTokens(), tokens)
	if sold.Gt(s.TotalSupply()) {
		return nil, ErrExceedsSupply
	}

	tokensKey := contract.Key(prefixTokens, msg.Caller)
	s.SetU256(tokensKey, new(uint256.Int).Add(s.GetU256(tokensKey), tokens))
	s.SetU256(weiKey, invested)
	s.SetU256(keySold, sold)
	s.SetU256(keyRaised, new(uint256.Int).Add(s.RaisedWei(), value))
	s.Emit(EventTokenPurchased, msg.Caller, value, tokens)
	log.SaleLogger.Debugf("%v bought %v tokens for %v wei", msg.Caller.AddrPrefixString(), tokens.Dec(), value.Dec())
	return tokens, nil
}

// Close ends the round once its duration is over. A reached goal pays the goal
// to the beneficiary and burns the unsold tokens, otherwise refunds open up.
func (s *SeedSale) Close(msg *types.Msg) error {
	if err := s.OnlyOwner(msg); err != nil {
		return err
	}
	if s.r.Phase != phaseOpen {
		return ErrNotOpen
	}
	if msg.Now < s.endTimestamp() {
		return ErrNotEnded
	}
	s.r.CloseTimestamp = msg.Now

	goal := s.WeiGoal()
	if s.RaisedWei().Lt(goal) {
		s.r.Phase = phaseRefunding
		if err := s.save(); err != nil {
			return err
		}
		s.Emit(EventRefundsEnabled)
		log.SaleLogger.Infof("seedsale %v missed its goal, refunds enabled", s.Addr.AddrPrefixString())
		return nil
	}

	s.r.Phase = phaseClosed
	if err := s.save(); err != nil {
		return err
	}
	if err := s.State.Transfer(s.Addr, s.r.Beneficiary, goal); err != nil {
		return err
	}
	tk, err := ledger.Load(s.State, s.r.Token)
	if err != nil {
		return err
	}
	unsold := new(uint256.Int).Sub(s.TotalSupply(), s.SoldTokens())
	burned := new(uint256.Int)
	if !unsold.IsZero() {
		if burned, err = tk.Burn(s.Outgoing(msg, s.r.Token), unsold); err != nil {
			return err
		}
	}
	s.Emit(EventClosed, goal, burned)
	log.SaleLogger.Infof("seedsale %v closed, raised %v wei, burned %v", s.Addr.AddrPrefixString(), s.RaisedWei().Dec(), burned.Dec())
	return nil
}

// ClaimRefund pays back what investor contributed. Anyone may trigger it, the
// wei always goes to the investor.
func (s *SeedSale) ClaimRefund(msg *types.Msg, investor common.Address) (*uint256.Int, error) {
	if s.r.Phase != phaseRefunding {
		return nil, ErrRefundDisabled
	}
	weiKey := contract.Key(prefixWei, investor)
	amount := s.GetU256(weiKey)
	if amount.IsZero() {
		return amount, nil
	}
	s.SetU256(weiKey, new(uint256.Int))
	s.SetU256(contract.Key(prefixTokens, investor), new(uint256.Int))
	if err := s.State.Transfer(s.Addr, investor, amount); err != nil {
		return nil, err
	}
	s.Emit(EventRefunded, investor, amount)
	log.SaleLogger.Debugf("refunded %v wei to %v", amount.Dec(), investor.AddrPrefixString())
	return amount, nil
}

// RetrieveFreezedTokens sends the caller's purchased tokens once the locking
// period after closing has passed
func (s *SeedSale) RetrieveFreezedTokens(msg *types.Msg) (*uint256.Int, error) {
	if s.r.Phase != phaseClosed {
		return nil, ErrNotClosed
	}
	if msg.Now < s.r.CloseTimestamp+s.r.LockingPeriod {
		return nil, ErrLocked
	}
	key := contract.Key(prefixTokens, msg.Caller)
	amount := s.GetU256(key)
	if amount.IsZero() {
		return amount, nil
	}
	s.SetU256(key, new(uint256.Int))
	tk, err := ledger.Load(s.State, s.r.Token)
	if err != nil {
		return nil, err
	}
	if _, err := tk.Transfer(s.Outgoing(msg, s.r.Token), msg.Caller, amount); err != nil {
		return nil, err
	}
	s.Emit(EventTokensClaimed, msg.Caller, amount)
	return amount, nil
}

// RetrieveTokens rescues a foreign token to the beneficiary
func (s *SeedSale) RetrieveTokens(msg *types.Msg, to, otherToken common.Address) (*uint256.Int, error) {
	if err := s.OnlyOwner(msg); err != nil {
		return nil, err
	}
	if otherToken == s.r.Token {
		return nil, ErrConfiguredToken
	}
	if to != s.r.Beneficiary {
		return nil, ErrNotBeneficiary
	}
	return ledger.RetrieveAll(s.State, msg, otherToken, to)
}

// RetrieveETH sends the wei left after closing to the beneficiary
func (s *SeedSale) RetrieveETH(msg *types.Msg, to common.Address) (*uint256.Int, error) {
	if err := s.OnlyOwner(msg); err != nil {
		return nil, err
	}
	if s.r.Phase != phaseClosed {
		return nil, ErrOnlyClosed
	}
	if to != s.r.Beneficiary {
		return nil, ErrNotBeneficiary
	}
	amount := s.State.GetBalance(s.Addr)
	if amount.IsZero() {
		return amount, nil
	}
	if err := s.State.Transfer(s.Addr, to, amount); err != nil {
		return nil, err
	}
	return amount, nil
}
