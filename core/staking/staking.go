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

// Package staking pays a time based reward on staked tokens out of a pool the
// owner fills. The annual rate can change over time; every change is kept as a
// breakpoint and rewards are compounded at each breakpoint.
package staking

import (
	"fmt"

	"github.com/diversify/divchain/common"
	"github.com/diversify/divchain/core/contract"
	"github.com/diversify/divchain/core/ledger"
	"github.com/diversify/divchain/log"
	"github.com/diversify/divchain/middleware/types"
	"github.com/diversify/divchain/params"
	"github.com/diversify/divchain/storage/account"
	"github.com/holiman/uint256"
)

const (
	EventContractFilled  = "contractFilled"
	EventRateChanged     = "rateChanged"
	EventTokensStaked    = "tokensStaked"
	EventCompounded      = "compounded"
	EventTokensWithdrawn = "tokensWithdrawn"
)

var (
	ErrZeroToken             = types.NewArgumentError("Token must be set")
	ErrZeroAmount            = types.NewQuantityError("Amount cant be zero")
	ErrInsufficientAllowance = types.NewQuantityError("Insufficient allowance")
	ErrNoStake               = types.NewStateError("Caller stakes no tokens")
	ErrTooEarly              = types.NewStateError("Compounding only every 10 minutes")
	ErrInsufficientPool      = types.NewQuantityError("Contract has not enough tokens left")
	ErrNothingToWithdraw     = types.NewQuantityError("No tokens to withdraw")
	ErrWithdrawTooMuch       = types.NewQuantityError("Not enough tokens to withdraw")
	ErrRateInPast            = types.NewStateError("Rate change before the last breakpoint")
)

var (
	keyPool         = []byte("pool")
	keyTotalSupply  = []byte("totalSupplyReward")
	keyTotalStaked  = []byte("totalStakedTokens")
	prefixStake     = []byte("stake")
	prefixStakeTime = []byte("stakeTime")
)

var yearDenominator = new(uint256.Int).Mul(uint256.NewInt(common.BpsDenominator), uint256.NewInt(params.SecondsPerYear))

// pool is the non-amount part of the contract. Timestamps and Values are the
// rate breakpoints, timestamps strictly increasing.
type pool struct {
	Token      common.Address `msgpack:"token"`
	Timestamps []uint64       `msgpack:"timestamps"`
	Values     []uint64       `msgpack:"values"`
}

type Staking struct {
	contract.Base
	p *pool
}

// Deploy constructs the pool at self with the first rate in effect from now
func Deploy(state *account.AccountDB, self, owner, token common.Address, rate uint64, now uint64) (*Staking, error) {
	if token.IsZero() {
		return nil, ErrZeroToken
	}
	s := &Staking{
		Base: contract.NewBase(state, self),
		p:    &pool{Token: token, Timestamps: []uint64{now}, Values: []uint64{rate}},
	}
	if err := s.Init(contract.KindStaking, owner); err != nil {
		return nil, err
	}
	if err := s.save(); err != nil {
		return nil, err
	}
	log.StakingLogger.Infof("staking %v for token %v, rate %v bps", self.AddrPrefixString(), token.AddrPrefixString(), rate)
	return s, nil
}

// Load returns the staking pool deployed at addr
func Load(state *account.AccountDB, addr common.Address) (*Staking, error) {
	s := &Staking{Base: contract.NewBase(state, addr), p: new(pool)}
	if err := s.Expect(contract.KindStaking); err != nil {
		return nil, err
	}
	ok, err := s.GetDetail(keyPool, s.p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("staking %v has no pool", addr.AddrPrefixString())
	}
	return s, nil
}

func (s *Staking) save() error {
	return s.SetDetail(keyPool, s.p)
}

func (s *Staking) Token() common.Address { return s.p.Token }

// TotalSupplyReward is what is left in the reward pool
func (s *Staking) TotalSupplyReward() *uint256.Int { return s.GetU256(keyTotalSupply) }

func (s *Staking) TotalStakedTokens() *uint256.Int { return s.GetU256(keyTotalStaked) }

func (s *Staking) RateTimestamps() []uint64 {
	return append([]uint64(nil), s.p.Timestamps...)
}

func (s *Staking) RateValues() []uint64 {
	return append([]uint64(nil), s.p.Values...)
}

func (s *Staking) StakedAmount(addr common.Address) *uint256.Int {
	return s.GetU256(contract.Key(prefixStake, addr))
}

// TimestampStake is when addr's stake last compounded
func (s *Staking) TimestampStake(addr common.Address) uint64 {
	return s.GetUint64(contract.Key(prefixStakeTime, addr))
}

// RewardAmount is what compounding addr's stake at now would add, regardless
// of what is left in the pool
func (s *Staking) RewardAmount(addr common.Address, now uint64) *uint256.Int {
	return s.reward(s.StakedAmount(addr), s.TimestampStake(addr), now)
}

// reward integrates the rate history over [from, to). The stake compounds at
// every breakpoint inside the span.
func (s *Staking) reward(stake *uint256.Int, from, to uint64) *uint256.Int {
	total := new(uint256.Int)
	if stake.IsZero() || to <= from {
		return total
	}
	current := new(uint256.Int).Set(stake)
	ts, vs := s.p.Timestamps, s.p.Values
	for i := range ts {
		start, end := ts[i], to
		if i+1 < len(ts) && ts[i+1] < to {
			end = ts[i+1]
		}
		if start < from {
			start = from
		}
		if end <= start {
			continue
		}
		factor := new(uint256.Int).Mul(uint256.NewInt(vs[i]), uint256.NewInt(end-start))
		part, err := common.MulDiv(current, factor, yearDenominator)
		if err != nil {
			// more than 2^256 tokens of reward can't be paid by any pool
			return new(uint256.Int).SetAllOne()
		}
		current.Add(current, part)
		total.Add(total, part)
	}
	return total
}

// compound adds the reward accrued by addr up to now to its stake
func (s *Staking) compound(addr common.Address, now uint64) (*uint256.Int, error) {
	stakeKey := contract.Key(prefixStake, addr)
	stake := s.GetU256(stakeKey)
	timeKey := contract.Key(prefixStakeTime, addr)
	last := s.GetUint64(timeKey)
	reward := s.reward(stake, last, now)
	// the accrual mark only moves forward, a span is never paid twice
	if now > last {
		s.SetUint64(timeKey, now)
	}
	if reward.IsZero() {
		return reward, nil
	}
	supply := s.TotalSupplyReward()
	if reward.Gt(supply) {
		return nil, ErrInsufficientPool
	}
	s.SetU256(keyTotalSupply, supply.Sub(supply, reward))
	s.SetU256(stakeKey, stake.Add(stake, reward))
	s.SetU256(keyTotalStaked, new(uint256.Int).Add(s.TotalStakedTokens(), reward))
	s.Emit(EventCompounded, addr, reward)
	log.StakingLogger.Debugf("%v compounded %v at %v", addr.AddrPrefixString(), reward.Dec(), now)
	return reward, nil
}

// pull moves amount from the caller to the pool through the caller's allowance
// and returns what arrived after fees
func (s *Staking) pull(msg *types.Msg, amount *uint256.Int) (*uint256.Int, error) {
	if amount.IsZero() {
		return nil, ErrZeroAmount
	}
	tk, err := ledger.Load(s.State, s.p.Token)
	if err != nil {
		return nil, err
	}
	if tk.Allowance(msg.Caller, s.Addr).Lt(amount) {
		return nil, ErrInsufficientAllowance
	}
	split, err := tk.TransferFrom(s.Outgoing(msg, s.p.Token), msg.Caller, s.Addr, amount)
	if err != nil {
		return nil, err
	}
	return split.Received, nil
}

// FillContract tops up the reward pool, owner only
func (s *Staking) FillContract(msg *types.Msg, amount *uint256.Int) (*uint256.Int, error) {
	if err := s.OnlyOwner(msg); err != nil {
		return nil, err
	}
	net, err := s.pull(msg, amount)
	if err != nil {
		return nil, err
	}
	s.SetU256(keyTotalSupply, new(uint256.Int).Add(s.TotalSupplyReward(), net))
	s.Emit(EventContractFilled, net)
	log.StakingLogger.Infof("reward pool of %v filled with %v", s.Addr.AddrPrefixString(), net.Dec())
	return net, nil
}

// ChangeRate sets the annual rate in basis points from now on, owner only
func (s *Staking) ChangeRate(msg *types.Msg, rate uint64) error {
	if err := s.OnlyOwner(msg); err != nil {
		return err
	}
	last := len(s.p.Timestamps) - 1
	switch {
	case msg.Now < s.p.Timestamps[last]:
		return ErrRateInPast
	case msg.Now == s.p.Timestamps[last]:
		// the replaced rate was in effect for no time at all
		s.p.Values[last] = rate
	default:
		s.p.Timestamps = append(s.p.Timestamps, msg.Now)
		s.p.Values = append(s.p.Values, rate)
	}
	if err := s.save(); err != nil {
		return err
	}
	s.Emit(EventRateChanged, rate)
	log.StakingLogger.Infof("staking %v rate changed to %v bps at %v", s.Addr.AddrPrefixString(), rate, msg.Now)
	return nil
}

// StakeTokens compounds the caller's stake and adds amount, net of transfer
// fees, to it
func (s *Staking) StakeTokens(msg *types.Msg, amount *uint256.Int) (*uint256.Int, error) {
	if amount.IsZero() {
		return nil, ErrZeroAmount
	}
	if _, err := s.compound(msg.Caller, msg.Now); err != nil {
		return nil, err
	}
	net, err := s.pull(msg, amount)
	if err != nil {
		return nil, err
	}
	key := contract.Key(prefixStake, msg.Caller)
	s.SetU256(key, new(uint256.Int).Add(s.GetU256(key), net))
	s.SetU256(keyTotalStaked, new(uint256.Int).Add(s.TotalStakedTokens(), net))
	s.Emit(EventTokensStaked, msg.Caller, net)
	log.StakingLogger.Debugf("%v staked %v", msg.Caller.AddrPrefixString(), net.Dec())
	return net, nil
}

// Compound adds the caller's accrued reward to its stake. It may run at most
// once per MinCompoundInterval.
func (s *Staking) Compound(msg *types.Msg) (*uint256.Int, error) {
	if s.StakedAmount(msg.Caller).IsZero() {
		return nil, ErrNoStake
	}
	if msg.Now < s.TimestampStake(msg.Caller)+params.MinCompoundInterval {
		return nil, ErrTooEarly
	}
	return s.compound(msg.Caller, msg.Now)
}

// WithdrawTokens compounds and then pays out amount of the caller's stake; 0
// withdraws everything. The ledger fees are taken from the payout.
func (s *Staking) WithdrawTokens(msg *types.Msg, amount *uint256.Int) (*uint256.Int, error) {
	if _, err := s.compound(msg.Caller, msg.Now); err != nil {
		return nil, err
	}
	key := contract.Key(prefixStake, msg.Caller)
	stake := s.GetU256(key)
	if stake.IsZero() {
		return nil, ErrNothingToWithdraw
	}
	if amount == nil || amount.IsZero() {
		amount = new(uint256.Int).Set(stake)
	} else if amount.Gt(stake) {
		return nil, ErrWithdrawTooMuch
	}
	tk, err := ledger.Load(s.State, s.p.Token)
	if err != nil {
		return nil, err
	}
	if _, err := tk.Transfer(s.Outgoing(msg, s.p.Token), msg.Caller, amount); err != nil {
		return nil, err
	}
	s.SetU256(key, stake.Sub(stake, amount))
	s.SetU256(keyTotalStaked, new(uint256.Int).Sub(s.TotalStakedTokens(), amount))
	s.Emit(EventTokensWithdrawn, msg.Caller, amount)
	log.StakingLogger.Debugf("%v withdrew %v", msg.Caller.AddrPrefixString(), amount.Dec())
	return amount, nil
}

// RetrieveTokens sends out foreign tokens, or for the staking token what is
// left in the reward pool. Staked principal never leaves this way.
func (s *Staking) RetrieveTokens(msg *types.Msg, to, otherToken common.Address) (*uint256.Int, error) {
	if err := s.OnlyOwner(msg); err != nil {
		return nil, err
	}
	if otherToken != s.p.Token {
		return ledger.RetrieveAll(s.State, msg, otherToken, to)
	}
	amount := s.TotalSupplyReward()
	if amount.IsZero() {
		return amount, nil
	}
	tk, err := ledger.Load(s.State, s.p.Token)
	if err != nil {
		return nil, err
	}
	if _, err := tk.Transfer(s.Outgoing(msg, s.p.Token), to, amount); err != nil {
		return nil, err
	}
	s.SetU256(keyTotalSupply, new(uint256.Int))
	return amount, nil
}
