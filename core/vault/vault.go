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

// Package vault implements token vaults releasing a locked balance to a
// beneficiary, either at once after the lock duration or in equal parts per
// elapsed interval
package vault

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
	EventStarted        = "Started"
	EventTokensReleased = "TokensReleased"
)

var (
	ErrZeroBeneficiary = types.NewArgumentError("Beneficiary cannot be the zero address")
	ErrZeroDuration    = types.NewArgumentError("Duration needs to be bigger than 0")
	ErrIntervalTooLong = types.NewArgumentError("Interval must not exceed duration")
	ErrAlreadyStarted  = types.NewStateError("Lock already started")
	ErrLockNotStarted  = types.NewStateError("Lock not started")
	ErrDurationNotOver = types.NewStateError("Duration not over")
	ErrConfiguredToken = types.NewArgumentError("You should only use this method to withdraw extraneous tokens.")
)

var (
	keySchedule     = []byte("schedule")
	keyStartBalance = []byte("startBalance")
	keyRetrieved    = []byte("retrieved")
)

// schedule is the vault's record apart from amounts
type schedule struct {
	Beneficiary    common.Address `msgpack:"beneficiary"`
	Token          common.Address `msgpack:"token"`
	Duration       uint64         `msgpack:"duration"`
	Interval       uint64         `msgpack:"interval"`
	StartTimestamp uint64         `msgpack:"start"`
	Started        bool           `msgpack:"started"`
}

// Vault is a handle on a deployed vault
type Vault struct {
	contract.Base
	sched *schedule
}

// Deploy constructs a vault at self. An interval of 0 releases everything once
// duration has passed.
func Deploy(state *account.AccountDB, self, owner, beneficiary common.Address, duration, interval uint64) (*Vault, error) {
	if beneficiary.IsZero() {
		return nil, ErrZeroBeneficiary
	}
	if duration == 0 {
		return nil, ErrZeroDuration
	}
	if interval > duration {
		return nil, ErrIntervalTooLong
	}
	v := &Vault{
		Base:  contract.NewBase(state, self),
		sched: &schedule{Beneficiary: beneficiary, Duration: duration, Interval: interval},
	}
	if err := v.Init(contract.KindVault, owner); err != nil {
		return nil, err
	}
	if err := v.save(); err != nil {
		return nil, err
	}
	log.VaultLogger.Infof("vault %v for %v, duration %v interval %v", self.AddrPrefixString(), beneficiary.AddrPrefixString(), duration, interval)
	return v, nil
}

// Load returns the vault deployed at addr
func Load(state *account.AccountDB, addr common.Address) (*Vault, error) {
	v := &Vault{Base: contract.NewBase(state, addr), sched: new(schedule)}
	if err := v.Expect(contract.KindVault); err != nil {
		return nil, err
	}
	ok, err := v.GetDetail(keySchedule, v.sched)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("vault %v has no schedule", addr.AddrPrefixString())
	}
	return v, nil
}

func (v *Vault) save() error {
	return v.SetDetail(keySchedule, v.sched)
}

func (v *Vault) Token() common.Address       { return v.sched.Token }
func (v *Vault) Beneficiary() common.Address { return v.sched.Beneficiary }
func (v *Vault) Duration() uint64            { return v.sched.Duration }
func (v *Vault) Interval() uint64            { return v.sched.Interval }
func (v *Vault) StartTimestamp() uint64      { return v.sched.StartTimestamp }
func (v *Vault) Started() bool               { return v.sched.Started }

// StartBalance is the balance locked when the vault was started
func (v *Vault) StartBalance() *uint256.Int {
	return v.GetU256(keyStartBalance)
}

// RetrievedTokens is what has been released so far
func (v *Vault) RetrievedTokens() *uint256.Int {
	return v.GetU256(keyRetrieved)
}

// Start locks the vault's current balance of token, once, owner only
func (v *Vault) Start(msg *types.Msg, token common.Address) error {
	if err := v.OnlyOwner(msg); err != nil {
		return err
	}
	if v.sched.Started {
		return ErrAlreadyStarted
	}
	tk, err := ledger.Load(v.State, token)
	if err != nil {
		return types.NewArgumentError(err.Error())
	}
	balance := tk.BalanceOf(v.Addr)

	v.sched.Token = token
	v.sched.StartTimestamp = msg.Now
	v.sched.Started = true
	if err := v.save(); err != nil {
		return err
	}
	v.SetU256(keyStartBalance, balance)
	v.Emit(EventStarted, token, balance, msg.Now)
	log.VaultLogger.Debugf("vault %v started with %v at %v", v.Addr.AddrPrefixString(), balance.Dec(), msg.Now)
	return nil
}

// unlocked is the part of the start balance released by the schedule at now
func (v *Vault) unlocked(now uint64) *uint256.Int {
	s := v.sched
	if !s.Started || now < s.StartTimestamp {
		return new(uint256.Int)
	}
	elapsed := now - s.StartTimestamp
	if s.Interval == 0 {
		if elapsed < s.Duration {
			return new(uint256.Int)
		}
		return v.StartBalance()
	}
	total := s.Duration / s.Interval
	passed := elapsed / s.Interval
	if passed >= total {
		return v.StartBalance()
	}
	// passed < total, so the result never exceeds the start balance
	ret, _ := common.MulDiv(v.StartBalance(), uint256.NewInt(passed), uint256.NewInt(total))
	return ret
}

// AvailableAmount is what RetrieveLockedTokens would release at now
func (v *Vault) AvailableAmount(now uint64) *uint256.Int {
	unlocked := v.unlocked(now)
	retrieved := v.RetrievedTokens()
	if !unlocked.Gt(retrieved) {
		return new(uint256.Int)
	}
	return unlocked.Sub(unlocked, retrieved)
}

// RetrieveLockedTokens sends the available amount to the beneficiary and
// returns it. Nothing available is a no-op, except for a lump-sum vault whose
// duration has not passed yet.
func (v *Vault) RetrieveLockedTokens(msg *types.Msg) (*uint256.Int, error) {
	if err := v.OnlyOwner(msg); err != nil {
		return nil, err
	}
	s := v.sched
	if !s.Started {
		return nil, ErrLockNotStarted
	}
	if s.Interval == 0 && msg.Now < s.StartTimestamp+s.Duration {
		return nil, ErrDurationNotOver
	}
	amount := v.AvailableAmount(msg.Now)
	if amount.IsZero() {
		return amount, nil
	}
	tk, err := ledger.Load(v.State, s.Token)
	if err != nil {
		return nil, err
	}
	if _, err := tk.Transfer(v.Outgoing(msg, s.Token), s.Beneficiary, amount); err != nil {
		return nil, err
	}
	v.SetU256(keyRetrieved, new(uint256.Int).Add(v.RetrievedTokens(), amount))
	v.Emit(EventTokensReleased, s.Beneficiary, amount)
	log.VaultLogger.Debugf("vault %v released %v", v.Addr.AddrPrefixString(), amount.Dec())
	return amount, nil
}

// RetrieveTokens rescues the vault's whole balance of a token sent by mistake.
// Once started, the locked token can only leave through RetrieveLockedTokens.
func (v *Vault) RetrieveTokens(msg *types.Msg, to, otherToken common.Address) (*uint256.Int, error) {
	if err := v.OnlyOwner(msg); err != nil {
		return nil, err
	}
	if v.sched.Started && otherToken == v.sched.Token {
		return nil, ErrConfiguredToken
	}
	return ledger.RetrieveAll(v.State, msg, otherToken, to)
}
