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

// Package coretest provides a chain with a deployed token for contract tests
package coretest

import (
	"github.com/diversify/divchain/common"
	"github.com/diversify/divchain/core"
	"github.com/diversify/divchain/core/ledger"
	"github.com/diversify/divchain/middleware/time"
	"github.com/diversify/divchain/middleware/types"
	"github.com/diversify/divchain/params"
	"github.com/diversify/divchain/storage/account"
	"github.com/holiman/uint256"
)

// Fee rates of the token deployed by DeployToken
const (
	BurnRate       = 100
	FoundationRate = 25
	CommunityRate  = 100
)

// StartTime is where the manual clock of a new Env starts
const StartTime = 1600000000

var (
	Owner      = Addr(0x01)
	Foundation = Addr(0xf0)
	Community  = Addr(0xc0)
)

func Addr(b byte) common.Address {
	return common.BytesToAddress([]byte{b})
}

func U(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

// DIV returns v whole tokens
func DIV(v uint64) *uint256.Int {
	return common.DIV2Wei(v)
}

// ReceivedAmount is what a transfer of amount delivers while the supply is
// above the burn floor
func ReceivedAmount(amount *uint256.Int) *uint256.Int {
	ret := new(uint256.Int).Sub(amount, common.Bps(amount, BurnRate))
	ret.Sub(ret, common.Bps(amount, FoundationRate))
	return ret.Sub(ret, common.Bps(amount, CommunityRate))
}

type Env struct {
	Chain *core.Chain
	Clock *time.ManualTime
	Token common.Address
}

func NewEnv() *Env {
	clock := time.NewManualTime(StartTime)
	return &Env{Chain: core.NewMemoryChain(clock), Clock: clock}
}

// Now is the timestamp the next call will see
func (e *Env) Now() uint64 {
	return e.Clock.Now().Uint64()
}

func (e *Env) Advance(sec int64) {
	e.Clock.Advance(sec)
}

// NextAddress is the address the next contract deployed by deployer gets
func (e *Env) NextAddress(deployer common.Address) common.Address {
	var nonce uint64
	e.Chain.View(func(state *account.AccountDB, now uint64) error {
		nonce = state.GetNonce(deployer)
		return nil
	})
	return common.CreateAddress(deployer, nonce)
}

// DeployToken deploys the token under test, owned by Owner with the given
// allocations and no burn floor
func (e *Env) DeployToken(holders []common.Address, amounts []*uint256.Int) error {
	addr, err := e.NewToken(holders, amounts)
	if err != nil {
		return err
	}
	e.Token = addr
	return nil
}

// NewToken deploys another token configured like the one under test
func (e *Env) NewToken(holders []common.Address, amounts []*uint256.Int) (common.Address, error) {
	g := &params.Genesis{
		Name:           "Diversify",
		Symbol:         "DIV",
		Holders:        holders,
		Amounts:        amounts,
		Foundation:     Foundation,
		Community:      Community,
		BurnRate:       BurnRate,
		FoundationRate: FoundationRate,
		CommunityRate:  CommunityRate,
		BurnStopSupply: new(uint256.Int),
	}
	addr, _, err := e.Chain.Deploy(Owner, func(state *account.AccountDB, msg *types.Msg) error {
		_, err := ledger.Deploy(state, msg.Target, msg.Caller, g)
		return err
	})
	return addr, err
}

// TokenCall runs fn against the token as caller
func (e *Env) TokenCall(caller common.Address, fn func(tk *ledger.Token, msg *types.Msg) error) (*types.Receipt, error) {
	return e.Chain.Call(caller, e.Token, nil, func(state *account.AccountDB, msg *types.Msg) error {
		tk, err := ledger.Load(state, msg.Target)
		if err != nil {
			return err
		}
		return fn(tk, msg)
	})
}

func (e *Env) Transfer(from, to common.Address, amount *uint256.Int) error {
	_, err := e.TokenCall(from, func(tk *ledger.Token, msg *types.Msg) error {
		_, err := tk.Transfer(msg, to, amount)
		return err
	})
	return err
}

func (e *Env) Approve(owner, spender common.Address, amount *uint256.Int) error {
	_, err := e.TokenCall(owner, func(tk *ledger.Token, msg *types.Msg) error {
		return tk.Approve(msg, spender, amount)
	})
	return err
}

// Balance of addr in the token under test
func (e *Env) Balance(addr common.Address) *uint256.Int {
	return e.BalanceIn(e.Token, addr)
}

func (e *Env) BalanceIn(token, addr common.Address) *uint256.Int {
	ret := new(uint256.Int)
	e.Chain.View(func(state *account.AccountDB, now uint64) error {
		tk, err := ledger.Load(state, token)
		if err != nil {
			return err
		}
		ret = tk.BalanceOf(addr)
		return nil
	})
	return ret
}

func (e *Env) Supply() *uint256.Int {
	return e.Read(func(tk *ledger.Token) *uint256.Int { return tk.TotalSupply() })
}

// Read evaluates fn on the token
func (e *Env) Read(fn func(tk *ledger.Token) *uint256.Int) *uint256.Int {
	ret := new(uint256.Int)
	e.Chain.View(func(state *account.AccountDB, now uint64) error {
		tk, err := ledger.Load(state, e.Token)
		if err != nil {
			return err
		}
		ret = fn(tk)
		return nil
	})
	return ret
}

// NativeBalance is the wei held by addr
func (e *Env) NativeBalance(addr common.Address) *uint256.Int {
	ret := new(uint256.Int)
	e.Chain.View(func(state *account.AccountDB, now uint64) error {
		ret = state.GetBalance(addr)
		return nil
	})
	return ret
}

// Fund credits addr with wei out of thin air
func (e *Env) Fund(addr common.Address, wei *uint256.Int) error {
	_, err := e.Chain.Call(addr, addr, nil, func(state *account.AccountDB, msg *types.Msg) error {
		state.AddBalance(addr, wei)
		return nil
	})
	return err
}
