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

// Package distributor holds a token allocation, such as the public sale or the
// community rewards, and hands it out on the owner's instruction.
package distributor

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

const EventDistributed = "Distributed"

var (
	ErrZeroToken       = types.NewArgumentError("Token must be set")
	ErrZeroAmount      = types.NewQuantityError("Amount cant be zero")
	ErrConfiguredToken = types.NewArgumentError("You should only use this method to withdraw extraneous tokens.")
)

var keyToken = []byte("token")

type Distributor struct {
	contract.Base
}

func Deploy(state *account.AccountDB, self, owner, token common.Address) (*Distributor, error) {
	if token.IsZero() {
		return nil, ErrZeroToken
	}
	d := &Distributor{Base: contract.NewBase(state, self)}
	if err := d.Init(contract.KindDistributor, owner); err != nil {
		return nil, err
	}
	d.SetAddress(keyToken, token)
	log.LedgerLogger.Infof("distributor %v for token %v", self.AddrPrefixString(), token.AddrPrefixString())
	return d, nil
}

func Load(state *account.AccountDB, addr common.Address) (*Distributor, error) {
	d := &Distributor{Base: contract.NewBase(state, addr)}
	if err := d.Expect(contract.KindDistributor); err != nil {
		return nil, err
	}
	if d.Token().IsZero() {
		return nil, fmt.Errorf("distributor %v has no token", addr.AddrPrefixString())
	}
	return d, nil
}

func (d *Distributor) Token() common.Address {
	return d.GetAddress(keyToken)
}

func (d *Distributor) token() (*ledger.Token, error) {
	return ledger.Load(d.State, d.Token())
}

// Amount is the distributor's balance of its token
func (d *Distributor) Amount() *uint256.Int {
	tk, err := d.token()
	if err != nil {
		return new(uint256.Int)
	}
	return tk.BalanceOf(d.Addr)
}

// Distribute sends amount of the held tokens to to. The recipient gets it net
// of the transfer fees.
func (d *Distributor) Distribute(msg *types.Msg, to common.Address, amount *uint256.Int) (*ledger.Split, error) {
	if err := d.OnlyOwner(msg); err != nil {
		return nil, err
	}
	if amount.IsZero() {
		return nil, ErrZeroAmount
	}
	tk, err := d.token()
	if err != nil {
		return nil, err
	}
	split, err := tk.Transfer(d.Outgoing(msg, d.Token()), to, amount)
	if err != nil {
		return nil, err
	}
	d.Emit(EventDistributed, to, amount)
	log.LedgerLogger.Debugf("distributor %v sent %v to %v", d.Addr.AddrPrefixString(), amount.Dec(), to.AddrPrefixString())
	return split, nil
}

// RetrieveTokens rescues a token other than the distributed one
func (d *Distributor) RetrieveTokens(msg *types.Msg, to, otherToken common.Address) (*uint256.Int, error) {
	if err := d.OnlyOwner(msg); err != nil {
		return nil, err
	}
	if otherToken == d.Token() {
		return nil, ErrConfiguredToken
	}
	return ledger.RetrieveAll(d.State, msg, otherToken, to)
}
