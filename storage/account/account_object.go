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

/*
	Package account is the journaled world state every contract call reads and
	writes: native balances, nonces, per-account key/value data and event logs
*/
package account

import (
	"fmt"
	"sort"

	"github.com/diversify/divchain/common"
	"github.com/holiman/uint256"
)

type Storage map[string][]byte

func (s Storage) String() (str string) {
	keys := make([]string, 0, len(s))
	for key := range s {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		str += fmt.Sprintf("%X : %X\n", key, s[key])
	}
	return
}

func (s Storage) Copy() Storage {
	cpy := make(Storage, len(s))
	for key, value := range s {
		cpy[key] = common.CopyBytes(value)
	}
	return cpy
}

// Account is the persisted representation of an account
type Account struct {
	Nonce   uint64  `msgpack:"nonce"`
	Balance []byte  `msgpack:"balance"`
	Data    Storage `msgpack:"data"`
}

func (a *Account) copy() *Account {
	return &Account{Nonce: a.Nonce, Balance: common.CopyBytes(a.Balance), Data: a.Data.Copy()}
}

// accountObject represents an account which is being modified.
type accountObject struct {
	address common.Address
	nonce   uint64
	balance *uint256.Int
	data    Storage
}

func newAccountObject(address common.Address, acc *Account) *accountObject {
	ao := &accountObject{
		address: address,
		balance: new(uint256.Int),
		data:    make(Storage),
	}
	if acc != nil {
		ao.nonce = acc.Nonce
		ao.balance.SetBytes(acc.Balance)
		if acc.Data != nil {
			ao.data = acc.Data.Copy()
		}
	}
	return ao
}

// empty returns whether the account holds nothing worth persisting
func (ao *accountObject) empty() bool {
	return ao.nonce == 0 && ao.balance.IsZero() && len(ao.data) == 0
}

func (ao *accountObject) toAccount() *Account {
	return &Account{Nonce: ao.nonce, Balance: common.U256Bytes(ao.balance), Data: ao.data.Copy()}
}

func (ao *accountObject) setBalance(amount *uint256.Int) {
	ao.balance = new(uint256.Int).Set(amount)
}

func (ao *accountObject) setNonce(nonce uint64) {
	ao.nonce = nonce
}

func (ao *accountObject) setData(key string, value []byte) {
	if value == nil {
		delete(ao.data, key)
		return
	}
	ao.data[key] = value
}

func (ao *accountObject) getData(key string) []byte {
	return ao.data[key]
}
