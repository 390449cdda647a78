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

// Package contract holds what every hosted contract shares: typed access to its
// slots in the world state, event emission and the owner capability
package contract

import (
	"bytes"
	"fmt"

	"github.com/diversify/divchain/common"
	"github.com/diversify/divchain/middleware/types"
	"github.com/diversify/divchain/storage/account"
	"github.com/holiman/uint256"
	"github.com/vmihailenco/msgpack"
)

// Kinds of contract a Base may be tagged with
const (
	KindToken       = "token"
	KindVault       = "vault"
	KindSeedSale    = "seedsale"
	KindStaking     = "staking"
	KindDistributor = "distributor"
)

var keyKind = []byte("kind")

// Base is a contract living at Addr inside State
type Base struct {
	State *account.AccountDB
	Addr  common.Address
}

func NewBase(state *account.AccountDB, addr common.Address) Base {
	return Base{State: state, Addr: addr}
}

// Key builds a slot key from a prefix and the given addresses
func Key(prefix []byte, addrs ...common.Address) []byte {
	buf := bytes.NewBuffer(common.CopyBytes(prefix))
	for _, a := range addrs {
		buf.Write(a.Bytes())
	}
	return buf.Bytes()
}

// GetU256 returns the amount stored at key, zero if never set
func (b Base) GetU256(key []byte) *uint256.Int {
	return common.BytesToU256(b.State.GetData(b.Addr, key))
}

// SetU256 stores v at key. Zero clears the slot.
func (b Base) SetU256(key []byte, v *uint256.Int) {
	if v.IsZero() {
		b.State.RemoveData(b.Addr, key)
		return
	}
	b.State.SetData(b.Addr, key, common.U256Bytes(v))
}

func (b Base) GetAddress(key []byte) common.Address {
	return common.BytesToAddress(b.State.GetData(b.Addr, key))
}

func (b Base) SetAddress(key []byte, addr common.Address) {
	b.State.SetData(b.Addr, key, addr.Bytes())
}

func (b Base) GetUint64(key []byte) uint64 {
	data := b.State.GetData(b.Addr, key)
	if len(data) == 0 {
		return 0
	}
	return common.ByteToUint64(data)
}

func (b Base) SetUint64(key []byte, v uint64) {
	b.State.SetData(b.Addr, key, common.Uint64ToByte(v))
}

func (b Base) GetString(key []byte) string {
	return string(b.State.GetData(b.Addr, key))
}

func (b Base) SetString(key []byte, s string) {
	b.State.SetData(b.Addr, key, []byte(s))
}

// GetDetail decodes the msgpack record at key into v. It reports false if
// nothing was stored.
func (b Base) GetDetail(key []byte, v interface{}) (bool, error) {
	data := b.State.GetData(b.Addr, key)
	if len(data) == 0 {
		return false, nil
	}
	if err := msgpack.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s of %v: %v", key, b.Addr.AddrPrefixString(), err)
	}
	return true, nil
}

// SetDetail stores v msgpack encoded at key
func (b Base) SetDetail(key []byte, v interface{}) error {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s of %v: %v", key, b.Addr.AddrPrefixString(), err)
	}
	b.State.SetData(b.Addr, key, data)
	return nil
}

// Emit records an event of this contract in the running call
func (b Base) Emit(name string, args ...interface{}) {
	b.State.AddLog(types.NewEvent(b.Addr, name, args...))
}

func (b Base) Kind() string {
	return b.GetString(keyKind)
}

// Init tags a fresh account with its kind and owner. It fails if something is
// already deployed there.
func (b Base) Init(kind string, owner common.Address) error {
	if b.Kind() != "" {
		return fmt.Errorf("%v already hosts a %v", b.Addr.AddrPrefixString(), b.Kind())
	}
	b.State.CreateAccount(b.Addr)
	b.SetString(keyKind, kind)
	b.SetAddress(keyOwner, owner)
	return nil
}

// Expect fails unless a contract of the given kind lives at the address
func (b Base) Expect(kind string) error {
	if k := b.Kind(); k != kind {
		return fmt.Errorf("%w: %v is %q, not %q", ErrWrongKind, b.Addr.AddrPrefixString(), k, kind)
	}
	return nil
}

// Outgoing returns the context of a call this contract makes into target
func (b Base) Outgoing(msg *types.Msg, target common.Address) *types.Msg {
	return msg.WithTarget(b.Addr, target)
}
