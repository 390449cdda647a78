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

package types

import (
	"fmt"
	"strings"

	"github.com/diversify/divchain/common"
	"github.com/holiman/uint256"
)

// Event is a typed log emitted by a contract. Name and the order of Args are part
// of the observable contract and must not change.
type Event struct {
	Contract common.Address
	Name     string
	Args     []interface{}
}

// NewEvent creates an event, copying any *uint256.Int argument so later
// mutation of the caller's values can't leak into the log
func NewEvent(contract common.Address, name string, args ...interface{}) *Event {
	cp := make([]interface{}, len(args))
	for i, a := range args {
		if v, ok := a.(*uint256.Int); ok {
			cp[i] = new(uint256.Int).Set(v)
		} else {
			cp[i] = a
		}
	}
	return &Event{Contract: contract, Name: name, Args: cp}
}

// Uint returns argument i as an amount, nil if it isn't one
func (e *Event) Uint(i int) *uint256.Int {
	if i >= len(e.Args) {
		return nil
	}
	v, _ := e.Args[i].(*uint256.Int)
	return v
}

// Address returns argument i as an address
func (e *Event) Address(i int) common.Address {
	if i >= len(e.Args) {
		return common.ZeroAddress
	}
	v, _ := e.Args[i].(common.Address)
	return v
}

func (e *Event) String() string {
	args := make([]string, 0, len(e.Args))
	for _, a := range e.Args {
		switch v := a.(type) {
		case *uint256.Int:
			args = append(args, v.Dec())
		case common.Address:
			args = append(args, v.AddrPrefixString())
		default:
			args = append(args, fmt.Sprint(v))
		}
	}
	return fmt.Sprintf("%v(%v)", e.Name, strings.Join(args, ", "))
}
