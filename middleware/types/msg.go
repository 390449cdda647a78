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
	"github.com/diversify/divchain/common"
	"github.com/holiman/uint256"
)

// Msg is the context of one call. Now is read once by the executor and never
// re-read while the call runs.
type Msg struct {
	Caller common.Address
	Target common.Address
	Value  *uint256.Int // native wei moved from Caller to Target before the call body runs
	Now    uint64       // unix seconds
}

// NewMsg creates a call context carrying no value
func NewMsg(caller, target common.Address, now uint64) *Msg {
	return &Msg{Caller: caller, Target: target, Value: new(uint256.Int), Now: now}
}

// WithTarget returns a copy of the context aimed at another contract, used when
// one contract calls into another: the calling contract becomes the caller
func (m *Msg) WithTarget(caller, target common.Address) *Msg {
	return &Msg{Caller: caller, Target: target, Value: new(uint256.Int), Now: m.Now}
}
