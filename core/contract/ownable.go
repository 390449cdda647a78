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

package contract

import (
	"errors"

	"github.com/diversify/divchain/common"
	"github.com/diversify/divchain/middleware/types"
)

var keyOwner = []byte("owner")

var (
	ErrNotOwner  = types.NewAuthError("Ownable: caller is not the owner")
	ErrZeroOwner = types.NewArgumentError("Ownable: new owner is the zero address")
	ErrWrongKind = errors.New("unexpected contract kind")
)

func (b Base) Owner() common.Address {
	return b.GetAddress(keyOwner)
}

// OnlyOwner fails unless the caller owns the contract
func (b Base) OnlyOwner(msg *types.Msg) error {
	if msg.Caller != b.Owner() {
		return ErrNotOwner
	}
	return nil
}

// TransferOwnership hands the owner capability to newOwner
func (b Base) TransferOwnership(msg *types.Msg, newOwner common.Address) error {
	if err := b.OnlyOwner(msg); err != nil {
		return err
	}
	if newOwner.IsZero() {
		return ErrZeroOwner
	}
	prev := b.Owner()
	b.SetAddress(keyOwner, newOwner)
	b.Emit(EventOwnershipTransferred, prev, newOwner)
	return nil
}

const EventOwnershipTransferred = "OwnershipTransferred"
