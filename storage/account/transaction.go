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

package account

import (
	"github.com/diversify/divchain/common"
	"github.com/holiman/uint256"
)

type transitionEntry interface {
	undo(*AccountDB)
}

type transition []transitionEntry

type (
	createObjectChange struct {
		account common.Address
	}
	balanceChange struct {
		account common.Address
		prev    *uint256.Int
	}
	nonceChange struct {
		account common.Address
		prev    uint64
	}
	storageChange struct {
		account  common.Address
		key      string
		prevalue []byte
	}
	addLogChange struct{}
	// dirtyChange is recorded the first time an object is marked dirty
	dirtyChange struct {
		account common.Address
	}
)

func (ch createObjectChange) undo(s *AccountDB) {
	delete(s.accountObjects, ch.account)
}

func (ch balanceChange) undo(s *AccountDB) {
	s.accountObjects[ch.account].setBalance(ch.prev)
}

func (ch nonceChange) undo(s *AccountDB) {
	s.accountObjects[ch.account].setNonce(ch.prev)
}

func (ch storageChange) undo(s *AccountDB) {
	s.accountObjects[ch.account].setData(ch.key, ch.prevalue)
}

func (ch addLogChange) undo(s *AccountDB) {
	s.logs = s.logs[:len(s.logs)-1]
}

func (ch dirtyChange) undo(s *AccountDB) {
	delete(s.accountObjectsDirty, ch.account)
}
