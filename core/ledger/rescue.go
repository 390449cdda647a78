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

package ledger

import (
	"github.com/diversify/divchain/common"
	"github.com/diversify/divchain/middleware/types"
	"github.com/diversify/divchain/storage/account"
	"github.com/holiman/uint256"
)

// RetrieveAll sends the whole balance of token held by the running contract
// (msg.Target) to to. The gross amount sent is returned; an empty balance sends
// nothing.
func RetrieveAll(state *account.AccountDB, msg *types.Msg, token, to common.Address) (*uint256.Int, error) {
	t, err := Load(state, token)
	if err != nil {
		return nil, types.NewArgumentError(err.Error())
	}
	amount := t.BalanceOf(msg.Target)
	if amount.IsZero() {
		return amount, nil
	}
	if _, err := t.Transfer(msg.WithTarget(msg.Target, token), to, amount); err != nil {
		return nil, err
	}
	return amount, nil
}
