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
	"github.com/diversify/divchain/middleware/types"
)

var (
	ErrTransferFromZero      = types.NewArgumentError("ERC20: transfer from the zero address")
	ErrTransferToZero        = types.NewArgumentError("ERC20: transfer to the zero address")
	ErrApproveToZero         = types.NewArgumentError("ERC20: approve to the zero address")
	ErrInsufficientBalance   = types.NewQuantityError("ERC20: transfer amount exceeds balance")
	ErrInsufficientAllowance = types.NewQuantityError("ERC20: insufficient allowance")
	ErrAllowanceBelowZero    = types.NewQuantityError("ERC20: decreased allowance below zero")
	ErrBurnExceedsBalance    = types.NewQuantityError("ERC20: burn amount exceeds balance")
	ErrBurnExceedsAllowance  = types.NewQuantityError("ERC20: burn amount exceeds allowance")
	ErrRateTooHigh           = types.NewQuantityError("Total fee rate exceeds 10000 bps")
	ErrZeroWallet            = types.NewArgumentError("Wallet cannot be the zero address")

	ErrNoHolders       = types.NewArgumentError("Genesis needs at least one holder")
	ErrHolderMismatch  = types.NewArgumentError("Holders and amounts differ in length")
	ErrZeroHolder      = types.NewArgumentError("Holder cannot be the zero address")
	ErrBurnStopTooHigh = types.NewArgumentError("Burn stop supply exceeds total supply")
)
