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
	"github.com/holiman/uint256"
)

// FeeConfig is the fee policy applied on every transfer
type FeeConfig struct {
	BurnRate       uint16         `msgpack:"burn"`
	FoundationRate uint16         `msgpack:"foundation"`
	CommunityRate  uint16         `msgpack:"community"`
	Foundation     common.Address `msgpack:"foundationAddr"`
	Community      common.Address `msgpack:"communityAddr"`

	// BurnStopSupply is kept in its own slot
	BurnStopSupply *uint256.Int `msgpack:"-"`
}

// TotalRate is the sum of the three rates in basis points
func (c *FeeConfig) TotalRate() uint32 {
	return uint32(c.BurnRate) + uint32(c.FoundationRate) + uint32(c.CommunityRate)
}

// Split is how one transferred amount is distributed
type Split struct {
	Burn       *uint256.Int
	Foundation *uint256.Int
	Community  *uint256.Int
	Received   *uint256.Int
}

// ComputeSplit applies cfg to amount while totalSupply is the current supply.
// Burning never takes the supply below cfg.BurnStopSupply; the foundation and
// community shares have no floor. Burn+Foundation+Community+Received == amount.
func ComputeSplit(amount *uint256.Int, cfg *FeeConfig, totalSupply *uint256.Int) *Split {
	s := &Split{
		Burn:       capBurn(common.Bps(amount, cfg.BurnRate), totalSupply, cfg.BurnStopSupply),
		Foundation: common.Bps(amount, cfg.FoundationRate),
		Community:  common.Bps(amount, cfg.CommunityRate),
	}
	s.Received = new(uint256.Int).Sub(amount, s.Burn)
	s.Received.Sub(s.Received, s.Foundation)
	s.Received.Sub(s.Received, s.Community)
	return s
}

// capBurn caps a requested burn so the supply stays at or above the floor
func capBurn(requested, totalSupply, burnStop *uint256.Int) *uint256.Int {
	if burnStop == nil {
		burnStop = common.Big0
	}
	if !totalSupply.Gt(burnStop) {
		return new(uint256.Int)
	}
	return common.MinU256(requested, new(uint256.Int).Sub(totalSupply, burnStop))
}
