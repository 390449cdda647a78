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

package params

import (
	"fmt"
	"strings"

	"github.com/diversify/divchain/common"
	"github.com/holiman/uint256"
)

// Genesis is the construction input of a fee-splitting token
type Genesis struct {
	Name   string
	Symbol string
	Owner  common.Address

	Holders []common.Address
	Amounts []*uint256.Int // smallest unit, one per holder

	Foundation common.Address
	Community  common.Address

	BurnRate       uint16
	FoundationRate uint16
	CommunityRate  uint16

	BurnStopSupply *uint256.Int
}

// TotalSupply sums the genesis allocations
func (g *Genesis) TotalSupply() (*uint256.Int, error) {
	total := new(uint256.Int)
	for _, a := range g.Amounts {
		sum, err := common.SafeAdd(total, a)
		if err != nil {
			return nil, err
		}
		total = sum
	}
	return total, nil
}

// LoadGenesis reads section [genesis]. Holders are listed as
// "addr:amount,addr:amount"; an amount without unit is in whole tokens.
func LoadGenesis(cm common.ConfManager) (*Genesis, error) {
	sm := cm.GetSectionManager(genesisSection)

	owner, err := parseAddress("owner", sm.GetString("owner", ""))
	if err != nil {
		return nil, err
	}
	foundation, err := parseAddress("foundation", sm.GetString("foundation", ""))
	if err != nil {
		return nil, err
	}
	community, err := parseAddress("community", sm.GetString("community", ""))
	if err != nil {
		return nil, err
	}
	g := &Genesis{
		Name:       sm.GetString("name", "Diversify"),
		Symbol:     sm.GetString("symbol", "DIV"),
		Owner:      owner,
		Foundation: foundation,
		Community:  community,
	}

	for _, item := range strings.Split(sm.GetString("holders", ""), ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.SplitN(item, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("holder %q: want addr:amount", item)
		}
		addr, err := parseAddress("holder", parts[0])
		if err != nil {
			return nil, err
		}
		amount, err := ParseTokenAmount(parts[1])
		if err != nil {
			return nil, fmt.Errorf("holder %v: %v", parts[0], err)
		}
		g.Holders = append(g.Holders, addr)
		g.Amounts = append(g.Amounts, amount)
	}

	if g.BurnRate, err = parseRate(sm, "burn_rate_bps", 100); err != nil {
		return nil, err
	}
	if g.FoundationRate, err = parseRate(sm, "foundation_rate_bps", 25); err != nil {
		return nil, err
	}
	if g.CommunityRate, err = parseRate(sm, "community_rate_bps", 100); err != nil {
		return nil, err
	}
	if g.BurnStopSupply, err = ParseTokenAmount(sm.GetString("burn_stop_supply", "0")); err != nil {
		return nil, fmt.Errorf("burn_stop_supply: %v", err)
	}
	return g, nil
}

// ParseTokenAmount accepts a coin string ("300wei", "2div") or a bare number of whole tokens
func ParseTokenAmount(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if v, err := uint256.FromDecimal(s); err == nil {
		ret, overflow := new(uint256.Int).MulOverflow(v, uint256.NewInt(common.DIV))
		if overflow {
			return nil, common.ErrOverflow
		}
		return ret, nil
	}
	return common.ParseCoin(s)
}

func parseAddress(field, s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.ValidateAddress(s) {
		return common.ZeroAddress, fmt.Errorf("%v: invalid address %q", field, s)
	}
	return common.StringToAddress(s), nil
}

func parseRate(sm common.SectionConfManager, key string, def int) (uint16, error) {
	v := sm.GetInt(key, def)
	if v < 0 || v > common.BpsDenominator {
		return 0, fmt.Errorf("%v: %v out of range [0, %v]", key, v, common.BpsDenominator)
	}
	return uint16(v), nil
}
