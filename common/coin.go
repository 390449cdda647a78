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

package common

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/holiman/uint256"
)

const (
	Wei  uint64 = 1
	GWei        = 1000000000
	DIV         = 1000000000000000000
)

// Decimals is the number of fractional digits of one DIV
const Decimals = 18

var (
	ErrEmptyStr   = fmt.Errorf("empty string")
	ErrIllegalStr = fmt.Errorf("illegal coin string")
	ErrOverflow   = fmt.Errorf("coin amount overflows 256 bits")
)

var re = regexp.MustCompile("^([0-9]+)(wei|gwei|div)$")

// ParseCoin parses string like "1749div" or "300wei" to the amount in the smallest unit
func ParseCoin(s string) (*uint256.Int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil, ErrEmptyStr
	}

	arr := re.FindStringSubmatch(s)
	if len(arr) != 3 {
		return nil, ErrIllegalStr
	}
	num, err := uint256.FromDecimal(arr[1])
	if err != nil {
		return nil, ErrIllegalStr
	}
	unit := Wei
	switch arr[2] {
	case "gwei":
		unit = GWei
	case "div":
		unit = DIV
	}
	ret, overflow := new(uint256.Int).MulOverflow(num, uint256.NewInt(unit))
	if overflow {
		return nil, ErrOverflow
	}
	return ret, nil
}

// DIV2Wei converts whole tokens to the smallest unit
func DIV2Wei(v uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(v), uint256.NewInt(DIV))
}

// FormatDIV renders an amount of the smallest unit as a decimal DIV string
func FormatDIV(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	whole, frac := new(uint256.Int).DivMod(v, uint256.NewInt(DIV), new(uint256.Int))
	if frac.IsZero() {
		return whole.Dec()
	}
	fs := frac.Dec()
	fs = strings.Repeat("0", Decimals-len(fs)) + fs
	return whole.Dec() + "." + strings.TrimRight(fs, "0")
}
