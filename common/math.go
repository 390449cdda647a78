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

	"github.com/holiman/uint256"
)

// BpsDenominator is the divisor of every basis point rate
const BpsDenominator = 10000

// MaxUint16 is the largest basis point value that can be stored
const MaxUint16 = ^uint16(0)

// Big0 is a shared zero, never mutate it
var Big0 = uint256.NewInt(0)

// MulDiv returns x*y/d truncated toward zero. The intermediate product is kept at
// 512 bits, so it only fails if the result itself exceeds 256 bits or d is zero.
func MulDiv(x, y, d *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, fmt.Errorf("division by zero")
	}
	ret, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		return nil, fmt.Errorf("muldiv overflow: %v*%v/%v", x.Dec(), y.Dec(), d.Dec())
	}
	return ret, nil
}

// Bps returns amount*rate/10000 truncated toward zero
func Bps(amount *uint256.Int, rate uint16) *uint256.Int {
	// amount*rate never exceeds 512 bits and the result is at most amount
	ret, _ := new(uint256.Int).MulDivOverflow(amount, uint256.NewInt(uint64(rate)), uint256.NewInt(BpsDenominator))
	return ret
}

// MinU256 returns a copy of the smaller value
func MinU256(a, b *uint256.Int) *uint256.Int {
	if a.Lt(b) {
		return new(uint256.Int).Set(a)
	}
	return new(uint256.Int).Set(b)
}

// SafeAdd returns a+b or an error if it overflows
func SafeAdd(a, b *uint256.Int) (*uint256.Int, error) {
	ret, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, fmt.Errorf("add overflow: %v+%v", a.Dec(), b.Dec())
	}
	return ret, nil
}

// SafeSub returns a-b or an error if b > a
func SafeSub(a, b *uint256.Int) (*uint256.Int, error) {
	ret, underflow := new(uint256.Int).SubOverflow(a, b)
	if underflow {
		return nil, fmt.Errorf("sub underflow: %v-%v", a.Dec(), b.Dec())
	}
	return ret, nil
}

// U256Bytes encodes v as 32 bytes big endian; nil encodes as zero
func U256Bytes(v *uint256.Int) []byte {
	if v == nil {
		v = Big0
	}
	b := v.Bytes32()
	return b[:]
}

// BytesToU256 decodes a big endian value, empty input is zero
func BytesToU256(b []byte) *uint256.Int {
	return new(uint256.Int).SetBytes(b)
}
