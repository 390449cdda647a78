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

// Package common provides common data structures and common utility functions.
package common

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

const HexPrefix = "0x"
const AddrPrefix = "zv"

const (
	AddressLength = 32 //Length of Address( golang.SHA3，256-bit)
	HashLength    = 32 //Length of Hash (golang.SHA3, 256-bit)
)

// ZeroAddress is the burn target and the "unset" marker of every address field
var ZeroAddress = Address{}

func ShortHex(hex string) string {
	if len(hex) < 12 {
		return hex
	}
	return hex[:6] + "-" + hex[len(hex)-6:]
}

// Address data struct
type Address [AddressLength]byte

// BytesToAddress returns the Address imported from the input byte array
func BytesToAddress(b []byte) Address {
	var a Address
	a.SetBytes(b)
	return a
}

// StringToAddress returns the address of the input string assignment.
// Both zv and 0x prefixed strings are accepted
func StringToAddress(s string) Address {
	s = strings.TrimSpace(s)
	if len(s) > len(AddrPrefix) {
		prefix := strings.ToLower(s[0:len(AddrPrefix)])
		if prefix == AddrPrefix || prefix == HexPrefix {
			s = s[len(AddrPrefix):]
		}
		if len(s)%2 == 1 {
			s = "0" + s
		}
	}
	bs, _ := hex.DecodeString(s)
	return BytesToAddress(bs)
}

// ValidateAddress checks the string is a zv prefixed address with full length
func ValidateAddress(s string) bool {
	if len(s) != len(AddrPrefix)+AddressLength*2 {
		return false
	}
	if strings.ToLower(s[:len(AddrPrefix)]) != AddrPrefix {
		return false
	}
	_, err := hex.DecodeString(s[len(AddrPrefix):])
	return err == nil
}

// SetBytes returns the address of the input byte array assignment
func (a *Address) SetBytes(b []byte) {
	if len(b) > len(a) {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b[:])
}

// IsZero reports whether a is the zero address
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// AddrPrefixString returns the hex string representation of a with the zv prefix
func (a Address) AddrPrefixString() string {
	return AddrPrefix + Bytes2Hex(a.Bytes())
}

// Bytes returns the byte array representation of a
func (a Address) Bytes() []byte { return a[:] }

func (a Address) String() string {
	return ShortHex(a.AddrPrefixString())
}

// MarshalText returns the zv prefixed hex representation of a.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.AddrPrefixString()), nil
}

// UnmarshalText parses an address in zv prefixed hex syntax.
func (a *Address) UnmarshalText(input []byte) error {
	s := string(input)
	if !ValidateAddress(s) {
		return fmt.Errorf("invalid address %q", s)
	}
	*a = StringToAddress(s)
	return nil
}

// Hash data struct (256-bits)
type Hash [HashLength]byte

// BytesToHash
func BytesToHash(b []byte) Hash {
	var h Hash
	h.SetBytes(b)
	return h
}

func (h Hash) Bytes() []byte { return h[:] }
func (h Hash) Hex() string   { return ToHex(h[:]) }

// SetBytes sets the hash to the value of b. If b is larger than len(h), 'b' will be cropped (from the left).
func (h *Hash) SetBytes(b []byte) {
	if len(b) > len(h) {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
}

// Keccak256 hashes the concatenation of the given byte slices
func Keccak256(data ...[]byte) Hash {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return BytesToHash(d.Sum(nil))
}

// CreateAddress derives the address of a contract deployed by deployer with the given nonce
func CreateAddress(deployer Address, nonce uint64) Address {
	return BytesToAddress(Keccak256(deployer.Bytes(), Uint64ToByte(nonce)).Bytes())
}
