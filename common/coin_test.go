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
	"testing"

	"github.com/holiman/uint256"
)

func runParseCoin(s string, expect *uint256.Int, t *testing.T) {
	v, err := ParseCoin(s)
	if err != nil {
		t.Fatal(err)
	}
	if !v.Eq(expect) {
		t.Errorf("parse coin error,input %v, expect %v, got %v", s, expect, v)
	}
}

func TestParseCoin_Correct(t *testing.T) {
	runParseCoin("232wei", uint256.NewInt(232), t)
	runParseCoin("232WEI", uint256.NewInt(232), t)
	runParseCoin("232gwei", uint256.NewInt(232000000000), t)
	runParseCoin("1749div", DIV2Wei(1749), t)
	runParseCoin(" 1div ", uint256.NewInt(DIV), t)
}

func runParseCoinWrong(s string, t *testing.T) {
	_, err := ParseCoin(s)
	if err == nil {
		t.Fatalf("parse error string error: %v", s)
	}
}

func TestParseCoin_Wrong(t *testing.T) {
	runParseCoinWrong("232w", t)
	runParseCoinWrong("div", t)
	runParseCoinWrong("", t)
	runParseCoinWrong("232", t)
	runParseCoinWrong("232 div", t)
	runParseCoinWrong("-1div", t)
}

func TestFormatDIV(t *testing.T) {
	if s := FormatDIV(DIV2Wei(20000)); s != "20000" {
		t.Errorf("expect 20000, got %v", s)
	}
	v := new(uint256.Int).Add(DIV2Wei(3), uint256.NewInt(250000000000000000))
	if s := FormatDIV(v); s != "3.25" {
		t.Errorf("expect 3.25, got %v", s)
	}
	if s := FormatDIV(uint256.NewInt(1)); s != "0.000000000000000001" {
		t.Errorf("expect one wei, got %v", s)
	}
}
