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
	"github.com/diversify/divchain/common"
)

const (
	// SecondsPerYear is the period staking rates are quoted for
	SecondsPerYear = 31536000

	// MinCompoundInterval is the minimum distance between two explicit compounds
	MinCompoundInterval = 600

	// Decimals of the token
	Decimals = common.Decimals
)

const (
	chainSection   = "chain"
	genesisSection = "genesis"
)

// ChainConfig holds where the cli keeps its state
type ChainConfig struct {
	Database string // leveldb directory
	Network  string // key of the contract-address registry
	Registry string // registry json file
	Ntp      bool   // calibrate the clock against ntp servers
	LogDir   string
}

// LoadChainConfig reads section [chain]
func LoadChainConfig(cm common.ConfManager) *ChainConfig {
	sm := cm.GetSectionManager(chainSection)
	return &ChainConfig{
		Database: sm.GetString("database", "d_chain"),
		Network:  sm.GetString("network", "local"),
		Registry: sm.GetString("registry", "contracts.json"),
		Ntp:      sm.GetBool("ntp", false),
		LogDir:   sm.GetString("logs", "logs"),
	}
}
