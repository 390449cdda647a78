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

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/diversify/divchain/common"
	"github.com/diversify/divchain/log"
	time2 "github.com/diversify/divchain/middleware/time"
	"github.com/diversify/divchain/params"
	"github.com/holiman/uint256"
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	app = kingpin.New("divcli", "Diversify token ledger, vesting vaults and staking pool.")

	configFile = app.Flag("config", "Config file").Default("div.ini").String()
	dataDir    = app.Flag("datadir", "leveldb directory, overrides [chain] database").String()
	network    = app.Flag("network", "registry network, overrides [chain] network").String()
	useNtp     = app.Flag("ntp", "calibrate the clock against ntp servers").Bool()

	genesisCmd = app.Command("genesis", "deploy the token from the [genesis] section")

	balanceCmd  = app.Command("balance", "show the token balance of an address")
	balanceAddr = balanceCmd.Arg("address", "account address").Required().String()

	transferCmd    = app.Command("transfer", "transfer tokens")
	transferFrom   = transferCmd.Flag("from", "sender").Required().String()
	transferTo     = transferCmd.Arg("to", "recipient").Required().String()
	transferAmount = transferCmd.Arg("amount", "amount, e.g. 10div, 300wei or 10").Required().String()

	burnCmd    = app.Command("burn", "burn tokens")
	burnFrom   = burnCmd.Flag("from", "holder").Required().String()
	burnAmount = burnCmd.Arg("amount", "amount").Required().String()

	approveCmd     = app.Command("approve", "set an allowance")
	approveFrom    = approveCmd.Flag("from", "owner").Required().String()
	approveSpender = approveCmd.Arg("spender", "spender").Required().String()
	approveAmount  = approveCmd.Arg("amount", "amount").Required().String()

	infoCmd      = app.Command("info", "show the token configuration and counters")
	contractsCmd = app.Command("contracts", "list the deployed contracts")

	vaultCmd            = app.Command("vault", "vesting vaults")
	vaultDeployCmd      = vaultCmd.Command("deploy", "deploy a vault")
	vaultDeployFrom     = vaultDeployCmd.Flag("from", "owner").Required().String()
	vaultDeployName     = vaultDeployCmd.Arg("name", "registry name").Required().String()
	vaultDeployBenefit  = vaultDeployCmd.Arg("beneficiary", "beneficiary").Required().String()
	vaultDeployDuration = vaultDeployCmd.Arg("duration", "lock duration, e.g. 720h").Required().Duration()
	vaultDeployInterval = vaultDeployCmd.Flag("interval", "release interval, 0 for a lump sum").Default("0s").Duration()
	vaultStartCmd       = vaultCmd.Command("start", "lock the vault's balance")
	vaultStartFrom      = vaultStartCmd.Flag("from", "owner").Required().String()
	vaultStartName      = vaultStartCmd.Arg("name", "registry name").Required().String()
	vaultRetrieveCmd    = vaultCmd.Command("retrieve", "release the available tokens")
	vaultRetrieveFrom   = vaultRetrieveCmd.Flag("from", "owner").Required().String()
	vaultRetrieveName   = vaultRetrieveCmd.Arg("name", "registry name").Required().String()
	vaultStatusCmd      = vaultCmd.Command("status", "show a vault")
	vaultStatusName     = vaultStatusCmd.Arg("name", "registry name").Required().String()

	stakeCmd         = app.Command("stake", "staking pool")
	stakeDeployCmd   = stakeCmd.Command("deploy", "deploy the staking pool")
	stakeDeployFrom  = stakeDeployCmd.Flag("from", "owner").Required().String()
	stakeDeployRate  = stakeDeployCmd.Arg("rate", "annual rate in bps").Required().Uint64()
	stakeFillCmd     = stakeCmd.Command("fill", "add to the reward pool")
	stakeFillFrom    = stakeFillCmd.Flag("from", "owner").Required().String()
	stakeFillAmount  = stakeFillCmd.Arg("amount", "amount").Required().String()
	stakeStakeCmd    = stakeCmd.Command("stake", "stake tokens")
	stakeStakeFrom   = stakeStakeCmd.Flag("from", "staker").Required().String()
	stakeStakeAmount = stakeStakeCmd.Arg("amount", "amount").Required().String()
	stakeCompoundCmd = stakeCmd.Command("compound", "compound the reward")
	stakeCompoundFrm = stakeCompoundCmd.Flag("from", "staker").Required().String()
	stakeWithdrawCmd = stakeCmd.Command("withdraw", "withdraw staked tokens")
	stakeWithdrawFrm = stakeWithdrawCmd.Flag("from", "staker").Required().String()
	stakeWithdrawAmt = stakeWithdrawCmd.Arg("amount", "amount, everything if omitted").Default("0").String()
	stakeRateCmd     = stakeCmd.Command("rate", "change the annual rate")
	stakeRateFrom    = stakeRateCmd.Flag("from", "owner").Required().String()
	stakeRateValue   = stakeRateCmd.Arg("rate", "annual rate in bps").Required().Uint64()
	stakeStatusCmd   = stakeCmd.Command("status", "show the pool")
	stakeStatusAddr  = stakeStatusCmd.Arg("address", "staker to show").String()
)

func address(s string) common.Address {
	if !common.ValidateAddress(s) {
		kingpin.Fatalf("invalid address %q", s)
	}
	return common.StringToAddress(s)
}

func amount(s string) *uint256.Int {
	v, err := params.ParseTokenAmount(s)
	if err != nil {
		kingpin.Fatalf("invalid amount %q: %v", s, err)
	}
	return v
}

func seconds(d time.Duration) uint64 {
	if d < 0 {
		kingpin.Fatalf("negative duration %v", d)
	}
	return uint64(d / time.Second)
}

func main() {
	command, err := app.Parse(os.Args[1:])
	if err != nil {
		kingpin.Fatalf("%s, try --help", err)
	}

	cm, err := common.NewConfINIManager(*configFile)
	if err != nil {
		kingpin.Fatalf("load config %v: %v", *configFile, err)
	}
	cfg := params.LoadChainConfig(cm)
	if *dataDir != "" {
		cfg.Database = *dataDir
	}
	if *network != "" {
		cfg.Network = *network
	}
	cfg.Ntp = cfg.Ntp || *useNtp
	if err := log.Init(logDir(cfg)); err != nil {
		kingpin.Fatalf("init logs: %v", err)
	}

	var clock time2.TimeService = time2.SystemTime{}
	if cfg.Ntp {
		ts, err := time2.NewTimeSync(time2.DefaultNtpServers, 5*time.Second)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ntp: %v, using the local clock\n", err)
		}
		clock = ts
	}

	cli, err := NewDivCli(cfg, clock, os.Stdout)
	if err != nil {
		kingpin.Fatalf("%v", err)
	}
	defer cli.Close()

	switch command {
	case genesisCmd.FullCommand():
		g, e := params.LoadGenesis(cm)
		if e != nil {
			err = e
			break
		}
		err = cli.Genesis(g)
	case balanceCmd.FullCommand():
		err = cli.Balance(address(*balanceAddr))
	case transferCmd.FullCommand():
		err = cli.Transfer(address(*transferFrom), address(*transferTo), amount(*transferAmount))
	case burnCmd.FullCommand():
		err = cli.Burn(address(*burnFrom), amount(*burnAmount))
	case approveCmd.FullCommand():
		err = cli.Approve(address(*approveFrom), address(*approveSpender), amount(*approveAmount))
	case infoCmd.FullCommand():
		err = cli.Info()
	case contractsCmd.FullCommand():
		cli.Contracts()

	case vaultDeployCmd.FullCommand():
		err = cli.VaultDeploy(address(*vaultDeployFrom), *vaultDeployName, address(*vaultDeployBenefit),
			seconds(*vaultDeployDuration), seconds(*vaultDeployInterval))
	case vaultStartCmd.FullCommand():
		err = cli.VaultStart(address(*vaultStartFrom), *vaultStartName)
	case vaultRetrieveCmd.FullCommand():
		err = cli.VaultRetrieve(address(*vaultRetrieveFrom), *vaultRetrieveName)
	case vaultStatusCmd.FullCommand():
		err = cli.VaultStatus(*vaultStatusName)

	case stakeDeployCmd.FullCommand():
		err = cli.StakeDeploy(address(*stakeDeployFrom), *stakeDeployRate)
	case stakeFillCmd.FullCommand():
		err = cli.StakeFill(address(*stakeFillFrom), amount(*stakeFillAmount))
	case stakeStakeCmd.FullCommand():
		err = cli.Stake(address(*stakeStakeFrom), amount(*stakeStakeAmount))
	case stakeCompoundCmd.FullCommand():
		err = cli.StakeCompound(address(*stakeCompoundFrm))
	case stakeWithdrawCmd.FullCommand():
		err = cli.StakeWithdraw(address(*stakeWithdrawFrm), amount(*stakeWithdrawAmt))
	case stakeRateCmd.FullCommand():
		err = cli.StakeRate(address(*stakeRateFrom), *stakeRateValue)
	case stakeStatusCmd.FullCommand():
		var addr common.Address
		if *stakeStatusAddr != "" {
			addr = address(*stakeStatusAddr)
		}
		err = cli.StakeStatus(addr)
	}
	if err != nil {
		log.DefaultLogger.Errorf("%v failed: %v", command, err)
		cli.Close()
		kingpin.Fatalf("%v", err)
	}
}
