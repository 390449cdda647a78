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
	"io"
	"path/filepath"
	"strconv"

	"github.com/diversify/divchain/common"
	"github.com/diversify/divchain/core"
	"github.com/diversify/divchain/core/contract"
	"github.com/diversify/divchain/core/ledger"
	"github.com/diversify/divchain/core/staking"
	"github.com/diversify/divchain/core/vault"
	"github.com/diversify/divchain/middleware/notify"
	"github.com/diversify/divchain/middleware/time"
	"github.com/diversify/divchain/middleware/types"
	"github.com/diversify/divchain/params"
	"github.com/diversify/divchain/storage/account"
	"github.com/diversify/divchain/storage/registry"
	"github.com/diversify/divchain/storage/tasdb"
	"github.com/holiman/uint256"
)

const (
	tokenName   = "token"
	stakingName = "staking"
	vaultPrefix = "vault-"
)

// events printed after every command
var shownEvents = []string{
	ledger.EventTransfer,
	ledger.EventApproval,
	ledger.EventFoundationRateChanged,
	ledger.EventCommunityRateChanged,
	vault.EventStarted,
	vault.EventTokensReleased,
	staking.EventContractFilled,
	staking.EventRateChanged,
	staking.EventTokensStaked,
	staking.EventCompounded,
	staking.EventTokensWithdrawn,
}

// DivCli runs commands against a chain persisted in leveldb
type DivCli struct {
	cfg   *params.ChainConfig
	db    *tasdb.LDBDatabase
	chain *core.Chain
	reg   *registry.Registry
	out   io.Writer
}

// NewDivCli opens the database and the registry of cfg. Every network keeps its
// own state in the database; contracts recorded in the registry for cfg.Network
// are tracked by the chain.
func NewDivCli(cfg *params.ChainConfig, clock time.TimeService, out io.Writer) (*DivCli, error) {
	db, err := tasdb.NewLDBDatabase(cfg.Database, nil)
	if err != nil {
		return nil, fmt.Errorf("open database %v: %v", cfg.Database, err)
	}
	reg, err := registry.Load(cfg.Registry)
	if err != nil {
		db.Close()
		return nil, err
	}
	cli := &DivCli{
		cfg:   cfg,
		db:    db,
		chain: core.NewChain(account.NewAccountDB(account.NewDatabase(networkDB(db, cfg.Network))), clock, nil),
		reg:   reg,
		out:   out,
	}
	for _, name := range reg.Contracts(cfg.Network) {
		if addr, ok := reg.Address(cfg.Network, name); ok {
			cli.chain.Track(addr)
		}
	}
	for _, name := range shownEvents {
		cli.chain.Bus().Subscribe(name, cli.showEvent)
	}
	return cli, nil
}

// networkDB keeps the state of each network under its own key prefix
func networkDB(db tasdb.Database, network string) tasdb.Database {
	return tasdb.NewPrefixedDatabase(db, network+"/")
}

func (cli *DivCli) showEvent(m notify.Message) {
	if ev := notify.AsEvent(m); ev != nil {
		fmt.Fprintf(cli.out, "  event %v\n", ev)
	}
}

func (cli *DivCli) Close() {
	cli.db.Close()
}

// commit persists the state after a successful command
func (cli *DivCli) commit(err error) error {
	if err != nil {
		return err
	}
	return cli.chain.Commit()
}

func (cli *DivCli) lookup(name string) (common.Address, error) {
	addr, ok := cli.reg.Address(cli.cfg.Network, name)
	if !ok {
		return common.ZeroAddress, fmt.Errorf("%v is not deployed on %v", name, cli.cfg.Network)
	}
	return addr, nil
}

// unused fails if name is already recorded for the network
func (cli *DivCli) unused(name string) error {
	if addr, ok := cli.reg.Address(cli.cfg.Network, name); ok {
		return fmt.Errorf("%v already deployed on %v at %v", name, cli.cfg.Network, addr.AddrPrefixString())
	}
	return nil
}

func (cli *DivCli) record(name string, addr, owner common.Address, args map[string]string) error {
	return cli.reg.Save(cli.cfg.Network, name, &registry.Entry{
		Address: addr.AddrPrefixString(),
		Owner:   owner.AddrPrefixString(),
		Args:    args,
	})
}

// Genesis deploys the token described by g
func (cli *DivCli) Genesis(g *params.Genesis) error {
	if err := cli.unused(tokenName); err != nil {
		return err
	}
	addr, _, err := cli.chain.Deploy(g.Owner, func(state *account.AccountDB, msg *types.Msg) error {
		_, err := ledger.Deploy(state, msg.Target, msg.Caller, g)
		return err
	})
	if err := cli.commit(err); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "token %v deployed at %v\n", g.Symbol, addr.AddrPrefixString())
	return cli.record(tokenName, addr, g.Owner, map[string]string{"name": g.Name, "symbol": g.Symbol})
}

func (cli *DivCli) tokenCall(from common.Address, fn func(tk *ledger.Token, msg *types.Msg) error) error {
	addr, err := cli.lookup(tokenName)
	if err != nil {
		return err
	}
	_, err = cli.chain.Call(from, addr, nil, func(state *account.AccountDB, msg *types.Msg) error {
		tk, err := ledger.Load(state, msg.Target)
		if err != nil {
			return err
		}
		return fn(tk, msg)
	})
	return cli.commit(err)
}

func (cli *DivCli) tokenView(fn func(tk *ledger.Token, now uint64) error) error {
	addr, err := cli.lookup(tokenName)
	if err != nil {
		return err
	}
	return cli.chain.View(func(state *account.AccountDB, now uint64) error {
		tk, err := ledger.Load(state, addr)
		if err != nil {
			return err
		}
		return fn(tk, now)
	})
}

func (cli *DivCli) Balance(addr common.Address) error {
	return cli.tokenView(func(tk *ledger.Token, now uint64) error {
		fmt.Fprintf(cli.out, "%v %v\n", common.FormatDIV(tk.BalanceOf(addr)), tk.Symbol())
		return nil
	})
}

func (cli *DivCli) Transfer(from, to common.Address, amount *uint256.Int) error {
	return cli.tokenCall(from, func(tk *ledger.Token, msg *types.Msg) error {
		split, err := tk.Transfer(msg, to, amount)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "received %v, burned %v, foundation %v, community %v\n",
			common.FormatDIV(split.Received), common.FormatDIV(split.Burn), common.FormatDIV(split.Foundation), common.FormatDIV(split.Community))
		return nil
	})
}

func (cli *DivCli) Burn(from common.Address, amount *uint256.Int) error {
	return cli.tokenCall(from, func(tk *ledger.Token, msg *types.Msg) error {
		burned, err := tk.Burn(msg, amount)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "burned %v\n", common.FormatDIV(burned))
		return nil
	})
}

func (cli *DivCli) Approve(from, spender common.Address, amount *uint256.Int) error {
	return cli.tokenCall(from, func(tk *ledger.Token, msg *types.Msg) error {
		return tk.Approve(msg, spender, amount)
	})
}

func (cli *DivCli) Info() error {
	return cli.tokenView(func(tk *ledger.Token, now uint64) error {
		cfg, err := tk.FeeConfig()
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "name:         %v (%v)\n", tk.Name(), tk.Symbol())
		fmt.Fprintf(cli.out, "owner:        %v\n", tk.Owner().AddrPrefixString())
		fmt.Fprintf(cli.out, "supply:       %v of %v\n", common.FormatDIV(tk.TotalSupply()), common.FormatDIV(tk.InitialSupply()))
		fmt.Fprintf(cli.out, "burn stop:    %v\n", common.FormatDIV(tk.BurnStopSupply()))
		fmt.Fprintf(cli.out, "burned:       %v\n", common.FormatDIV(tk.AmountBurned()))
		fmt.Fprintf(cli.out, "foundation:   %v bps to %v, %v so far\n", cfg.FoundationRate, cfg.Foundation.AddrPrefixString(), common.FormatDIV(tk.AmountFounded()))
		fmt.Fprintf(cli.out, "community:    %v bps to %v, %v so far\n", cfg.CommunityRate, cfg.Community.AddrPrefixString(), common.FormatDIV(tk.AmountCommunity()))
		fmt.Fprintf(cli.out, "burn rate:    %v bps\n", cfg.BurnRate)
		return nil
	})
}

// VaultDeploy deploys a vault registered as name. An interval of 0 makes a
// lump-sum vault.
func (cli *DivCli) VaultDeploy(from common.Address, name string, beneficiary common.Address, duration, interval uint64) error {
	if err := cli.unused(vaultPrefix + name); err != nil {
		return err
	}
	addr, _, err := cli.chain.Deploy(from, func(state *account.AccountDB, msg *types.Msg) error {
		_, err := vault.Deploy(state, msg.Target, msg.Caller, beneficiary, duration, interval)
		return err
	})
	if err := cli.commit(err); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "vault %v deployed at %v\n", name, addr.AddrPrefixString())
	return cli.record(vaultPrefix+name, addr, from, map[string]string{
		"beneficiary": beneficiary.AddrPrefixString(),
		"duration":    strconv.FormatUint(duration, 10),
		"interval":    strconv.FormatUint(interval, 10),
	})
}

func (cli *DivCli) vaultCall(from common.Address, name string, fn func(v *vault.Vault, msg *types.Msg) error) error {
	addr, err := cli.lookup(vaultPrefix + name)
	if err != nil {
		return err
	}
	_, err = cli.chain.Call(from, addr, nil, func(state *account.AccountDB, msg *types.Msg) error {
		v, err := vault.Load(state, msg.Target)
		if err != nil {
			return err
		}
		return fn(v, msg)
	})
	return cli.commit(err)
}

func (cli *DivCli) VaultStart(from common.Address, name string) error {
	token, err := cli.lookup(tokenName)
	if err != nil {
		return err
	}
	return cli.vaultCall(from, name, func(v *vault.Vault, msg *types.Msg) error {
		return v.Start(msg, token)
	})
}

func (cli *DivCli) VaultRetrieve(from common.Address, name string) error {
	return cli.vaultCall(from, name, func(v *vault.Vault, msg *types.Msg) error {
		amount, err := v.RetrieveLockedTokens(msg)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "released %v\n", common.FormatDIV(amount))
		return nil
	})
}

func (cli *DivCli) VaultStatus(name string) error {
	addr, err := cli.lookup(vaultPrefix + name)
	if err != nil {
		return err
	}
	return cli.chain.View(func(state *account.AccountDB, now uint64) error {
		v, err := vault.Load(state, addr)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "beneficiary:  %v\n", v.Beneficiary().AddrPrefixString())
		fmt.Fprintf(cli.out, "schedule:     %vs every %vs\n", v.Duration(), v.Interval())
		if !v.Started() {
			fmt.Fprintln(cli.out, "not started")
			return nil
		}
		fmt.Fprintf(cli.out, "started:      %v\n", time.Int64ToTimeStamp(int64(v.StartTimestamp())))
		fmt.Fprintf(cli.out, "locked:       %v\n", common.FormatDIV(v.StartBalance()))
		fmt.Fprintf(cli.out, "released:     %v\n", common.FormatDIV(v.RetrievedTokens()))
		fmt.Fprintf(cli.out, "available:    %v\n", common.FormatDIV(v.AvailableAmount(now)))
		return nil
	})
}

// StakeDeploy deploys the staking pool of the token
func (cli *DivCli) StakeDeploy(from common.Address, rate uint64) error {
	if err := cli.unused(stakingName); err != nil {
		return err
	}
	token, err := cli.lookup(tokenName)
	if err != nil {
		return err
	}
	addr, _, err := cli.chain.Deploy(from, func(state *account.AccountDB, msg *types.Msg) error {
		_, err := staking.Deploy(state, msg.Target, msg.Caller, token, rate, msg.Now)
		return err
	})
	if err := cli.commit(err); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "staking deployed at %v\n", addr.AddrPrefixString())
	return cli.record(stakingName, addr, from, map[string]string{"rate": strconv.FormatUint(rate, 10)})
}

func (cli *DivCli) stakingCall(from common.Address, fn func(s *staking.Staking, msg *types.Msg) error) error {
	addr, err := cli.lookup(stakingName)
	if err != nil {
		return err
	}
	_, err = cli.chain.Call(from, addr, nil, func(state *account.AccountDB, msg *types.Msg) error {
		s, err := staking.Load(state, msg.Target)
		if err != nil {
			return err
		}
		return fn(s, msg)
	})
	return cli.commit(err)
}

// stakingApproved approves the pool for amount and runs fn, all in one commit
func (cli *DivCli) stakingApproved(from common.Address, amount *uint256.Int, fn func(s *staking.Staking, msg *types.Msg) error) error {
	pool, err := cli.lookup(stakingName)
	if err != nil {
		return err
	}
	token, err := cli.lookup(tokenName)
	if err != nil {
		return err
	}
	_, err = cli.chain.Call(from, token, nil, func(state *account.AccountDB, msg *types.Msg) error {
		tk, err := ledger.Load(state, token)
		if err != nil {
			return err
		}
		return tk.IncreaseAllowance(msg, pool, amount)
	})
	if err != nil {
		return err
	}
	return cli.stakingCall(from, fn)
}

func (cli *DivCli) StakeFill(from common.Address, amount *uint256.Int) error {
	return cli.stakingApproved(from, amount, func(s *staking.Staking, msg *types.Msg) error {
		net, err := s.FillContract(msg, amount)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "reward pool +%v\n", common.FormatDIV(net))
		return nil
	})
}

func (cli *DivCli) Stake(from common.Address, amount *uint256.Int) error {
	return cli.stakingApproved(from, amount, func(s *staking.Staking, msg *types.Msg) error {
		net, err := s.StakeTokens(msg, amount)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "staked %v\n", common.FormatDIV(net))
		return nil
	})
}

func (cli *DivCli) StakeCompound(from common.Address) error {
	return cli.stakingCall(from, func(s *staking.Staking, msg *types.Msg) error {
		reward, err := s.Compound(msg)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "compounded %v\n", common.FormatDIV(reward))
		return nil
	})
}

func (cli *DivCli) StakeWithdraw(from common.Address, amount *uint256.Int) error {
	return cli.stakingCall(from, func(s *staking.Staking, msg *types.Msg) error {
		withdrawn, err := s.WithdrawTokens(msg, amount)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "withdrew %v\n", common.FormatDIV(withdrawn))
		return nil
	})
}

func (cli *DivCli) StakeRate(from common.Address, rate uint64) error {
	return cli.stakingCall(from, func(s *staking.Staking, msg *types.Msg) error {
		return s.ChangeRate(msg, rate)
	})
}

func (cli *DivCli) StakeStatus(addr common.Address) error {
	pool, err := cli.lookup(stakingName)
	if err != nil {
		return err
	}
	return cli.chain.View(func(state *account.AccountDB, now uint64) error {
		s, err := staking.Load(state, pool)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "reward pool:  %v\n", common.FormatDIV(s.TotalSupplyReward()))
		fmt.Fprintf(cli.out, "total staked: %v\n", common.FormatDIV(s.TotalStakedTokens()))
		ts, vs := s.RateTimestamps(), s.RateValues()
		for i := range ts {
			fmt.Fprintf(cli.out, "rate:         %v bps since %v\n", vs[i], time.Int64ToTimeStamp(int64(ts[i])))
		}
		if addr.IsZero() {
			return nil
		}
		fmt.Fprintf(cli.out, "staked:       %v\n", common.FormatDIV(s.StakedAmount(addr)))
		fmt.Fprintf(cli.out, "reward:       %v\n", common.FormatDIV(s.RewardAmount(addr, now)))
		return nil
	})
}

// Contracts lists what the chain knows about, per kind
func (cli *DivCli) Contracts() {
	for _, kind := range []string{contract.KindToken, contract.KindVault, contract.KindStaking} {
		for _, addr := range cli.chain.Contracts(kind) {
			fmt.Fprintf(cli.out, "%-9v %v\n", kind, addr.AddrPrefixString())
		}
	}
}

// logDir resolves the log directory against the database directory
func logDir(cfg *params.ChainConfig) string {
	if filepath.IsAbs(cfg.LogDir) {
		return cfg.LogDir
	}
	return filepath.Join(filepath.Dir(cfg.Database), cfg.LogDir)
}
