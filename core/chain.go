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

package core

import (
	"errors"
	"fmt"
	"sync"

	"github.com/diversify/divchain/common"
	"github.com/diversify/divchain/core/contract"
	"github.com/diversify/divchain/log"
	"github.com/diversify/divchain/middleware/notify"
	"github.com/diversify/divchain/middleware/time"
	"github.com/diversify/divchain/middleware/types"
	"github.com/diversify/divchain/storage/account"
	"github.com/diversify/divchain/storage/tasdb"
	"github.com/holiman/uint256"
	"gopkg.in/fatih/set.v0"
)

// ErrInsufficientFunds is returned when the caller can't pay the value of a call
var ErrInsufficientFunds = types.NewQuantityError("insufficient funds for value transfer")

// clockAccount holds the chain's own bookkeeping
var (
	clockAccount = common.BytesToAddress([]byte("divchain/clock"))
	keyLastNow   = []byte("now")
)

// CallFunc is the body of a call. It reads and writes contract state through
// state; msg carries the caller, the target and the timestamp.
type CallFunc func(state *account.AccountDB, msg *types.Msg) error

// ViewFunc reads the state at now without changing it
type ViewFunc func(state *account.AccountDB, now uint64) error

// Chain executes calls one at a time against a single world state. A call
// either commits all of its effects or none.
type Chain struct {
	state *account.AccountDB
	clock time.TimeService
	bus   *notify.Bus

	contracts map[string]set.Interface // kind -> deployed addresses
	lock      sync.Mutex
}

func NewChain(state *account.AccountDB, clock time.TimeService, bus *notify.Bus) *Chain {
	if bus == nil {
		bus = notify.NewBus()
	}
	return &Chain{
		state:     state,
		clock:     clock,
		bus:       bus,
		contracts: make(map[string]set.Interface),
	}
}

func (c *Chain) Bus() *notify.Bus {
	return c.bus
}

// Call runs fn as caller against target after moving value wei from caller to
// target. The clock is read once, before anything else happens. A panic in fn
// reverts the call like an error does.
func (c *Chain) Call(caller, target common.Address, value *uint256.Int, fn CallFunc) (*types.Receipt, error) {
	receipt, err := c.lockedCall(caller, target, value, fn)
	if err != nil {
		return nil, err
	}
	c.publish(receipt)
	return receipt, nil
}

func (c *Chain) lockedCall(caller, target common.Address, value *uint256.Int, fn CallFunc) (*types.Receipt, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.call(caller, target, value, fn)
}

func (c *Chain) call(caller, target common.Address, value *uint256.Int, fn CallFunc) (receipt *types.Receipt, err error) {
	msg := types.NewMsg(caller, target, c.now())
	if value != nil {
		msg.Value.Set(value)
	}

	snapshot := c.state.Snapshot()
	start := len(c.state.Logs())
	defer func() {
		if r := recover(); r != nil {
			receipt, err = nil, fmt.Errorf("call %v -> %v panicked: %v", caller.AddrPrefixString(), target.AddrPrefixString(), r)
		}
		if err != nil {
			c.state.RevertToSnapshot(snapshot)
			log.CoreLogger.Warnf("call %v -> %v reverted: %v", caller.AddrPrefixString(), target.AddrPrefixString(), err)
		}
	}()

	c.advanceClock(msg.Now)
	err = c.transferValue(msg)
	if err == nil {
		err = fn(c.state, msg)
	}
	if err == nil {
		err = c.state.Error()
	}
	if err != nil {
		return nil, err
	}

	logs := c.state.Logs()[start:]
	receipt = &types.Receipt{
		Caller: caller,
		Target: target,
		Now:    msg.Now,
		Events: make([]*types.Event, len(logs)),
	}
	copy(receipt.Events, logs)
	log.CoreLogger.Debugf("call %v -> %v at %v emitted %v events", caller.AddrPrefixString(), target.AddrPrefixString(), msg.Now, len(logs))
	return receipt, nil
}

// lastNow is the latest timestamp handed to a committed call
func (c *Chain) lastNow() uint64 {
	data := c.state.GetData(clockAccount, keyLastNow)
	if len(data) == 0 {
		return 0
	}
	return common.ByteToUint64(data)
}

// now reads the clock. A clock stepping back, after an ntp resync or between
// sessions, is held at the last timestamp a call has seen.
func (c *Chain) now() uint64 {
	now := c.clock.Now().Uint64()
	if last := c.lastNow(); now < last {
		log.CoreLogger.Warnf("clock went back from %v to %v, using %v", last, now, last)
		return last
	}
	return now
}

func (c *Chain) advanceClock(now uint64) {
	if now > c.lastNow() {
		c.state.SetData(clockAccount, keyLastNow, common.Uint64ToByte(now))
	}
}

func (c *Chain) transferValue(msg *types.Msg) error {
	if msg.Value.IsZero() {
		return nil
	}
	if err := c.state.Transfer(msg.Caller, msg.Target, msg.Value); err != nil {
		if errors.Is(err, account.ErrInsufficientBalance) {
			return ErrInsufficientFunds
		}
		return err
	}
	return nil
}

func (c *Chain) publish(receipt *types.Receipt) {
	for _, ev := range receipt.Events {
		c.bus.PublishWithRecover(ev.Name, &notify.EventMessage{Event: ev, Now: receipt.Now})
	}
}

// Deploy creates a contract of deployer. The address derives from the
// deployer's nonce, which is bumped. fn constructs the contract at msg.Target.
func (c *Chain) Deploy(deployer common.Address, fn CallFunc) (common.Address, *types.Receipt, error) {
	addr, receipt, err := c.lockedDeploy(deployer, fn)
	if err != nil {
		return common.ZeroAddress, nil, err
	}
	c.publish(receipt)
	return addr, receipt, nil
}

func (c *Chain) lockedDeploy(deployer common.Address, fn CallFunc) (common.Address, *types.Receipt, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	nonce := c.state.GetNonce(deployer)
	addr := common.CreateAddress(deployer, nonce)
	receipt, err := c.call(deployer, addr, nil, func(state *account.AccountDB, msg *types.Msg) error {
		if state.Exist(addr) && contract.NewBase(state, addr).Kind() != "" {
			return fmt.Errorf("contract address %v already in use", addr.AddrPrefixString())
		}
		state.SetNonce(deployer, nonce+1)
		return fn(state, msg)
	})
	if err != nil {
		return common.ZeroAddress, nil, err
	}
	c.register(addr)
	log.CoreLogger.Infof("%v deployed %v at %v", deployer.AddrPrefixString(), contract.NewBase(c.state, addr).Kind(), addr.AddrPrefixString())
	return addr, receipt, nil
}

func (c *Chain) register(addr common.Address) {
	kind := contract.NewBase(c.state, addr).Kind()
	s, ok := c.contracts[kind]
	if !ok {
		s = set.New(set.ThreadSafe)
		c.contracts[kind] = s
	}
	s.Add(addr)
}

// Contracts lists the addresses of the given kind deployed through this chain
func (c *Chain) Contracts(kind string) []common.Address {
	c.lock.Lock()
	defer c.lock.Unlock()

	s, ok := c.contracts[kind]
	if !ok {
		return nil
	}
	ret := make([]common.Address, 0, s.Size())
	for _, v := range s.List() {
		ret = append(ret, v.(common.Address))
	}
	return ret
}

// NewMemoryChain creates a chain over a fresh in-memory database
func NewMemoryChain(clock time.TimeService) *Chain {
	return NewChain(account.NewAccountDB(account.NewDatabase(tasdb.NewMemDatabase())), clock, nil)
}

// Track registers an address deployed in an earlier session
func (c *Chain) Track(addr common.Address) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if contract.NewBase(c.state, addr).Kind() != "" {
		c.register(addr)
	}
}

// View runs fn under the chain lock at the current time. Changes made by fn
// are discarded.
func (c *Chain) View(fn ViewFunc) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	snapshot := c.state.Snapshot()
	defer c.state.RevertToSnapshot(snapshot)
	return fn(c.state, c.now())
}

// Commit persists the state reached by the committed calls
func (c *Chain) Commit() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if err := c.state.Commit(); err != nil {
		return err
	}
	log.CoreLogger.Infof("state committed")
	return nil
}
