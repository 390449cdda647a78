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
	"math/rand"
	"testing"
	"testing/quick"

	"github.com/diversify/divchain/common"
	"github.com/diversify/divchain/core"
	"github.com/diversify/divchain/middleware/time"
	"github.com/diversify/divchain/middleware/types"
	"github.com/diversify/divchain/params"
	"github.com/diversify/divchain/storage/account"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner      = common.BytesToAddress([]byte{0x01})
	alice      = common.BytesToAddress([]byte{0x02})
	bob        = common.BytesToAddress([]byte{0x03})
	foundation = common.BytesToAddress([]byte{0xf0})
	community  = common.BytesToAddress([]byte{0xc0})
)

func u(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

type tokenEnv struct {
	chain *core.Chain
	token common.Address
}

func testGenesis() *GenesisConfig {
	return &params.Genesis{
		Name:           "Diversify",
		Symbol:         "DIV",
		Holders:        []common.Address{owner, alice},
		Amounts:        []*uint256.Int{u(900000000), u(100000000)},
		Foundation:     foundation,
		Community:      community,
		BurnRate:       100,
		FoundationRate: 25,
		CommunityRate:  100,
		BurnStopSupply: u(900000000),
	}
}

func newTokenEnv(t *testing.T, g *GenesisConfig) *tokenEnv {
	chain := core.NewMemoryChain(time.NewManualTime(1000))
	addr, receipt, err := chain.Deploy(owner, func(state *account.AccountDB, msg *types.Msg) error {
		_, err := Deploy(state, msg.Target, msg.Caller, g)
		return err
	})
	require.NoError(t, err)
	require.Len(t, receipt.EventsByName(EventTransfer), len(g.Holders))
	return &tokenEnv{chain: chain, token: addr}
}

// call runs fn against the token as caller
func (e *tokenEnv) call(caller common.Address, fn func(tk *Token, msg *types.Msg) error) (*types.Receipt, error) {
	return e.chain.Call(caller, e.token, nil, func(state *account.AccountDB, msg *types.Msg) error {
		tk, err := Load(state, msg.Target)
		if err != nil {
			return err
		}
		return fn(tk, msg)
	})
}

func (e *tokenEnv) view(t *testing.T, fn func(tk *Token)) {
	require.NoError(t, e.chain.View(func(state *account.AccountDB, now uint64) error {
		tk, err := Load(state, e.token)
		if err != nil {
			return err
		}
		fn(tk)
		return nil
	}))
}

func (e *tokenEnv) balance(t *testing.T, addr common.Address) uint64 {
	var b uint64
	e.view(t, func(tk *Token) { b = tk.BalanceOf(addr).Uint64() })
	return b
}

func (e *tokenEnv) supply(t *testing.T) uint64 {
	var s uint64
	e.view(t, func(tk *Token) { s = tk.TotalSupply().Uint64() })
	return s
}

func TestDeploy(t *testing.T) {
	env := newTokenEnv(t, testGenesis())
	env.view(t, func(tk *Token) {
		assert.Equal(t, "Diversify", tk.Name())
		assert.Equal(t, "DIV", tk.Symbol())
		assert.Equal(t, uint8(18), tk.Decimals())
		assert.Equal(t, uint64(1000000000), tk.TotalSupply().Uint64())
		assert.Equal(t, uint64(1000000000), tk.InitialSupply().Uint64())
		assert.Equal(t, uint64(900000000), tk.BalanceOf(owner).Uint64())
		assert.Equal(t, owner, tk.Owner())
		cfg, err := tk.FeeConfig()
		require.NoError(t, err)
		assert.Equal(t, uint16(100), cfg.BurnRate)
		assert.Equal(t, foundation, cfg.Foundation)
		assert.Equal(t, uint64(900000000), cfg.BurnStopSupply.Uint64())
	})
	assert.Equal(t, []common.Address{env.token}, env.chain.Contracts("token"))
}

func TestDeploy_Validation(t *testing.T) {
	cases := map[string]struct {
		mutate func(g *GenesisConfig)
		err    error
	}{
		"no holders":     {func(g *GenesisConfig) { g.Holders, g.Amounts = nil, nil }, ErrNoHolders},
		"length":         {func(g *GenesisConfig) { g.Amounts = g.Amounts[:1] }, ErrHolderMismatch},
		"zero holder":    {func(g *GenesisConfig) { g.Holders[1] = common.ZeroAddress }, ErrZeroHolder},
		"zero wallet":    {func(g *GenesisConfig) { g.Community = common.ZeroAddress }, ErrZeroWallet},
		"rates":          {func(g *GenesisConfig) { g.BurnRate = 9900 }, ErrRateTooHigh},
		"burn stop high": {func(g *GenesisConfig) { g.BurnStopSupply = u(1000000001) }, ErrBurnStopTooHigh},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			g := testGenesis()
			c.mutate(g)
			chain := core.NewMemoryChain(time.NewManualTime(1000))
			_, _, err := chain.Deploy(owner, func(state *account.AccountDB, msg *types.Msg) error {
				_, err := Deploy(state, msg.Target, msg.Caller, g)
				return err
			})
			assert.ErrorIs(t, err, c.err)
			assert.Empty(t, chain.Contracts("token"))
		})
	}
}

func TestTransfer_FeeSplit(t *testing.T) {
	env := newTokenEnv(t, testGenesis())

	var split *Split
	receipt, err := env.call(alice, func(tk *Token, msg *types.Msg) (err error) {
		split, err = tk.Transfer(msg, bob, u(1749))
		return
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(17), split.Burn.Uint64())
	assert.Equal(t, uint64(4), split.Foundation.Uint64())
	assert.Equal(t, uint64(17), split.Community.Uint64())
	assert.Equal(t, uint64(1711), split.Received.Uint64())

	assert.Equal(t, uint64(100000000-1749), env.balance(t, alice))
	assert.Equal(t, uint64(1711), env.balance(t, bob))
	assert.Equal(t, uint64(4), env.balance(t, foundation))
	assert.Equal(t, uint64(17), env.balance(t, community))
	assert.Equal(t, uint64(1000000000-17), env.supply(t))

	events := receipt.EventsByName(EventTransfer)
	require.Len(t, events, 4)
	assert.Equal(t, "Transfer(zv"+common.Bytes2Hex(alice.Bytes())+", zv"+common.Bytes2Hex(common.ZeroAddress.Bytes())+", 17)", events[0].String())
	assert.Equal(t, foundation, events[1].Address(1))
	assert.Equal(t, community, events[2].Address(1))
	assert.Equal(t, bob, events[3].Address(1))
	assert.Equal(t, uint64(1711), events[3].Uint(2).Uint64())

	env.view(t, func(tk *Token) {
		assert.Equal(t, uint64(17), tk.AmountBurned().Uint64())
		assert.Equal(t, uint64(4), tk.AmountFounded().Uint64())
		assert.Equal(t, uint64(17), tk.AmountCommunity().Uint64())
	})
}

func TestTransfer_OnlyBurnRate(t *testing.T) {
	g := testGenesis()
	g.FoundationRate, g.CommunityRate = 0, 0
	g.BurnStopSupply = u(0)
	env := newTokenEnv(t, g)

	receipt, err := env.call(owner, func(tk *Token, msg *types.Msg) error {
		_, err := tk.Transfer(msg, bob, u(1749))
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1749-1749/100), env.balance(t, bob))
	assert.Len(t, receipt.EventsByName(EventTransfer), 2, "zero fee shares emit no event")
}

func TestTransfer_Errors(t *testing.T) {
	env := newTokenEnv(t, testGenesis())

	_, err := env.call(bob, func(tk *Token, msg *types.Msg) error {
		_, err := tk.Transfer(msg, alice, u(1))
		return err
	})
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, types.ErrKindQuantity, types.KindOf(err))

	_, err = env.call(alice, func(tk *Token, msg *types.Msg) error {
		_, err := tk.Transfer(msg, common.ZeroAddress, u(1))
		return err
	})
	assert.ErrorIs(t, err, ErrTransferToZero)

	// the first transfer succeeds inside the call, the second fails: nothing persists
	_, err = env.call(alice, func(tk *Token, msg *types.Msg) error {
		if _, err := tk.Transfer(msg, bob, u(1000)); err != nil {
			return err
		}
		_, err := tk.Transfer(msg, bob, u(100000000))
		return err
	})
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, uint64(0), env.balance(t, bob))
	assert.Equal(t, uint64(100000000), env.balance(t, alice))
	assert.Equal(t, uint64(1000000000), env.supply(t))
}

func TestTransfer_Conservation(t *testing.T) {
	env := newTokenEnv(t, testGenesis())
	holders := []common.Address{owner, alice, bob, foundation, community}

	check := func(seed int64) bool {
		r := rand.New(rand.NewSource(seed))
		from := holders[r.Intn(len(holders))]
		to := holders[r.Intn(len(holders))]
		before := env.balance(t, from)
		if before == 0 {
			return true
		}
		amount := uint64(r.Int63n(int64(before))) + 1

		var split *Split
		_, err := env.call(from, func(tk *Token, msg *types.Msg) (err error) {
			split, err = tk.Transfer(msg, to, u(amount))
			return
		})
		if err != nil {
			return false
		}
		parts := new(uint256.Int).Add(split.Burn, split.Foundation)
		parts.Add(parts, split.Community).Add(parts, split.Received)
		if parts.Uint64() != amount {
			return false
		}
		if from != to && from != foundation && from != community && env.balance(t, from)+amount != before {
			return false
		}

		var sum uint64
		for _, h := range holders {
			sum += env.balance(t, h)
		}
		var burned, supply uint64
		env.view(t, func(tk *Token) {
			burned = tk.AmountBurned().Uint64()
			supply = tk.TotalSupply().Uint64()
		})
		return sum == supply && sum+burned == 1000000000 && supply >= 900000000
	}
	assert.NoError(t, quick.Check(check, &quick.Config{MaxCount: 300}))
}

func TestBurn_CapsAtFloor(t *testing.T) {
	env := newTokenEnv(t, testGenesis())

	var burned *uint256.Int
	receipt, err := env.call(owner, func(tk *Token, msg *types.Msg) (err error) {
		burned, err = tk.Burn(msg, u(100000000+3333))
		return
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(100000000), burned.Uint64())
	assert.Equal(t, uint64(900000000-100000000), env.balance(t, owner), "only the burned part is debited")
	assert.Equal(t, uint64(900000000), env.supply(t))
	assert.Len(t, receipt.EventsByName(EventTransfer), 1)

	// at the floor nothing more burns, on either path
	receipt, err = env.call(owner, func(tk *Token, msg *types.Msg) (err error) {
		burned, err = tk.Burn(msg, u(10))
		return
	})
	require.NoError(t, err)
	assert.True(t, burned.IsZero())
	assert.Empty(t, receipt.Events)

	_, err = env.call(alice, func(tk *Token, msg *types.Msg) error {
		split, err := tk.Transfer(msg, bob, u(10000))
		if err == nil {
			assert.True(t, split.Burn.IsZero())
			assert.Equal(t, uint64(10000-25-100), split.Received.Uint64())
		}
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(900000000), env.supply(t))
}

func TestBurn_PartialThroughTransfer(t *testing.T) {
	g := testGenesis()
	g.BurnStopSupply = u(1000000000 - 5)
	env := newTokenEnv(t, g)

	_, err := env.call(alice, func(tk *Token, msg *types.Msg) error {
		split, err := tk.Transfer(msg, bob, u(1749))
		if err == nil {
			assert.Equal(t, uint64(5), split.Burn.Uint64())
			assert.Equal(t, uint64(1749-5-4-17), split.Received.Uint64())
		}
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1000000000-5), env.supply(t))
}

func TestBurn_ExceedsBalance(t *testing.T) {
	env := newTokenEnv(t, testGenesis())
	_, err := env.call(bob, func(tk *Token, msg *types.Msg) error {
		_, err := tk.Burn(msg, u(1))
		return err
	})
	assert.ErrorIs(t, err, ErrBurnExceedsBalance)
}

func TestBurnFrom(t *testing.T) {
	env := newTokenEnv(t, testGenesis())
	_, err := env.call(owner, func(tk *Token, msg *types.Msg) error {
		return tk.Approve(msg, bob, u(200000000))
	})
	require.NoError(t, err)

	_, err = env.call(bob, func(tk *Token, msg *types.Msg) error {
		_, err := tk.BurnFrom(msg, owner, u(200000001))
		return err
	})
	assert.ErrorIs(t, err, ErrBurnExceedsAllowance)

	_, err = env.call(bob, func(tk *Token, msg *types.Msg) error {
		burned, err := tk.BurnFrom(msg, owner, u(150000000))
		if err == nil {
			assert.Equal(t, uint64(100000000), burned.Uint64())
		}
		return err
	})
	require.NoError(t, err)
	env.view(t, func(tk *Token) {
		assert.Equal(t, uint64(100000000), tk.Allowance(owner, bob).Uint64(), "allowance charged with burned amount")
		assert.Equal(t, uint64(800000000), tk.BalanceOf(owner).Uint64())
	})
}

func TestAllowance(t *testing.T) {
	env := newTokenEnv(t, testGenesis())

	receipt, err := env.call(alice, func(tk *Token, msg *types.Msg) error {
		return tk.Approve(msg, bob, u(1000))
	})
	require.NoError(t, err)
	approval := receipt.EventsByName(EventApproval)
	require.Len(t, approval, 1)
	assert.Equal(t, alice, approval[0].Address(0))
	assert.Equal(t, uint64(1000), approval[0].Uint(2).Uint64())

	_, err = env.call(bob, func(tk *Token, msg *types.Msg) error {
		_, err := tk.TransferFrom(msg, alice, bob, u(1001))
		return err
	})
	assert.ErrorIs(t, err, ErrInsufficientAllowance)

	_, err = env.call(bob, func(tk *Token, msg *types.Msg) error {
		_, err := tk.TransferFrom(msg, alice, owner, u(400))
		return err
	})
	require.NoError(t, err)

	_, err = env.call(alice, func(tk *Token, msg *types.Msg) error {
		if err := tk.IncreaseAllowance(msg, bob, u(50)); err != nil {
			return err
		}
		return tk.DecreaseAllowance(msg, bob, u(10))
	})
	require.NoError(t, err)
	env.view(t, func(tk *Token) {
		assert.Equal(t, uint64(640), tk.Allowance(alice, bob).Uint64())
	})

	_, err = env.call(alice, func(tk *Token, msg *types.Msg) error {
		return tk.DecreaseAllowance(msg, bob, u(641))
	})
	assert.ErrorIs(t, err, ErrAllowanceBelowZero)

	_, err = env.call(alice, func(tk *Token, msg *types.Msg) error {
		return tk.Approve(msg, common.ZeroAddress, u(1))
	})
	assert.ErrorIs(t, err, ErrApproveToZero)
}

func TestAllowance_Unlimited(t *testing.T) {
	env := newTokenEnv(t, testGenesis())
	_, err := env.call(alice, func(tk *Token, msg *types.Msg) error {
		if err := tk.Approve(msg, bob, maxAllowance); err != nil {
			return err
		}
		_, err := tk.TransferFrom(msg.WithTarget(bob, msg.Target), alice, bob, u(5000))
		return err
	})
	require.NoError(t, err)
	env.view(t, func(tk *Token) {
		assert.True(t, tk.Allowance(alice, bob).Eq(maxAllowance))
	})
}

func TestSetRates(t *testing.T) {
	env := newTokenEnv(t, testGenesis())

	_, err := env.call(alice, func(tk *Token, msg *types.Msg) error {
		return tk.SetFoundationRate(msg, 50)
	})
	assert.Equal(t, types.ErrKindAuthorization, types.KindOf(err))

	_, err = env.call(owner, func(tk *Token, msg *types.Msg) error {
		return tk.SetCommunityRate(msg, 9876)
	})
	assert.ErrorIs(t, err, ErrRateTooHigh)

	receipt, err := env.call(owner, func(tk *Token, msg *types.Msg) error {
		if err := tk.SetFoundationRate(msg, 50); err != nil {
			return err
		}
		return tk.SetCommunityRate(msg, 9850)
	})
	require.NoError(t, err)
	require.Len(t, receipt.Events, 2)
	assert.Equal(t, []interface{}{uint16(25), uint16(50)}, receipt.EventsByName(EventFoundationRateChanged)[0].Args)
	assert.Equal(t, []interface{}{uint16(100), uint16(9850)}, receipt.EventsByName(EventCommunityRateChanged)[0].Args)
}

func TestSetWallets(t *testing.T) {
	env := newTokenEnv(t, testGenesis())
	newFoundation := common.BytesToAddress([]byte{0xf1})

	_, err := env.call(owner, func(tk *Token, msg *types.Msg) error {
		return tk.SetCommunityWallet(msg, common.ZeroAddress)
	})
	assert.ErrorIs(t, err, ErrZeroWallet)

	receipt, err := env.call(owner, func(tk *Token, msg *types.Msg) error {
		return tk.SetFoundationWallet(msg, newFoundation)
	})
	require.NoError(t, err)
	ev := receipt.EventsByName(EventFoundationWalletChanged)[0]
	assert.Equal(t, foundation, ev.Address(0))
	assert.Equal(t, newFoundation, ev.Address(1))

	_, err = env.call(alice, func(tk *Token, msg *types.Msg) error {
		_, err := tk.Transfer(msg, bob, u(1749))
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(4), env.balance(t, newFoundation))
	assert.Equal(t, uint64(0), env.balance(t, foundation))
}

func TestTransferOwnership(t *testing.T) {
	env := newTokenEnv(t, testGenesis())
	receipt, err := env.call(owner, func(tk *Token, msg *types.Msg) error {
		return tk.TransferOwnership(msg, alice)
	})
	require.NoError(t, err)
	assert.Len(t, receipt.EventsByName("OwnershipTransferred"), 1)

	_, err = env.call(owner, func(tk *Token, msg *types.Msg) error {
		return tk.SetFoundationRate(msg, 1)
	})
	assert.Equal(t, types.ErrKindAuthorization, types.KindOf(err))
}

func TestComputeSplit_Truncates(t *testing.T) {
	cfg := &FeeConfig{BurnRate: 100, FoundationRate: 25, CommunityRate: 100, BurnStopSupply: u(0)}
	s := ComputeSplit(u(99), cfg, u(1000))
	assert.True(t, s.Burn.IsZero())
	assert.True(t, s.Foundation.IsZero())
	assert.True(t, s.Community.IsZero())
	assert.Equal(t, uint64(99), s.Received.Uint64())

	s = ComputeSplit(u(1749), cfg, u(10))
	assert.Equal(t, uint64(10), s.Burn.Uint64())
}

func TestRetrieveAll(t *testing.T) {
	env := newTokenEnv(t, testGenesis())
	holder := common.BytesToAddress([]byte{0x77})
	_, err := env.call(alice, func(tk *Token, msg *types.Msg) error {
		_, err := tk.Transfer(msg, holder, u(10000))
		return err
	})
	require.NoError(t, err)
	held := env.balance(t, holder)

	_, err = env.chain.Call(owner, holder, nil, func(state *account.AccountDB, msg *types.Msg) error {
		amount, err := RetrieveAll(state, msg, env.token, bob)
		if err == nil {
			assert.Equal(t, held, amount.Uint64())
		}
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), env.balance(t, holder))

	_, err = env.chain.Call(owner, holder, nil, func(state *account.AccountDB, msg *types.Msg) error {
		_, err := RetrieveAll(state, msg, bob, owner)
		return err
	})
	assert.Equal(t, types.ErrKindArgument, types.KindOf(err))
}
