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

package seedsale

import (
	"testing"

	"github.com/diversify/divchain/common"
	"github.com/diversify/divchain/core/contract"
	"github.com/diversify/divchain/core/coretest"
	"github.com/diversify/divchain/core/ledger"
	"github.com/diversify/divchain/middleware/types"
	"github.com/diversify/divchain/storage/account"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	day           = 24 * 60 * 60
	duration      = 10 * day
	lockingPeriod = 360 * day
	rate          = 200
)

var (
	investor    = coretest.Addr(0x02)
	investor2   = coretest.Addr(0x03)
	beneficiary = coretest.Addr(0x0b)
	saleSupply  = coretest.DIV(100000)
	weiGoal     = coretest.DIV(10)
)

type saleEnv struct {
	*coretest.Env
	sale common.Address
}

func newSaleEnv(t *testing.T) *saleEnv {
	env := &saleEnv{Env: coretest.NewEnv()}
	addr, _, err := env.Chain.Deploy(coretest.Owner, func(state *account.AccountDB, msg *types.Msg) error {
		_, err := Deploy(state, msg.Target, msg.Caller)
		return err
	})
	require.NoError(t, err)
	env.sale = addr
	require.NoError(t, env.DeployToken(
		[]common.Address{coretest.Owner, addr},
		[]*uint256.Int{coretest.DIV(10000000), saleSupply},
	))
	for _, a := range []common.Address{investor, investor2} {
		require.NoError(t, env.Fund(a, coretest.DIV(1000)))
	}
	return env
}

func (e *saleEnv) params() *Params {
	return &Params{
		Beneficiary:    beneficiary,
		StartTimestamp: e.Now() + day,
		Duration:       duration,
		LockingPeriod:  lockingPeriod,
		Rate:           coretest.U(rate),
		WeiGoal:        weiGoal,
		Token:          e.Token,
	}
}

func (e *saleEnv) call(caller common.Address, value *uint256.Int, fn func(s *SeedSale, msg *types.Msg) error) (*types.Receipt, error) {
	return e.Chain.Call(caller, e.sale, value, func(state *account.AccountDB, msg *types.Msg) error {
		s, err := Load(state, msg.Target)
		if err != nil {
			return err
		}
		return fn(s, msg)
	})
}

func (e *saleEnv) view(t *testing.T, fn func(s *SeedSale, now uint64)) {
	require.NoError(t, e.Chain.View(func(state *account.AccountDB, now uint64) error {
		s, err := Load(state, e.sale)
		if err != nil {
			return err
		}
		fn(s, now)
		return nil
	}))
}

func (e *saleEnv) setup(p *Params) (*types.Receipt, error) {
	return e.call(coretest.Owner, nil, func(s *SeedSale, msg *types.Msg) error {
		return s.Setup(msg, p)
	})
}

func (e *saleEnv) buy(buyer common.Address, wei *uint256.Int) (*types.Receipt, error) {
	return e.call(buyer, wei, func(s *SeedSale, msg *types.Msg) error {
		_, err := s.BuyTokens(msg)
		return err
	})
}

func (e *saleEnv) close(caller common.Address) (*types.Receipt, error) {
	return e.call(caller, nil, func(s *SeedSale, msg *types.Msg) error {
		return s.Close(msg)
	})
}

func (e *saleEnv) claimRefund(investor common.Address) (*uint256.Int, error) {
	var amount *uint256.Int
	_, err := e.call(investor, nil, func(s *SeedSale, msg *types.Msg) error {
		var err error
		amount, err = s.ClaimRefund(msg, investor)
		return err
	})
	return amount, err
}

func (e *saleEnv) claimTokens(investor common.Address) (*uint256.Int, error) {
	var amount *uint256.Int
	_, err := e.call(investor, nil, func(s *SeedSale, msg *types.Msg) error {
		var err error
		amount, err = s.RetrieveFreezedTokens(msg)
		return err
	})
	return amount, err
}

func (e *saleEnv) state(t *testing.T) State {
	var st State
	e.view(t, func(s *SeedSale, now uint64) { st = s.StateAt(now) })
	return st
}

func TestSetupValidation(t *testing.T) {
	env := newSaleEnv(t)
	cases := []struct {
		mutate func(p *Params)
		err    error
	}{
		{func(p *Params) { p.Beneficiary = common.ZeroAddress }, ErrZeroBeneficiary},
		{func(p *Params) { p.Duration = 0 }, ErrZeroDuration},
		{func(p *Params) { p.Token = common.ZeroAddress }, ErrZeroToken},
		{func(p *Params) { p.Rate = coretest.U(0) }, ErrZeroRate},
		{func(p *Params) { p.WeiGoal = nil }, ErrZeroGoal},
	}
	for _, c := range cases {
		p := env.params()
		c.mutate(p)
		_, err := env.setup(p)
		assert.ErrorIs(t, err, c.err)
	}

	_, err := env.call(investor, nil, func(s *SeedSale, msg *types.Msg) error {
		return s.Setup(msg, env.params())
	})
	assert.ErrorIs(t, err, contract.ErrNotOwner)
	assert.Equal(t, StateSetup, env.state(t))
}

func TestSetupWithoutTokens(t *testing.T) {
	env := newSaleEnv(t)
	other, err := env.NewToken([]common.Address{coretest.Owner}, []*uint256.Int{coretest.DIV(1)})
	require.NoError(t, err)
	p := env.params()
	p.Token = other
	_, err = env.setup(p)
	assert.ErrorIs(t, err, ErrNoTokenBalance)
}

func TestSetup(t *testing.T) {
	env := newSaleEnv(t)
	p := env.params()
	receipt, err := env.setup(p)
	require.NoError(t, err)

	events := receipt.EventsByName(EventSetup)
	require.Len(t, events, 1)
	args := events[0].Args
	require.Len(t, args, 8)
	assert.Equal(t, p.StartTimestamp, args[0])
	assert.Equal(t, uint64(rate), events[0].Uint(1).Uint64())
	assert.Equal(t, weiGoal, events[0].Uint(2))
	assert.True(t, events[0].Uint(3).IsZero())
	assert.True(t, events[0].Uint(4).IsZero())
	assert.Equal(t, saleSupply, events[0].Uint(5))
	assert.Equal(t, uint64(duration), args[6])
	assert.Equal(t, uint64(lockingPeriod), args[7])

	env.view(t, func(s *SeedSale, now uint64) {
		assert.Equal(t, env.Token, s.Token())
		assert.Equal(t, beneficiary, s.Beneficiary())
		assert.Equal(t, uint64(rate), s.Rate().Uint64())
		assert.Equal(t, saleSupply, s.TotalSupply())
		assert.True(t, s.BalanceOf(investor).IsZero())
		assert.Equal(t, StateReady, s.StateAt(now))
	})

	_, err = env.setup(env.params())
	assert.ErrorIs(t, err, ErrAlreadySetup)
}

func TestBuyTokensLifecycle(t *testing.T) {
	env := newSaleEnv(t)
	_, err := env.buy(investor, coretest.U(500))
	assert.ErrorIs(t, err, ErrNotReady)

	_, err = env.setup(env.params())
	require.NoError(t, err)
	_, err = env.buy(investor, coretest.U(500))
	assert.ErrorIs(t, err, ErrNotStarted)

	env.Advance(day)
	assert.Equal(t, StateActive, env.state(t))
	receipt, err := env.buy(investor, coretest.U(1000))
	require.NoError(t, err)
	purchased := receipt.EventsByName(EventTokenPurchased)
	require.Len(t, purchased, 1)
	assert.Equal(t, investor, purchased[0].Address(0))
	assert.Equal(t, uint64(1000), purchased[0].Uint(1).Uint64())
	assert.Equal(t, uint64(200000), purchased[0].Uint(2).Uint64())
	env.view(t, func(s *SeedSale, now uint64) {
		assert.Equal(t, uint64(200000), s.BalanceOf(investor).Uint64())
		assert.Equal(t, uint64(1000), s.WeiBalanceOf(investor).Uint64())
		assert.Equal(t, uint64(1000), s.RaisedWei().Uint64())
		assert.Equal(t, uint64(200000), s.SoldTokens().Uint64())
	})
	assert.Equal(t, uint64(1000), env.NativeBalance(env.sale).Uint64())

	env.Advance(duration)
	assert.Equal(t, StateEnded, env.state(t))
	_, err = env.buy(investor, coretest.U(5000))
	assert.ErrorIs(t, err, ErrEnded)

	_, err = env.close(coretest.Owner)
	require.NoError(t, err)
	_, err = env.buy(investor, coretest.U(5000))
	assert.ErrorIs(t, err, ErrNotActive)
	assert.Equal(t, uint64(1000), env.NativeBalance(env.sale).Uint64())
}

func TestBuyTokensLimits(t *testing.T) {
	env := newSaleEnv(t)
	p := env.params()
	p.MinWei = coretest.U(300)
	p.MaxWei = coretest.U(1000)
	_, err := env.setup(p)
	require.NoError(t, err)
	env.Advance(day)

	_, err = env.buy(investor, coretest.U(0))
	assert.ErrorIs(t, err, ErrZeroWei)
	_, err = env.buy(investor, coretest.U(200))
	assert.ErrorIs(t, err, ErrBelowMin)
	_, err = env.buy(investor, coretest.U(1001))
	assert.ErrorIs(t, err, ErrAboveMax)

	_, err = env.buy(investor, coretest.U(500))
	require.NoError(t, err)
	_, err = env.buy(investor, coretest.U(500))
	require.NoError(t, err)
	_, err = env.buy(investor, coretest.U(500))
	assert.ErrorIs(t, err, ErrAboveMax)

	env.view(t, func(s *SeedSale, now uint64) {
		assert.Equal(t, uint64(1000*rate), s.BalanceOf(investor).Uint64())
	})
	assert.Equal(t, coretest.DIV(1000), new(uint256.Int).Add(env.NativeBalance(investor), coretest.U(1000)))
}

func TestBuyTokensOverSupply(t *testing.T) {
	env := newSaleEnv(t)
	_, err := env.setup(env.params())
	require.NoError(t, err)
	env.Advance(day)

	_, err = env.buy(investor, coretest.DIV(800))
	assert.ErrorIs(t, err, ErrExceedsSupply)
	assert.Equal(t, coretest.DIV(1000), env.NativeBalance(investor))

	// the whole supply is for sale
	_, err = env.buy(investor, coretest.DIV(500))
	require.NoError(t, err)
	_, err = env.buy(investor2, coretest.U(1))
	assert.ErrorIs(t, err, ErrExceedsSupply)
}

func TestCloseGoalMissed(t *testing.T) {
	env := newSaleEnv(t)
	_, err := env.close(coretest.Owner)
	assert.ErrorIs(t, err, ErrNotOpen)

	_, err = env.setup(env.params())
	require.NoError(t, err)
	_, err = env.close(investor)
	assert.ErrorIs(t, err, contract.ErrNotOwner)
	_, err = env.close(coretest.Owner)
	assert.ErrorIs(t, err, ErrNotEnded)

	env.Advance(day + duration)
	receipt, err := env.close(coretest.Owner)
	require.NoError(t, err)
	assert.Len(t, receipt.EventsByName(EventRefundsEnabled), 1)
	assert.Equal(t, StateRefunding, env.state(t))

	_, err = env.close(coretest.Owner)
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestCloseGoalReached(t *testing.T) {
	env := newSaleEnv(t)
	_, err := env.setup(env.params())
	require.NoError(t, err)
	env.Advance(day)
	_, err = env.buy(investor, weiGoal)
	require.NoError(t, err)
	env.Advance(duration)

	receipt, err := env.close(coretest.Owner)
	require.NoError(t, err)
	unsold := new(uint256.Int).Sub(saleSupply, new(uint256.Int).Mul(weiGoal, coretest.U(rate)))
	closed := receipt.EventsByName(EventClosed)
	require.Len(t, closed, 1)
	assert.Equal(t, weiGoal, closed[0].Uint(0))
	assert.Equal(t, unsold, closed[0].Uint(1))

	assert.Equal(t, StateClosed, env.state(t))
	assert.Equal(t, weiGoal, env.NativeBalance(beneficiary))
	assert.Equal(t, unsold, env.Read(func(tk *ledger.Token) *uint256.Int { return tk.AmountBurned() }))
	assert.Equal(t, new(uint256.Int).Mul(weiGoal, coretest.U(rate)), env.Balance(env.sale))
}

func TestClaimRefund(t *testing.T) {
	env := newSaleEnv(t)
	_, err := env.setup(env.params())
	require.NoError(t, err)
	_, err = env.claimRefund(investor)
	assert.ErrorIs(t, err, ErrRefundDisabled)

	env.Advance(day)
	paid := map[common.Address]*uint256.Int{
		investor:  new(uint256.Int).Div(weiGoal, coretest.U(2)),
		investor2: coretest.U(12345),
	}
	total := new(uint256.Int)
	for a, wei := range paid {
		_, err = env.buy(a, wei)
		require.NoError(t, err)
		total.Add(total, wei)
	}
	_, err = env.buy(investor2, coretest.U(55))
	require.NoError(t, err)
	paid[investor2].AddUint64(paid[investor2], 55)
	total.AddUint64(total, 55)

	env.Advance(duration)
	_, err = env.close(coretest.Owner)
	require.NoError(t, err)
	_, err = env.claimTokens(investor)
	assert.ErrorIs(t, err, ErrNotClosed)

	refunded := new(uint256.Int)
	for a, wei := range paid {
		receipt, err := env.call(coretest.Owner, nil, func(s *SeedSale, msg *types.Msg) error {
			_, err := s.ClaimRefund(msg, a)
			return err
		})
		require.NoError(t, err)
		events := receipt.EventsByName(EventRefunded)
		require.Len(t, events, 1)
		assert.Equal(t, a, events[0].Address(0))
		assert.Equal(t, wei, events[0].Uint(1))
		refunded.Add(refunded, events[0].Uint(1))

		amount, err := env.claimRefund(a)
		require.NoError(t, err)
		assert.True(t, amount.IsZero())
		assert.Equal(t, coretest.DIV(1000), env.NativeBalance(a))
	}
	assert.Equal(t, total, refunded)
	assert.True(t, env.NativeBalance(env.sale).IsZero())
	env.view(t, func(s *SeedSale, now uint64) {
		assert.True(t, s.BalanceOf(investor).IsZero())
		assert.True(t, s.WeiBalanceOf(investor2).IsZero())
	})
}

func TestRetrieveFreezedTokens(t *testing.T) {
	env := newSaleEnv(t)
	_, err := env.setup(env.params())
	require.NoError(t, err)
	_, err = env.claimTokens(investor)
	assert.ErrorIs(t, err, ErrNotClosed)

	env.Advance(day)
	_, err = env.buy(investor, weiGoal)
	require.NoError(t, err)
	env.Advance(duration)
	_, err = env.close(coretest.Owner)
	require.NoError(t, err)

	_, err = env.claimTokens(investor)
	assert.ErrorIs(t, err, ErrLocked)

	env.Advance(lockingPeriod)
	bought := new(uint256.Int).Mul(weiGoal, coretest.U(rate))
	amount, err := env.claimTokens(investor)
	require.NoError(t, err)
	assert.Equal(t, bought, amount)
	assert.Equal(t, coretest.ReceivedAmount(bought), env.Balance(investor))

	amount, err = env.claimTokens(investor)
	require.NoError(t, err)
	assert.True(t, amount.IsZero())
	assert.Equal(t, coretest.ReceivedAmount(bought), env.Balance(investor))

	amount, err = env.claimTokens(investor2)
	require.NoError(t, err)
	assert.True(t, amount.IsZero())
}

func TestRetrieveTokens(t *testing.T) {
	env := newSaleEnv(t)
	alien, err := env.NewToken(
		[]common.Address{env.sale, investor},
		[]*uint256.Int{coretest.DIV(2000000000), coretest.DIV(2000000000)},
	)
	require.NoError(t, err)
	_, err = env.setup(env.params())
	require.NoError(t, err)

	rescue := func(caller, to, token common.Address) error {
		_, err := env.call(caller, nil, func(s *SeedSale, msg *types.Msg) error {
			_, err := s.RetrieveTokens(msg, to, token)
			return err
		})
		return err
	}
	assert.ErrorIs(t, rescue(beneficiary, beneficiary, env.Token), contract.ErrNotOwner)
	assert.ErrorIs(t, rescue(coretest.Owner, beneficiary, env.Token), ErrConfiguredToken)
	assert.ErrorIs(t, rescue(investor, beneficiary, alien), contract.ErrNotOwner)
	assert.ErrorIs(t, rescue(coretest.Owner, investor, alien), ErrNotBeneficiary)

	require.NoError(t, rescue(coretest.Owner, beneficiary, alien))
	assert.True(t, env.BalanceIn(alien, env.sale).IsZero())
	assert.Equal(t, coretest.ReceivedAmount(coretest.DIV(2000000000)), env.BalanceIn(alien, beneficiary))
}

func TestRetrieveETH(t *testing.T) {
	env := newSaleEnv(t)
	_, err := env.setup(env.params())
	require.NoError(t, err)

	retrieve := func(caller, to common.Address) (*uint256.Int, error) {
		var amount *uint256.Int
		_, err := env.call(caller, nil, func(s *SeedSale, msg *types.Msg) error {
			var err error
			amount, err = s.RetrieveETH(msg, to)
			return err
		})
		return amount, err
	}
	_, err = retrieve(beneficiary, beneficiary)
	assert.ErrorIs(t, err, contract.ErrNotOwner)
	_, err = retrieve(coretest.Owner, beneficiary)
	assert.ErrorIs(t, err, ErrOnlyClosed)

	env.Advance(day)
	extra := coretest.U(777)
	_, err = env.buy(investor, new(uint256.Int).Add(weiGoal, extra))
	require.NoError(t, err)
	env.Advance(duration)
	_, err = env.close(coretest.Owner)
	require.NoError(t, err)

	_, err = retrieve(coretest.Owner, investor)
	assert.ErrorIs(t, err, ErrNotBeneficiary)
	amount, err := retrieve(coretest.Owner, beneficiary)
	require.NoError(t, err)
	assert.Equal(t, extra, amount)
	assert.Equal(t, new(uint256.Int).Add(weiGoal, extra), env.NativeBalance(beneficiary))
	assert.True(t, env.NativeBalance(env.sale).IsZero())
}

func TestRetrieveETHWhileRefunding(t *testing.T) {
	env := newSaleEnv(t)
	_, err := env.setup(env.params())
	require.NoError(t, err)
	env.Advance(day + duration)
	_, err = env.close(coretest.Owner)
	require.NoError(t, err)
	_, err = env.call(coretest.Owner, nil, func(s *SeedSale, msg *types.Msg) error {
		_, err := s.RetrieveETH(msg, beneficiary)
		return err
	})
	assert.ErrorIs(t, err, ErrOnlyClosed)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "refunding", StateRefunding.String())
	assert.Equal(t, "state(9)", State(9).String())
}
