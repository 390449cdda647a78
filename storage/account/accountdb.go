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

package account

import (
	"errors"
	"fmt"
	"sort"

	"github.com/diversify/divchain/common"
	"github.com/diversify/divchain/middleware/types"
	"github.com/holiman/uint256"
)

var ErrInsufficientBalance = errors.New("insufficient balance")

type revision struct {
	id           int
	journalIndex int
}

// AccountDB caches the accounts touched since the last commit. Every mutation is
// journaled so any snapshot can be restored exactly.
//
// Reads that hit a broken database are memoized in dbErr and the account is
// treated as empty; the error surfaces from Error and Commit.
type AccountDB struct {
	db *Database

	accountObjects      map[common.Address]*accountObject
	accountObjectsDirty map[common.Address]struct{}

	logs []*types.Event

	dbErr error

	transitions    transition
	validRevisions []revision
	nextRevisionID int
}

// NewAccountDB creates a state on top of the committed content of db
func NewAccountDB(db *Database) *AccountDB {
	return &AccountDB{
		db:                  db,
		accountObjects:      make(map[common.Address]*accountObject),
		accountObjectsDirty: make(map[common.Address]struct{}),
	}
}

// setError remembers the first non-nil error it is called with.
func (adb *AccountDB) setError(err error) {
	if adb.dbErr == nil {
		adb.dbErr = err
	}
}

// Error get the first non-nil error it is called with.
func (adb *AccountDB) Error() error {
	return adb.dbErr
}

func (adb *AccountDB) Database() *Database {
	return adb.db
}

// Exist reports whether the given account address exists in the state.
func (adb *AccountDB) Exist(addr common.Address) bool {
	return adb.getAccountObject(addr) != nil
}

// GetBalance returns a copy of the native balance, zero for unknown accounts
func (adb *AccountDB) GetBalance(addr common.Address) *uint256.Int {
	if obj := adb.getAccountObject(addr); obj != nil {
		return new(uint256.Int).Set(obj.balance)
	}
	return new(uint256.Int)
}

func (adb *AccountDB) GetNonce(addr common.Address) uint64 {
	if obj := adb.getAccountObject(addr); obj != nil {
		return obj.nonce
	}
	return 0
}

// GetData returns the value stored under key, nil when absent
func (adb *AccountDB) GetData(addr common.Address, key []byte) []byte {
	if obj := adb.getAccountObject(addr); obj != nil {
		return common.CopyBytes(obj.getData(string(key)))
	}
	return nil
}

func (adb *AccountDB) AddBalance(addr common.Address, amount *uint256.Int) {
	if amount.IsZero() {
		return
	}
	obj := adb.getOrNewAccountObject(addr)
	adb.setBalance(obj, new(uint256.Int).Add(obj.balance, amount))
}

// SubBalance fails without touching the state when the balance doesn't cover amount
func (adb *AccountDB) SubBalance(addr common.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	obj := adb.getAccountObject(addr)
	if obj == nil || obj.balance.Lt(amount) {
		return ErrInsufficientBalance
	}
	adb.setBalance(obj, new(uint256.Int).Sub(obj.balance, amount))
	return nil
}

func (adb *AccountDB) SetBalance(addr common.Address, amount *uint256.Int) {
	adb.setBalance(adb.getOrNewAccountObject(addr), amount)
}

func (adb *AccountDB) setBalance(obj *accountObject, amount *uint256.Int) {
	adb.transitions = append(adb.transitions, balanceChange{account: obj.address, prev: obj.balance})
	adb.markDirty(obj.address)
	obj.setBalance(amount)
}

// Transfer moves native balance between two accounts
func (adb *AccountDB) Transfer(sender, recipient common.Address, amount *uint256.Int) error {
	if err := adb.SubBalance(sender, amount); err != nil {
		return err
	}
	adb.AddBalance(recipient, amount)
	return nil
}

func (adb *AccountDB) SetNonce(addr common.Address, nonce uint64) {
	obj := adb.getOrNewAccountObject(addr)
	adb.transitions = append(adb.transitions, nonceChange{account: addr, prev: obj.nonce})
	adb.markDirty(addr)
	obj.setNonce(nonce)
}

// SetData stores a copy of value under key. A nil value removes the key.
func (adb *AccountDB) SetData(addr common.Address, key []byte, value []byte) {
	obj := adb.getOrNewAccountObject(addr)
	k := string(key)
	adb.transitions = append(adb.transitions, storageChange{account: addr, key: k, prevalue: obj.getData(k)})
	adb.markDirty(addr)
	obj.setData(k, common.CopyBytes(value))
}

// RemoveData set data nil
func (adb *AccountDB) RemoveData(addr common.Address, key []byte) {
	adb.SetData(addr, key, nil)
}

// CreateAccount makes sure addr exists in the state
func (adb *AccountDB) CreateAccount(addr common.Address) {
	obj := adb.getOrNewAccountObject(addr)
	adb.markDirty(obj.address)
}

// AddLog records an event emitted by the running call
func (adb *AccountDB) AddLog(event *types.Event) {
	adb.transitions = append(adb.transitions, addLogChange{})
	adb.logs = append(adb.logs, event)
}

// Logs returns the events recorded since the last commit
func (adb *AccountDB) Logs() []*types.Event {
	return adb.logs
}

func (adb *AccountDB) markDirty(addr common.Address) {
	if _, ok := adb.accountObjectsDirty[addr]; ok {
		return
	}
	adb.transitions = append(adb.transitions, dirtyChange{account: addr})
	adb.accountObjectsDirty[addr] = struct{}{}
}

func (adb *AccountDB) getAccountObject(addr common.Address) *accountObject {
	if obj, ok := adb.accountObjects[addr]; ok {
		return obj
	}
	acc, err := adb.db.loadAccount(addr)
	if err != nil {
		adb.setError(err)
		return nil
	}
	if acc == nil {
		return nil
	}
	obj := newAccountObject(addr, acc)
	adb.accountObjects[addr] = obj
	return obj
}

func (adb *AccountDB) getOrNewAccountObject(addr common.Address) *accountObject {
	if obj := adb.getAccountObject(addr); obj != nil {
		return obj
	}
	obj := newAccountObject(addr, nil)
	adb.transitions = append(adb.transitions, createObjectChange{account: addr})
	adb.accountObjects[addr] = obj
	return obj
}

// Snapshot returns an identifier for the current revision of the state.
func (adb *AccountDB) Snapshot() int {
	id := adb.nextRevisionID
	adb.nextRevisionID++
	adb.validRevisions = append(adb.validRevisions, revision{id, len(adb.transitions)})
	return id
}

// RevertToSnapshot reverts all state changes made since the given revision.
func (adb *AccountDB) RevertToSnapshot(revid int) {
	idx := sort.Search(len(adb.validRevisions), func(i int) bool {
		return adb.validRevisions[i].id >= revid
	})
	if idx == len(adb.validRevisions) || adb.validRevisions[idx].id != revid {
		panic(fmt.Errorf("revision id %v cannot be reverted", revid))
	}
	snapshot := adb.validRevisions[idx].journalIndex
	for i := len(adb.transitions) - 1; i >= snapshot; i-- {
		adb.transitions[i].undo(adb)
	}
	adb.transitions = adb.transitions[:snapshot]
	adb.validRevisions = adb.validRevisions[:idx]
}

func (adb *AccountDB) clearJournal() {
	adb.transitions = nil
	adb.validRevisions = adb.validRevisions[:0]
	adb.logs = nil
}

// Commit writes the dirty accounts to the database in one batch, then drops
// the journal and the logs. Snapshots taken before can't be reverted anymore.
func (adb *AccountDB) Commit() error {
	if adb.dbErr != nil {
		return adb.dbErr
	}
	addrs := make([]common.Address, 0, len(adb.accountObjectsDirty))
	for addr := range adb.accountObjectsDirty {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return string(addrs[i].Bytes()) < string(addrs[j].Bytes())
	})
	objects := make([]*accountObject, 0, len(addrs))
	for _, addr := range addrs {
		objects = append(objects, adb.accountObjects[addr])
	}
	if err := adb.db.writeAccounts(objects); err != nil {
		return err
	}
	adb.accountObjectsDirty = make(map[common.Address]struct{})
	adb.clearJournal()
	return nil
}
