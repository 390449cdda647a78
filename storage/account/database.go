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
	"fmt"

	"github.com/diversify/divchain/common"
	"github.com/diversify/divchain/log"
	"github.com/diversify/divchain/storage/tasdb"
	lru "github.com/hashicorp/golang-lru"
	"github.com/vmihailenco/msgpack"
)

const accountCacheSize = 1024

// accountPrefix namespaces account objects inside a shared database
const accountPrefix = "acct-"

// Database loads and stores account objects, keeping recently decoded ones in
// an LRU cache
type Database struct {
	diskdb tasdb.Database
	cache  *lru.Cache
}

func NewDatabase(db tasdb.Database) *Database {
	return &Database{
		diskdb: tasdb.NewPrefixedDatabase(db, accountPrefix),
		cache:  common.MustNewLRUCache(accountCacheSize),
	}
}

// loadAccount returns nil, nil for an account never written
func (db *Database) loadAccount(addr common.Address) (*Account, error) {
	if v, ok := db.cache.Get(addr); ok {
		return v.(*Account).copy(), nil
	}
	raw, err := db.diskdb.Get(addr.Bytes())
	if err == tasdb.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	acc := new(Account)
	if err := msgpack.Unmarshal(raw, acc); err != nil {
		return nil, fmt.Errorf("decode account %v: %v", addr.AddrPrefixString(), err)
	}
	db.cache.Add(addr, acc.copy())
	return acc, nil
}

// writeAccounts persists the given objects in a single batch. Empty objects are
// removed from disk.
func (db *Database) writeAccounts(objects []*accountObject) error {
	batch := db.diskdb.NewBatch()
	for _, obj := range objects {
		if obj.empty() {
			if err := batch.Delete(obj.address.Bytes()); err != nil {
				return err
			}
			db.cache.Remove(obj.address)
			continue
		}
		acc := obj.toAccount()
		raw, err := msgpack.Marshal(acc)
		if err != nil {
			return fmt.Errorf("encode account %v: %v", obj.address.AddrPrefixString(), err)
		}
		if err := batch.Put(obj.address.Bytes(), raw); err != nil {
			return err
		}
		db.cache.Add(obj.address, acc)
	}
	if err := batch.Write(); err != nil {
		return err
	}
	log.StorageLogger.Debugf("committed %v accounts, %v bytes", len(objects), batch.ValueSize())
	return nil
}
