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

package tasdb

import (
	"errors"
	"sync"

	"github.com/diversify/divchain/log"
	"github.com/syndtr/goleveldb/leveldb"
	lerrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var ErrLDBInit = errors.New("LDB instance not inited")

type LDBDatabase struct {
	db       *leveldb.DB
	filename string
	lock     sync.Mutex
	inited   bool
}

// NewLDBDatabase create level db instance by file
func NewLDBDatabase(file string, options *opt.Options) (*LDBDatabase, error) {
	db, err := newLevelDBInstance(file, options)
	if err != nil {
		return nil, err
	}
	log.StorageLogger.Debugf("leveldb opened at %v", file)
	return &LDBDatabase{
		filename: file,
		db:       db,
		inited:   true,
	}, nil
}

// newLevelDBInstance opens the database, recovering it once if the files are corrupted
func newLevelDBInstance(file string, options *opt.Options) (*leveldb.DB, error) {
	db, err := leveldb.OpenFile(file, options)
	if _, corrupted := err.(*lerrors.ErrCorrupted); corrupted {
		log.StorageLogger.Warnf("leveldb at %v corrupted, recovering", file)
		db, err = leveldb.RecoverFile(file, nil)
	}
	if err != nil {
		return nil, err
	}
	return db, nil
}

// Path returns the path to the database directory.
func (ldb *LDBDatabase) Path() string {
	return ldb.filename
}

func (ldb *LDBDatabase) Put(key []byte, value []byte) error {
	if !ldb.inited {
		return ErrLDBInit
	}
	return ldb.db.Put(key, value, nil)
}

func (ldb *LDBDatabase) Has(key []byte) (bool, error) {
	if !ldb.inited {
		return false, ErrLDBInit
	}
	return ldb.db.Has(key, nil)
}

// Get returns the given key if it's present.
func (ldb *LDBDatabase) Get(key []byte) ([]byte, error) {
	if !ldb.inited {
		return nil, ErrLDBInit
	}
	return ldb.db.Get(key, nil)
}

func (ldb *LDBDatabase) Delete(key []byte) error {
	if !ldb.inited {
		return ErrLDBInit
	}
	return ldb.db.Delete(key, nil)
}

// NewIteratorWithPrefix returns a iterator to iterate over subset of database content with a particular prefix.
func (ldb *LDBDatabase) NewIteratorWithPrefix(prefix []byte) iterator.Iterator {
	return ldb.db.NewIterator(util.BytesPrefix(prefix), nil)
}

func (ldb *LDBDatabase) Close() {
	ldb.lock.Lock()
	defer ldb.lock.Unlock()
	if !ldb.inited {
		return
	}
	ldb.inited = false
	if err := ldb.db.Close(); err != nil {
		log.StorageLogger.Errorf("close leveldb %v err: %v", ldb.filename, err)
	}
}

func (ldb *LDBDatabase) NewBatch() Batch {
	return &ldbBatch{db: ldb.db, b: new(leveldb.Batch)}
}

type ldbBatch struct {
	db   *leveldb.DB
	b    *leveldb.Batch
	size int
}

func (b *ldbBatch) Put(key, value []byte) error {
	b.b.Put(key, value)
	b.size += len(value)
	return nil
}

func (b *ldbBatch) Delete(key []byte) error {
	b.b.Delete(key)
	b.size++
	return nil
}

func (b *ldbBatch) Write() error {
	return b.db.Write(b.b, nil)
}

func (b *ldbBatch) ValueSize() int {
	return b.size
}

func (b *ldbBatch) Reset() {
	b.b.Reset()
	b.size = 0
}
