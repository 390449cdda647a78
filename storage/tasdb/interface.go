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
	"github.com/syndtr/goleveldb/leveldb"
)

// IdealBatchSize is the amount of queued data after which a writer should flush
const IdealBatchSize = 100 * 1024

// ErrNotFound is returned by every Database implementation for a missing key
var ErrNotFound = leveldb.ErrNotFound

type Putter interface {
	Put(key []byte, value []byte) error
}

type Deleter interface {
	Delete(key []byte) error
}

type Batch interface {
	Putter
	Deleter

	// ValueSize is amount of data in the batch
	ValueSize() int
	Write() error

	// Reset resets the batch for reuse
	Reset()
}

type Database interface {
	Putter
	Deleter
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Close()
	NewBatch() Batch
}
