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

// PrefixedDatabase is a logical database living under a key prefix of another one
type PrefixedDatabase struct {
	db     Database
	prefix string
}

func NewPrefixedDatabase(db Database, prefix string) *PrefixedDatabase {
	return &PrefixedDatabase{db: db, prefix: prefix}
}

func (db *PrefixedDatabase) Put(key []byte, value []byte) error {
	return db.db.Put(generateKey(key, db.prefix), value)
}

func (db *PrefixedDatabase) Get(key []byte) ([]byte, error) {
	return db.db.Get(generateKey(key, db.prefix))
}

func (db *PrefixedDatabase) Has(key []byte) (bool, error) {
	return db.db.Has(generateKey(key, db.prefix))
}

func (db *PrefixedDatabase) Delete(key []byte) error {
	return db.db.Delete(generateKey(key, db.prefix))
}

// Close is a no-op, the underlying database is owned by whoever opened it
func (db *PrefixedDatabase) Close() {}

func (db *PrefixedDatabase) NewBatch() Batch {
	return &prefixBatch{b: db.db.NewBatch(), prefix: db.prefix}
}

type prefixBatch struct {
	b      Batch
	prefix string
}

func (b *prefixBatch) Put(key, value []byte) error {
	return b.b.Put(generateKey(key, b.prefix), value)
}

func (b *prefixBatch) Delete(key []byte) error {
	return b.b.Delete(generateKey(key, b.prefix))
}

func (b *prefixBatch) Write() error {
	return b.b.Write()
}

func (b *prefixBatch) ValueSize() int {
	return b.b.ValueSize()
}

func (b *prefixBatch) Reset() {
	b.b.Reset()
}

func generateKey(raw []byte, prefix string) []byte {
	key := make([]byte, 0, len(prefix)+len(raw))
	key = append(key, prefix...)
	return append(key, raw...)
}
