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

package time

import (
	"sync"
	"time"
)

// SystemTime reads the uncalibrated local clock
type SystemTime struct{}

func (SystemTime) Now() TimeStamp {
	return TimeToTimeStamp(time.Now())
}

func (st SystemTime) Since(t TimeStamp) int64 {
	return st.Now().Since(t)
}

func (st SystemTime) NowAfter(t TimeStamp) bool {
	return st.Now().After(t)
}

// ManualTime only moves when told to. Tests drive contracts with it.
type ManualTime struct {
	now  TimeStamp
	lock sync.RWMutex
}

func NewManualTime(start TimeStamp) *ManualTime {
	return &ManualTime{now: start}
}

func (mt *ManualTime) Now() TimeStamp {
	mt.lock.RLock()
	defer mt.lock.RUnlock()
	return mt.now
}

// Set moves the clock to ts, backwards included
func (mt *ManualTime) Set(ts TimeStamp) {
	mt.lock.Lock()
	defer mt.lock.Unlock()
	mt.now = ts
}

// Advance moves the clock forward by sec seconds and returns the new time
func (mt *ManualTime) Advance(sec int64) TimeStamp {
	mt.lock.Lock()
	defer mt.lock.Unlock()
	mt.now = mt.now.Add(sec)
	return mt.now
}

func (mt *ManualTime) Since(t TimeStamp) int64 {
	return mt.Now().Since(t)
}

func (mt *ManualTime) NowAfter(t TimeStamp) bool {
	return mt.Now().After(t)
}
