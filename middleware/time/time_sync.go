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

// Package time provides the clocks contract calls read their timestamp from
package time

import (
	"fmt"
	"sync"
	"time"

	"github.com/beevik/ntp"
	"github.com/diversify/divchain/common"
	"github.com/diversify/divchain/log"
)

// TimeStamp in seconds
type TimeStamp int64

func Int64ToTimeStamp(sec int64) TimeStamp {
	return TimeStamp(sec)
}

func TimeToTimeStamp(t time.Time) TimeStamp {
	return TimeStamp(t.Unix())
}

func (ts TimeStamp) Bytes() []byte {
	return common.Uint64ToByte(uint64(ts))
}

func (ts TimeStamp) UTC() time.Time {
	return time.Unix(ts.Unix(), 0).UTC()
}

func (ts TimeStamp) Unix() int64 {
	return int64(ts)
}

// Uint64 returns the timestamp as carried by a call context
func (ts TimeStamp) Uint64() uint64 {
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

func (ts TimeStamp) After(t TimeStamp) bool {
	return ts > t
}

func (ts TimeStamp) Since(t TimeStamp) int64 {
	return int64(ts - t)
}

func (ts TimeStamp) Add(sec int64) TimeStamp {
	return ts + Int64ToTimeStamp(sec)
}

func (ts TimeStamp) String() string {
	return ts.UTC().Format(time.RFC3339)
}

// TimeService is a time service, it return a timestamp in seconds
type TimeService interface {
	// Now returns the current timestamp
	Now() TimeStamp

	// Since returns the time duration from the given timestamp to current moment
	Since(t TimeStamp) int64

	// NowAfter checks if current timestamp greater than the given one
	NowAfter(t TimeStamp) bool
}

// DefaultNtpServers are queried in order until one answers
var DefaultNtpServers = []string{"pool.ntp.org", "time.google.com", "time.cloudflare.com", "time.apple.com"}

type queryFunc func(host string, opt ntp.QueryOptions) (*ntp.Response, error)

// TimeSync is the local clock corrected by the offset reported by an ntp server
type TimeSync struct {
	currentOffset time.Duration
	servers       []string
	timeout       time.Duration
	query         queryFunc
	lock          sync.RWMutex
}

// NewTimeSync creates the clock and synchronizes it once. If no server answers
// the clock still works uncalibrated and the error is returned alongside it.
func NewTimeSync(servers []string, timeout time.Duration) (*TimeSync, error) {
	if len(servers) == 0 {
		servers = DefaultNtpServers
	}
	ts := &TimeSync{
		servers: servers,
		timeout: timeout,
		query:   ntp.QueryWithOptions,
	}
	return ts, ts.Sync()
}

// Sync queries the servers in order and keeps the first offset obtained
func (ts *TimeSync) Sync() error {
	var lastErr error
	for _, server := range ts.servers {
		rsp, err := ts.query(server, ntp.QueryOptions{Timeout: ts.timeout})
		if err != nil {
			log.DefaultLogger.Warnf("time sync from %v err: %v", server, err)
			lastErr = err
			continue
		}
		ts.lock.Lock()
		ts.currentOffset = rsp.ClockOffset
		ts.lock.Unlock()
		log.DefaultLogger.Infof("time offset from %v is %v", server, rsp.ClockOffset.String())
		return nil
	}
	return fmt.Errorf("time sync failed: %v", lastErr)
}

// Offset returns the correction applied to the local clock
func (ts *TimeSync) Offset() time.Duration {
	ts.lock.RLock()
	defer ts.lock.RUnlock()
	return ts.currentOffset
}

// Now returns the current timestamp calibrated with ntp server
func (ts *TimeSync) Now() TimeStamp {
	return TimeToTimeStamp(time.Now().Add(ts.Offset()).UTC())
}

// Since returns the time duration from the given timestamp to current moment
func (ts *TimeSync) Since(t TimeStamp) int64 {
	return ts.Now().Since(t)
}

// NowAfter checks if current timestamp greater than the given one
func (ts *TimeSync) NowAfter(t TimeStamp) bool {
	return ts.Now().After(t)
}
