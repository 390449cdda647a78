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
	"errors"
	"testing"
	"time"

	"github.com/beevik/ntp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeStamp(t *testing.T) {
	ts := Int64ToTimeStamp(1000)
	assert.Equal(t, TimeStamp(1060), ts.Add(60))
	assert.True(t, ts.Add(1).After(ts))
	assert.Equal(t, int64(-5), ts.Since(ts.Add(5)))
	assert.Equal(t, uint64(1000), ts.Uint64())
	assert.Equal(t, uint64(0), Int64ToTimeStamp(-1).Uint64())
	assert.Equal(t, "1970-01-01T00:16:40Z", ts.String())
}

func TestLocal(t *testing.T) {
	d := time.Date(2017, 7, 7, 9, 0, 0, 0, time.Local)
	dl := TimeToTimeStamp(d)
	assert.True(t, dl.UTC().Equal(d))
}

func TestManualTime(t *testing.T) {
	mt := NewManualTime(100)
	assert.Equal(t, TimeStamp(100), mt.Now())
	assert.Equal(t, TimeStamp(700), mt.Advance(600))
	assert.True(t, mt.NowAfter(699))
	assert.Equal(t, int64(200), mt.Since(500))
	mt.Set(50)
	assert.Equal(t, TimeStamp(50), mt.Now())
}

func TestTimeSync_FirstAnsweringServer(t *testing.T) {
	var asked []string
	ts := &TimeSync{
		servers: []string{"down.example", "up.example"},
		query: func(host string, opt ntp.QueryOptions) (*ntp.Response, error) {
			asked = append(asked, host)
			if host == "down.example" {
				return nil, errors.New("timeout")
			}
			return &ntp.Response{ClockOffset: time.Hour}, nil
		},
	}
	require.NoError(t, ts.Sync())
	assert.Equal(t, []string{"down.example", "up.example"}, asked)
	assert.Equal(t, time.Hour, ts.Offset())

	local := TimeToTimeStamp(time.Now())
	assert.InDelta(t, 3600, ts.Since(local), 2)
}

func TestTimeSync_NoServer(t *testing.T) {
	ts := &TimeSync{
		servers: []string{"down.example"},
		query: func(host string, opt ntp.QueryOptions) (*ntp.Response, error) {
			return nil, errors.New("unreachable")
		},
	}
	assert.Error(t, ts.Sync())
	assert.Equal(t, time.Duration(0), ts.Offset())
	assert.False(t, ts.NowAfter(SystemTime{}.Now().Add(60)))
}
