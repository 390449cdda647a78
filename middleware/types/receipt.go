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

package types

import (
	"fmt"

	"github.com/diversify/divchain/common"
)

// Receipt is the result of one committed call
type Receipt struct {
	Caller common.Address
	Target common.Address
	Now    uint64
	Events []*Event
}

// EventsByName returns the events with the given name in emission order
func (r *Receipt) EventsByName(name string) []*Event {
	ret := make([]*Event, 0)
	for _, e := range r.Events {
		if e.Name == name {
			ret = append(ret, e)
		}
	}
	return ret
}

func (r *Receipt) String() string {
	return fmt.Sprintf("receipt{caller=%v target=%v now=%v events=%v}", r.Caller.AddrPrefixString(), r.Target.AddrPrefixString(), r.Now, len(r.Events))
}
