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

package notify

import (
	"github.com/diversify/divchain/middleware/types"
)

type Message interface {
	GetRaw() []byte
	GetData() interface{}
}

type DummyMessage struct {
}

func (d *DummyMessage) GetRaw() []byte {
	return []byte{}
}
func (d *DummyMessage) GetData() interface{} {
	return struct{}{}
}

// EventMessage carries one committed contract event
type EventMessage struct {
	Event *types.Event
	Now   uint64
}

func (m *EventMessage) GetRaw() []byte {
	return []byte(m.Event.String())
}

func (m *EventMessage) GetData() interface{} {
	return m.Event
}

func AsEvent(message Message) *types.Event {
	if m, ok := message.(*EventMessage); ok {
		return m.Event
	}
	return nil
}
