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
	"reflect"
	"sync"

	"github.com/diversify/divchain/log"
)

type Handler func(message Message)

type Topic struct {
	ID       string
	handlers []Handler
	lock     sync.RWMutex
}

func (topic *Topic) Subscribe(h Handler) {
	topic.lock.Lock()
	defer topic.lock.Unlock()

	topic.handlers = append(topic.handlers, h)
}

func (topic *Topic) UnSubscribe(h Handler) {
	topic.lock.Lock()
	defer topic.lock.Unlock()

	for i, handler := range topic.handlers {
		if reflect.ValueOf(handler).Pointer() == reflect.ValueOf(h).Pointer() {
			topic.handlers = append(topic.handlers[:i], topic.handlers[i+1:]...)
			return
		}
	}
}

// Handle runs the handlers in subscription order on the calling goroutine
func (topic *Topic) Handle(message Message, recovered bool) {
	topic.lock.RLock()
	handlers := make([]Handler, len(topic.handlers))
	copy(handlers, topic.handlers)
	topic.lock.RUnlock()

	for _, h := range handlers {
		if recovered {
			topic.safeCall(h, message)
		} else {
			h(message)
		}
	}
}

func (topic *Topic) safeCall(h Handler, message Message) {
	defer func() {
		if r := recover(); r != nil {
			log.DefaultLogger.Errorf("handler of topic %v panic: %v", topic.ID, r)
		}
	}()
	h(message)
}
