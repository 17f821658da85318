/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package simple

import (
	"sync"

	"github.com/vindecode/vindecode/platform/view/services/events"
)

type eventHandler struct {
	receiver events.Listener
}

type eventBus struct {
	handlers map[string][]*eventHandler
	lock     sync.RWMutex
}

func NewEventBus() *eventBus {
	return &eventBus{
		handlers: make(map[string][]*eventHandler),
		lock:     sync.RWMutex{},
	}
}

// Publish delivers the event synchronously to a snapshot of the topic's listeners.
// Listeners may subscribe or unsubscribe from within OnReceive.
func (e *eventBus) Publish(event events.Event) {
	if event == nil {
		return
	}

	e.lock.RLock()
	handlers := e.handlers[event.Topic()]
	subs := make([]*eventHandler, len(handlers))
	copy(subs, handlers)
	e.lock.RUnlock()

	for _, sub := range subs {
		sub.receiver.OnReceive(event)
	}
}

func (e *eventBus) Subscribe(topic string, receiver events.Listener) events.Subscription {
	if receiver == nil {
		return noopSubscription{}
	}

	e.lock.Lock()
	defer e.lock.Unlock()

	h := &eventHandler{receiver: receiver}
	e.handlers[topic] = append(e.handlers[topic], h)

	return &subscription{bus: e, topic: topic, handler: h}
}

func (e *eventBus) Unsubscribe(topic string, receiver events.Listener) {
	if receiver == nil {
		return
	}

	e.lock.Lock()
	defer e.lock.Unlock()

	e.remove(topic, findIndex(e.handlers[topic], func(h *eventHandler) bool { return h.receiver == receiver }))
}

func (e *eventBus) unsubscribeHandler(topic string, handler *eventHandler) {
	e.lock.Lock()
	defer e.lock.Unlock()

	e.remove(topic, findIndex(e.handlers[topic], func(h *eventHandler) bool { return h == handler }))
}

// remove drops the handler at position idx, keeping the delivery order of the others.
// The lock must be held.
func (e *eventBus) remove(topic string, idx int) {
	if idx == -1 {
		return
	}
	handlers := e.handlers[topic]
	handlers = append(handlers[:idx:idx], handlers[idx+1:]...)

	if len(handlers) > 0 {
		e.handlers[topic] = handlers
	} else {
		// let's remove topic entry
		delete(e.handlers, topic)
	}
}

// findIndex returns the position of the first handler matching, -1 if not found
func findIndex(handlers []*eventHandler, match func(*eventHandler) bool) int {
	for i, h := range handlers {
		if match(h) {
			return i
		}
	}

	return -1
}

type subscription struct {
	bus     *eventBus
	topic   string
	handler *eventHandler
	once    sync.Once
}

func (s *subscription) Close() {
	s.once.Do(func() {
		s.bus.unsubscribeHandler(s.topic, s.handler)
	})
}

type noopSubscription struct{}

func (noopSubscription) Close() {}
