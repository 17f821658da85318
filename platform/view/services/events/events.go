/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package events

//go:generate counterfeiter -o fakes/event.go -fake-name Event . Event

// Event is a message published on a topic
type Event interface {
	Topic() string
	Message() interface{}
}

//go:generate counterfeiter -o fakes/listener.go -fake-name Listener . Listener

// Listener receives the events of the topics it is subscribed to
type Listener interface {
	OnReceive(event Event)
}

// ListenerFunc adapts a function to a Listener
type ListenerFunc func(event Event)

func (f ListenerFunc) OnReceive(event Event) { f(event) }

// Subscription is the disposable handle returned by Subscribe.
// Close removes the listener and can be called more than once.
type Subscription interface {
	Close()
}

type Publisher interface {
	Publish(event Event)
}

type Subscriber interface {
	// Subscribe registers the listener for the topic until the returned handle is closed
	Subscribe(topic string, receiver Listener) Subscription
	Unsubscribe(topic string, receiver Listener)
}

type EventSystem interface {
	Publisher
	Subscriber
}

// NewEvent returns an event carrying message on topic
func NewEvent(topic string, message interface{}) Event {
	return &event{topic: topic, message: message}
}

type event struct {
	topic   string
	message interface{}
}

func (e *event) Topic() string { return e.topic }

func (e *event) Message() interface{} { return e.message }
