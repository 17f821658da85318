/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package lazy

import (
	"sync"
	"sync/atomic"
)

// Holder creates its value on the first Get and keeps it until Reset.
// A failed creation is not remembered, the next Get tries again.
type Holder[V any] interface {
	Get() (V, error)
	// Peek returns the value only if it was already created
	Peek() (V, bool)
	Reset() error
}

func NewHolder[V any](create func() (V, error), dispose func(V) error) *holder[V] {
	return &holder[V]{create: create, dispose: dispose}
}

type holder[V any] struct {
	create  func() (V, error)
	dispose func(V) error

	// current is read without the lock, written under it
	current atomic.Pointer[V]
	mu      sync.Mutex
}

func (h *holder[V]) Peek() (V, bool) {
	if v := h.current.Load(); v != nil {
		return *v, true
	}
	var zero V
	return zero, false
}

func (h *holder[V]) Get() (V, error) {
	if v, ok := h.Peek(); ok {
		return v, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if v, ok := h.Peek(); ok {
		return v, nil
	}
	v, err := h.create()
	if err != nil {
		var zero V
		return zero, err
	}
	h.current.Store(&v)
	return v, nil
}

func (h *holder[V]) Reset() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	v := h.current.Swap(nil)
	if v == nil || h.dispose == nil {
		return nil
	}
	return h.dispose(*v)
}
