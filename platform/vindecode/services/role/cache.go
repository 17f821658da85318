/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package role

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vindecode/vindecode/platform/view/services/events"
	"github.com/vindecode/vindecode/platform/vindecode/services/session"
	"golang.org/x/sync/singleflight"
)

type lookup interface {
	Lookup(ctx context.Context, account common.Address, area Area) (bool, error)
}

// Cache memoizes role results for the current session epoch.
// Results of an older epoch are never returned nor stored, failed lookups are denied and not stored.
type Cache struct {
	resolver lookup
	group    singleflight.Group

	mutex   sync.Mutex
	epoch   uint64
	entries map[Area]bool
}

func NewCache(resolver lookup) *Cache {
	return &Cache{resolver: resolver, entries: map[Area]bool{}}
}

// OnReceive invalidates the cache on AccountChanged events
func (c *Cache) OnReceive(event events.Event) {
	changed, ok := event.Message().(session.AccountChanged)
	if !ok {
		return
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.advance(changed.Current.Epoch)
}

// advance drops the entries of older epochs. The lock must be held.
func (c *Cache) advance(epoch uint64) {
	if epoch > c.epoch {
		c.epoch = epoch
		c.entries = map[Area]bool{}
	}
}

// Resolve returns the role result for the snapshot's account
func (c *Cache) Resolve(ctx context.Context, snapshot session.Snapshot, area Area) bool {
	if !snapshot.Connected() {
		return false
	}

	c.mutex.Lock()
	c.advance(snapshot.Epoch)
	if snapshot.Epoch < c.epoch {
		c.mutex.Unlock()
		return false
	}
	if v, ok := c.entries[area]; ok {
		c.mutex.Unlock()
		return v
	}
	c.mutex.Unlock()

	key := fmt.Sprintf("%d/%s/%d", snapshot.Epoch, snapshot.Account, area)
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		return c.resolver.Lookup(ctx, snapshot.Account, area)
	})
	if err != nil {
		logger.Warnf("failed resolving [%s] for [%s], denying: %v", area, snapshot.Account, err)
		return false
	}
	allowed := v.(bool)

	c.mutex.Lock()
	defer c.mutex.Unlock()
	if snapshot.Epoch != c.epoch {
		return false
	}
	c.entries[area] = allowed
	return allowed
}

// Invalidate drops every cached result
func (c *Cache) Invalidate() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries = map[Area]bool{}
}
