/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package role

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vindecode/vindecode/platform/view/services/events"
	"github.com/vindecode/vindecode/platform/vindecode/services/session"
)

var account = common.HexToAddress("0x00000000000000000000000000000000000a11ce")

type fakeQuerier struct {
	mutex   sync.Mutex
	roles   map[string]bool
	err     error
	calls   []string
	blockOn chan struct{}
}

func (q *fakeQuerier) query(name string) (bool, error) {
	q.mutex.Lock()
	q.calls = append(q.calls, name)
	block := q.blockOn
	q.mutex.Unlock()
	if block != nil {
		<-block
	}
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return q.roles[name], q.err
}

func (q *fakeQuerier) IsDealer(context.Context, common.Address) (bool, error) {
	return q.query("isDealer")
}

func (q *fakeQuerier) IsTrafficPolice(context.Context, common.Address) (bool, error) {
	return q.query("isTrafficPolice")
}

func (q *fakeQuerier) IsInsuranceCompany(context.Context, common.Address) (bool, error) {
	return q.query("isInsuranceCompany")
}

func (q *fakeQuerier) callCount() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return len(q.calls)
}

func TestEmptyAccountIsDenied(t *testing.T) {
	q := &fakeQuerier{roles: map[string]bool{"isDealer": true, "isTrafficPolice": true, "isInsuranceCompany": true}}
	r := NewResolver(q)
	for _, area := range Areas() {
		assert.False(t, r.Resolve(context.Background(), common.Address{}, area), area.String())
	}
	assert.Equal(t, 0, q.callCount())
}

func TestResolve(t *testing.T) {
	q := &fakeQuerier{roles: map[string]bool{"isDealer": true}}
	r := NewResolver(q)
	ctx := context.Background()

	assert.True(t, r.Resolve(ctx, account, Dealer))
	assert.False(t, r.Resolve(ctx, account, TrafficPolice))
	assert.False(t, r.Resolve(ctx, account, Insurance))
	assert.False(t, r.Resolve(ctx, account, None))
	assert.False(t, r.Resolve(ctx, account, Area(42)))

	// admin stops at the first missing role
	q.calls = nil
	assert.False(t, r.Resolve(ctx, account, Admin))
	assert.Equal(t, []string{"isDealer", "isTrafficPolice"}, q.calls)

	q.roles["isTrafficPolice"] = true
	q.roles["isInsuranceCompany"] = true
	q.calls = nil
	assert.True(t, r.Resolve(ctx, account, Admin))
	assert.Equal(t, []string{"isDealer", "isTrafficPolice", "isInsuranceCompany"}, q.calls)

	q.err = errors.New("connection refused")
	assert.False(t, r.Resolve(ctx, account, Dealer))
	_, err := r.Lookup(ctx, account, Dealer)
	assert.ErrorContains(t, err, "connection refused")
}

func TestParseArea(t *testing.T) {
	for _, area := range Areas() {
		parsed, err := ParseArea(area.String())
		require.NoError(t, err)
		assert.Equal(t, area, parsed)
	}
	parsed, err := ParseArea(" Traffic ")
	require.NoError(t, err)
	assert.Equal(t, TrafficPolice, parsed)

	_, err = ParseArea("garage")
	assert.Error(t, err)
}

func accountChanged(epoch uint64) events.Event {
	return events.NewEvent(session.AccountChangedTopic, session.AccountChanged{
		Current: session.Snapshot{Account: account, Epoch: epoch},
	})
}

func TestCache(t *testing.T) {
	q := &fakeQuerier{roles: map[string]bool{"isDealer": true}}
	c := NewCache(NewResolver(q))
	ctx := context.Background()
	snap := session.Snapshot{Account: account, Epoch: 1}

	assert.False(t, c.Resolve(ctx, session.Snapshot{Epoch: 1}, Dealer))
	assert.True(t, c.Resolve(ctx, snap, Dealer))
	assert.True(t, c.Resolve(ctx, snap, Dealer))
	assert.Equal(t, 1, q.callCount())

	// a new epoch forgets everything
	c.OnReceive(accountChanged(2))
	assert.False(t, c.Resolve(ctx, snap, Dealer))
	assert.True(t, c.Resolve(ctx, session.Snapshot{Account: account, Epoch: 2}, Dealer))
	assert.Equal(t, 2, q.callCount())

	// failures are not remembered
	q.err = errors.New("timeout")
	assert.False(t, c.Resolve(ctx, session.Snapshot{Account: account, Epoch: 2}, Insurance))
	q.err = nil
	q.roles["isInsuranceCompany"] = true
	assert.True(t, c.Resolve(ctx, session.Snapshot{Account: account, Epoch: 2}, Insurance))

	c.Invalidate()
	assert.True(t, c.Resolve(ctx, session.Snapshot{Account: account, Epoch: 2}, Dealer))
	assert.Equal(t, 5, q.callCount())
}

func TestCacheDropsStaleResolution(t *testing.T) {
	q := &fakeQuerier{roles: map[string]bool{"isDealer": true}, blockOn: make(chan struct{})}
	c := NewCache(NewResolver(q))
	snap := session.Snapshot{Account: account, Epoch: 1}

	result := make(chan bool)
	go func() { result <- c.Resolve(context.Background(), snap, Dealer) }()
	require.Eventually(t, func() bool { return q.callCount() == 1 }, time.Second, time.Millisecond)

	// the account switches while the query is in flight
	c.OnReceive(accountChanged(2))
	close(q.blockOn)
	assert.False(t, <-result)

	q.blockOn = nil
	assert.True(t, c.Resolve(context.Background(), session.Snapshot{Account: account, Epoch: 2}, Dealer))
}
