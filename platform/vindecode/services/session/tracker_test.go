/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vindecode/vindecode/platform/ethereum/driver"
	"github.com/vindecode/vindecode/platform/view/services/events"
	"github.com/vindecode/vindecode/platform/view/services/events/simple"
	"go.uber.org/goleak"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

type fakeWallet struct {
	accounts []common.Address
	err      error
	feed     event.Feed
}

func (w *fakeWallet) RequestAccounts(context.Context) ([]common.Address, error) {
	return w.accounts, w.err
}

func (w *fakeWallet) SubscribeAccounts(sink chan<- []common.Address) event.Subscription {
	return w.feed.Subscribe(sink)
}

type recorder struct {
	mutex   sync.Mutex
	changes []AccountChanged
}

func (r *recorder) OnReceive(e events.Event) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.changes = append(r.changes, e.Message().(AccountChanged))
}

func (r *recorder) all() []AccountChanged {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([]AccountChanged(nil), r.changes...)
}

func TestConnect(t *testing.T) {
	w := &fakeWallet{}
	tr := NewTracker(w, simple.NewEventBus())
	rec := &recorder{}
	sub := tr.Subscribe(rec)
	defer sub.Close()

	assert.False(t, tr.Snapshot().Connected())

	w.err = driver.NewWalletError(driver.ErrUserRejected)
	_, err := tr.Connect(context.Background())
	assert.ErrorIs(t, err, driver.ErrUserRejected)
	assert.Empty(t, rec.all())

	w.err = nil
	_, err = tr.Connect(context.Background())
	var walletErr *driver.WalletError
	assert.True(t, errors.As(err, &walletErr))

	w.accounts = []common.Address{alice, bob}
	account, err := tr.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, alice, account)
	assert.Equal(t, Snapshot{Account: alice, Epoch: 1}, tr.Snapshot())

	// connecting again to the same account is not a transition
	_, err = tr.Connect(context.Background())
	require.NoError(t, err)
	require.Len(t, rec.all(), 1)
	assert.Equal(t, AccountChanged{Current: Snapshot{Account: alice, Epoch: 1}}, rec.all()[0])
}

func TestAccountSwitches(t *testing.T) {
	w := &fakeWallet{accounts: []common.Address{alice}}
	tr := NewTracker(w, simple.NewEventBus())
	rec := &recorder{}
	sub := tr.Subscribe(rec)

	// ignored while disconnected
	tr.AccountsChanged([]common.Address{bob})
	assert.False(t, tr.Snapshot().Connected())

	_, err := tr.Connect(context.Background())
	require.NoError(t, err)

	tr.AccountsChanged([]common.Address{bob, alice})
	account, ok := tr.Current()
	assert.True(t, ok)
	assert.Equal(t, bob, account)

	tr.AccountsChanged(nil)
	assert.Equal(t, Snapshot{Epoch: 3}, tr.Snapshot())

	changes := rec.all()
	require.Len(t, changes, 3)
	assert.Equal(t, alice, changes[1].Previous.Account)
	assert.Equal(t, bob, changes[1].Current.Account)
	assert.False(t, changes[2].Current.Connected())

	// no delivery after close
	sub.Close()
	_, err = tr.Connect(context.Background())
	require.NoError(t, err)
	assert.Len(t, rec.all(), 3)
	assert.Equal(t, uint64(4), tr.Snapshot().Epoch)
}

func TestFollowsWallet(t *testing.T) {
	defer goleak.VerifyNone(t)

	w := &fakeWallet{accounts: []common.Address{alice}}
	tr := NewTracker(w, simple.NewEventBus())
	tr.Start()
	tr.Start()

	_, err := tr.Connect(context.Background())
	require.NoError(t, err)

	w.feed.Send([]common.Address{bob})
	require.Eventually(t, func() bool {
		account, _ := tr.Current()
		return account == bob
	}, 5*time.Second, 10*time.Millisecond)

	tr.Stop()
	tr.Stop()
	assert.Equal(t, 0, w.feed.Send([]common.Address{alice}))
}
