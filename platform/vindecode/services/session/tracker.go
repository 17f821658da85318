/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package session

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"
	"github.com/vindecode/vindecode/platform/common/services/logging"
	"github.com/vindecode/vindecode/platform/ethereum/driver"
	"github.com/vindecode/vindecode/platform/view/services/events"
)

var logger = logging.MustGetLogger("vindecode.session")

// AccountChangedTopic is the topic of the AccountChanged events
const AccountChangedTopic = "vindecode.session.account_changed"

// Snapshot is the session state at a given epoch.
// The zero account means Disconnected.
type Snapshot struct {
	Account common.Address
	Epoch   uint64
}

func (s Snapshot) Connected() bool {
	return s.Account != (common.Address{})
}

// AccountChanged is the message of the events published on every transition
type AccountChanged struct {
	Previous Snapshot
	Current  Snapshot
}

// Tracker owns the connected account. It is the only writer of the session state.
type Tracker struct {
	wallet driver.AccountWallet
	bus    events.EventSystem

	// writer orders the transitions and their events
	writer   sync.Mutex
	mutex    sync.RWMutex
	snapshot Snapshot

	lifecycle sync.Mutex
	sub       event.Subscription
	done      chan struct{}
}

func NewTracker(wallet driver.AccountWallet, bus events.EventSystem) *Tracker {
	return &Tracker{wallet: wallet, bus: bus}
}

// Start follows the account switches of the wallet
func (t *Tracker) Start() {
	t.lifecycle.Lock()
	defer t.lifecycle.Unlock()

	if t.sub != nil {
		return
	}
	sink := make(chan []common.Address, 16)
	t.sub = t.wallet.SubscribeAccounts(sink)
	t.done = make(chan struct{})
	go t.loop(t.sub, sink, t.done)
}

func (t *Tracker) Stop() {
	t.lifecycle.Lock()
	defer t.lifecycle.Unlock()

	if t.sub == nil {
		return
	}
	t.sub.Unsubscribe()
	<-t.done
	t.sub = nil
}

func (t *Tracker) loop(sub event.Subscription, sink chan []common.Address, done chan struct{}) {
	defer close(done)
	for {
		select {
		case list := <-sink:
			t.AccountsChanged(list)
		case err, ok := <-sub.Err():
			if ok && err != nil {
				logger.Errorf("account notifications stopped: %v", err)
			}
			return
		}
	}
}

// Snapshot returns the current state
func (t *Tracker) Snapshot() Snapshot {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.snapshot
}

// Current returns the connected account
func (t *Tracker) Current() (common.Address, bool) {
	s := t.Snapshot()
	return s.Account, s.Connected()
}

// Connect performs the explicit connection request and returns the connected account
func (t *Tracker) Connect(ctx context.Context) (common.Address, error) {
	list, err := t.wallet.RequestAccounts(ctx)
	if err != nil {
		return common.Address{}, errors.WithMessage(err, "failed connecting wallet")
	}
	if len(list) == 0 {
		return common.Address{}, driver.NewWalletError(driver.ErrNoAccounts)
	}
	t.transition(list[0], true)
	return list[0], nil
}

// AccountsChanged applies an account-switch notification.
// Notifications received while Disconnected are ignored.
func (t *Tracker) AccountsChanged(list []common.Address) {
	var next common.Address
	if len(list) != 0 {
		next = list[0]
	}
	t.transition(next, false)
}

func (t *Tracker) transition(next common.Address, explicit bool) {
	t.writer.Lock()
	defer t.writer.Unlock()

	t.mutex.Lock()
	prev := t.snapshot
	if (!explicit && !prev.Connected()) || prev.Account == next {
		t.mutex.Unlock()
		return
	}
	t.snapshot = Snapshot{Account: next, Epoch: prev.Epoch + 1}
	current := t.snapshot
	t.mutex.Unlock()

	if current.Connected() {
		logger.Infof("session connected to [%s], epoch [%d]", current.Account, current.Epoch)
	} else {
		logger.Infof("session disconnected, epoch [%d]", current.Epoch)
	}
	t.bus.Publish(events.NewEvent(AccountChangedTopic, AccountChanged{Previous: prev, Current: current}))
}

// Subscribe delivers every AccountChanged event to l until the subscription is closed
func (t *Tracker) Subscribe(l events.Listener) events.Subscription {
	return t.bus.Subscribe(AccountChangedTopic, l)
}
