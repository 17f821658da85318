/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package wallet

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"
	"github.com/vindecode/vindecode/platform/common/services/logging"
	"github.com/vindecode/vindecode/platform/ethereum/driver"
)

var logger = logging.MustGetLogger("vindecode.ethereum.wallet")

var (
	ErrUserRejected = driver.ErrUserRejected
	ErrNoAccounts   = driver.ErrNoAccounts
)

// Wallet is a keystore-backed signer with an explicitly selected account.
// Subscribers get the account list, selected account first, on every switch.
type Wallet struct {
	ks         *keystore.KeyStore
	chainID    *big.Int
	passphrase string
	frontend   Frontend

	mutex     sync.RWMutex
	connected bool
	selected  common.Address

	feed     event.Feed
	scope    event.SubscriptionScope
	ksSub    event.Subscription
	ksEvents chan accounts.WalletEvent
	done     chan struct{}
}

func New(ks *keystore.KeyStore, chainID *big.Int, passphrase string, frontend Frontend) *Wallet {
	if frontend == nil {
		frontend = dummyFrontend{}
	}
	return &Wallet{
		ks:         ks,
		chainID:    chainID,
		passphrase: passphrase,
		frontend:   frontend,
	}
}

// Open opens the keystore in keydir
func Open(keydir string, chainID *big.Int, passphrase string, frontend Frontend) *Wallet {
	return New(keystore.NewKeyStore(keydir, keystore.StandardScryptN, keystore.StandardScryptP), chainID, passphrase, frontend)
}

// Start forwards the keystore wallet arrivals and drops to the subscribers
func (w *Wallet) Start() {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.ksSub != nil {
		return
	}
	w.ksEvents = make(chan accounts.WalletEvent, 16)
	w.ksSub = w.ks.Subscribe(w.ksEvents)
	w.done = make(chan struct{})
	go w.loop(w.ksSub, w.ksEvents, w.done)
}

func (w *Wallet) Stop() {
	w.mutex.Lock()
	sub, done := w.ksSub, w.done
	w.ksSub = nil
	w.mutex.Unlock()

	if sub != nil {
		sub.Unsubscribe()
		<-done
	}
	w.scope.Close()
}

func (w *Wallet) loop(sub event.Subscription, events chan accounts.WalletEvent, done chan struct{}) {
	defer close(done)
	for {
		select {
		case ev := <-events:
			logger.Debugf("keystore wallet event [%d] for [%s]", ev.Kind, ev.Wallet.URL())
			if list, changed := w.refresh(); changed {
				w.feed.Send(list)
			}
		case err := <-sub.Err():
			if err != nil {
				logger.Errorf("keystore subscription failed: %v", err)
			}
			return
		}
	}
}

// refresh drops the selection if its key is gone and returns the list to notify
func (w *Wallet) refresh() ([]common.Address, bool) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if !w.connected {
		return nil, false
	}
	if !w.ks.HasAddress(w.selected) {
		logger.Infof("selected account [%s] left the keystore", w.selected)
		w.selected = common.Address{}
		for _, a := range w.ks.Accounts() {
			if err := w.unlock(a.Address); err == nil {
				w.selected = a.Address
				break
			}
		}
	}
	return w.ordered(), true
}

// ordered lists the keystore accounts selected first; empty when nothing is selected.
// The lock must be held.
func (w *Wallet) ordered() []common.Address {
	if w.selected == (common.Address{}) {
		return []common.Address{}
	}
	list := []common.Address{w.selected}
	for _, a := range w.ks.Accounts() {
		if a.Address != w.selected {
			list = append(list, a.Address)
		}
	}
	return list
}

// RequestAccounts connects the wallet, unlocking the selected account
func (w *Wallet) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	all := w.ks.Accounts()
	if len(all) == 0 {
		return nil, driver.NewWalletError(ErrNoAccounts)
	}
	if w.selected == (common.Address{}) || !w.ks.HasAddress(w.selected) {
		w.selected = all[0].Address
	}
	if err := w.unlock(w.selected); err != nil {
		return nil, err
	}
	w.connected = true
	return w.ordered(), nil
}

// Accounts returns the connected accounts, empty before RequestAccounts
func (w *Wallet) Accounts() []common.Address {
	w.mutex.RLock()
	defer w.mutex.RUnlock()

	if !w.connected {
		return []common.Address{}
	}
	return w.ordered()
}

// Select switches the account used for signing and notifies the subscribers
func (w *Wallet) Select(account common.Address) error {
	w.mutex.Lock()
	if !w.ks.HasAddress(account) {
		w.mutex.Unlock()
		return errors.Errorf("account [%s] not found in keystore", account)
	}
	if err := w.unlock(account); err != nil {
		w.mutex.Unlock()
		return err
	}
	w.selected = account
	w.connected = true
	list := w.ordered()
	w.mutex.Unlock()

	logger.Infof("selected account [%s]", account)
	w.feed.Send(list)
	return nil
}

func (w *Wallet) SubscribeAccounts(sink chan<- []common.Address) event.Subscription {
	return w.scope.Track(w.feed.Subscribe(sink))
}

func (w *Wallet) unlock(account common.Address) error {
	acc := accounts.Account{Address: account}
	err := w.ks.Unlock(acc, w.passphrase)
	if err == nil {
		return nil
	}
	if passphrase, ok := w.frontend.Passphrase(account); ok {
		if err = w.ks.Unlock(acc, passphrase); err == nil {
			return nil
		}
	}
	return driver.NewWalletError(errors.WithMessagef(err, "cannot unlock [%s]", account.Hex()))
}

// TransactOpts returns options signing with the keystore key of account after the frontend confirmed
func (w *Wallet) TransactOpts(ctx context.Context, account common.Address) (*bind.TransactOpts, error) {
	acc, err := w.ks.Find(accounts.Account{Address: account})
	if err != nil {
		return nil, driver.NewWalletError(errors.WithMessagef(err, "cannot sign with [%s]", account.Hex()))
	}
	opts, err := bind.NewKeyStoreTransactorWithChainID(w.ks, acc, w.chainID)
	if err != nil {
		return nil, driver.NewWalletError(err)
	}
	sign := opts.Signer
	opts.Signer = func(from common.Address, tx *types.Transaction) (*types.Transaction, error) {
		if !w.frontend.ConfirmTransaction(from, tx) {
			logger.Infof("signature of [%s] rejected", tx.Hash())
			return nil, ErrUserRejected
		}
		signed, err := sign(from, tx)
		if err != nil {
			return nil, driver.NewWalletError(err)
		}
		return signed, nil
	}
	opts.Context = ctx
	return opts, nil
}
