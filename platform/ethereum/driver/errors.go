/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package driver

import (
	"github.com/pkg/errors"
)

var (
	ErrUserRejected = errors.New("user rejected the request")
	ErrNoAccounts   = errors.New("no accounts available in the wallet")
	ErrNoWallet     = errors.New("no wallet configured")
)

// RevertError carries the reason of a transaction rejected by the contract.
// Reason is empty when the contract gave none.
type RevertError struct {
	Reason string
}

func (e *RevertError) Error() string {
	if len(e.Reason) == 0 {
		return "execution reverted"
	}
	return "execution reverted: " + e.Reason
}

// WalletError is a failure of the wallet whose message is shown as it is
type WalletError struct {
	Message string
	Cause   error
}

func (e *WalletError) Error() string {
	return e.Message
}

func (e *WalletError) Unwrap() error {
	return e.Cause
}

// NewWalletError wraps cause keeping its message
func NewWalletError(cause error) error {
	if cause == nil {
		return nil
	}
	return &WalletError{Message: cause.Error(), Cause: cause}
}
