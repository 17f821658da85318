/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package tx

import (
	"github.com/pkg/errors"
	errors2 "github.com/vindecode/vindecode/pkg/utils/errors"
	"github.com/vindecode/vindecode/platform/ethereum/driver"
	"github.com/vindecode/vindecode/platform/vindecode/services/gate"
	"github.com/vindecode/vindecode/platform/vindecode/services/relay"
)

// GenericReason is shown when the failure carries no reason of its own
const GenericReason = "Transaction failed"

type Kind int

const (
	Unknown Kind = iota
	Authorization
	Wallet
	Revert
	Relay
)

func (k Kind) String() string {
	switch k {
	case Authorization:
		return "authorization"
	case Wallet:
		return "wallet"
	case Revert:
		return "revert"
	case Relay:
		return "relay"
	default:
		return "unknown"
	}
}

// Failure is the user-facing outcome of a failed action
type Failure struct {
	Kind   Kind
	Reason string
	Cause  error
}

func (f *Failure) Error() string {
	return f.Reason
}

func (f *Failure) Unwrap() error {
	return f.Cause
}

// Classify turns any error of an action into a Failure, nil stays nil
func Classify(err error) *Failure {
	if err == nil {
		return nil
	}
	var failure *Failure
	if errors.As(err, &failure) {
		return failure
	}

	for _, sentinel := range []error{gate.ErrNotConnected, gate.ErrNotAuthorized, gate.ErrActionPending} {
		if errors2.HasCause(err, sentinel) {
			return &Failure{Kind: Authorization, Reason: sentinel.Error(), Cause: err}
		}
	}

	var relayErr *relay.Error
	if errors.As(err, &relayErr) {
		return &Failure{Kind: Relay, Reason: orGeneric(relayErr.Error()), Cause: err}
	}

	var revert *driver.RevertError
	if errors.As(err, &revert) {
		return &Failure{Kind: Revert, Reason: orGeneric(revert.Reason), Cause: err}
	}

	var walletErr *driver.WalletError
	if errors.As(err, &walletErr) {
		return &Failure{Kind: Wallet, Reason: orGeneric(walletErr.Message), Cause: err}
	}
	for _, sentinel := range []error{driver.ErrUserRejected, driver.ErrNoAccounts, driver.ErrNoWallet} {
		if errors2.HasCause(err, sentinel) {
			return &Failure{Kind: Wallet, Reason: sentinel.Error(), Cause: err}
		}
	}

	return &Failure{Kind: Unknown, Reason: GenericReason, Cause: err}
}

func orGeneric(reason string) string {
	if len(reason) == 0 {
		return GenericReason
	}
	return reason
}
