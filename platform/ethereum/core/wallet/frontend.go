/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package wallet

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Frontend should be implemented by users of the Wallet. Its methods are
// called whenever the wallet makes a decision that requires user input.
type Frontend interface {
	// Passphrase is called when the configured passphrase does not unlock
	// the account. It returns false when no passphrase can be provided.
	Passphrase(account common.Address) (string, bool)

	// ConfirmTransaction is called before signing every transaction.
	// It should prompt the user and return true if the transaction was acknowledged.
	ConfirmTransaction(from common.Address, tx *types.Transaction) bool
}

// dummyFrontend is a non-interactive frontend that allows all
// transactions but cannot provide any passphrase.
type dummyFrontend struct{}

func (dummyFrontend) Passphrase(common.Address) (string, bool)                   { return "", false }
func (dummyFrontend) ConfirmTransaction(common.Address, *types.Transaction) bool { return true }

// NewAutoConfirmFrontend returns the frontend of an unattended node
func NewAutoConfirmFrontend() Frontend {
	return dummyFrontend{}
}
