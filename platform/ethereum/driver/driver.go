/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package driver

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/vindecode/vindecode/platform/vindecode/model"
)

// Contract event names, each carrying (string vin, Car car)
const (
	CarAdded          = "CarAdded"
	AccidentAdded     = "AccidentAdded"
	PlateChanged      = "PlateChanged"
	NewOwnerAdded     = "NewOwnerAdded"
	FinesAdded        = "FinesAdded"
	FinePaid          = "FinePaid"
	CarReportedStolen = "CarReportedStolen"
	CarReportedFound  = "CarReportedFound"
	ReportPurchased   = "ReportPurchased"
)

// Call is a state-changing contract method invocation
type Call struct {
	Method string
	Args   []interface{}
	// Value in wei sent along with payable methods, nil otherwise
	Value *big.Int
}

// RoleQuerier answers the role reads of the contract
type RoleQuerier interface {
	IsDealer(ctx context.Context, account common.Address) (bool, error)
	IsTrafficPolice(ctx context.Context, account common.Address) (bool, error)
	IsInsuranceCompany(ctx context.Context, account common.Address) (bool, error)
}

type CarReader interface {
	CarInfo(ctx context.Context, vin string) (*model.Car, error)
	CarExists(ctx context.Context, vin string) (bool, error)
	// State returns the address collecting the payments
	State(ctx context.Context) (common.Address, error)
	Balance(ctx context.Context, account common.Address) (*big.Int, error)
}

// Transactor signs with the key of from and broadcasts the call
type Transactor interface {
	Send(ctx context.Context, from common.Address, call Call) (*types.Transaction, error)
}

// CarEvent is a decoded contract event
type CarEvent struct {
	Name        string
	VIN         string
	Car         *model.Car
	TxHash      common.Hash
	BlockNumber uint64
}

// Confirmation is the signal that a transaction took durable effect
type Confirmation struct {
	TxHash      common.Hash
	BlockNumber uint64
	Events      []CarEvent
}

// Confirmer blocks until the transaction is mined.
// A mined but failed transaction is reported as a *RevertError.
type Confirmer interface {
	WaitConfirmed(ctx context.Context, tx *types.Transaction) (*Confirmation, error)
}

type WatchRequest struct {
	// Events to follow, all contract events when empty
	Events []string
	// VIN filters the events of a single car, all cars when empty
	VIN string
}

// Subscription is a disposable handle; Close releases it and can be called more than once
type Subscription interface {
	Close()
	// Err delivers the failure that ended the subscription, if any
	Err() <-chan error
}

type EventWatcher interface {
	Watch(ctx context.Context, req WatchRequest, sink chan<- *CarEvent) (Subscription, error)
}

// Backend is the full contract surface consumed by the services
type Backend interface {
	RoleQuerier
	CarReader
	Transactor
	Confirmer
	EventWatcher
}

// AccountWallet is the account side of a wallet
type AccountWallet interface {
	// RequestAccounts is the explicit connection request, the selected account comes first
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	// SubscribeAccounts delivers the account list on every switch, empty when none is available
	SubscribeAccounts(sink chan<- []common.Address) event.Subscription
}

// Signer provides the transaction options signing with the key of account
type Signer interface {
	TransactOpts(ctx context.Context, account common.Address) (*bind.TransactOpts, error)
}
