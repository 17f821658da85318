/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package contract

import (
	"context"
	_ "embed"
	"math/big"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github.com/vindecode/vindecode/platform/common/services/logging"
	"github.com/vindecode/vindecode/platform/ethereum/driver"
	"github.com/vindecode/vindecode/platform/vindecode/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var logger = logging.MustGetLogger("vindecode.ethereum.contract")

//go:embed VinDecode.abi.json
var abiJSON string

var (
	parsedABI    abi.ABI
	parsedABIErr error
	parseOnce    sync.Once
)

// ABI returns the parsed interface of the VinDecode contract
func ABI() (abi.ABI, error) {
	parseOnce.Do(func() {
		parsedABI, parsedABIErr = abi.JSON(strings.NewReader(abiJSON))
	})
	return parsedABI, parsedABIErr
}

// Backend is the node connection the contract runs on; *ethclient.Client implements it
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

type Contract struct {
	address common.Address
	abi     abi.ABI
	bound   *bind.BoundContract
	backend Backend
	signer  driver.Signer
	tracer  trace.Tracer
}

func New(address common.Address, backend Backend, signer driver.Signer, tracerProvider trace.TracerProvider) (*Contract, error) {
	parsed, err := ABI()
	if err != nil {
		return nil, errors.Wrap(err, "failed parsing contract abi")
	}
	return &Contract{
		address: address,
		abi:     parsed,
		bound:   bind.NewBoundContract(address, parsed, backend, backend, backend),
		backend: backend,
		signer:  signer,
		tracer:  tracerProvider.Tracer("contract"),
	}, nil
}

func (c *Contract) Address() common.Address {
	return c.address
}

func (c *Contract) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	var out []interface{}
	if err := c.bound.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		if revert, ok := AsRevert(err); ok {
			err = revert
		}
		return nil, errors.Wrapf(err, "failed calling [%s]", method)
	}
	if len(out) == 0 {
		return nil, errors.Errorf("empty result calling [%s]", method)
	}
	return out, nil
}

func (c *Contract) callBool(ctx context.Context, method string, args ...interface{}) (bool, error) {
	out, err := c.call(ctx, method, args...)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

func (c *Contract) IsDealer(ctx context.Context, account common.Address) (bool, error) {
	return c.callBool(ctx, "isDealer", account)
}

func (c *Contract) IsTrafficPolice(ctx context.Context, account common.Address) (bool, error) {
	return c.callBool(ctx, "isTrafficPolice", account)
}

func (c *Contract) IsInsuranceCompany(ctx context.Context, account common.Address) (bool, error) {
	return c.callBool(ctx, "isInsuranceCompany", account)
}

func (c *Contract) CarExists(ctx context.Context, vin string) (bool, error) {
	return c.callBool(ctx, "isCarExists", vin)
}

func (c *Contract) CarInfo(ctx context.Context, vin string) (*model.Car, error) {
	out, err := c.call(ctx, "getCarInfo", vin)
	if err != nil {
		return nil, err
	}
	t := abi.ConvertType(out[0], new(carTuple)).(*carTuple)
	return t.toModel(vin), nil
}

func (c *Contract) State(ctx context.Context) (common.Address, error) {
	out, err := c.call(ctx, "state")
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

func (c *Contract) Balance(ctx context.Context, account common.Address) (*big.Int, error) {
	balance, err := c.backend.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed getting balance of [%s]", account)
	}
	return balance, nil
}

// Send signs and broadcasts the call. A revert during gas estimation is returned as *driver.RevertError,
// signer failures are returned as they are.
func (c *Contract) Send(ctx context.Context, from common.Address, call driver.Call) (*types.Transaction, error) {
	ctx, span := c.tracer.Start(ctx, "send", trace.WithAttributes(attribute.String("method", call.Method)))
	defer span.End()

	if _, ok := c.abi.Methods[call.Method]; !ok {
		return nil, errors.Errorf("method [%s] not found in contract abi", call.Method)
	}
	opts, err := c.signer.TransactOpts(ctx, from)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	opts.Value = call.Value

	tx, err := c.bound.Transact(opts, call.Method, call.Args...)
	if err != nil {
		span.RecordError(err)
		if revert, ok := AsRevert(err); ok {
			return nil, revert
		}
		return nil, err
	}
	logger.Debugf("broadcast [%s] from [%s] in [%s]", call.Method, from, tx.Hash())
	span.AddEvent("broadcast", trace.WithAttributes(attribute.String("tx", tx.Hash().Hex())))
	return tx, nil
}

// WaitConfirmed blocks until the transaction is mined and decodes the contract events of its receipt.
// Failed receipts are replayed at their block to recover the revert reason.
func (c *Contract) WaitConfirmed(ctx context.Context, tx *types.Transaction) (*driver.Confirmation, error) {
	ctx, span := c.tracer.Start(ctx, "wait_confirmed", trace.WithAttributes(attribute.String("tx", tx.Hash().Hex())))
	defer span.End()

	receipt, err := bind.WaitMined(ctx, c.backend, tx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed waiting for [%s]", tx.Hash())
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		revert := c.replay(ctx, tx, receipt)
		logger.Debugf("transaction [%s] failed in block [%d]: %v", tx.Hash(), receipt.BlockNumber, revert)
		return nil, revert
	}

	events := make([]driver.CarEvent, 0, len(receipt.Logs))
	for _, l := range receipt.Logs {
		ev, err := c.decodeLog(*l)
		if err != nil {
			logger.Warnf("skipping log [%d] of [%s]: %v", l.Index, tx.Hash(), err)
			continue
		}
		if ev != nil {
			events = append(events, *ev)
		}
	}
	return &driver.Confirmation{
		TxHash:      receipt.TxHash,
		BlockNumber: receipt.BlockNumber.Uint64(),
		Events:      events,
	}, nil
}

func (c *Contract) replay(ctx context.Context, tx *types.Transaction, receipt *types.Receipt) *driver.RevertError {
	from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		logger.Warnf("cannot recover sender of [%s]: %v", tx.Hash(), err)
		return &driver.RevertError{}
	}
	msg := ethereum.CallMsg{
		From:  from,
		To:    tx.To(),
		Gas:   tx.Gas(),
		Value: tx.Value(),
		Data:  tx.Data(),
	}
	_, err = c.backend.CallContract(ctx, msg, receipt.BlockNumber)
	if revert, ok := AsRevert(err); ok {
		return revert
	}
	return &driver.RevertError{}
}

// decodeLog returns nil for logs that are not contract events
func (c *Contract) decodeLog(l types.Log) (*driver.CarEvent, error) {
	if l.Address != c.address || len(l.Topics) == 0 {
		return nil, nil
	}
	ev, err := c.abi.EventByID(l.Topics[0])
	if err != nil {
		return nil, nil
	}
	var out carEventTuple
	if err := c.bound.UnpackLog(&out, ev.Name, l); err != nil {
		return nil, errors.Wrapf(err, "failed unpacking [%s]", ev.Name)
	}
	return &driver.CarEvent{
		Name:        ev.Name,
		VIN:         out.Vin,
		Car:         out.Car.toModel(out.Vin),
		TxHash:      l.TxHash,
		BlockNumber: l.BlockNumber,
	}, nil
}

// Watch streams the requested contract events into sink until the subscription is closed
func (c *Contract) Watch(ctx context.Context, req driver.WatchRequest, sink chan<- *driver.CarEvent) (driver.Subscription, error) {
	names := req.Events
	if len(names) == 0 {
		for name := range c.abi.Events {
			names = append(names, name)
		}
		sort.Strings(names)
	}
	ids := make([]common.Hash, 0, len(names))
	for _, name := range names {
		ev, ok := c.abi.Events[name]
		if !ok {
			return nil, errors.Errorf("event [%s] not found in contract abi", name)
		}
		ids = append(ids, ev.ID)
	}

	logs := make(chan types.Log, 128)
	query := ethereum.FilterQuery{
		Addresses: []common.Address{c.address},
		Topics:    [][]common.Hash{ids},
	}
	sub, err := c.backend.SubscribeFilterLogs(ctx, query, logs)
	if err != nil {
		return nil, errors.Wrapf(err, "failed subscribing to %v", names)
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &subscription{
		cancel: cancel,
		err:    make(chan error, 1),
		done:   make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		defer sub.Unsubscribe()
		for {
			select {
			case l := <-logs:
				if l.Removed {
					continue
				}
				ev, err := c.decodeLog(l)
				if err != nil {
					logger.Warnf("skipping log of [%s]: %v", l.TxHash, err)
					continue
				}
				if ev == nil || (len(req.VIN) != 0 && ev.VIN != req.VIN) {
					continue
				}
				select {
				case sink <- ev:
				case <-ctx.Done():
					return
				}
			case err := <-sub.Err():
				if err != nil {
					s.err <- err
				}
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return s, nil
}

type subscription struct {
	cancel context.CancelFunc
	err    chan error
	done   chan struct{}
	once   sync.Once
}

func (s *subscription) Close() {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
}

func (s *subscription) Err() <-chan error {
	return s.err
}

// AsRevert extracts the revert reason carried by a node error
func AsRevert(err error) (*driver.RevertError, bool) {
	if err == nil {
		return nil, false
	}
	var revert *driver.RevertError
	if errors.As(err, &revert) {
		return revert, true
	}
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if data, ok := dataErr.ErrorData().(string); ok {
			if raw, decErr := hexutil.Decode(data); decErr == nil {
				if reason, unpackErr := abi.UnpackRevert(raw); unpackErr == nil {
					return &driver.RevertError{Reason: reason}, true
				}
			}
		}
	}
	msg := err.Error()
	idx := strings.Index(msg, "execution reverted")
	if idx == -1 {
		return nil, false
	}
	reason := strings.TrimSpace(strings.TrimPrefix(msg[idx+len("execution reverted"):], ":"))
	return &driver.RevertError{Reason: reason}, true
}
