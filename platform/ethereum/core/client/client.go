/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package client

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/vindecode/vindecode/pkg/utils"
	"github.com/vindecode/vindecode/platform/common/services/logging"
	"github.com/vindecode/vindecode/platform/common/utils/lazy"
)

var logger = logging.MustGetLogger("vindecode.ethereum.client")

const (
	dialTimeout = 10 * time.Second
	// transport failures are retried, a wrong chain is not
	dialAttempts = 3
	dialDelay    = 100 * time.Millisecond
)

// Client dials the node on first use and redials after Reset.
// The node must serve the expected chain.
type Client struct {
	endpoint string
	chainID  *big.Int
	holder   lazy.Holder[*ethclient.Client]
}

func New(endpoint string, chainID *big.Int) *Client {
	c := &Client{endpoint: endpoint, chainID: chainID}
	c.holder = lazy.NewHolder(c.dial, func(cl *ethclient.Client) error {
		cl.Close()
		return nil
	})
	return c
}

func (c *Client) dial() (*ethclient.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	var cl *ethclient.Client
	var id *big.Int
	err := utils.NewRetryRunner(dialAttempts, dialDelay, true).Run(ctx, func() error {
		var err error
		if cl, err = ethclient.DialContext(ctx, c.endpoint); err != nil {
			return errors.Wrapf(err, "failed dialing [%s]", c.endpoint)
		}
		if id, err = cl.ChainID(ctx); err != nil {
			cl.Close()
			return errors.Wrapf(err, "failed reading chain id from [%s]", c.endpoint)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if c.chainID != nil && id.Cmp(c.chainID) != 0 {
		cl.Close()
		return nil, errors.Errorf("node [%s] serves chain [%s], expected [%s]", c.endpoint, id, c.chainID)
	}
	logger.Infof("connected to [%s], chain [%s]", c.endpoint, id)
	return cl, nil
}

func (c *Client) get() (*ethclient.Client, error) {
	return c.holder.Get()
}

// Close drops the connection; the next call redials
func (c *Client) Close() error {
	if _, ok := c.holder.Peek(); ok {
		logger.Debugf("closing connection to [%s]", c.endpoint)
	}
	return c.holder.Reset()
}

// HealthCheck reports whether the node is reachable
func (c *Client) HealthCheck(ctx context.Context) error {
	cl, err := c.get()
	if err != nil {
		return err
	}
	if _, err := cl.BlockNumber(ctx); err != nil {
		return errors.Wrapf(err, "node [%s] unreachable", c.endpoint)
	}
	return nil
}

func (c *Client) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	cl, err := c.get()
	if err != nil {
		return nil, err
	}
	return cl.CodeAt(ctx, contract, blockNumber)
}

func (c *Client) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	cl, err := c.get()
	if err != nil {
		return nil, err
	}
	return cl.CallContract(ctx, call, blockNumber)
}

func (c *Client) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	cl, err := c.get()
	if err != nil {
		return nil, err
	}
	return cl.HeaderByNumber(ctx, number)
}

func (c *Client) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	cl, err := c.get()
	if err != nil {
		return nil, err
	}
	return cl.PendingCodeAt(ctx, account)
}

func (c *Client) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	cl, err := c.get()
	if err != nil {
		return 0, err
	}
	return cl.PendingNonceAt(ctx, account)
}

func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	cl, err := c.get()
	if err != nil {
		return nil, err
	}
	return cl.SuggestGasPrice(ctx)
}

func (c *Client) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	cl, err := c.get()
	if err != nil {
		return nil, err
	}
	return cl.SuggestGasTipCap(ctx)
}

func (c *Client) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	cl, err := c.get()
	if err != nil {
		return 0, err
	}
	return cl.EstimateGas(ctx, call)
}

func (c *Client) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	cl, err := c.get()
	if err != nil {
		return err
	}
	return cl.SendTransaction(ctx, tx)
}

func (c *Client) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	cl, err := c.get()
	if err != nil {
		return nil, err
	}
	return cl.FilterLogs(ctx, query)
}

func (c *Client) SubscribeFilterLogs(ctx context.Context, query ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	cl, err := c.get()
	if err != nil {
		return nil, err
	}
	return cl.SubscribeFilterLogs(ctx, query, ch)
}

func (c *Client) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	cl, err := c.get()
	if err != nil {
		return nil, err
	}
	return cl.TransactionReceipt(ctx, txHash)
}

func (c *Client) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	cl, err := c.get()
	if err != nil {
		return nil, err
	}
	return cl.BalanceAt(ctx, account, blockNumber)
}
