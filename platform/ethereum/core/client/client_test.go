/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package client

import (
	"context"
	"math/big"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ethService struct {
	chainID    *big.Int
	chainReads atomic.Int32
}

func (s *ethService) ChainId() *hexutil.Big {
	s.chainReads.Add(1)
	return (*hexutil.Big)(s.chainID)
}

func (s *ethService) BlockNumber() hexutil.Uint64 {
	return 42
}

func (s *ethService) GetBalance(common.Address, string) *hexutil.Big {
	return (*hexutil.Big)(big.NewInt(7))
}

func newNode(t *testing.T, chainID int64) (*ethService, string) {
	svc := &ethService{chainID: big.NewInt(chainID)}
	srv := rpc.NewServer()
	require.NoError(t, srv.RegisterName("eth", svc))
	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		ts.Close()
		srv.Stop()
	})
	return svc, ts.URL
}

func TestLazyDial(t *testing.T) {
	svc, url := newNode(t, 11155111)
	c := New(url, big.NewInt(11155111))
	ctx := context.Background()

	assert.Equal(t, int32(0), svc.chainReads.Load())
	require.NoError(t, c.HealthCheck(ctx))

	balance, err := c.BalanceAt(ctx, common.HexToAddress("0x1"), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(7), balance.Int64())
	assert.Equal(t, int32(1), svc.chainReads.Load())

	// redial after close
	require.NoError(t, c.Close())
	require.NoError(t, c.HealthCheck(ctx))
	assert.Equal(t, int32(2), svc.chainReads.Load())
}

func TestWrongChain(t *testing.T) {
	_, url := newNode(t, 1)
	c := New(url, big.NewInt(11155111))

	err := c.HealthCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected [11155111]")

	_, err = c.SuggestGasPrice(context.Background())
	assert.Error(t, err)
}

func TestUnreachable(t *testing.T) {
	c := New("http://127.0.0.1:1", nil)
	assert.Error(t, c.HealthCheck(context.Background()))
	_, err := c.PendingNonceAt(context.Background(), common.Address{})
	assert.Error(t, err)
}
