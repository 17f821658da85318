/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryRunnerSucceedsEventually(t *testing.T) {
	calls := 0
	err := NewRetryRunner(5, time.Millisecond, false).Run(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("dial tcp: connection refused")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryRunnerJoinsErrors(t *testing.T) {
	first, second := errors.New("first"), errors.New("second")
	errs := []error{first, second}
	calls := 0
	err := NewRetryRunner(2, time.Hour, true).Run(context.Background(), func() error {
		e := errs[calls]
		calls++
		return e
	})
	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)
	assert.Equal(t, 2, calls)
}

func TestRetryRunnerSingleAttempt(t *testing.T) {
	start := time.Now()
	err := NewRetryRunner(1, time.Hour, false).Run(context.Background(), func() error {
		return errors.New("refused")
	})
	assert.EqualError(t, err, "refused")
	assert.Less(t, time.Since(start), time.Minute)
}

func TestRetryRunnerStopsOnContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewRetryRunner(Infinitely, time.Hour, false).Run(ctx, func() error {
		return errors.New("unreachable")
	})
	assert.ErrorIs(t, err, context.Canceled)
}
