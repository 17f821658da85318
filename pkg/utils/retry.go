/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package utils

import (
	"context"
	"errors"
	"time"

	"github.com/vindecode/vindecode/platform/common/services/logging"
)

// RetryRunner receives a function that potentially fails and retries according to the specified strategy
type RetryRunner interface {
	Run(ctx context.Context, runner func() error) error
}

var ErrMaxRetriesExceeded = errors.New("maximum number of retries exceeded")

const Infinitely = -1

type retryRunner struct {
	delay      time.Duration
	expBackoff bool
	maxTimes   int
	logger     logging.Logger
}

func NewRetryRunner(maxTimes int, delay time.Duration, expBackoff bool) *retryRunner {
	return &retryRunner{
		delay:      delay,
		expBackoff: expBackoff,
		maxTimes:   maxTimes,
		logger:     logging.MustGetLogger("vindecode.retry"),
	}
}

func (f *retryRunner) nextDelay() time.Duration {
	if f.expBackoff {
		f.delay = 2 * f.delay
	}
	return f.delay
}

// Run retries runner until it succeeds, maxTimes attempts were made or ctx is done.
// When all attempts fail the joined errors are returned.
func (f *retryRunner) Run(ctx context.Context, runner func() error) error {
	errs := make([]error, 0)
	for i := 0; f.maxTimes < 0 || i < f.maxTimes; i++ {
		err := runner()
		if err == nil {
			return nil
		}
		errs = append(errs, err)
		if f.maxTimes >= 0 && i == f.maxTimes-1 {
			break
		}
		f.logger.Debugf("Will retry iteration [%d] after delay. %d errors returned so far", i+1, len(errs))

		timer := time.NewTimer(f.nextDelay())
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(append(errs, ctx.Err())...)
		case <-timer.C:
		}
	}
	if len(errs) == 0 {
		return ErrMaxRetriesExceeded
	}
	return errors.Join(errs...)
}
