/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package tx

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/vindecode/vindecode/platform/common/services/logging"
	"github.com/vindecode/vindecode/platform/ethereum/driver"
	"github.com/vindecode/vindecode/platform/view/services/events"
	"github.com/vindecode/vindecode/platform/view/services/metrics"
	"github.com/vindecode/vindecode/platform/view/services/tracing"
	"github.com/vindecode/vindecode/platform/vindecode/services/gate"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var logger = logging.MustGetLogger("vindecode.tx")

// StatusChangedTopic is the topic of the StatusChanged events
const StatusChangedTopic = "vindecode.tx.status_changed"

// StatusChanged is published when a transaction is broadcast and on its terminal transition
type StatusChanged struct {
	Tx     *PendingTransaction
	Status Status
}

type Gate interface {
	Acquire(ctx context.Context, action gate.Action) (*gate.Slot, error)
}

type Backend interface {
	driver.Transactor
	driver.Confirmer
}

// DefaultRetention is how long a finished transaction can still be looked up
const DefaultRetention = time.Minute

type Option func(*Submitter)

// WithRetention sets how long finished transactions stay in Lookup, zero drops them on the terminal transition
func WithRetention(d time.Duration) Option {
	return func(s *Submitter) {
		s.retention = d
	}
}

// Submitter sends the calls of gated actions and tracks them until confirmation
type Submitter struct {
	gate      Gate
	backend   Backend
	publisher events.Publisher
	explorer  string
	retention time.Duration
	metrics   *Metrics
	tracer    trace.Tracer

	mutex   sync.RWMutex
	pending map[common.Hash]*PendingTransaction
	wg      sync.WaitGroup
}

func NewSubmitter(gate Gate, backend Backend, publisher events.Publisher, explorer string, metricsProvider metrics.Provider, tracerProvider trace.TracerProvider, opts ...Option) *Submitter {
	s := &Submitter{
		gate:      gate,
		backend:   backend,
		publisher: publisher,
		explorer:  explorer,
		retention: DefaultRetention,
		metrics:   NewMetrics(metricsProvider),
		tracer: tracerProvider.Tracer("tx_submitter", tracing.WithMetricsOpts(tracing.MetricsOpts{
			Namespace:  "vindecode",
			LabelNames: []tracing.LabelName{methodLabel},
		})),
		pending: map[common.Hash]*PendingTransaction{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Preparer builds the call once the action is acquired, e.g. after uploading its attachments
type Preparer func(ctx context.Context) (driver.Call, error)

// Submit acquires the action and broadcasts the call from the session account.
// Failures before broadcast are returned as *Failure and no transaction is tracked.
// Once broadcast, the transaction is returned Submitted and confirmed in the background;
// the action is released on its terminal transition.
func (s *Submitter) Submit(ctx context.Context, action gate.Action, call driver.Call) (*PendingTransaction, error) {
	return s.SubmitPrepared(ctx, action, func(context.Context) (driver.Call, error) {
		return call, nil
	})
}

// SubmitPrepared is Submit for calls that can only be built while holding the action
func (s *Submitter) SubmitPrepared(ctx context.Context, action gate.Action, prepare Preparer) (*PendingTransaction, error) {
	ctx, span := s.tracer.Start(ctx, "submit", trace.WithAttributes(attribute.String(methodLabel, action.Name)))
	defer span.End()

	slot, err := s.gate.Acquire(ctx, action)
	if err != nil {
		f := Classify(err)
		s.metrics.failed(action.Name, f.Kind)
		logger.Debugf("action [%s] refused: %v", action, err)
		return nil, f
	}

	call, err := prepare(ctx)
	if err != nil {
		slot.Release()
		f := Classify(err)
		s.metrics.failed(action.Name, f.Kind)
		logger.Warnf("failed preparing [%s]: %v", action, err)
		return nil, f
	}
	span.SetAttributes(attribute.String(methodLabel, call.Method))

	// preparing can take long enough for the account to change
	if err := slot.Revalidate(ctx); err != nil {
		slot.Release()
		f := Classify(err)
		s.metrics.failed(call.Method, f.Kind)
		logger.Debugf("action [%s] refused after preparing: %v", action, err)
		return nil, f
	}

	tx, err := s.backend.Send(ctx, slot.Session.Account, call)
	if err != nil {
		slot.Release()
		f := Classify(err)
		span.RecordError(err)
		s.metrics.failed(call.Method, f.Kind)
		logger.Warnf("failed submitting [%s] for [%s]: %v", call.Method, action, err)
		return nil, f
	}

	p := newPendingTransaction(action, call.Method, tx.Hash(), ExplorerURL(s.explorer, tx.Hash()))
	s.mutex.Lock()
	s.pending[p.Handle] = p
	s.mutex.Unlock()
	s.metrics.submitted(call.Method)
	logger.Infof("transaction [%s] of [%s] submitted", p.Handle, action)
	s.publish(p, Submitted)

	s.wg.Add(1)
	go s.confirm(context.WithoutCancel(ctx), slot, p, tx, time.Now())
	return p, nil
}

func (s *Submitter) confirm(ctx context.Context, slot *gate.Slot, p *PendingTransaction, tx *types.Transaction, started time.Time) {
	defer s.wg.Done()

	confirmation, err := s.backend.WaitConfirmed(ctx, tx)
	var failure *Failure
	if err != nil {
		failure = Classify(err)
	}
	finished := p.finish(confirmation, failure)
	slot.Release()
	s.evict(p.Handle)
	if !finished {
		return
	}

	if failure != nil {
		s.metrics.failed(p.Method, failure.Kind)
		s.metrics.Pending.Add(-1)
		logger.Errorf("transaction [%s] of [%s] failed: %v", p.Handle, p.Action, err)
		s.publish(p, Failed)
		return
	}
	s.metrics.confirmed(p.Method, time.Since(started))
	logger.Infof("transaction [%s] of [%s] confirmed in block [%d]", p.Handle, p.Action, confirmation.BlockNumber)
	s.publish(p, Confirmed)
}

func (s *Submitter) publish(p *PendingTransaction, status Status) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("caught panic while dispatching status [%s] of [%s]: [%s][%s]", status, p.Handle, r, debug.Stack())
		}
	}()
	s.publisher.Publish(events.NewEvent(StatusChangedTopic, StatusChanged{Tx: p, Status: status}))
}

// evict drops a finished transaction once the retention expires
func (s *Submitter) evict(handle common.Hash) {
	remove := func() {
		s.mutex.Lock()
		defer s.mutex.Unlock()
		delete(s.pending, handle)
	}
	if s.retention <= 0 {
		remove()
		return
	}
	time.AfterFunc(s.retention, remove)
}

// Tracked returns the number of transactions Lookup can find
func (s *Submitter) Tracked() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.pending)
}

// Lookup returns the tracked transaction with the given handle.
// Finished transactions are found until the retention expires.
func (s *Submitter) Lookup(handle common.Hash) (*PendingTransaction, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	p, ok := s.pending[handle]
	return p, ok
}

// Wait blocks until every tracked transaction reached its terminal state
func (s *Submitter) Wait() {
	s.wg.Wait()
}
