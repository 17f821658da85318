/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package server

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/vindecode/vindecode/platform/common/services/logging"
	"github.com/vindecode/vindecode/platform/pinning/cache"
	"github.com/vindecode/vindecode/platform/pinning/gateway"
	"github.com/vindecode/vindecode/platform/view/services/metrics"
	"github.com/vindecode/vindecode/platform/view/services/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var logger = logging.MustGetLogger("vindecode.pinning.server")

const DefaultParallelism = 4

// Pinner stores a file on IPFS and returns its CID
type Pinner interface {
	Pin(ctx context.Context, name string, r io.Reader) (string, error)
}

// Store remembers the CID of content already pinned
type Store interface {
	Get(digest string) (*cache.Entry, bool, error)
	Put(digest string, e cache.Entry) error
}

// File is an uploaded file
type File struct {
	Name string
	Data []byte
}

// Service pins batches of files and returns their gateway URLs
type Service struct {
	pinner      Pinner
	store       Store
	gateway     string
	parallelism int
	metrics     *Metrics
	tracer      trace.Tracer
	now         func() time.Time
}

// NewService returns a service pinning on pinner. A nil store disables deduplication.
func NewService(pinner Pinner, store Store, gatewayBase string, parallelism int, metricsProvider metrics.Provider, tracerProvider trace.TracerProvider) *Service {
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}
	return &Service{
		pinner:      pinner,
		store:       store,
		gateway:     gatewayBase,
		parallelism: parallelism,
		metrics:     NewMetrics(metricsProvider),
		tracer: tracerProvider.Tracer("pinning", tracing.WithMetricsOpts(tracing.MetricsOpts{
			Namespace:  "vindecode",
			LabelNames: []tracing.LabelName{outcomeLabel},
		})),
		now: time.Now,
	}
}

// PinAll pins the files concurrently and returns their URLs in the order of files.
// The first failure cancels the pins still running and fails the batch.
func (s *Service) PinAll(ctx context.Context, files []File) ([]string, error) {
	urls := make([]string, len(files))
	if len(files) == 0 {
		return urls, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			cid, err := s.pin(gctx, f)
			if err != nil {
				return errors.WithMessagef(err, "failed pinning file %d", i)
			}
			urls[i] = gateway.URL(s.gateway, cid)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.metrics.Batches.Add(1)
	return urls, nil
}

func (s *Service) pin(ctx context.Context, f File) (string, error) {
	ctx, span := s.tracer.Start(ctx, "pin", trace.WithAttributes(attribute.String("name", f.Name)))
	defer span.End()

	digest := cache.Digest(f.Data)
	if s.store != nil {
		e, ok, err := s.store.Get(digest)
		if err != nil {
			logger.Warnf("pin cache lookup of [%s] failed, pinning again: %v", f.Name, err)
		} else if ok {
			logger.Debugf("[%s] already pinned as [%s]", f.Name, e.CID)
			span.SetAttributes(attribute.String(outcomeLabel, "cached"))
			s.metrics.pinned("cached", 0)
			return e.CID, nil
		}
	}

	start := s.now()
	cid, err := s.pinner.Pin(ctx, f.Name, bytes.NewReader(f.Data))
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String(outcomeLabel, "failed"))
		s.metrics.pinned("failed", 0)
		return "", err
	}
	span.SetAttributes(attribute.String(outcomeLabel, "pinned"))
	s.metrics.pinned("pinned", s.now().Sub(start))

	if s.store != nil {
		if err := s.store.Put(digest, cache.Entry{CID: cid, Size: int64(len(f.Data)), PinnedAt: s.now()}); err != nil {
			logger.Warnf("failed remembering pin of [%s]: %v", f.Name, err)
		}
	}
	return cid, nil
}
