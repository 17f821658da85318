/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/pkg/errors"
	"github.com/vindecode/vindecode/platform/common/services/logging"
)

var logger = logging.MustGetLogger("vindecode.node.profile")

const DefaultMemProfileRate = 409

type Option func(*Profile) error

func WithPath(path string) Option {
	return func(p *Profile) error {
		if path == "" {
			return errors.New("path is required")
		}
		p.path = path
		return nil
	}
}

// WithAll turns on every profile next to cpu
func WithAll() Option {
	return func(p *Profile) error {
		p.memoryAllocs = true
		p.memoryHeap = true
		p.mutex = true
		p.blocker = true
		return nil
	}
}

func WithMemProfileRate(rate int) Option {
	return func(p *Profile) error {
		if rate <= 0 {
			return errors.Errorf("invalid memory profile rate [%d]", rate)
		}
		p.memProfileRate = rate
		return nil
	}
}

// Profile writes pprof files under a directory from Start until Stop
type Profile struct {
	path           string
	memProfileRate int
	memoryAllocs   bool
	memoryHeap     bool
	mutex          bool
	blocker        bool

	closers []func()
}

func New(opts ...Option) (*Profile, error) {
	p := &Profile{memProfileRate: DefaultMemProfileRate}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	if len(p.path) == 0 {
		return nil, errors.New("path is required")
	}
	return p, nil
}

func (p *Profile) Start() error {
	if err := os.MkdirAll(p.path, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create profile directory: %s", p.path)
	}
	logger.Infof("profiling into [%s]", p.path)
	if err := p.startCPUProfile(); err != nil {
		return err
	}
	if p.memoryHeap {
		if err := p.startMemProfile("heap"); err != nil {
			return err
		}
	}
	if p.memoryAllocs {
		if err := p.startMemProfile("allocs"); err != nil {
			return err
		}
	}
	if p.mutex {
		if err := p.startLookupProfile("mutex", func(on bool) {
			runtime.SetMutexProfileFraction(rate(on))
		}); err != nil {
			return err
		}
	}
	if p.blocker {
		if err := p.startLookupProfile("block", func(on bool) {
			runtime.SetBlockProfileRate(rate(on))
		}); err != nil {
			return err
		}
	}
	return nil
}

// Stop flushes the profiles in reverse start order
func (p *Profile) Stop() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		p.closers[i]()
	}
	p.closers = nil
}

func (p *Profile) create(name string) (*os.File, error) {
	f, err := os.Create(filepath.Join(p.path, name))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create profile [%s]", name)
	}
	return f, nil
}

func (p *Profile) startCPUProfile() error {
	f, err := p.create("cpu.pprof")
	if err != nil {
		return err
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return errors.Wrap(err, "failed to start cpu profile")
	}
	p.closers = append(p.closers, func() {
		pprof.StopCPUProfile()
		f.Close()
	})
	return nil
}

func (p *Profile) startMemProfile(kind string) error {
	f, err := p.create(fmt.Sprintf("mem-%s.pprof", kind))
	if err != nil {
		return err
	}
	old := runtime.MemProfileRate
	runtime.MemProfileRate = p.memProfileRate
	p.closers = append(p.closers, func() {
		if err := pprof.Lookup(kind).WriteTo(f, 0); err != nil {
			logger.Warnf("failed writing %s profile: %v", kind, err)
		}
		f.Close()
		runtime.MemProfileRate = old
	})
	return nil
}

func (p *Profile) startLookupProfile(kind string, toggle func(on bool)) error {
	f, err := p.create(kind + ".pprof")
	if err != nil {
		return err
	}
	toggle(true)
	p.closers = append(p.closers, func() {
		if err := pprof.Lookup(kind).WriteTo(f, 0); err != nil {
			logger.Warnf("failed writing %s profile: %v", kind, err)
		}
		f.Close()
		toggle(false)
	})
	return nil
}

func rate(on bool) int {
	if on {
		return 1
	}
	return 0
}
