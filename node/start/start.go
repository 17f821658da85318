/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package start

import (
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/pkg/errors"
	"github.com/vindecode/vindecode/node/start/profile"
	"github.com/vindecode/vindecode/platform/common/services/logging"
)

const (
	ProfilerEnv     = "VINDECODE_PROFILER"
	ProfilePathEnv  = "VINDECODE_PROFILE_PATH"
	SighupIgnoreEnv = "VINDECODE_SIGHUP_IGNORE"
)

var logger = logging.MustGetLogger("vindecode.node.start")

// Service is a long running process driven by Serve
type Service interface {
	Start() error
	Stop()
}

// Serve starts s and blocks until a termination signal stops it
func Serve(name string, s Service) error {
	if boolEnv(ProfilerEnv) {
		path := os.Getenv(ProfilePathEnv)
		if path == "" {
			path = "./profiles"
		}
		profiler, err := profile.New(profile.WithPath(path), profile.WithAll())
		if err != nil {
			return errors.WithMessage(err, "error creating profiler")
		}
		if err := profiler.Start(); err != nil {
			return errors.WithMessage(err, "error starting profiler")
		}
		defer profiler.Stop()
	}

	sighupIgnore := boolEnv(SighupIgnoreEnv)
	if sighupIgnore {
		logger.Infof("SIGHUP signal will be ignored")
	}

	done := make(chan struct{})
	var once sync.Once
	stop := func(sig string) func() {
		return func() {
			once.Do(func() {
				logger.Infof("received %s, stopping %s...", sig, name)
				s.Stop()
				close(done)
			})
		}
	}
	sigs := map[os.Signal]func(){
		syscall.SIGINT:  stop("SIGINT"),
		syscall.SIGTERM: stop("SIGTERM"),
		syscall.SIGHUP:  stop("SIGHUP"),
	}
	if sighupIgnore {
		sigs[syscall.SIGHUP] = func() { logger.Infof("received SIGHUP, but ignoring it") }
	}

	for sig, h := range diagnosticSignals(logger.Named("diag")) {
		sigs[sig] = h
	}
	signals := make([]os.Signal, 0, len(sigs))
	for sig := range sigs {
		signals = append(signals, sig)
	}
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, signals...)
	defer signal.Stop(signalChan)

	if err := s.Start(); err != nil {
		s.Stop()
		return errors.WithMessagef(err, "failed starting %s", name)
	}
	logger.Infof("started %s", name)

	go handleSignals(signalChan, sigs, done)
	<-done
	return nil
}

func handleSignals(signalChan <-chan os.Signal, handlers map[os.Signal]func(), done <-chan struct{}) {
	for {
		select {
		case sig := <-signalChan:
			logger.Debugf("received signal: %d (%s)", sig, sig)
			handlers[sig]()
		case <-done:
			return
		}
	}
}

func boolEnv(key string) bool {
	raw := os.Getenv(key)
	if len(raw) == 0 {
		return false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		logger.Warnf("error parsing boolean environment variable %s: %s", key, err)
		return false
	}
	return v
}
