//go:build !windows

/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package start

import (
	"os"
	"syscall"

	"github.com/vindecode/vindecode/node/start/diag"
	"github.com/vindecode/vindecode/platform/common/services/logging"
)

// diagnosticSignals report on the running process without stopping it
func diagnosticSignals(l logging.Logger) map[os.Signal]func() {
	return map[os.Signal]func(){
		syscall.SIGUSR1: func() { diag.LogGoRoutines(l) },
		syscall.SIGUSR2: func() { diag.LogMemStats(l) },
	}
}
