/*
Copyright IBM Corp All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package diag_test

import (
	"testing"

	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"
	"github.com/vindecode/vindecode/node/start/diag"
	"github.com/vindecode/vindecode/platform/common/services/logging"
)

func TestCaptureGoRoutines(t *testing.T) {
	gt := NewGomegaWithT(t)
	output, err := diag.CaptureGoRoutines()
	gt.Expect(err).NotTo(HaveOccurred())

	gt.Expect(output).To(MatchRegexp(`goroutine \d+ \[running\]:`))
	gt.Expect(output).To(ContainSubstring("github.com/vindecode/vindecode/node/start/diag.CaptureGoRoutines"))
}

func TestLogGoRoutines(t *testing.T) {
	gt := NewGomegaWithT(t)
	logger, recorder := logging.NewTestLogger(t, logging.Named("goroutine"))
	diag.LogGoRoutines(logger)

	gt.Expect(recorder).To(gbytes.Say(`goroutine \d+ \[running\]:`))
}

func TestLogMemStats(t *testing.T) {
	gt := NewGomegaWithT(t)
	gt.Expect(diag.CaptureMemStats()).To(MatchRegexp(`heap_alloc=\d+ .* goroutines=\d+`))

	logger, recorder := logging.NewTestLogger(t, logging.Named("memstats"))
	diag.LogMemStats(logger)
	gt.Expect(recorder).To(gbytes.Say(`Memory report: heap_alloc=\d+`))
}
