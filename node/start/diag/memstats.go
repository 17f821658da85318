/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package diag

import (
	"fmt"
	"runtime"

	"github.com/vindecode/vindecode/platform/common/services/logging"
)

// CaptureMemStats summarizes the heap and scheduler state
func CaptureMemStats() string {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return fmt.Sprintf("heap_alloc=%d heap_inuse=%d heap_objects=%d sys=%d num_gc=%d goroutines=%d",
		m.HeapAlloc, m.HeapInuse, m.HeapObjects, m.Sys, m.NumGC, runtime.NumGoroutine())
}

func LogMemStats(logger logging.Logger) {
	logger.Infof("Memory report: %s", CaptureMemStats())
}
