/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package utils

import (
	"github.com/google/uuid"
)

func init() {
	// pooled random bytes are kept on the heap, see uuid.EnableRandPool.
	uuid.EnableRandPool()
}

// GenerateUUID creates a new random UUID and returns it as a string
func GenerateUUID() string {
	return uuid.NewString()
}

// NewRequestID returns an identifier used to correlate relay requests in the logs.
func NewRequestID() string {
	return "req_" + GenerateUUID()
}
