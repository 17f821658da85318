/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package start

import (
	"os"

	"github.com/vindecode/vindecode/platform/common/services/logging"
)

func diagnosticSignals(logging.Logger) map[os.Signal]func() {
	return nil
}
