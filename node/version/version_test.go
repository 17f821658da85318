/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package version

import (
	"bytes"
	"testing"

	. "github.com/onsi/gomega"
)

func TestCmd(t *testing.T) {
	gt := NewGomegaWithT(t)
	cmd := Cmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs(nil)
	gt.Expect(cmd.Execute()).To(Succeed())
	gt.Expect(out.String()).To(ContainSubstring("vindecode:\n Version: latest"))
	gt.Expect(out.String()).To(MatchRegexp(`OS/Arch: \w+/\w+`))

	cmd.SetArgs([]string{"extra"})
	gt.Expect(cmd.Execute()).To(MatchError("trailing args detected"))
}
