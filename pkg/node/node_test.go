/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package node

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	dig2 "github.com/vindecode/vindecode/platform/common/sdk/dig"
)

type recordingSDK struct {
	*dig2.BaseSDK
	name  string
	calls *[]string
	fail  string
}

func (s *recordingSDK) step(step string) error {
	*s.calls = append(*s.calls, s.name+"."+step)
	if step == s.fail {
		return errors.Errorf("%s failed", step)
	}
	return nil
}

func (s *recordingSDK) Install() error                  { return s.step("install") }
func (s *recordingSDK) Start(context.Context) error     { return s.step("start") }
func (s *recordingSDK) PostStart(context.Context) error { return s.step("poststart") }
func (s *recordingSDK) Stop() error                     { return s.step("stop") }

func TestLifecycle(t *testing.T) {
	var calls []string
	n := New(&recordingSDK{name: "a", calls: &calls})
	require.NoError(t, n.InstallSDK(&recordingSDK{name: "b", calls: &calls}))

	require.NoError(t, n.Start())
	assert.Error(t, n.InstallSDK(&recordingSDK{name: "c", calls: &calls}))
	n.Stop()
	n.Stop()

	assert.Equal(t, []string{
		"a.install", "b.install",
		"a.start", "b.start",
		"a.poststart", "b.poststart",
		"b.stop", "a.stop",
	}, calls)
}

func TestStartFailure(t *testing.T) {
	var calls []string
	n := New(&recordingSDK{name: "a", calls: &calls, fail: "start"}, &recordingSDK{name: "b", calls: &calls})
	err := n.Start()
	assert.EqualError(t, err, "failed starting sdk: start failed")
	assert.Equal(t, []string{"a.install", "b.install", "a.start"}, calls)
}
