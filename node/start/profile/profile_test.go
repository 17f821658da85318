/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileWritesFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "profiles")
	p, err := New(WithPath(dir), WithAll())
	require.NoError(t, err)
	require.NoError(t, p.Start())
	p.Stop()

	for _, name := range []string{"cpu.pprof", "mem-heap.pprof", "mem-allocs.pprof", "mutex.pprof", "block.pprof"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestProfileOptions(t *testing.T) {
	_, err := New()
	assert.EqualError(t, err, "path is required")
	_, err = New(WithPath(""))
	assert.Error(t, err)
	_, err = New(WithPath(t.TempDir()), WithMemProfileRate(0))
	assert.Error(t, err)
}
