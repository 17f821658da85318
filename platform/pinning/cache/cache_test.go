/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemory(t *testing.T) {
	c, err := Open(Opts{InMemory: true})
	require.NoError(t, err)
	defer c.Close()

	digest := Digest([]byte("front bumper"))
	assert.Len(t, digest, 64)

	_, ok, err := c.Get(digest)
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Unix(1710000000, 0).UTC()
	require.NoError(t, c.Put(digest, Entry{CID: "QmFront", Size: 12, PinnedAt: at}))
	e, ok, err := c.Get(digest)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Entry{CID: "QmFront", Size: 12, PinnedAt: at}, *e)

	n, err := c.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPersistent(t *testing.T) {
	dir := t.TempDir()
	_, err := Open(Opts{})
	assert.Error(t, err)

	c, err := Open(Opts{Path: dir})
	require.NoError(t, err)
	require.NoError(t, c.Put(Digest([]byte("a")), Entry{CID: "QmA"}))
	require.NoError(t, c.Close())

	c, err = Open(Opts{Path: dir})
	require.NoError(t, err)
	defer c.Close()
	e, ok, err := c.Get(Digest([]byte("a")))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "QmA", e.CID)
}

type fakeDB struct {
	mutex    sync.Mutex
	closed   bool
	inMemory bool
	gcRuns   int
	gcErr    error
}

func (f *fakeDB) IsClosed() bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.closed
}

func (f *fakeDB) RunValueLogGC(float64) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.gcRuns++
	return f.gcErr
}

func (f *fakeDB) Opts() badger.Options {
	return badger.DefaultOptions("").WithInMemory(f.inMemory)
}

func (f *fakeDB) runs() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.gcRuns
}

func TestAutoCleaner(t *testing.T) {
	assert.Nil(t, autoCleaner(&fakeDB{inMemory: true}, time.Millisecond, 0.5))
	assert.Nil(t, autoCleaner(nil, time.Millisecond, 0.5))

	db := &fakeDB{gcErr: badger.ErrRejected}
	cancel := autoCleaner(db, time.Millisecond, 0.5)
	require.NotNil(t, cancel)
	require.Eventually(t, func() bool { return db.runs() >= 2 }, 5*time.Second, time.Millisecond)

	db.mutex.Lock()
	db.gcErr = errors.New("disk full")
	db.mutex.Unlock()
	require.Eventually(t, func() bool { return db.runs() >= 4 }, 5*time.Second, time.Millisecond)

	// stops once the db is closed
	db.mutex.Lock()
	db.closed = true
	db.mutex.Unlock()
	time.Sleep(10 * time.Millisecond)
	runs := db.runs()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, runs, db.runs())
	cancel()
}
