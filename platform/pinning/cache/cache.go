/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package cache remembers the content already pinned, keyed by the digest of the bytes.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"
	"github.com/vindecode/vindecode/platform/common/services/logging"
)

var logger = logging.MustGetLogger("vindecode.pinning.cache")

const keyPrefix = "pin/"

type Opts struct {
	// Path of the database directory, ignored in memory
	Path     string
	InMemory bool
	// GCInterval is the period of the value log clean up, defaultGCInterval when zero
	GCInterval time.Duration
}

// Entry is a pinned content
type Entry struct {
	CID      string    `json:"cid"`
	Size     int64     `json:"size"`
	PinnedAt time.Time `json:"pinnedAt"`
}

type Cache struct {
	db            *badger.DB
	cancelCleaner context.CancelFunc
}

// Digest returns the key of data
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func Open(o Opts) (*Cache, error) {
	if !o.InMemory && len(o.Path) == 0 {
		return nil, errors.Errorf("path cannot be empty")
	}

	opt := badger.DefaultOptions(o.Path)
	if o.InMemory {
		opt = badger.DefaultOptions("").WithInMemory(true)
	}
	opt.Logger = &badgerLogger{logger}

	db, err := badger.Open(opt)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open pin cache at '%s'", o.Path)
	}

	interval := o.GCInterval
	if interval == 0 {
		interval = defaultGCInterval
	}
	c := &Cache{db: db, cancelCleaner: autoCleaner(db, interval, defaultGCDiscardRatio)}
	if n, err := c.Len(); err == nil {
		logger.Debugf("pin cache at [%s] contains [%d] entries", o.Path, n)
	}
	return c, nil
}

// Get returns the entry of digest, false when the content was never pinned
func (c *Cache) Get(digest string) (*Entry, bool, error) {
	var e *Entry
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + digest))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			e = &Entry{}
			return json.Unmarshal(val, e)
		})
	})
	if err != nil {
		return nil, false, errors.Wrapf(err, "could not get pin of [%s]", digest)
	}
	return e, e != nil, nil
}

func (c *Cache) Put(digest string, e Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return errors.Wrapf(err, "could not marshal pin of [%s]", digest)
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+digest), raw)
	})
	if err != nil {
		return errors.Wrapf(err, "could not store pin of [%s]", digest)
	}
	return nil
}

// Len counts the entries
func (c *Cache) Len() (int, error) {
	counter := 0
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			counter++
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "failed to count pins")
	}
	return counter, nil
}

func (c *Cache) Close() error {
	if c.cancelCleaner != nil {
		c.cancelCleaner()
	}
	if err := c.db.Close(); err != nil {
		return errors.Wrap(err, "could not close pin cache")
	}
	return nil
}

// badgerLogger adapts the logger to badger
type badgerLogger struct {
	logging.Logger
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.Warnf(format, args...)
}
