/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package relay

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/vindecode/vindecode/pkg/utils"
)

type State int

const (
	// Local entries are still on this side
	Local State = iota
	// Remote entries have a public URL
	Remote
)

type Entry struct {
	ID    string
	Name  string
	State State
	URL   string
	data  []byte
}

type Uploader interface {
	UploadBatch(ctx context.Context, attachments []Attachment) ([]string, error)
}

// Batch is the ordered set of attachments of a form.
// Entries move from Local to Remote on upload and can be removed before.
type Batch struct {
	mutex   sync.Mutex
	entries []*Entry
}

func NewBatch() *Batch {
	return &Batch{}
}

// Add appends a local entry and returns its id
func (b *Batch) Add(name string, data []byte) string {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	e := &Entry{ID: utils.GenerateUUID(), Name: name, State: Local, data: data}
	b.entries = append(b.entries, e)
	return e.ID
}

// Remove drops the entry, it returns false when no such entry exists
func (b *Batch) Remove(id string) bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	for i, e := range b.entries {
		if e.ID == id {
			b.entries = append(b.entries[:i:i], b.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (b *Batch) Len() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return len(b.entries)
}

// Entries returns a copy of the entries in order
func (b *Batch) Entries() []Entry {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	res := make([]Entry, len(b.entries))
	for i, e := range b.entries {
		res[i] = *e
	}
	return res
}

// Upload sends the local entries and returns the URLs of all entries in order.
// On failure no entry changes state. Nothing is sent when every entry is already remote.
func (b *Batch) Upload(ctx context.Context, uploader Uploader) ([]string, error) {
	b.mutex.Lock()
	var local []*Entry
	var attachments []Attachment
	for _, e := range b.entries {
		if e.State == Local {
			local = append(local, e)
			attachments = append(attachments, Attachment{Name: e.Name, Data: e.data})
		}
	}
	b.mutex.Unlock()

	var urls []string
	if len(local) != 0 {
		var err error
		urls, err = uploader.UploadBatch(ctx, attachments)
		if err != nil {
			return nil, err
		}
		if len(urls) != len(local) {
			return nil, errors.Errorf("relay returned [%d] urls for [%d] files", len(urls), len(local))
		}
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()
	for i, e := range local {
		e.State = Remote
		e.URL = urls[i]
		e.data = nil
	}
	res := make([]string, 0, len(b.entries))
	for _, e := range b.entries {
		if e.State == Remote {
			res = append(res, e.URL)
		}
	}
	return res, nil
}
