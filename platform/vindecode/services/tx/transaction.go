/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package tx

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vindecode/vindecode/platform/ethereum/driver"
	"github.com/vindecode/vindecode/platform/vindecode/services/gate"
)

type Status int

const (
	Submitted Status = iota
	Confirmed
	Failed
)

func (s Status) String() string {
	switch s {
	case Submitted:
		return "submitted"
	case Confirmed:
		return "confirmed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// ExplorerURL renders the explorer link of a transaction.
// The format either holds a %s verb or is a base URL the hash is appended to.
func ExplorerURL(format string, handle common.Hash) string {
	if len(format) == 0 {
		return ""
	}
	if strings.Contains(format, "%s") {
		return fmt.Sprintf(format, handle.Hex())
	}
	return strings.TrimRight(format, "/") + "/" + handle.Hex()
}

// PendingTransaction tracks a broadcast transaction until its single terminal transition
type PendingTransaction struct {
	Action   gate.Action
	Method   string
	Handle   common.Hash
	Explorer string

	mutex        sync.RWMutex
	status       Status
	failure      *Failure
	confirmation *driver.Confirmation
	done         chan struct{}
}

func newPendingTransaction(action gate.Action, method string, handle common.Hash, explorer string) *PendingTransaction {
	return &PendingTransaction{
		Action:   action,
		Method:   method,
		Handle:   handle,
		Explorer: explorer,
		status:   Submitted,
		done:     make(chan struct{}),
	}
}

// finish applies the terminal transition, it returns false if one already happened
func (p *PendingTransaction) finish(confirmation *driver.Confirmation, failure *Failure) bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.status != Submitted {
		return false
	}
	if failure != nil {
		p.status = Failed
		p.failure = failure
	} else {
		p.status = Confirmed
		p.confirmation = confirmation
	}
	close(p.done)
	return true
}

func (p *PendingTransaction) Status() Status {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.status
}

// Failure is set once the transaction Failed
func (p *PendingTransaction) Failure() *Failure {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.failure
}

// Confirmation is set once the transaction is Confirmed
func (p *PendingTransaction) Confirmation() *driver.Confirmation {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.confirmation
}

// Done is closed on the terminal transition
func (p *PendingTransaction) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the terminal transition or ctx is done.
// Giving up waiting does not affect the transaction.
func (p *PendingTransaction) Wait(ctx context.Context) (*driver.Confirmation, error) {
	select {
	case <-p.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if f := p.Failure(); f != nil {
		return nil, f
	}
	return p.Confirmation(), nil
}

// View is the serializable state of a transaction
type View struct {
	Handle   string `json:"handle"`
	Action   string `json:"action"`
	Method   string `json:"method"`
	Status   string `json:"status"`
	Explorer string `json:"explorer,omitempty"`
	Kind     string `json:"kind,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Block    uint64 `json:"block,omitempty"`
}

func (p *PendingTransaction) View() View {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	v := View{
		Handle:   p.Handle.Hex(),
		Action:   p.Action.String(),
		Method:   p.Method,
		Status:   p.status.String(),
		Explorer: p.Explorer,
	}
	if p.failure != nil {
		v.Kind = p.failure.Kind.String()
		v.Reason = p.failure.Reason
	}
	if p.confirmation != nil {
		v.Block = p.confirmation.BlockNumber
	}
	return v
}
