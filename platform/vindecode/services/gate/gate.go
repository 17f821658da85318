/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package gate

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/vindecode/vindecode/platform/common/services/logging"
	"github.com/vindecode/vindecode/platform/vindecode/services/role"
	"github.com/vindecode/vindecode/platform/vindecode/services/session"
	"go.uber.org/atomic"
)

var logger = logging.MustGetLogger("vindecode.gate")

var (
	ErrNotConnected  = errors.New("Please connect your wallet")
	ErrNotAuthorized = errors.New("You are not authorized to access this page")
	ErrActionPending = errors.New("action already in progress")
)

// Action identifies a user-triggerable operation of an area
type Action struct {
	Area role.Area
	Name string
}

func (a Action) String() string {
	return a.Area.String() + "/" + a.Name
}

type Session interface {
	Snapshot() session.Snapshot
}

type Roles interface {
	Resolve(ctx context.Context, snapshot session.Snapshot, area role.Area) bool
}

// Gate decides whether an action may run and serializes each action
type Gate struct {
	session Session
	roles   Roles

	mutex    sync.Mutex
	inFlight map[Action]struct{}
	count    atomic.Int32
}

func New(session Session, roles Roles) *Gate {
	return &Gate{
		session:  session,
		roles:    roles,
		inFlight: map[Action]struct{}{},
	}
}

// Check returns the session the action is permitted for, ignoring whether the action is in flight.
// A role result computed for an older epoch than the current one is refused.
func (g *Gate) Check(ctx context.Context, action Action) (session.Snapshot, error) {
	snapshot := g.session.Snapshot()
	if !snapshot.Connected() {
		return session.Snapshot{}, ErrNotConnected
	}
	if action.Area != role.None && !g.roles.Resolve(ctx, snapshot, action.Area) {
		return session.Snapshot{}, ErrNotAuthorized
	}
	if current := g.session.Snapshot(); current.Epoch != snapshot.Epoch {
		logger.Debugf("session moved from epoch [%d] to [%d] while checking [%s]", snapshot.Epoch, current.Epoch, action)
		if !current.Connected() {
			return session.Snapshot{}, ErrNotConnected
		}
		return session.Snapshot{}, ErrNotAuthorized
	}
	return snapshot, nil
}

// IsPermitted is true when the session is connected, its account holds the area role
// and the action is not in flight
func (g *Gate) IsPermitted(ctx context.Context, action Action) bool {
	if g.Pending(action) {
		return false
	}
	_, err := g.Check(ctx, action)
	return err == nil
}

// Pending is true while the action is in flight
func (g *Gate) Pending(action Action) bool {
	if g.count.Load() == 0 {
		return false
	}
	g.mutex.Lock()
	defer g.mutex.Unlock()
	_, ok := g.inFlight[action]
	return ok
}

// InFlight returns the number of actions in flight
func (g *Gate) InFlight() int {
	return int(g.count.Load())
}

// Acquire marks the action in flight and checks it.
// A second Acquire of an in-flight action fails with ErrActionPending before any role check.
func (g *Gate) Acquire(ctx context.Context, action Action) (*Slot, error) {
	g.mutex.Lock()
	if _, ok := g.inFlight[action]; ok {
		g.mutex.Unlock()
		return nil, ErrActionPending
	}
	g.inFlight[action] = struct{}{}
	g.count.Inc()
	g.mutex.Unlock()

	slot := &Slot{gate: g, Action: action}
	snapshot, err := g.Check(ctx, action)
	if err != nil {
		slot.Release()
		return nil, err
	}
	slot.Session = snapshot
	return slot, nil
}

func (g *Gate) release(action Action) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	if _, ok := g.inFlight[action]; ok {
		delete(g.inFlight, action)
		g.count.Dec()
	}
}

// Slot is an acquired action. Release frees it and can be called more than once.
type Slot struct {
	Action  Action
	Session session.Snapshot

	gate *Gate
	once sync.Once
}

// Revalidate checks the action again against the current session.
// A slot acquired in an older session epoch is refused even if the new account holds the role.
func (s *Slot) Revalidate(ctx context.Context) error {
	snapshot, err := s.gate.Check(ctx, s.Action)
	if err != nil {
		return err
	}
	if snapshot.Epoch != s.Session.Epoch {
		logger.Debugf("session moved from epoch [%d] to [%d] while holding [%s]", s.Session.Epoch, snapshot.Epoch, s.Action)
		return ErrNotAuthorized
	}
	return nil
}

func (s *Slot) Release() {
	s.once.Do(func() {
		s.gate.release(s.Action)
	})
}
