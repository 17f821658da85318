/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package page

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/vindecode/vindecode/platform/common/services/logging"
	"github.com/vindecode/vindecode/platform/ethereum/driver"
	"github.com/vindecode/vindecode/platform/vindecode/model"
	"github.com/vindecode/vindecode/platform/vindecode/services/gate"
	"github.com/vindecode/vindecode/platform/vindecode/services/merge"
	"github.com/vindecode/vindecode/platform/vindecode/services/relay"
	"github.com/vindecode/vindecode/platform/vindecode/services/role"
	"github.com/vindecode/vindecode/platform/vindecode/services/session"
	"github.com/vindecode/vindecode/platform/vindecode/services/tx"
)

var logger = logging.MustGetLogger("vindecode.page")

// ErrClosed is returned by the operations of a closed page
var ErrClosed = errors.New("page closed")

type Gate interface {
	Check(ctx context.Context, action gate.Action) (session.Snapshot, error)
	Pending(action gate.Action) bool
}

type Submitter interface {
	SubmitPrepared(ctx context.Context, action gate.Action, prepare tx.Preparer) (*tx.PendingTransaction, error)
}

// Reader is the read side of the contract a page uses
type Reader interface {
	driver.CarReader
	driver.EventWatcher
}

type Deps struct {
	Gate      Gate
	Submitter Submitter
	Reader    Reader
	Uploader  relay.Uploader
	// Now defaults to time.Now
	Now func() time.Time
}

// Dialog is what the page shows on top of the record
type Dialog struct {
	// Error is the message of the last failure, empty when none
	Error string `json:"error,omitempty"`
	Kind  string `json:"kind,omitempty"`
	// Processing is set while a transaction of the page waits for confirmation
	Processing bool   `json:"processing"`
	Handle     string `json:"handle,omitempty"`
	Explorer   string `json:"explorer,omitempty"`
}

// Page holds the view state of one area: the loaded record, the dialog, and the transactions in flight.
// Results arriving after Close are dropped.
type Page struct {
	area role.Area
	deps Deps

	ctx    context.Context
	cancel context.CancelFunc

	mutex      sync.Mutex
	vin        string
	record     *model.Car
	dialog     Dialog
	applied    map[common.Hash]struct{}
	processing map[common.Hash]*tx.PendingTransaction
	watch      driver.Subscription
	stopWatch  context.CancelFunc
	wg         sync.WaitGroup
}

func New(area role.Area, deps Deps) *Page {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Page{
		area:       area,
		deps:       deps,
		ctx:        ctx,
		cancel:     cancel,
		applied:    map[common.Hash]struct{}{},
		processing: map[common.Hash]*tx.PendingTransaction{},
	}
}

func (p *Page) Area() role.Area {
	return p.area
}

func (p *Page) closed() bool {
	return p.ctx.Err() != nil
}

// Permitted checks that the session may see the page. A refusal opens the error dialog.
func (p *Page) Permitted(ctx context.Context) error {
	if p.closed() {
		return ErrClosed
	}
	_, err := p.deps.Gate.Check(ctx, gate.Action{Area: p.area, Name: "view"})
	if err != nil {
		f := tx.Classify(err)
		p.fail(f)
		return f
	}
	return nil
}

// IsPermitted tells whether the action can be started now
func (p *Page) IsPermitted(ctx context.Context, name string) bool {
	cmd, err := NewCommand(p.area, name)
	if err != nil {
		return false
	}
	action := gate.Action{Area: cmd.Area(), Name: cmd.Name()}
	if p.deps.Gate.Pending(action) {
		return false
	}
	_, err = p.deps.Gate.Check(ctx, action)
	return err == nil
}

// Fetch loads the record of vin, replacing the current one, and follows its contract events
func (p *Page) Fetch(ctx context.Context, vin string) (*model.Car, error) {
	if p.closed() {
		return nil, ErrClosed
	}
	if err := validateVIN(vin); err != nil {
		p.fail(tx.Classify(err))
		return nil, err
	}
	car, err := p.deps.Reader.CarInfo(ctx, vin)
	if err != nil {
		f := tx.Classify(err)
		p.fail(f)
		return nil, f
	}
	if !car.Registered() {
		f := invalid(errors.New(CarNotFound))
		p.fail(f)
		return nil, f
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.closed() {
		return nil, ErrClosed
	}
	p.unwatch()
	p.vin = vin
	p.record = car
	p.applied = map[common.Hash]struct{}{}
	p.watchVIN(vin)
	return car.Clone(), nil
}

// watchVIN follows the events of vin. The lock must be held.
func (p *Page) watchVIN(vin string) {
	ctx, cancel := context.WithCancel(p.ctx)
	sink := make(chan *driver.CarEvent, 16)
	sub, err := p.deps.Reader.Watch(ctx, driver.WatchRequest{VIN: vin}, sink)
	if err != nil {
		cancel()
		logger.Warnf("not following the events of [%s]: %v", vin, err)
		return
	}
	p.watch = sub
	p.stopWatch = cancel

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for {
			select {
			case ev := <-sink:
				p.onEvent(ev)
			case err := <-sub.Err():
				logger.Warnf("stopped following the events of [%s]: %v", vin, err)
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// unwatch stops following the events of the current record. The lock must be held.
func (p *Page) unwatch() {
	if p.stopWatch != nil {
		p.stopWatch()
		p.stopWatch = nil
	}
	if p.watch != nil {
		p.watch.Close()
		p.watch = nil
	}
}

func (p *Page) onEvent(ev *driver.CarEvent) {
	if ev == nil || ev.Car == nil {
		return
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.closed() || ev.VIN != p.vin {
		return
	}
	if _, ok := p.applied[ev.TxHash]; ok {
		return
	}
	p.applied[ev.TxHash] = struct{}{}
	p.record = merge.Merge(p.record, merge.ReplaceRecord{Record: ev.Car})
	logger.Debugf("record [%s] replaced by [%s] of [%s]", ev.VIN, ev.Name, ev.TxHash)
}

// Record returns a copy of the loaded record, nil when none
func (p *Page) Record() *model.Car {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.record.Clone()
}

func (p *Page) Dialog() Dialog {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.dialog
}

// DismissError closes the error dialog
func (p *Page) DismissError() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.dialog.Error = ""
	p.dialog.Kind = ""
}

func (p *Page) fail(f *tx.Failure) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.closed() {
		return
	}
	p.dialog.Error = f.Reason
	p.dialog.Kind = f.Kind.String()
}

// Run submits the command. Failures are returned as *tx.Failure and shown in the dialog.
// On confirmation the change lands on the record unless the record moved to another car.
func (p *Page) Run(ctx context.Context, cmd Command) (*tx.PendingTransaction, error) {
	if p.closed() {
		return nil, ErrClosed
	}
	if err := cmd.Validate(); err != nil {
		f := tx.Classify(err)
		p.fail(f)
		return nil, f
	}

	var change merge.Action
	action := gate.Action{Area: cmd.Area(), Name: cmd.Name()}
	pt, err := p.deps.Submitter.SubmitPrepared(ctx, action, func(ctx context.Context) (driver.Call, error) {
		p.mutex.Lock()
		e := &env{reader: p.deps.Reader, uploader: p.deps.Uploader, record: p.record.Clone(), now: p.deps.Now}
		p.mutex.Unlock()

		call, m, err := cmd.build(ctx, e)
		change = m
		return call, err
	})
	if err != nil {
		f := tx.Classify(err)
		p.fail(f)
		return nil, f
	}

	p.mutex.Lock()
	if p.closed() {
		p.mutex.Unlock()
		return pt, nil
	}
	p.processing[pt.Handle] = pt
	p.showProcessing()
	p.mutex.Unlock()

	p.wg.Add(1)
	go p.track(pt, cmd.Target(), change)
	return pt, nil
}

// showProcessing updates the dialog from the transactions in flight. The lock must be held.
func (p *Page) showProcessing() {
	p.dialog.Processing = len(p.processing) != 0
	p.dialog.Handle, p.dialog.Explorer = "", ""
	for _, pt := range p.processing {
		p.dialog.Handle = pt.Handle.Hex()
		p.dialog.Explorer = pt.Explorer
	}
}

func (p *Page) track(pt *tx.PendingTransaction, vin string, change merge.Action) {
	defer p.wg.Done()

	select {
	case <-pt.Done():
	case <-p.ctx.Done():
		return
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.closed() {
		return
	}
	delete(p.processing, pt.Handle)
	p.showProcessing()

	if f := pt.Failure(); f != nil {
		p.dialog.Error = f.Reason
		p.dialog.Kind = f.Kind.String()
		return
	}
	if p.record == nil || len(vin) == 0 || vin != p.vin {
		return
	}
	if _, ok := p.applied[pt.Handle]; ok {
		return
	}
	actions := merge.FromConfirmation(pt.Confirmation(), vin)
	if len(actions) == 0 && change != nil {
		actions = []merge.Action{change}
	}
	if len(actions) == 0 {
		return
	}
	p.applied[pt.Handle] = struct{}{}
	for _, a := range actions {
		p.record = merge.Merge(p.record, a)
	}
}

// Close drops the page state. Transactions in flight keep going, their results are ignored.
func (p *Page) Close() {
	p.mutex.Lock()
	p.cancel()
	p.unwatch()
	p.record = nil
	p.processing = map[common.Hash]*tx.PendingTransaction{}
	p.mutex.Unlock()

	p.wg.Wait()
}

// StateInfo is the account collecting the contract payments
type StateInfo struct {
	Address common.Address `json:"address"`
	// Balance in ether
	Balance string `json:"balance"`
}

// State reads the payment account and its balance; it is part of the admin page
func (p *Page) State(ctx context.Context) (*StateInfo, error) {
	if p.closed() {
		return nil, ErrClosed
	}
	if p.area != role.Admin {
		return nil, errors.Errorf("page [%s] has no state view", p.area)
	}
	if err := p.Permitted(ctx); err != nil {
		return nil, err
	}
	address, err := p.deps.Reader.State(ctx)
	if err != nil {
		f := tx.Classify(err)
		p.fail(f)
		return nil, f
	}
	balance, err := p.deps.Reader.Balance(ctx, address)
	if err != nil {
		f := tx.Classify(err)
		p.fail(f)
		return nil, f
	}
	return &StateInfo{Address: address, Balance: model.FormatEther(balance)}, nil
}
