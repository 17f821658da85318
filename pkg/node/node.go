/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package node

import (
	"context"
	"runtime/debug"

	"github.com/pkg/errors"
	dig2 "github.com/vindecode/vindecode/platform/common/sdk/dig"
	"github.com/vindecode/vindecode/platform/common/services/logging"
	"go.uber.org/multierr"
)

var logger = logging.MustGetLogger("vindecode.node")

// Node drives the lifecycle of a stack of SDKs sharing one container
type Node struct {
	sdks    []dig2.SDK
	context context.Context
	cancel  context.CancelFunc
	running bool
}

func New(sdks ...dig2.SDK) *Node {
	return &Node{sdks: sdks}
}

func (n *Node) InstallSDK(p dig2.SDK) error {
	if n.running {
		return errors.New("failed installing sdk, the node is already running")
	}
	n.sdks = append(n.sdks, p)
	return nil
}

func (n *Node) Start() (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("start triggered panic: %s\n%s", r, debug.Stack())
			err = errors.Errorf("start triggered panic: %s", r)
		}
	}()

	n.running = true
	logger.Infof("installing sdks...")
	for _, p := range n.sdks {
		if err := p.Install(); err != nil {
			return errors.WithMessage(err, "failed installing sdk")
		}
	}

	n.context, n.cancel = context.WithCancel(context.Background())

	logger.Infof("starting sdks...")
	for _, p := range n.sdks {
		if err := p.Start(n.context); err != nil {
			return errors.WithMessage(err, "failed starting sdk")
		}
	}

	logger.Infof("post-starting sdks...")
	for _, p := range n.sdks {
		if err := p.PostStart(n.context); err != nil {
			return errors.WithMessage(err, "failed post-starting sdk")
		}
	}
	logger.Infof("sdks started")
	return nil
}

// Stop stops the sdks in reverse order
func (n *Node) Stop() {
	if !n.running {
		return
	}
	n.running = false
	if n.cancel != nil {
		n.cancel()
	}
	var err error
	for i := len(n.sdks) - 1; i >= 0; i-- {
		err = multierr.Append(err, n.sdks[i].Stop())
	}
	if err != nil {
		logger.Warnf("errors stopping sdks: %v", err)
	}
}
