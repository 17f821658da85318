/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package sdk

import (
	"os"

	"github.com/pkg/errors"
	common "github.com/vindecode/vindecode/platform/common/sdk/dig"
	digutils "github.com/vindecode/vindecode/platform/common/utils/dig"
	"go.uber.org/dig"
)

// Container is the dig container of the node. Options travel untyped through the SDKs.
type Container struct{ *dig.Container }

func NewContainer(opts ...dig.Option) *Container {
	return &Container{Container: dig.New(opts...)}
}

func (c *Container) Provide(constructor any, options ...common.ProvideOption) error {
	opts := make([]dig.ProvideOption, 0, len(options))
	for i, option := range options {
		opt, ok := option.(dig.ProvideOption)
		if !ok {
			return errors.Errorf("invalid provide option [%d] of type [%T]", i, option)
		}
		opts = append(opts, opt)
	}
	return c.Container.Provide(constructor, opts...)
}

// Visualize renders the services and their dependencies in dot format
func (c *Container) Visualize() string {
	return digutils.Visualize(c.Container)
}

// WriteGraph stores the dot graph of c at path
func WriteGraph(c common.Container, path string) error {
	if err := os.WriteFile(path, []byte(c.Visualize()), 0o644); err != nil {
		return errors.Wrapf(err, "failed writing service graph to [%s]", path)
	}
	return nil
}
