/*
Copyright IBM Corp All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package dig

import (
	"context"
	"time"

	"go.uber.org/dig"
)

type (
	ProvideOption  any
	InvokeOption   = dig.InvokeOption
	DecorateOption = dig.DecorateOption
)

type Container interface {
	Provide(constructor interface{}, opts ...ProvideOption) error
	Invoke(function interface{}, opts ...InvokeOption) error
	Decorate(decorator interface{}, opts ...DecorateOption) error
	Visualize() string
}

// ConfigService is the read side of the node configuration
type ConfigService interface {
	GetString(key string) string
	GetBool(key string) bool
	GetInt(key string) int
	GetInt64(key string) int64
	GetDuration(key string) time.Duration
	GetPath(key string) string
	IsSet(key string) bool
	UnmarshalKey(key string, rawVal interface{}) error
}

type SDK interface {
	Install() error
	Start(ctx context.Context) error
	PostStart(ctx context.Context) error
	Stop() error
	Container() Container
	ConfigService() ConfigService
}

func NewBaseSDK(c Container, cfg ConfigService) *BaseSDK {
	return &BaseSDK{c: c, cfg: cfg}
}

type BaseSDK struct {
	c   Container
	cfg ConfigService
}

func (s *BaseSDK) Install() error { return nil }

func (s *BaseSDK) Start(context.Context) error { return nil }

func (s *BaseSDK) ConfigService() ConfigService { return s.cfg }

func (s *BaseSDK) Container() Container { return s.c }

func (s *BaseSDK) PostStart(context.Context) error { return nil }

func (s *BaseSDK) Stop() error { return nil }
