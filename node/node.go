/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package node

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/vindecode/vindecode/node/start"
	"github.com/vindecode/vindecode/node/version"
	node2 "github.com/vindecode/vindecode/pkg/node"
	"github.com/vindecode/vindecode/platform/common/services/logging"
	"github.com/vindecode/vindecode/platform/pinning/server"
	"github.com/vindecode/vindecode/platform/view/services/config"
	sdk "github.com/vindecode/vindecode/platform/vindecode/sdk/dig"
)

var logger = logging.MustGetLogger("vindecode.node")

// New returns the vindecode root command
func New() *cobra.Command {
	var confPath string
	mainCmd := &cobra.Command{
		Use:   version.ProgramName,
		Short: "Vehicle history registry on Ethereum.",
	}
	mainCmd.PersistentFlags().StringVarP(&confPath, "config", "c", "", "directory holding core.yaml")

	mainCmd.AddCommand(version.Cmd())
	mainCmd.AddCommand(appCmd(&confPath))
	mainCmd.AddCommand(relayCmd(&confPath))
	return mainCmd
}

func appCmd(confPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "app",
		Short: "Operate the vindecode application node: start.",
	}
	cmd.AddCommand(startCmd(
		"Starts the application node.",
		`Starts the node serving the vindecode pages over the JSON API, signing with the configured keystore.`,
		func() (start.Service, error) {
			provider, err := config.NewProvider(*confPath)
			if err != nil {
				return nil, err
			}
			return node2.New(sdk.NewSDK(provider, version.Version)), nil
		},
	))
	return cmd
}

func relayCmd(confPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Operate the image pinning relay: start.",
	}
	cmd.AddCommand(startCmd(
		"Starts the pinning relay.",
		`Starts the relay accepting image uploads and pinning them on IPFS through Pinata.`,
		func() (start.Service, error) {
			provider, err := config.NewProvider(*confPath)
			if err != nil {
				return nil, err
			}
			var c server.Config
			if err := provider.UnmarshalKey("relay", &c); err != nil {
				return nil, errors.Wrap(err, "failed reading relay configuration")
			}
			c.Cache.Path = provider.GetPath("relay.cache.path")
			r, err := server.New(c, version.Version)
			if err != nil {
				return nil, err
			}
			return &relayService{Relay: r}, nil
		},
	))
	return cmd
}

func startCmd(short, long string, build func() (start.Service, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: short,
		Long:  long,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("trailing args detected")
			}
			cmd.SilenceUsage = true
			s, err := build()
			if err != nil {
				return err
			}
			return start.Serve(cmd.Parent().Name(), s)
		},
	}
}

type relayService struct {
	*server.Relay
}

func (r *relayService) Stop() {
	if err := r.Relay.Stop(); err != nil {
		logger.Warnf("errors stopping relay: %v", err)
	}
}
