/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"os"
	"strings"

	"github.com/spf13/viper"
	"github.com/vindecode/vindecode/node"
	"github.com/vindecode/vindecode/platform/view/services/config"
)

func main() {
	// For environment variables.
	viper.SetEnvPrefix(config.CmdRoot)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if node.New().Execute() != nil {
		os.Exit(1)
	}
}
