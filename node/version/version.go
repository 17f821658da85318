/*
Copyright the VinDecode Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package version

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

const ProgramName = "vindecode"

// Version and CommitSHA are set with -ldflags at build time
var (
	Version   = "latest"
	CommitSHA = "development build"
)

// Cmd returns the cobra command for version
func Cmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print vindecode version.",
		Long:  `Print current version of the vindecode binaries.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("trailing args detected")
			}
			cmd.SilenceUsage = true
			fmt.Fprint(cmd.OutOrStdout(), GetInfo())
			return nil
		},
	}
}

// GetInfo returns version information for the binary
func GetInfo() string {
	return fmt.Sprintf("%s:\n Version: %s\n Commit SHA: %s\n Go version: %s\n OS/Arch: %s\n",
		ProgramName, Version, CommitSHA, runtime.Version(),
		fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH))
}
