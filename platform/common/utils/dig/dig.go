/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package utils

import (
	"bytes"
	"fmt"

	"go.uber.org/dig"
)

// Visualize renders the container graph in dot format
func Visualize(c *dig.Container) string {
	var w bytes.Buffer
	if err := dig.Visualize(c, &w); err != nil {
		return fmt.Sprintf("could not visualize: [%v]", err)
	}
	return (&w).String()
}

// Identity provides a component under another type, combined with dig.As
func Identity[T any]() func(T) T {
	return func(t T) T {
		return t
	}
}
