/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package errors

import (
	"strings"

	"github.com/pkg/errors"
)

// HasCause recursively checks errors wrapped using Wrapf until it detects the target error
func HasCause(source, target error) bool {
	return source != nil && target != nil && errors.Is(source, target)
}

// Wrapf wraps an error in a way compatible with HasCause
func Wrapf(err error, format string, args ...any) error {
	return errors.Wrapf(err, format, args...)
}

func Errorf(format string, args ...any) error {
	return errors.Errorf(format, args...)
}

func New(msg string) error {
	return errors.New(msg)
}

// Message returns the innermost message of err, stripping the context added by Wrapf.
// It returns the empty string for a nil error.
func Message(err error) string {
	if err == nil {
		return ""
	}
	return strings.TrimSpace(errors.Cause(err).Error())
}
