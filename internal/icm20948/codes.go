// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package icm20948

import "fmt"

// ReturnCode is the status returned by every driver call and bus callback.
// Zero means success.
type ReturnCode int8

const (
	OK            ReturnCode = 0
	Err           ReturnCode = -1
	NullPtr       ReturnCode = -2
	InvalidParam  ReturnCode = -3
	InvalidConfig ReturnCode = -4
)

func (c ReturnCode) String() string {
	switch c {
	case OK:
		return "ok"
	case Err:
		return "error"
	case NullPtr:
		return "null pointer"
	case InvalidParam:
		return "invalid parameter"
	case InvalidConfig:
		return "invalid config"
	default:
		return fmt.Sprintf("code %d", int8(c))
	}
}

// AsError returns nil for OK and an error carrying the code otherwise.
func (c ReturnCode) AsError() error {
	if c == OK {
		return nil
	}
	return &StatusError{Code: c}
}

// StatusError wraps a non-OK ReturnCode for callers that work with errors.
type StatusError struct {
	Code ReturnCode
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("icm20948: %s (%d)", e.Code, int8(e.Code))
}
