// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package authz

import "errors"

var (
	// ErrInvalidRequest is returned for a gate definition that cannot be built.
	ErrInvalidRequest = errors.New("invalid gate request")
	// ErrInvalidExpression is returned when a gate expression does not compile.
	ErrInvalidExpression = errors.New("invalid gate expression")
	// ErrUnknownType is returned for a gate type with no registered factory.
	ErrUnknownType = errors.New("unknown gate type")
)
