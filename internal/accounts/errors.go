// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

package accounts

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned when a unique field is already taken.
var ErrAlreadyExists = errors.New("already exists")
