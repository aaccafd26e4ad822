// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

// Package identifier validates account identifiers.
//
// An account identifier is accepted when it is at least MinLength characters
// long, consists only of ASCII letters, digits, '-', '_' and '.', and contains
// no non-ASCII bytes. Every failure is reported as the same rejection: callers
// never learn which sub-condition failed.
//
// Validation is pure and deterministic. A Validator may be shared between
// goroutines without synchronization.
package identifier
