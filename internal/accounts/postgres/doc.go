// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

// Package postgres implements the accounts repositories on PostgreSQL.
//
// IDs are stored as ULID strings. Identifier and email uniqueness is
// enforced by case-insensitive unique indexes, so a violation surfaces as
// accounts.ErrAlreadyExists regardless of which insert lost the race.
package postgres
