// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

// Package accounts implements account management for Central Command.
//
// # Domain Types
//
// Domain types should be created with their constructors, which validate input:
//   - NewAccount - validates the identifier, display name, email and password hash
//   - NewAuthToken - creates an API token record for an account
//   - NewConfirmation - creates an email confirmation record
//   - NewPasswordReset - creates a password reset record
//
// Repository implementations receive pre-validated values.
//
// # Services
//
//   - Service - registration, confirmation, login, token authentication, updates
//   - PasswordResetService - password reset flow
//
// Identifier syntax is checked by the identifier package before any
// uniqueness lookup; uniqueness is the repository's concern.
package accounts
