// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

package errutil

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requireOops stops the test unless err carries oops metadata.
func requireOops(t testing.TB, err error) oops.OopsError {
	t.Helper()
	require.Error(t, err)
	oopsErr, ok := oops.AsOops(err)
	require.Truef(t, ok, "want a coded error, got %T: %v", err, err)
	return oopsErr
}

// AssertErrorCode checks the code Code reports for err, so wrapping with
// extra context does not hide the code of the failure.
func AssertErrorCode(t testing.TB, err error, code string) {
	t.Helper()
	requireOops(t, err)
	assert.Equalf(t, code, Code(err), "error: %v", err)
}

// AssertErrorContext checks one context attribute anywhere in the chain.
func AssertErrorContext(t testing.TB, err error, key string, value any) {
	t.Helper()
	attrs := requireOops(t, err).Context()
	if assert.Containsf(t, attrs, key, "error: %v", err) {
		assert.Equal(t, value, attrs[key])
	}
}
