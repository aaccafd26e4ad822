// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

package errutil_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitystation/centralcommand/pkg/errutil"
)

func TestCode(t *testing.T) {
	assert.Equal(t, "ACCOUNT_NOT_FOUND", errutil.Code(oops.Code("ACCOUNT_NOT_FOUND").Errorf("missing")))
	assert.Empty(t, errutil.Code(errors.New("plain")))
	assert.Empty(t, errutil.Code(nil))
}

func TestLogError_WithOopsError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.Code("MAIL_SEND_FAILED").
		With("to", "player@example.com").
		Errorf("smtp unavailable")

	errutil.LogError(logger, "send confirmation", err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "send confirmation", entry["msg"])
	assert.Equal(t, "MAIL_SEND_FAILED", entry["code"])
	assert.Contains(t, entry["error"], "smtp unavailable")
}

func TestLogError_WithStandardError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	errutil.LogError(logger, "operation failed", errors.New("standard error"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Contains(t, entry["error"], "standard error")
	assert.NotContains(t, entry, "code")
}
