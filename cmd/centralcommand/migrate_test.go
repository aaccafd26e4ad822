// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

package main

import (
	"errors"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitystation/centralcommand/internal/store"
	"github.com/unitystation/centralcommand/pkg/errutil"
)

type fakeMigrator struct {
	calls  []string
	steps  int
	forced int
	status store.Status
	err    error
	closed bool
}

func (m *fakeMigrator) Up() error {
	m.calls = append(m.calls, "up")
	return m.err
}

func (m *fakeMigrator) Down() error {
	m.calls = append(m.calls, "down")
	return m.err
}

func (m *fakeMigrator) Steps(n int) error {
	m.calls = append(m.calls, "steps")
	m.steps = n
	return m.err
}

func (m *fakeMigrator) Force(version int) error {
	m.calls = append(m.calls, "force")
	m.forced = version
	return m.err
}

func (m *fakeMigrator) Status() (store.Status, error) {
	m.calls = append(m.calls, "status")
	return m.status, m.err
}

func (m *fakeMigrator) Close() error {
	m.closed = true
	return nil
}

// useFakeMigrator swaps newMigrator for the duration of the test and
// records the URL it was given.
func useFakeMigrator(t *testing.T, m *fakeMigrator) *string {
	t.Helper()
	isolateConfig(t)
	t.Setenv("SECRET_KEY", "test-secret")

	var gotURL string
	orig := newMigrator
	newMigrator = func(databaseURL string) (migrator, error) {
		gotURL = databaseURL
		return m, nil
	}
	t.Cleanup(func() { newMigrator = orig })
	return &gotURL
}

func TestParseForceVersion(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantVersion int
		wantErr     bool
	}{
		{name: "valid integer", input: "3", wantVersion: 3},
		{name: "zero is valid", input: "0", wantVersion: 0},
		{name: "leading whitespace is handled", input: "  42", wantVersion: 42},
		{name: "non-numeric", input: "abc", wantErr: true},
		{name: "float", input: "1.5", wantErr: true},
		{name: "trailing chars", input: "3abc", wantErr: true},
		{name: "negative", input: "-1", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "whitespace only", input: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, err := parseForceVersion(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, "INVALID_VERSION")
				assert.Equal(t, 0, version)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantVersion, version)
		})
	}
}

func TestMigrateCommand_Properties(t *testing.T) {
	cmd := NewMigrateCmd()

	assert.Equal(t, "migrate", cmd.Use)
	assert.Contains(t, cmd.Short, "migration")
	assert.Contains(t, cmd.Long, "PostgreSQL")
}

func TestMigrateUp(t *testing.T) {
	m := &fakeMigrator{}
	url := useFakeMigrator(t, m)

	for _, args := range [][]string{{"migrate"}, {"migrate", "up"}} {
		out, _, err := executeRoot(t, append(args, "--database-url", "postgres://u:p@db:5432/cc")...)
		require.NoError(t, err)
		assert.Contains(t, out, "Done")
	}
	assert.Equal(t, []string{"up", "up"}, m.calls)
	assert.Equal(t, "postgres://u:p@db:5432/cc", *url)
	assert.True(t, m.closed)
}

func TestMigrateDown(t *testing.T) {
	t.Run("steps", func(t *testing.T) {
		m := &fakeMigrator{}
		useFakeMigrator(t, m)

		_, _, err := executeRoot(t, "migrate", "down", "--steps", "2")
		require.NoError(t, err)
		assert.Equal(t, -2, m.steps)
	})

	t.Run("all", func(t *testing.T) {
		m := &fakeMigrator{}
		useFakeMigrator(t, m)

		_, _, err := executeRoot(t, "migrate", "down", "--all")
		require.NoError(t, err)
		assert.Equal(t, []string{"down"}, m.calls)
	})

	t.Run("zero steps", func(t *testing.T) {
		m := &fakeMigrator{}
		useFakeMigrator(t, m)

		_, _, err := executeRoot(t, "migrate", "down", "--steps", "0")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "INVALID_STEPS")
		assert.Empty(t, m.calls)
	})
}

func TestMigrateForce(t *testing.T) {
	m := &fakeMigrator{}
	useFakeMigrator(t, m)

	_, _, err := executeRoot(t, "migrate", "force", "3")
	require.NoError(t, err)
	assert.Equal(t, 3, m.forced)

	_, _, err = executeRoot(t, "migrate", "force", "x")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "INVALID_VERSION")
}

func TestMigrateStatus(t *testing.T) {
	m := &fakeMigrator{status: store.Status{Version: 1, Name: "000001_create_accounts", Pending: []uint{2, 3}}}
	useFakeMigrator(t, m)

	out, _, err := executeRoot(t, "migrate", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Current version: 1 (000001_create_accounts)")
	assert.Contains(t, out, "Pending: 2")
	assert.Contains(t, out, "000002_create_auth_tokens")
}

func TestMigrate_PropagatesErrors(t *testing.T) {
	m := &fakeMigrator{err: oops.Code("MIGRATION_UP_FAILED").Wrap(errors.New("boom"))}
	useFakeMigrator(t, m)

	_, _, err := executeRoot(t, "migrate", "up")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_UP_FAILED")
	assert.True(t, m.closed)
}

func TestFormatMigrationStatus(t *testing.T) {
	tests := []struct {
		name   string
		status store.Status
		want   []string
	}{
		{
			name:   "fresh database",
			status: store.Status{Pending: []uint{1}},
			want:   []string{"Current version: none", "Pending: 1", "000001_create_accounts"},
		},
		{
			name:   "up to date",
			status: store.Status{Version: 4, Name: "000004_create_password_resets"},
			want:   []string{"Current version: 4 (000004_create_password_resets)", "Pending: none"},
		},
		{
			name:   "dirty",
			status: store.Status{Version: 2, Dirty: true},
			want:   []string{"Current version: 2", "dirty"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatMigrationStatus(tt.status)
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
		})
	}
}
