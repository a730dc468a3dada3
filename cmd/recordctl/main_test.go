package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/tarantool/go-record/record"
)

func writeConfig(t *testing.T, driver string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "recordctl.yaml")

	data, err := yaml.Marshal(map[string]any{
		"driver": driver,
		"log":    map[string]any{"level": "debug", "color": "never"},
		"pebble": map[string]any{"data_dir": filepath.Join(dir, "pebble"), "sync": false},
		"sqlite": map[string]any{"path": filepath.Join(dir, "records.db")},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	return path
}

func run(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))

	err := cmd.ExecuteContext(context.Background())

	return out.String(), err
}

func mustRun(t *testing.T, configPath string, args ...string) string {
	t.Helper()

	out, err := run(t, configPath, args...)
	require.NoError(t, err, "recordctl %v", args)

	return out
}

func TestIdent(t *testing.T) {
	t.Parallel()

	out := mustRun(t, "", "ident", "encode",
		"{550E8400-E29B-41D4-A716-446655440000}",
		"urn:uuid:550e8400-e29b-41d4-a716-446655440000")
	assert.Equal(t, "550e8400e29b41d4a716446655440000\n550e8400e29b41d4a716446655440000\n", out)

	out = mustRun(t, "", "ident", "decode", "550e8400e29b41d4a716446655440000")
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000\n", out)

	_, err := run(t, "", "ident", "encode", "not-a-uuid")
	require.ErrorIs(t, err, errInvalidIdent)

	_, err = run(t, "", "ident", "decode", "010203")
	require.ErrorIs(t, err, errInvalidIdent)

	out = mustRun(t, "", "ident", "new")
	assert.Len(t, out, 37)
}

func TestRecords(t *testing.T) {
	t.Parallel()

	for _, driver := range []string{"pebble", "sqlite"} {
		t.Run(driver, func(t *testing.T) {
			t.Parallel()

			testRecords(t, writeConfig(t, driver))
		})
	}
}

func testRecords(t *testing.T, cfg string) {
	t.Helper()

	const (
		tenantID = "b45df899-1672-44fe-8d07-7ca1f9dabc62"
		userID   = "fff7ed22-8ad5-4e7b-b976-9d1e8ea74021"
	)

	mustRun(t, cfg, "tenant", "put", "--id", tenantID, "--alias", "hday", "--name", "Holiday Robotics")

	var tenant tenantView
	require.NoError(t, yaml.Unmarshal([]byte(mustRun(t, cfg, "tenant", "get", "--alias", "hday")), &tenant))
	assert.Equal(t, tenantView{ID: tenantID, Alias: "hday", Name: "Holiday Robotics"}, tenant)

	mustRun(t, cfg, "user", "put", "--id", userID, "--tenant", "hday", "--alias", "hal", "--name", "HAL",
		"--updated", "2001-01-01T00:00:00Z")

	_, err := run(t, cfg, "user", "put", "--tenant", tenantID, "--alias", "hal", "--name", "Impostor")
	require.ErrorIs(t, err, record.ErrAlreadyExists, "alias is unique within the tenant")

	var reply struct {
		Written bool     `yaml:"written"`
		User    userView `yaml:"user"`
	}

	out := mustRun(t, cfg, "user", "reconcile", "--id", userID, "--tenant", "hday", "--alias", "hal",
		"--name", "HAL 9000", "--updated", "2001-01-02T00:00:00Z")
	require.NoError(t, yaml.Unmarshal([]byte(out), &reply))
	assert.True(t, reply.Written)

	out = mustRun(t, cfg, "user", "reconcile", "--id", userID, "--tenant", "hday", "--alias", "hal",
		"--name", "HAL", "--updated", "2000-01-01T00:00:00Z")
	require.NoError(t, yaml.Unmarshal([]byte(out), &reply))
	assert.False(t, reply.Written, "older update is discarded")

	var user userView
	require.NoError(t, yaml.Unmarshal([]byte(mustRun(t, cfg, "user", "get", "--tenant", "hday", "--alias", "hal")), &user))
	assert.Equal(t, userID, user.ID)
	assert.Equal(t, tenantID, user.TenantID)
	assert.Equal(t, "HAL 9000", user.Name)
	assert.Equal(t, "2001-01-02T00:00:00Z", user.DateUpdated)

	var entries []dumpEntry
	require.NoError(t, yaml.Unmarshal([]byte(mustRun(t, cfg, "dump", "--table", "user")), &entries))
	require.Len(t, entries, 2, "one entity and one alias entry")
	assert.Equal(t, "/records/user/ix/alias/"+tenantID+",hal", entries[0].Key)
	assert.Equal(t, "/records/user/pk/"+userID, entries[1].Key)

	var users []userView
	require.NoError(t, yaml.Unmarshal([]byte(mustRun(t, cfg, "user", "list")), &users))
	assert.Len(t, users, 1)

	mustRun(t, cfg, "user", "delete", "--id", userID)

	_, err = run(t, cfg, "user", "get", "--id", userID)
	require.ErrorIs(t, err, record.ErrNotFound)

	_, err = run(t, cfg, "user", "get")
	require.ErrorIs(t, err, errUserSelectorRequired)
}

func TestDriverFlagOverridesConfig(t *testing.T) {
	t.Parallel()

	cfg := writeConfig(t, "pebble")

	_, err := run(t, cfg, "--driver", "redis", "tenant", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")

	out := mustRun(t, cfg, "--driver", "dummy", "tenant", "list")
	assert.Equal(t, "[]\n", out)
}
