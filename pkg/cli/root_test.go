package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rolevault/rolevault/pkg/rbac"
)

func setTestEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("ROLEVAULT_DIR", dir)
	t.Setenv("ROLEVAULT_AUDIT_DIR", filepath.Join(dir, "audit"))
	return dir
}

func TestRootCommand(t *testing.T) {
	root := NewRootCommand()

	for _, name := range []string{"list", "tree", "assign", "revoke", "watch", "audit"} {
		assert.Contains(t, root.Subcommands, name)
	}

	t.Run("help lists commands in stable order", func(t *testing.T) {
		expected := []string{"assign", "audit", "list", "revoke", "tree", "watch"}
		assert.Equal(t, expected, root.subcommandNames())
	})

	t.Run("unknown command", func(t *testing.T) {
		oldArgs := os.Args
		defer func() { os.Args = oldArgs }()
		os.Args = []string{"rolevault", "frobnicate"}

		assert.Error(t, root.Execute())
	})

	t.Run("no arguments prints usage", func(t *testing.T) {
		oldArgs := os.Args
		defer func() { os.Args = oldArgs }()
		os.Args = []string{"rolevault"}

		assert.NoError(t, root.Execute())
	})
}

func TestOpenEnv(t *testing.T) {
	setTestEnv(t)

	e, err := openEnv()
	require.NoError(t, err)
	defer e.close()

	all, err := e.items.GetAll()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestOpenEnvMetrics(t *testing.T) {
	setTestEnv(t)
	t.Setenv("ROLEVAULT_METRICS_ENABLED", "true")

	e, err := openEnv()
	require.NoError(t, err)
	defer e.close()

	require.NotNil(t, e.metrics)
	require.NoError(t, e.items.Add(rbac.NewRole("admin")))
	assert.InDelta(t, 1, testutil.ToFloat64(e.metrics.MutationsTotal.WithLabelValues("items", "add")), 0.001)

	t.Run("disabled toggle skips collection", func(t *testing.T) {
		t.Setenv("ROLEVAULT_METRICS_ENABLED", "false")

		off, err := openEnv()
		require.NoError(t, err)
		defer off.close()
		assert.Nil(t, off.metrics)
		require.NoError(t, off.items.Add(rbac.NewRole("author")))
	})
}

func TestOpenEnvConcurrent(t *testing.T) {
	setTestEnv(t)
	t.Setenv("ROLEVAULT_CONCURRENT", "true")

	reader, err := openEnv()
	require.NoError(t, err)
	defer reader.close()

	writer, err := openEnv()
	require.NoError(t, err)
	defer writer.close()
	require.NoError(t, writer.items.Add(rbac.NewRole("admin")))

	exists, err := reader.items.Exists("admin")
	require.NoError(t, err)
	assert.True(t, exists, "the concurrency toggle must hand out guarded stores")
}

func TestAssignAndRevoke(t *testing.T) {
	setTestEnv(t)

	t.Run("assigning an unknown item fails", func(t *testing.T) {
		assert.Error(t, runAssign("alice", "ghost"))
	})

	e, err := openEnv()
	require.NoError(t, err)
	require.NoError(t, e.items.Add(rbac.NewRole("admin")))
	e.close()

	require.NoError(t, runAssign("alice", "admin"))

	check, err := openEnv()
	require.NoError(t, err)
	exists, err := check.assignments.Exists("admin", "alice")
	require.NoError(t, err)
	assert.True(t, exists)
	check.close()

	require.NoError(t, runRevoke("alice", "admin", false))

	check, err = openEnv()
	require.NoError(t, err)
	exists, err = check.assignments.Exists("admin", "alice")
	require.NoError(t, err)
	assert.False(t, exists)
	check.close()
}

func TestListUnknownKind(t *testing.T) {
	setTestEnv(t)
	assert.Error(t, runList("everything"))
}
