package items

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rolevault/rolevault/pkg/filestore"
	"github.com/rolevault/rolevault/pkg/rbac"
)

func TestConcurrentStoreSeesSiblingWrites(t *testing.T) {
	dir := t.TempDir()
	writer := newTestStore(t, dir)

	reader := NewConcurrentStore(newTestStore(t, dir), filestore.NewGuard(true))

	require.NoError(t, writer.Add(rbac.NewRole("admin")))

	exists, err := reader.Exists("admin")
	require.NoError(t, err)
	assert.True(t, exists, "an enabled guard must pick up the sibling's write")
}

func TestDisabledGuardKeepsConstructionState(t *testing.T) {
	dir := t.TempDir()
	writer := newTestStore(t, dir)

	reader := NewConcurrentStore(newTestStore(t, dir), filestore.NewGuard(false))

	require.NoError(t, writer.Add(rbac.NewRole("admin")))

	exists, err := reader.Exists("admin")
	require.NoError(t, err)
	assert.False(t, exists, "a disabled guard never reloads")
}

func TestConcurrentStoreCatchesUpOnce(t *testing.T) {
	dir := t.TempDir()
	writer := newTestStore(t, dir)

	guard := filestore.NewGuard(true)
	reader := NewConcurrentStore(newTestStore(t, dir), guard)

	require.NoError(t, writer.Add(rbac.NewRole("admin")))

	exists, err := reader.Exists("admin")
	require.NoError(t, err)
	require.True(t, exists)
	require.False(t, guard.Enabled(), "the first reload disarms the guard")

	require.NoError(t, writer.Add(rbac.NewRole("author")))

	exists, err = reader.Exists("author")
	require.NoError(t, err)
	assert.False(t, exists, "after catching up the instance stops checking")

	t.Run("invalidate re-arms", func(t *testing.T) {
		guard.Invalidate()
		exists, err := reader.Exists("author")
		require.NoError(t, err)
		assert.True(t, exists)
	})
}

func TestConcurrentStoreOwnWriteDoesNotReload(t *testing.T) {
	dir := t.TempDir()
	guard := filestore.NewGuard(true)
	reader := NewConcurrentStore(newTestStore(t, dir), guard)

	// Clear writes without a prior catch-up check and syncs the guard with
	// the new file timestamp, so the guard stays armed but quiet.
	require.NoError(t, reader.Clear())
	require.True(t, guard.Enabled())

	reloadsBefore := guard.Enabled()
	exists, err := reader.Exists("anything")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, reloadsBefore, guard.Enabled(), "an unchanged timestamp must not disarm the guard")
}

func TestConcurrentStoreMutationsPropagate(t *testing.T) {
	dir := t.TempDir()
	store := NewConcurrentStore(newTestStore(t, dir), filestore.NewGuard(true))

	require.NoError(t, store.Add(rbac.NewRole("admin")))
	require.NoError(t, store.Add(rbac.NewRole("author")))
	require.NoError(t, store.AddChild("admin", "author"))

	has, err := store.HasChild("admin", "author")
	require.NoError(t, err)
	assert.True(t, has)

	late := NewConcurrentStore(newTestStore(t, dir), filestore.NewGuard(true))
	children, err := late.GetAllChildren("admin")
	require.NoError(t, err)
	assert.Contains(t, children, "author")
}

func TestConcurrentStorePropagatesProbeMisconfiguration(t *testing.T) {
	dir := t.TempDir()
	codec := filestore.NewCodec(filestore.WithProbe(func(string) (time.Time, error) {
		return time.Time{}, nil
	}))
	base, err := NewStore(dir, "", codec)
	require.NoError(t, err)

	store := NewConcurrentStore(base, filestore.NewGuard(true))
	_, err = store.GetAll()
	assert.ErrorIs(t, err, filestore.ErrInvalidTimestampProbe)
}
