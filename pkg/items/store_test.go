package items

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rolevault/rolevault/pkg/filestore"
	"github.com/rolevault/rolevault/pkg/rbac"
)

func newTestStore(t *testing.T, dir string) *Store {
	t.Helper()
	s, err := NewStore(dir, "", filestore.NewCodec())
	require.NoError(t, err)
	return s
}

// buildHierarchy populates the canonical test graph:
//
//	admin -> author -> reader -> readPost
//	         author -> createPost
func buildHierarchy(t *testing.T, s *Store) {
	t.Helper()
	for _, item := range []*rbac.Item{
		rbac.NewRole("admin"),
		rbac.NewRole("author"),
		rbac.NewRole("reader"),
		rbac.NewPermission("createPost"),
		rbac.NewPermission("readPost"),
	} {
		require.NoError(t, s.Add(item))
	}
	require.NoError(t, s.AddChild("admin", "author"))
	require.NoError(t, s.AddChild("author", "reader"))
	require.NoError(t, s.AddChild("author", "createPost"))
	require.NoError(t, s.AddChild("reader", "readPost"))
}

func TestStoreStartsEmpty(t *testing.T) {
	s := newTestStore(t, t.TempDir())

	all, err := s.GetAll()
	require.NoError(t, err)
	assert.Empty(t, all)

	item, err := s.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, item)

	exists, err := s.Exists("missing")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStoreTypedLookups(t *testing.T) {
	s := newTestStore(t, t.TempDir())
	buildHierarchy(t, s)

	t.Run("roles", func(t *testing.T) {
		roles, err := s.GetRoles()
		require.NoError(t, err)
		assert.Len(t, roles, 3)
		assert.Contains(t, roles, "admin")

		role, err := s.GetRole("admin")
		require.NoError(t, err)
		require.NotNil(t, role)
		assert.True(t, role.IsRole())

		exists, err := s.RoleExists("admin")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = s.RoleExists("createPost")
		require.NoError(t, err)
		assert.False(t, exists, "a permission name must not pass the role check")
	})

	t.Run("permissions", func(t *testing.T) {
		perms, err := s.GetPermissions()
		require.NoError(t, err)
		assert.Len(t, perms, 2)

		perm, err := s.GetPermission("createPost")
		require.NoError(t, err)
		require.NotNil(t, perm)
		assert.True(t, perm.IsPermission())

		wrongType, err := s.GetPermission("admin")
		require.NoError(t, err)
		assert.Nil(t, wrongType)
	})

	t.Run("by names", func(t *testing.T) {
		subset, err := s.GetByNames([]string{"admin", "createPost", "missing"})
		require.NoError(t, err)
		assert.Len(t, subset, 2)

		roles, err := s.GetRolesByNames([]string{"admin", "createPost"})
		require.NoError(t, err)
		assert.Len(t, roles, 1)

		perms, err := s.GetPermissionsByNames([]string{"admin", "createPost"})
		require.NoError(t, err)
		assert.Len(t, perms, 1)
	})
}

func TestStoreReturnsSnapshots(t *testing.T) {
	s := newTestStore(t, t.TempDir())
	require.NoError(t, s.Add(rbac.NewRole("admin").WithDescription("original")))

	item, err := s.Get("admin")
	require.NoError(t, err)
	item.Description = "mutated"

	fresh, err := s.Get("admin")
	require.NoError(t, err)
	assert.Equal(t, "original", fresh.Description)
}

func TestStorePersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	first := newTestStore(t, dir)
	buildHierarchy(t, first)

	second := newTestStore(t, dir)
	all, err := second.GetAll()
	require.NoError(t, err)
	assert.Len(t, all, 5)

	children, err := second.GetDirectChildren("author")
	require.NoError(t, err)
	assert.Len(t, children, 2)
	assert.Contains(t, children, "reader")
	assert.Contains(t, children, "createPost")
}

func TestStoreUpdate(t *testing.T) {
	t.Run("in place", func(t *testing.T) {
		s := newTestStore(t, t.TempDir())
		buildHierarchy(t, s)

		role, err := s.Get("author")
		require.NoError(t, err)
		require.NoError(t, s.Update("author", role.WithDescription("writes posts")))

		updated, err := s.Get("author")
		require.NoError(t, err)
		assert.Equal(t, "writes posts", updated.Description)
	})

	t.Run("rename cascades through the hierarchy", func(t *testing.T) {
		dir := t.TempDir()
		s := newTestStore(t, dir)
		buildHierarchy(t, s)

		role, err := s.Get("author")
		require.NoError(t, err)
		require.NoError(t, s.Update("author", role.WithName("writer")))

		old, err := s.Get("author")
		require.NoError(t, err)
		assert.Nil(t, old)

		adminChildren, err := s.GetDirectChildren("admin")
		require.NoError(t, err)
		assert.Contains(t, adminChildren, "writer")
		assert.NotContains(t, adminChildren, "author")

		writerChildren, err := s.GetDirectChildren("writer")
		require.NoError(t, err)
		assert.Len(t, writerChildren, 2, "the renamed item keeps its own children")

		second := newTestStore(t, dir)
		children, err := second.GetDirectChildren("admin")
		require.NoError(t, err)
		assert.Contains(t, children, "writer")
	})
}

func TestStoreRemove(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t, dir)
	buildHierarchy(t, s)

	t.Run("unknown name does not touch the file", func(t *testing.T) {
		before, err := os.ReadFile(s.Path())
		require.NoError(t, err)

		require.NoError(t, s.Remove("missing"))

		after, err := os.ReadFile(s.Path())
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("scrubs the item out of every edge", func(t *testing.T) {
		require.NoError(t, s.Remove("reader"))

		exists, err := s.Exists("reader")
		require.NoError(t, err)
		assert.False(t, exists)

		authorChildren, err := s.GetDirectChildren("author")
		require.NoError(t, err)
		assert.NotContains(t, authorChildren, "reader")

		// readPost loses its only parent but stays stored
		exists, err = s.Exists("readPost")
		require.NoError(t, err)
		assert.True(t, exists)

		parents, err := s.GetParents("readPost")
		require.NoError(t, err)
		assert.Empty(t, parents)
	})
}

func TestStoreClear(t *testing.T) {
	t.Run("clear drops everything", func(t *testing.T) {
		dir := t.TempDir()
		s := newTestStore(t, dir)
		buildHierarchy(t, s)

		require.NoError(t, s.Clear())
		all, err := s.GetAll()
		require.NoError(t, err)
		assert.Empty(t, all)

		second := newTestStore(t, dir)
		all, err = second.GetAll()
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("clear roles keeps permissions", func(t *testing.T) {
		s := newTestStore(t, t.TempDir())
		buildHierarchy(t, s)

		require.NoError(t, s.ClearRoles())

		all, err := s.GetAll()
		require.NoError(t, err)
		assert.Len(t, all, 2)

		perms, err := s.GetPermissions()
		require.NoError(t, err)
		assert.Len(t, perms, 2)

		has, err := s.HasChildren("author")
		require.NoError(t, err)
		assert.False(t, has)
	})

	t.Run("clear permissions keeps roles and their edges", func(t *testing.T) {
		s := newTestStore(t, t.TempDir())
		buildHierarchy(t, s)

		require.NoError(t, s.ClearPermissions())

		roles, err := s.GetRoles()
		require.NoError(t, err)
		assert.Len(t, roles, 3)

		children, err := s.GetDirectChildren("author")
		require.NoError(t, err)
		assert.Contains(t, children, "reader")
		assert.NotContains(t, children, "createPost")
	})

	t.Run("typed clear with nothing to do does not touch the file", func(t *testing.T) {
		s := newTestStore(t, t.TempDir())
		require.NoError(t, s.Add(rbac.NewPermission("readPost")))

		before, err := os.ReadFile(s.Path())
		require.NoError(t, err)

		require.NoError(t, s.ClearRoles())

		after, err := os.ReadFile(s.Path())
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})
}

func TestStoreLoadStampsMissingTimestamps(t *testing.T) {
	dir := t.TempDir()
	raw := "admin:\n  type: role\n  name: admin\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFileName), []byte(raw), 0o644))

	s := newTestStore(t, dir)
	item, err := s.Get("admin")
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.NotZero(t, item.CreatedAt, "missing timestamps inherit the file mtime")
	assert.NotZero(t, item.UpdatedAt)
}

func TestStoreLoadDropsDanglingChildren(t *testing.T) {
	dir := t.TempDir()
	raw := "admin:\n  type: role\n  name: admin\n  children:\n    - ghost\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFileName), []byte(raw), 0o644))

	s := newTestStore(t, dir)
	children, err := s.GetDirectChildren("admin")
	require.NoError(t, err)
	assert.Empty(t, children)
}

func TestStoreCustomFileName(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir, "graph.yml", filestore.NewCodec())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "graph.yml"), s.Path())
}
