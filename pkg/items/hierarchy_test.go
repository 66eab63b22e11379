package items

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rolevault/rolevault/pkg/rbac"
)

func TestGetAllChildren(t *testing.T) {
	s := newTestStore(t, t.TempDir())
	buildHierarchy(t, s)

	t.Run("full closure from the top", func(t *testing.T) {
		children, err := s.GetAllChildren("admin")
		require.NoError(t, err)
		assert.Len(t, children, 4)
		for _, name := range []string{"author", "reader", "createPost", "readPost"} {
			assert.Contains(t, children, name)
		}
		assert.NotContains(t, children, "admin", "an item is not its own descendant")
	})

	t.Run("filtered closures", func(t *testing.T) {
		roles, err := s.GetAllChildRoles("admin")
		require.NoError(t, err)
		assert.Len(t, roles, 2)
		assert.Contains(t, roles, "author")
		assert.Contains(t, roles, "reader")

		perms, err := s.GetAllChildPermissions("admin")
		require.NoError(t, err)
		assert.Len(t, perms, 2)
		assert.Contains(t, perms, "createPost")
		assert.Contains(t, perms, "readPost")
	})

	t.Run("union of several roots", func(t *testing.T) {
		children, err := s.GetAllChildren("reader", "author")
		require.NoError(t, err)
		assert.Len(t, children, 3)
	})

	t.Run("leaf and unknown roots", func(t *testing.T) {
		children, err := s.GetAllChildren("readPost")
		require.NoError(t, err)
		assert.Empty(t, children)

		children, err = s.GetAllChildren("missing")
		require.NoError(t, err)
		assert.Empty(t, children)
	})

	t.Run("closure reflects later edge changes", func(t *testing.T) {
		require.NoError(t, s.Add(rbac.NewPermission("deletePost")))
		require.NoError(t, s.AddChild("admin", "deletePost"))

		children, err := s.GetAllChildren("admin")
		require.NoError(t, err)
		assert.Contains(t, children, "deletePost")

		require.NoError(t, s.RemoveChild("admin", "deletePost"))
		children, err = s.GetAllChildren("admin")
		require.NoError(t, err)
		assert.NotContains(t, children, "deletePost")
	})
}

func TestHasChild(t *testing.T) {
	s := newTestStore(t, t.TempDir())
	buildHierarchy(t, s)

	cases := []struct {
		parent, child string
		want          bool
	}{
		{"admin", "author", true},
		{"admin", "readPost", true},
		{"author", "readPost", true},
		{"reader", "createPost", false},
		{"readPost", "admin", false},
		{"author", "admin", false},
		{"admin", "admin", true},
	}
	for _, tc := range cases {
		got, err := s.HasChild(tc.parent, tc.child)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "HasChild(%s, %s)", tc.parent, tc.child)
	}

	t.Run("direct child check does not traverse", func(t *testing.T) {
		direct, err := s.HasDirectChild("admin", "author")
		require.NoError(t, err)
		assert.True(t, direct)

		direct, err = s.HasDirectChild("admin", "readPost")
		require.NoError(t, err)
		assert.False(t, direct)
	})

	t.Run("has children", func(t *testing.T) {
		has, err := s.HasChildren("author")
		require.NoError(t, err)
		assert.True(t, has)

		has, err = s.HasChildren("readPost")
		require.NoError(t, err)
		assert.False(t, has)
	})
}

func TestDetectCycle(t *testing.T) {
	s := newTestStore(t, t.TempDir())
	buildHierarchy(t, s)

	cycle, err := s.DetectCycle("readPost", "admin")
	require.NoError(t, err)
	assert.True(t, cycle, "closing the loop back to the top is a cycle")

	cycle, err = s.DetectCycle("author", "author")
	require.NoError(t, err)
	assert.True(t, cycle, "a self edge is a cycle")

	cycle, err = s.DetectCycle("admin", "readPost")
	require.NoError(t, err)
	assert.False(t, cycle, "a redundant downward edge is not a cycle")
}

func TestGetParents(t *testing.T) {
	s := newTestStore(t, t.TempDir())
	buildHierarchy(t, s)

	parents, err := s.GetParents("readPost")
	require.NoError(t, err)
	assert.Len(t, parents, 3)
	for _, name := range []string{"reader", "author", "admin"} {
		assert.Contains(t, parents, name)
	}

	parents, err = s.GetParents("admin")
	require.NoError(t, err)
	assert.Empty(t, parents)

	parents, err = s.GetParents("missing")
	require.NoError(t, err)
	assert.Empty(t, parents)
}

func TestGetAccessTree(t *testing.T) {
	s := newTestStore(t, t.TempDir())
	buildHierarchy(t, s)

	t.Run("leaf item", func(t *testing.T) {
		tree, err := s.GetAccessTree("readPost")
		require.NoError(t, err)
		require.Len(t, tree, 4)

		assert.Empty(t, tree["readPost"].Children)
		assert.Contains(t, tree["reader"].Children, "readPost")
		assert.Contains(t, tree["author"].Children, "reader")
		assert.Contains(t, tree["admin"].Children, "author")
		assert.Equal(t, "admin", tree["admin"].Item.Name)
	})

	t.Run("top item has only itself", func(t *testing.T) {
		tree, err := s.GetAccessTree("admin")
		require.NoError(t, err)
		require.Len(t, tree, 1)
		assert.Empty(t, tree["admin"].Children)
	})

	t.Run("unknown item yields an empty tree", func(t *testing.T) {
		tree, err := s.GetAccessTree("missing")
		require.NoError(t, err)
		assert.Empty(t, tree)
	})
}

func TestAddChild(t *testing.T) {
	s := newTestStore(t, t.TempDir())
	buildHierarchy(t, s)

	t.Run("unknown endpoints are rejected", func(t *testing.T) {
		assert.Error(t, s.AddChild("missing", "reader"))
		assert.Error(t, s.AddChild("admin", "missing"))
	})

	t.Run("new edge persists", func(t *testing.T) {
		require.NoError(t, s.AddChild("admin", "readPost"))
		direct, err := s.HasDirectChild("admin", "readPost")
		require.NoError(t, err)
		assert.True(t, direct)
	})
}

func TestRemoveChild(t *testing.T) {
	s := newTestStore(t, t.TempDir())
	buildHierarchy(t, s)

	t.Run("missing edge does not touch the file", func(t *testing.T) {
		before, err := os.ReadFile(s.Path())
		require.NoError(t, err)

		require.NoError(t, s.RemoveChild("admin", "readPost"))
		require.NoError(t, s.RemoveChild("missing", "reader"))

		after, err := os.ReadFile(s.Path())
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("removes only the named edge", func(t *testing.T) {
		require.NoError(t, s.RemoveChild("author", "createPost"))

		children, err := s.GetDirectChildren("author")
		require.NoError(t, err)
		assert.NotContains(t, children, "createPost")
		assert.Contains(t, children, "reader")

		// only the edge went away
		exists, err := s.Exists("createPost")
		require.NoError(t, err)
		assert.True(t, exists)
	})
}

func TestRemoveChildren(t *testing.T) {
	s := newTestStore(t, t.TempDir())
	buildHierarchy(t, s)

	t.Run("no-op for a childless item", func(t *testing.T) {
		before, err := os.ReadFile(s.Path())
		require.NoError(t, err)

		require.NoError(t, s.RemoveChildren("readPost"))

		after, err := os.ReadFile(s.Path())
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("drops every outgoing edge", func(t *testing.T) {
		require.NoError(t, s.RemoveChildren("author"))

		has, err := s.HasChildren("author")
		require.NoError(t, err)
		assert.False(t, has)

		// incoming edges survive
		direct, err := s.HasDirectChild("admin", "author")
		require.NoError(t, err)
		assert.True(t, direct)
	})
}

func TestTraversalsTerminateOnCyclicFile(t *testing.T) {
	// A hand-edited file can carry a cycle; traversals must still stop.
	s := newTestStore(t, t.TempDir())
	require.NoError(t, s.Add(rbac.NewRole("a")))
	require.NoError(t, s.Add(rbac.NewRole("b")))
	require.NoError(t, s.AddChild("a", "b"))

	// Force the back edge directly into state; AddChild would not check,
	// but a clean-handed caller runs DetectCycle first.
	s.mu.Lock()
	s.children["b"] = map[string]*rbac.Item{"a": s.items["a"]}
	s.mu.Unlock()
	s.purgeClosure()

	children, err := s.GetAllChildren("a")
	require.NoError(t, err)
	assert.Len(t, children, 2)

	parents, err := s.GetParents("a")
	require.NoError(t, err)
	assert.NotEmpty(t, parents)

	tree, err := s.GetAccessTree("a")
	require.NoError(t, err)
	assert.NotEmpty(t, tree)
}
