package items

import (
	"fmt"
	"sort"

	"github.com/rolevault/rolevault/pkg/audit"
	"github.com/rolevault/rolevault/pkg/rbac"
)

// GetParents returns every ancestor of the named item, direct parents
// first and then theirs, keyed by ancestor name.
func (s *Store) GetParents(name string) (map[string]*rbac.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string]*rbac.Item)
	s.fillParents(name, result, map[string]bool{})
	return result, nil
}

func (s *Store) fillParents(name string, result map[string]*rbac.Item, visited map[string]bool) {
	for parentName, bucket := range s.children {
		if _, ok := bucket[name]; !ok {
			continue
		}
		if visited[parentName] {
			continue
		}
		visited[parentName] = true
		if parent, ok := s.items[parentName]; ok {
			result[parentName] = parent.Clone()
		}
		s.fillParents(parentName, result, visited)
	}
}

// GetAccessTree builds the ancestor tree for the named item: every
// ancestor mapped to its item plus the direct children lying on the path
// down to name. An unknown name yields an empty tree.
func (s *Store) GetAccessTree(name string) (AccessTree, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[name]
	if !ok {
		return AccessTree{}, nil
	}

	result := AccessTree{
		name: TreeNode{Item: item.Clone(), Children: map[string]*rbac.Item{}},
	}
	s.fillAccessTree(name, result, map[string]*rbac.Item{}, map[string]bool{name: true})
	return result, nil
}

func (s *Store) fillAccessTree(name string, result AccessTree, pathChildren map[string]*rbac.Item, inStack map[string]bool) {
	for parentName, bucket := range s.children {
		child, ok := bucket[name]
		if !ok {
			continue
		}
		if inStack[parentName] {
			continue
		}
		parent, ok := s.items[parentName]
		if !ok {
			continue
		}

		branch := make(map[string]*rbac.Item, len(pathChildren)+1)
		for n, it := range pathChildren {
			branch[n] = it
		}
		branch[name] = child.Clone()
		result[parentName] = TreeNode{Item: parent.Clone(), Children: branch}

		inStack[parentName] = true
		s.fillAccessTree(parentName, result, branch, inStack)
		delete(inStack, parentName)
	}
}

// GetDirectChildren returns the named item's direct children, empty when
// it has none
func (s *Store) GetDirectChildren(name string) (map[string]*rbac.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneItems(s.children[name]), nil
}

// GetAllChildren returns the union of the transitive closures of the
// given names: every item reachable via one or more child hops.
func (s *Store) GetAllChildren(names ...string) (map[string]*rbac.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.allChildrenLocked(names, nil), nil
}

// GetAllChildRoles returns the roles in the transitive closure of the
// given names
func (s *Store) GetAllChildRoles(names ...string) (map[string]*rbac.Item, error) {
	t := rbac.TypeRole
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.allChildrenLocked(names, &t), nil
}

// GetAllChildPermissions returns the permissions in the transitive
// closure of the given names
func (s *Store) GetAllChildPermissions(names ...string) (map[string]*rbac.Item, error) {
	t := rbac.TypePermission
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.allChildrenLocked(names, &t), nil
}

func (s *Store) allChildrenLocked(names []string, filter *rbac.ItemType) map[string]*rbac.Item {
	result := make(map[string]*rbac.Item)
	for _, name := range names {
		for _, childName := range s.closureOf(name) {
			item, ok := s.items[childName]
			if !ok {
				continue
			}
			if filter != nil && item.Type != *filter {
				continue
			}
			result[childName] = item.Clone()
		}
	}
	return result
}

// closureOf returns the sorted transitive-descendant names of one item,
// consulting the closure cache; callers hold at least the read lock
func (s *Store) closureOf(name string) []string {
	if s.closure != nil {
		if names, ok := s.closure.Get(name); ok {
			return names
		}
	}

	seen := make(map[string]bool)
	s.fillChildrenNames(name, seen, map[string]bool{})

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)

	if s.closure != nil {
		s.closure.Add(name, names)
	}
	return names
}

func (s *Store) fillChildrenNames(name string, result map[string]bool, visited map[string]bool) {
	if visited[name] {
		return
	}
	visited[name] = true
	for childName := range s.children[name] {
		if _, ok := s.items[childName]; ok {
			result[childName] = true
		}
		s.fillChildrenNames(childName, result, visited)
	}
}

// HasChildren reports whether the named item has any direct children
func (s *Store) HasChildren(name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.children[name]) > 0, nil
}

// HasChild reports whether childName equals parentName or is reachable
// from it via child hops. This is the authoritative reachability
// primitive backing cycle detection.
func (s *Store) HasChild(parentName, childName string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasChildLocked(parentName, childName, map[string]bool{}), nil
}

func (s *Store) hasChildLocked(parentName, childName string, visited map[string]bool) bool {
	if parentName == childName {
		return true
	}
	if visited[parentName] {
		return false
	}
	visited[parentName] = true
	for name := range s.children[parentName] {
		if s.hasChildLocked(name, childName, visited) {
			return true
		}
	}
	return false
}

// HasDirectChild reports whether childName is a direct child of parentName
func (s *Store) HasDirectChild(parentName, childName string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.children[parentName][childName]
	return ok, nil
}

// DetectCycle reports whether adding the edge parentName -> childName
// would close a loop. Run this before every AddChild; the store does not
// re-check on write.
func (s *Store) DetectCycle(parentName, childName string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasChildLocked(childName, parentName, map[string]bool{}), nil
}

// AddChild inserts the edge parentName -> childName and persists. Both
// endpoints must already be stored; an edge to a missing item would be
// dropped on the next load, so it is rejected here instead.
func (s *Store) AddChild(parentName, childName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[parentName]; !ok {
		return fmt.Errorf("unknown parent item %q", parentName)
	}
	child, ok := s.items[childName]
	if !ok {
		return fmt.Errorf("unknown child item %q", childName)
	}

	bucket := s.children[parentName]
	if bucket == nil {
		bucket = make(map[string]*rbac.Item)
		s.children[parentName] = bucket
	}
	bucket[childName] = child
	s.metrics.RecordMutation("items", "add_child")
	s.recordAudit(audit.OpAddChild, parentName+" -> "+childName)
	return s.persist()
}

// RemoveChild deletes the edge parentName -> childName and persists.
// A missing edge is a no-op and does not touch the file.
func (s *Store) RemoveChild(parentName, childName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.children[parentName]
	if !ok {
		return nil
	}
	if _, ok := bucket[childName]; !ok {
		return nil
	}

	delete(bucket, childName)
	if len(bucket) == 0 {
		delete(s.children, parentName)
	}
	s.metrics.RecordMutation("items", "remove_child")
	s.recordAudit(audit.OpRemoveChild, parentName+" -> "+childName)
	return s.persist()
}

// RemoveChildren drops every outgoing edge of parentName and persists.
// An item without children is a no-op and does not touch the file.
func (s *Store) RemoveChildren(parentName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.children[parentName]; !ok {
		return nil
	}
	delete(s.children, parentName)
	s.metrics.RecordMutation("items", "remove_children")
	s.recordAudit(audit.OpRemoveChildren, parentName)
	return s.persist()
}
