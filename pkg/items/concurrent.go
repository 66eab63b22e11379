package items

import (
	"github.com/rolevault/rolevault/pkg/filestore"
	"github.com/rolevault/rolevault/pkg/rbac"
)

// ConcurrentStore decorates a Store with reload-on-change semantics for
// deployments where several process instances share one file set. Every
// operation first asks the guard whether a sibling's write moved the items
// file and reloads when it did; mutations record their own write's
// timestamp so the instance does not reload what it just wrote.
//
// The wrapped Store keeps all hierarchy and persistence logic; this type
// only adds the consistency check.
type ConcurrentStore struct {
	store *Store
	guard *filestore.Guard
}

// NewConcurrentStore wraps store with the given guard. A disabled guard
// yields load-once semantics identical to using the store directly.
func NewConcurrentStore(store *Store, guard *filestore.Guard) *ConcurrentStore {
	return &ConcurrentStore{store: store, guard: guard}
}

var _ Storage = (*ConcurrentStore)(nil)
var _ Storage = (*Store)(nil)

func (c *ConcurrentStore) load() error {
	return c.guard.MaybeReload(c.store.FileUpdatedAt, c.store.Load)
}

func (c *ConcurrentStore) sync() error {
	ts, err := c.store.FileUpdatedAt()
	if err != nil {
		return err
	}
	c.guard.Sync(ts)
	return nil
}

// GetAll implements Storage.GetAll
func (c *ConcurrentStore) GetAll() (map[string]*rbac.Item, error) {
	if err := c.load(); err != nil {
		return nil, err
	}
	return c.store.GetAll()
}

// GetByNames implements Storage.GetByNames
func (c *ConcurrentStore) GetByNames(names []string) (map[string]*rbac.Item, error) {
	if err := c.load(); err != nil {
		return nil, err
	}
	return c.store.GetByNames(names)
}

// Get implements Storage.Get
func (c *ConcurrentStore) Get(name string) (*rbac.Item, error) {
	if err := c.load(); err != nil {
		return nil, err
	}
	return c.store.Get(name)
}

// Exists implements Storage.Exists
func (c *ConcurrentStore) Exists(name string) (bool, error) {
	if err := c.load(); err != nil {
		return false, err
	}
	return c.store.Exists(name)
}

// RoleExists implements Storage.RoleExists
func (c *ConcurrentStore) RoleExists(name string) (bool, error) {
	if err := c.load(); err != nil {
		return false, err
	}
	return c.store.RoleExists(name)
}

// GetRoles implements Storage.GetRoles
func (c *ConcurrentStore) GetRoles() (map[string]*rbac.Item, error) {
	if err := c.load(); err != nil {
		return nil, err
	}
	return c.store.GetRoles()
}

// GetRolesByNames implements Storage.GetRolesByNames
func (c *ConcurrentStore) GetRolesByNames(names []string) (map[string]*rbac.Item, error) {
	if err := c.load(); err != nil {
		return nil, err
	}
	return c.store.GetRolesByNames(names)
}

// GetRole implements Storage.GetRole
func (c *ConcurrentStore) GetRole(name string) (*rbac.Item, error) {
	if err := c.load(); err != nil {
		return nil, err
	}
	return c.store.GetRole(name)
}

// GetPermissions implements Storage.GetPermissions
func (c *ConcurrentStore) GetPermissions() (map[string]*rbac.Item, error) {
	if err := c.load(); err != nil {
		return nil, err
	}
	return c.store.GetPermissions()
}

// GetPermissionsByNames implements Storage.GetPermissionsByNames
func (c *ConcurrentStore) GetPermissionsByNames(names []string) (map[string]*rbac.Item, error) {
	if err := c.load(); err != nil {
		return nil, err
	}
	return c.store.GetPermissionsByNames(names)
}

// GetPermission implements Storage.GetPermission
func (c *ConcurrentStore) GetPermission(name string) (*rbac.Item, error) {
	if err := c.load(); err != nil {
		return nil, err
	}
	return c.store.GetPermission(name)
}

// Add implements Storage.Add
func (c *ConcurrentStore) Add(item *rbac.Item) error {
	if err := c.load(); err != nil {
		return err
	}
	if err := c.store.Add(item); err != nil {
		return err
	}
	return c.sync()
}

// Update implements Storage.Update
func (c *ConcurrentStore) Update(name string, item *rbac.Item) error {
	if err := c.load(); err != nil {
		return err
	}
	if err := c.store.Update(name, item); err != nil {
		return err
	}
	return c.sync()
}

// Remove implements Storage.Remove
func (c *ConcurrentStore) Remove(name string) error {
	if err := c.load(); err != nil {
		return err
	}
	if err := c.store.Remove(name); err != nil {
		return err
	}
	return c.sync()
}

// Clear implements Storage.Clear. Clearing replaces the dataset outright,
// so no catch-up reload runs first.
func (c *ConcurrentStore) Clear() error {
	if err := c.store.Clear(); err != nil {
		return err
	}
	return c.sync()
}

// ClearRoles implements Storage.ClearRoles
func (c *ConcurrentStore) ClearRoles() error {
	if err := c.load(); err != nil {
		return err
	}
	if err := c.store.ClearRoles(); err != nil {
		return err
	}
	return c.sync()
}

// ClearPermissions implements Storage.ClearPermissions
func (c *ConcurrentStore) ClearPermissions() error {
	if err := c.load(); err != nil {
		return err
	}
	if err := c.store.ClearPermissions(); err != nil {
		return err
	}
	return c.sync()
}

// GetParents implements Storage.GetParents
func (c *ConcurrentStore) GetParents(name string) (map[string]*rbac.Item, error) {
	if err := c.load(); err != nil {
		return nil, err
	}
	return c.store.GetParents(name)
}

// GetAccessTree implements Storage.GetAccessTree
func (c *ConcurrentStore) GetAccessTree(name string) (AccessTree, error) {
	if err := c.load(); err != nil {
		return nil, err
	}
	return c.store.GetAccessTree(name)
}

// GetDirectChildren implements Storage.GetDirectChildren
func (c *ConcurrentStore) GetDirectChildren(name string) (map[string]*rbac.Item, error) {
	if err := c.load(); err != nil {
		return nil, err
	}
	return c.store.GetDirectChildren(name)
}

// GetAllChildren implements Storage.GetAllChildren
func (c *ConcurrentStore) GetAllChildren(names ...string) (map[string]*rbac.Item, error) {
	if err := c.load(); err != nil {
		return nil, err
	}
	return c.store.GetAllChildren(names...)
}

// GetAllChildRoles implements Storage.GetAllChildRoles
func (c *ConcurrentStore) GetAllChildRoles(names ...string) (map[string]*rbac.Item, error) {
	if err := c.load(); err != nil {
		return nil, err
	}
	return c.store.GetAllChildRoles(names...)
}

// GetAllChildPermissions implements Storage.GetAllChildPermissions
func (c *ConcurrentStore) GetAllChildPermissions(names ...string) (map[string]*rbac.Item, error) {
	if err := c.load(); err != nil {
		return nil, err
	}
	return c.store.GetAllChildPermissions(names...)
}

// HasChildren implements Storage.HasChildren
func (c *ConcurrentStore) HasChildren(name string) (bool, error) {
	if err := c.load(); err != nil {
		return false, err
	}
	return c.store.HasChildren(name)
}

// HasChild implements Storage.HasChild
func (c *ConcurrentStore) HasChild(parentName, childName string) (bool, error) {
	if err := c.load(); err != nil {
		return false, err
	}
	return c.store.HasChild(parentName, childName)
}

// HasDirectChild implements Storage.HasDirectChild
func (c *ConcurrentStore) HasDirectChild(parentName, childName string) (bool, error) {
	if err := c.load(); err != nil {
		return false, err
	}
	return c.store.HasDirectChild(parentName, childName)
}

// DetectCycle implements Storage.DetectCycle
func (c *ConcurrentStore) DetectCycle(parentName, childName string) (bool, error) {
	if err := c.load(); err != nil {
		return false, err
	}
	return c.store.DetectCycle(parentName, childName)
}

// AddChild implements Storage.AddChild
func (c *ConcurrentStore) AddChild(parentName, childName string) error {
	if err := c.load(); err != nil {
		return err
	}
	if err := c.store.AddChild(parentName, childName); err != nil {
		return err
	}
	return c.sync()
}

// RemoveChild implements Storage.RemoveChild
func (c *ConcurrentStore) RemoveChild(parentName, childName string) error {
	if err := c.load(); err != nil {
		return err
	}
	if err := c.store.RemoveChild(parentName, childName); err != nil {
		return err
	}
	return c.sync()
}

// RemoveChildren implements Storage.RemoveChildren
func (c *ConcurrentStore) RemoveChildren(parentName string) error {
	if err := c.load(); err != nil {
		return err
	}
	if err := c.store.RemoveChildren(parentName); err != nil {
		return err
	}
	return c.sync()
}

// AddRule implements Storage.AddRule
func (c *ConcurrentStore) AddRule(rule *rbac.Rule) error {
	if err := c.load(); err != nil {
		return err
	}
	return c.store.AddRule(rule)
}

// GetRule implements Storage.GetRule
func (c *ConcurrentStore) GetRule(name string) (*rbac.Rule, error) {
	if err := c.load(); err != nil {
		return nil, err
	}
	return c.store.GetRule(name)
}

// GetRules implements Storage.GetRules
func (c *ConcurrentStore) GetRules() (map[string]*rbac.Rule, error) {
	if err := c.load(); err != nil {
		return nil, err
	}
	return c.store.GetRules()
}

// RemoveRule implements Storage.RemoveRule
func (c *ConcurrentStore) RemoveRule(name string) error {
	if err := c.load(); err != nil {
		return err
	}
	if err := c.store.RemoveRule(name); err != nil {
		return err
	}
	return c.sync()
}

// ClearRules implements Storage.ClearRules
func (c *ConcurrentStore) ClearRules() error {
	if err := c.load(); err != nil {
		return err
	}
	if err := c.store.ClearRules(); err != nil {
		return err
	}
	return c.sync()
}
