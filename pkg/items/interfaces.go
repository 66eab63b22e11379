package items

import (
	"github.com/rolevault/rolevault/pkg/rbac"
)

// TreeNode is one ancestor entry in an access tree: the ancestor item plus
// the direct children lying on the path down to the queried item.
type TreeNode struct {
	Item     *rbac.Item
	Children map[string]*rbac.Item
}

// AccessTree maps ancestor names to their tree nodes. It answers "what
// does granting this item expose" for admin views.
type AccessTree map[string]TreeNode

// Storage is the item-hierarchy contract consumed by an external RBAC
// manager. Both Store and ConcurrentStore satisfy it, so enabling
// concurrency handling is a construction-time decision invisible to the
// manager.
//
// Lookups for unknown names are not errors: they return nil items, empty
// maps or false. Errors surface persistence and configuration failures
// only.
type Storage interface {
	// Item lookups
	GetAll() (map[string]*rbac.Item, error)
	GetByNames(names []string) (map[string]*rbac.Item, error)
	Get(name string) (*rbac.Item, error)
	Exists(name string) (bool, error)
	RoleExists(name string) (bool, error)
	GetRoles() (map[string]*rbac.Item, error)
	GetRolesByNames(names []string) (map[string]*rbac.Item, error)
	GetRole(name string) (*rbac.Item, error)
	GetPermissions() (map[string]*rbac.Item, error)
	GetPermissionsByNames(names []string) (map[string]*rbac.Item, error)
	GetPermission(name string) (*rbac.Item, error)

	// Item mutations
	Add(item *rbac.Item) error
	Update(name string, item *rbac.Item) error
	Remove(name string) error
	Clear() error
	ClearRoles() error
	ClearPermissions() error

	// Hierarchy queries
	GetParents(name string) (map[string]*rbac.Item, error)
	GetAccessTree(name string) (AccessTree, error)
	GetDirectChildren(name string) (map[string]*rbac.Item, error)
	GetAllChildren(names ...string) (map[string]*rbac.Item, error)
	GetAllChildRoles(names ...string) (map[string]*rbac.Item, error)
	GetAllChildPermissions(names ...string) (map[string]*rbac.Item, error)
	HasChildren(name string) (bool, error)
	HasChild(parentName, childName string) (bool, error)
	HasDirectChild(parentName, childName string) (bool, error)
	DetectCycle(parentName, childName string) (bool, error)

	// Hierarchy mutations
	AddChild(parentName, childName string) error
	RemoveChild(parentName, childName string) error
	RemoveChildren(parentName string) error

	// Rule coordination
	AddRule(rule *rbac.Rule) error
	GetRule(name string) (*rbac.Rule, error)
	GetRules() (map[string]*rbac.Rule, error)
	RemoveRule(name string) error
	ClearRules() error
}
