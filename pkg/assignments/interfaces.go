package assignments

import (
	"github.com/rolevault/rolevault/pkg/rbac"
)

// Storage is the user-assignment contract consumed by an external RBAC
// manager. Both Store and ConcurrentStore satisfy it.
//
// Lookups for unknown users or items are not errors: they return nil,
// empty collections or false. Errors surface persistence failures only.
type Storage interface {
	// Lookups
	GetAll() (map[string]map[string]*rbac.Assignment, error)
	GetByUserID(userID string) (map[string]*rbac.Assignment, error)
	GetByItemNames(names []string) ([]*rbac.Assignment, error)
	Get(itemName, userID string) (*rbac.Assignment, error)
	Exists(itemName, userID string) (bool, error)
	UserHasItem(userID string, names []string) (bool, error)
	FilterUserItemNames(userID string, names []string) ([]string, error)
	HasItem(name string) (bool, error)

	// Mutations
	Add(assignment *rbac.Assignment) error
	RenameItem(oldName, newName string) error
	Remove(itemName, userID string) error
	RemoveByUserID(userID string) error
	RemoveByItemName(itemName string) error
	Clear() error
}
