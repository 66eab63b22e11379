package assignments

import (
	"github.com/rolevault/rolevault/pkg/filestore"
	"github.com/rolevault/rolevault/pkg/rbac"
)

// ConcurrentStore decorates a Store with reload-on-change semantics,
// mirroring the items decorator: probe the file before every operation,
// reload when a sibling process wrote it, record own writes so they do
// not trigger a reload.
type ConcurrentStore struct {
	store *Store
	guard *filestore.Guard
}

// NewConcurrentStore wraps store with the given guard
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
func (c *ConcurrentStore) GetAll() (map[string]map[string]*rbac.Assignment, error) {
	if err := c.load(); err != nil {
		return nil, err
	}
	return c.store.GetAll()
}

// GetByUserID implements Storage.GetByUserID
func (c *ConcurrentStore) GetByUserID(userID string) (map[string]*rbac.Assignment, error) {
	if err := c.load(); err != nil {
		return nil, err
	}
	return c.store.GetByUserID(userID)
}

// GetByItemNames implements Storage.GetByItemNames
func (c *ConcurrentStore) GetByItemNames(names []string) ([]*rbac.Assignment, error) {
	if err := c.load(); err != nil {
		return nil, err
	}
	return c.store.GetByItemNames(names)
}

// Get implements Storage.Get
func (c *ConcurrentStore) Get(itemName, userID string) (*rbac.Assignment, error) {
	if err := c.load(); err != nil {
		return nil, err
	}
	return c.store.Get(itemName, userID)
}

// Exists implements Storage.Exists
func (c *ConcurrentStore) Exists(itemName, userID string) (bool, error) {
	if err := c.load(); err != nil {
		return false, err
	}
	return c.store.Exists(itemName, userID)
}

// UserHasItem implements Storage.UserHasItem
func (c *ConcurrentStore) UserHasItem(userID string, names []string) (bool, error) {
	if err := c.load(); err != nil {
		return false, err
	}
	return c.store.UserHasItem(userID, names)
}

// FilterUserItemNames implements Storage.FilterUserItemNames
func (c *ConcurrentStore) FilterUserItemNames(userID string, names []string) ([]string, error) {
	if err := c.load(); err != nil {
		return nil, err
	}
	return c.store.FilterUserItemNames(userID, names)
}

// HasItem implements Storage.HasItem
func (c *ConcurrentStore) HasItem(name string) (bool, error) {
	if err := c.load(); err != nil {
		return false, err
	}
	return c.store.HasItem(name)
}

// Add implements Storage.Add
func (c *ConcurrentStore) Add(assignment *rbac.Assignment) error {
	if err := c.load(); err != nil {
		return err
	}
	if err := c.store.Add(assignment); err != nil {
		return err
	}
	return c.sync()
}

// RenameItem implements Storage.RenameItem
func (c *ConcurrentStore) RenameItem(oldName, newName string) error {
	if err := c.load(); err != nil {
		return err
	}
	if err := c.store.RenameItem(oldName, newName); err != nil {
		return err
	}
	return c.sync()
}

// Remove implements Storage.Remove
func (c *ConcurrentStore) Remove(itemName, userID string) error {
	if err := c.load(); err != nil {
		return err
	}
	if err := c.store.Remove(itemName, userID); err != nil {
		return err
	}
	return c.sync()
}

// RemoveByUserID implements Storage.RemoveByUserID
func (c *ConcurrentStore) RemoveByUserID(userID string) error {
	if err := c.load(); err != nil {
		return err
	}
	if err := c.store.RemoveByUserID(userID); err != nil {
		return err
	}
	return c.sync()
}

// RemoveByItemName implements Storage.RemoveByItemName
func (c *ConcurrentStore) RemoveByItemName(itemName string) error {
	if err := c.load(); err != nil {
		return err
	}
	if err := c.store.RemoveByItemName(itemName); err != nil {
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
