package rbac

// ItemType distinguishes roles from permissions in the authorization graph
type ItemType string

const (
	TypeRole       ItemType = "role"
	TypePermission ItemType = "permission"
)

// Item is a named node in the authorization graph, either a role or a
// permission. The type tag is fixed at creation; a permission never becomes
// a role. Items are treated as values: the With* modifiers return copies so
// that stores can hand out snapshots without aliasing their internal state.
type Item struct {
	Type        ItemType `yaml:"type" json:"type"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	RuleName    string   `yaml:"rule_name,omitempty" json:"rule_name,omitempty"`
	CreatedAt   int64    `yaml:"created_at,omitempty" json:"created_at,omitempty"`
	UpdatedAt   int64    `yaml:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// NewRole creates a role item
func NewRole(name string) *Item {
	return &Item{Type: TypeRole, Name: name}
}

// NewPermission creates a permission item
func NewPermission(name string) *Item {
	return &Item{Type: TypePermission, Name: name}
}

// IsRole reports whether the item is a role
func (i *Item) IsRole() bool {
	return i.Type == TypeRole
}

// IsPermission reports whether the item is a permission
func (i *Item) IsPermission() bool {
	return i.Type == TypePermission
}

// WithName returns a copy of the item with a new name
func (i *Item) WithName(name string) *Item {
	c := *i
	c.Name = name
	return &c
}

// WithDescription returns a copy of the item with a new description
func (i *Item) WithDescription(description string) *Item {
	c := *i
	c.Description = description
	return &c
}

// WithRuleName returns a copy of the item referencing the named rule.
// An empty name clears the reference.
func (i *Item) WithRuleName(ruleName string) *Item {
	c := *i
	c.RuleName = ruleName
	return &c
}

// WithCreatedAt returns a copy of the item with the given creation timestamp
func (i *Item) WithCreatedAt(ts int64) *Item {
	c := *i
	c.CreatedAt = ts
	return &c
}

// WithUpdatedAt returns a copy of the item with the given update timestamp
func (i *Item) WithUpdatedAt(ts int64) *Item {
	c := *i
	c.UpdatedAt = ts
	return &c
}

// Clone returns a copy of the item
func (i *Item) Clone() *Item {
	c := *i
	return &c
}

// Assignment records that a user has been granted an item. Assignments are
// unique per (user, item name) pair; re-adding overwrites.
type Assignment struct {
	UserID    string `yaml:"user_id" json:"user_id"`
	ItemName  string `yaml:"item_name" json:"item_name"`
	CreatedAt int64  `yaml:"created_at,omitempty" json:"created_at,omitempty"`
}

// NewAssignment creates an assignment of an item to a user
func NewAssignment(userID, itemName string, createdAt int64) *Assignment {
	return &Assignment{UserID: userID, ItemName: itemName, CreatedAt: createdAt}
}

// WithItemName returns a copy of the assignment pointing at a renamed item
func (a *Assignment) WithItemName(itemName string) *Assignment {
	c := *a
	c.ItemName = itemName
	return &c
}

// Clone returns a copy of the assignment
func (a *Assignment) Clone() *Assignment {
	c := *a
	return &c
}
