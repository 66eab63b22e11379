package audit

import (
	"encoding/json"
	"time"
)

// Op is the kind of mutation recorded
type Op string

const (
	OpAdd            Op = "add"
	OpUpdate         Op = "update"
	OpRemove         Op = "remove"
	OpClear          Op = "clear"
	OpAddChild       Op = "add_child"
	OpRemoveChild    Op = "remove_child"
	OpRemoveChildren Op = "remove_children"
	OpRenameItem     Op = "rename_item"
	OpClearRuleRefs  Op = "clear_rule_refs"
)

// Event is one entry in the mutation trail. Store names which backing
// store changed ("items", "assignments", "rules"); Name and UserID carry
// the affected identifiers where the operation has them.
type Event struct {
	ID     string    `json:"id"`
	Time   time.Time `json:"time"`
	Store  string    `json:"store"`
	Op     Op        `json:"op"`
	Name   string    `json:"name,omitempty"`
	UserID string    `json:"user_id,omitempty"`
}

// ToJSON serializes the event for transport or display
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}
