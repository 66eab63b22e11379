// Package rbac defines the domain types shared by the rolevault stores:
// items (roles and permissions), user-to-item assignments, and named rules.
//
// The types here carry no persistence logic. Stores in pkg/items,
// pkg/assignments and pkg/rules own the file-backed state and hand out
// copies of these values; an external RBAC manager composes the stores to
// answer authorization questions.
//
// # Items
//
// An Item is a tagged union over two variants:
//
//	rbac.NewRole("admin")            // ItemType "role"
//	rbac.NewPermission("createPost") // ItemType "permission"
//
// Items are immutable in style: modifiers return copies.
//
//	item := rbac.NewRole("editor").
//		WithDescription("Can edit posts").
//		WithRuleName("isAuthor")
//
// # Assignments
//
// An Assignment is the grant of an item to a user, unique per
// (user, item name) pair:
//
//	a := rbac.NewAssignment("user-17", "editor", time.Now().Unix())
//
// # Rules
//
// A Rule is an opaque serialized predicate keyed by name. Payload encoding
// into the rules file goes through a pluggable RuleCodec; the default is
// base64.
package rbac
