package items

import (
	"errors"

	"github.com/rolevault/rolevault/pkg/audit"
	"github.com/rolevault/rolevault/pkg/rbac"
)

// ErrNoRuleStore indicates a rule operation was called on a store built
// without WithRules.
var ErrNoRuleStore = errors.New("no rule store configured")

// AddRule upserts a rule in the wired rule store
func (s *Store) AddRule(rule *rbac.Rule) error {
	if s.rules == nil {
		return ErrNoRuleStore
	}
	return s.rules.Add(rule)
}

// GetRule returns the named rule, or nil when unknown
func (s *Store) GetRule(name string) (*rbac.Rule, error) {
	if s.rules == nil {
		return nil, ErrNoRuleStore
	}
	return s.rules.Get(name), nil
}

// GetRules returns every stored rule keyed by name
func (s *Store) GetRules() (map[string]*rbac.Rule, error) {
	if s.rules == nil {
		return nil, ErrNoRuleStore
	}
	return s.rules.GetAll(), nil
}

// RemoveRule deletes the rule and clears the rule reference on every item
// that pointed at it, persisting the items file when any reference was
// cleared.
func (s *Store) RemoveRule(name string) error {
	if s.rules == nil {
		return ErrNoRuleStore
	}
	if err := s.rules.Remove(name); err != nil {
		return err
	}
	return s.clearRuleReferences(func(ruleName string) bool {
		return ruleName == name
	})
}

// ClearRules drops every rule and clears the rule reference on every item
func (s *Store) ClearRules() error {
	if s.rules == nil {
		return ErrNoRuleStore
	}
	if err := s.rules.Clear(); err != nil {
		return err
	}
	return s.clearRuleReferences(func(ruleName string) bool {
		return ruleName != ""
	})
}

func (s *Store) clearRuleReferences(match func(ruleName string) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for name, item := range s.items {
		if !match(item.RuleName) {
			continue
		}
		s.items[name] = item.WithRuleName("")
		changed = true
	}
	if !changed {
		return nil
	}
	s.metrics.RecordMutation("items", "clear_rule_refs")
	s.recordAudit(audit.OpClearRuleRefs, "")
	return s.persist()
}
