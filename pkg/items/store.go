package items

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"

	"github.com/rolevault/rolevault/pkg/audit"
	"github.com/rolevault/rolevault/pkg/filestore"
	"github.com/rolevault/rolevault/pkg/observability"
	"github.com/rolevault/rolevault/pkg/rbac"
	"github.com/rolevault/rolevault/pkg/rules"
)

// DefaultFileName is the items file name inside the storage directory
const DefaultFileName = "items.yml"

const (
	defaultClosureCacheSize = 128
	defaultClosureCacheTTL  = 30 * time.Second
)

// itemRecord is the on-disk shape of one item. Records are keyed by item
// name in the file; the name is repeated inside the record so the file
// stays self-describing when hand-edited.
type itemRecord struct {
	Type        string   `yaml:"type"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	RuleName    string   `yaml:"rule_name,omitempty"`
	CreatedAt   int64    `yaml:"created_at,omitempty"`
	UpdatedAt   int64    `yaml:"updated_at,omitempty"`
	Children    []string `yaml:"children,omitempty"`
}

// Store keeps the item graph in memory and persists it to a single flat
// file after every mutation. The file is the durable source of truth; the
// maps here are a per-instance cache that a ConcurrentStore wrapper can
// invalidate when a sibling process writes the file.
//
// The store does not enforce acyclicity on write. Callers must run
// DetectCycle before AddChild; every traversal still carries a visited set
// so a hand-edited cyclic file degrades to wrong-but-terminating answers
// instead of unbounded recursion.
type Store struct {
	file    string
	codec   *filestore.Codec
	rules   *rules.Store
	logger  *logrus.Logger
	metrics *observability.Metrics
	trail   audit.Recorder

	mu       sync.RWMutex
	items    map[string]*rbac.Item
	children map[string]map[string]*rbac.Item

	// closure caches transitive-descendant name lists per root item,
	// purged on every mutation and reload
	closure *lru.LRU[string, []string]
}

// Option configures an item store
type Option func(*Store)

// WithRules wires the rule store used by the rule-coordination operations
func WithRules(rs *rules.Store) Option {
	return func(s *Store) {
		s.rules = rs
	}
}

// WithLogger sets the store logger
func WithLogger(logger *logrus.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics collector
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// WithAudit wires a mutation-trail recorder. Recording failures are
// logged, never returned.
func WithAudit(r audit.Recorder) Option {
	return func(s *Store) {
		s.trail = r
	}
}

// WithClosureCache sizes the transitive-closure cache. A size of zero
// disables caching.
func WithClosureCache(size int, ttl time.Duration) Option {
	return func(s *Store) {
		if size <= 0 {
			s.closure = nil
			return
		}
		s.closure = lru.NewLRU[string, []string](size, nil, ttl)
	}
}

// NewStore creates an item store backed by fileName inside dir and loads
// any existing data. A missing file starts the store empty.
func NewStore(dir, fileName string, codec *filestore.Codec, opts ...Option) (*Store, error) {
	if fileName == "" {
		fileName = DefaultFileName
	}
	s := &Store{
		file:     filepath.Join(dir, fileName),
		codec:    codec,
		items:    make(map[string]*rbac.Item),
		children: make(map[string]map[string]*rbac.Item),
		closure:  lru.NewLRU[string, []string](defaultClosureCacheSize, nil, defaultClosureCacheTTL),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = observability.NewNopLogger()
	}

	// The in-process analogue of a compiled-script cache flush: any write
	// through the codec to this store's file drops derived state.
	file := s.file
	codec.AddInvalidationHook(func(path string) {
		if path == file {
			s.purgeClosure()
		}
	})

	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the items file path
func (s *Store) Path() string {
	return s.file
}

// FileUpdatedAt returns the items file's modification timestamp
func (s *Store) FileUpdatedAt() (int64, error) {
	return s.codec.ModifiedAt(s.file)
}

// Load re-parses the items file, replacing in-memory state. Items missing
// their own timestamps inherit the file's modification time. Children
// entries naming unknown items are dropped silently; a hand-edited file
// with dangling references is not an error.
func (s *Store) Load() error {
	var records map[string]itemRecord
	if err := s.codec.Load(s.file, &records); err != nil {
		return fmt.Errorf("failed to load items: %w", err)
	}

	// Missing file means empty dataset and no mtime; zero timestamps are
	// fine in that case because there is nothing to stamp.
	mtime, _ := s.codec.ModifiedAt(s.file)

	itemsByName := make(map[string]*rbac.Item, len(records))
	for name, rec := range records {
		item := &rbac.Item{
			Type:        itemTypeFromTag(rec.Type),
			Name:        name,
			Description: rec.Description,
			RuleName:    rec.RuleName,
			CreatedAt:   rec.CreatedAt,
			UpdatedAt:   rec.UpdatedAt,
		}
		if item.CreatedAt == 0 {
			item.CreatedAt = mtime
		}
		if item.UpdatedAt == 0 {
			item.UpdatedAt = mtime
		}
		itemsByName[name] = item
	}

	childrenByName := make(map[string]map[string]*rbac.Item)
	for name, rec := range records {
		for _, childName := range rec.Children {
			child, ok := itemsByName[childName]
			if !ok {
				continue
			}
			bucket := childrenByName[name]
			if bucket == nil {
				bucket = make(map[string]*rbac.Item)
				childrenByName[name] = bucket
			}
			bucket[childName] = child
		}
	}

	s.mu.Lock()
	s.items = itemsByName
	s.children = childrenByName
	s.mu.Unlock()
	s.purgeClosure()

	s.logger.WithFields(logrus.Fields{
		"items": len(itemsByName),
		"path":  s.file,
	}).Debug("loaded items file")
	return nil
}

// GetAll returns every item keyed by name
func (s *Store) GetAll() (map[string]*rbac.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneItems(s.items), nil
}

// GetByNames returns the subset of items with the given names
func (s *Store) GetByNames(names []string) (map[string]*rbac.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string]*rbac.Item)
	for _, name := range names {
		if item, ok := s.items[name]; ok {
			result[name] = item.Clone()
		}
	}
	return result, nil
}

// Get returns the named item, or nil when unknown
func (s *Store) Get(name string) (*rbac.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if item, ok := s.items[name]; ok {
		return item.Clone(), nil
	}
	return nil, nil
}

// Exists reports whether an item with the given name is stored
func (s *Store) Exists(name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[name]
	return ok, nil
}

// RoleExists reports whether a role with the given name is stored
func (s *Store) RoleExists(name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[name]
	return ok && item.IsRole(), nil
}

// GetRoles returns all role items keyed by name
func (s *Store) GetRoles() (map[string]*rbac.Item, error) {
	return s.getByType(rbac.TypeRole), nil
}

// GetRolesByNames returns the roles among the given names
func (s *Store) GetRolesByNames(names []string) (map[string]*rbac.Item, error) {
	return s.getByTypeAndNames(rbac.TypeRole, names), nil
}

// GetRole returns the named role, or nil when the name is unknown or
// names a permission
func (s *Store) GetRole(name string) (*rbac.Item, error) {
	return s.getTyped(rbac.TypeRole, name), nil
}

// GetPermissions returns all permission items keyed by name
func (s *Store) GetPermissions() (map[string]*rbac.Item, error) {
	return s.getByType(rbac.TypePermission), nil
}

// GetPermissionsByNames returns the permissions among the given names
func (s *Store) GetPermissionsByNames(names []string) (map[string]*rbac.Item, error) {
	return s.getByTypeAndNames(rbac.TypePermission, names), nil
}

// GetPermission returns the named permission, or nil when the name is
// unknown or names a role
func (s *Store) GetPermission(name string) (*rbac.Item, error) {
	return s.getTyped(rbac.TypePermission, name), nil
}

// Add upserts an item by name and persists
func (s *Store) Add(item *rbac.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.Name] = item.Clone()
	s.metrics.RecordMutation("items", "add")
	s.recordAudit(audit.OpAdd, item.Name)
	return s.persist()
}

// Update replaces the item stored under name. When the new item carries a
// different name the rename cascades: the item's own children bucket moves
// to the new key and every other bucket referencing the old name is
// rewritten. Preventing collisions with an existing different item is the
// caller's responsibility.
func (s *Store) Update(name string, item *rbac.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item = item.Clone()
	if item.Name != name {
		if bucket, ok := s.children[name]; ok {
			s.children[item.Name] = bucket
			delete(s.children, name)
		}
		for _, bucket := range s.children {
			if _, ok := bucket[name]; ok {
				bucket[item.Name] = item
				delete(bucket, name)
			}
		}
		delete(s.items, name)
	}

	s.items[item.Name] = item
	s.metrics.RecordMutation("items", "update")
	s.recordAudit(audit.OpUpdate, name)
	return s.persist()
}

// Remove deletes the item and scrubs it from the hierarchy: its own
// children bucket and every reference in other buckets go with it.
// Removing an unknown name is a no-op and does not touch the file.
func (s *Store) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[name]; !ok {
		return nil
	}
	s.removeLocked(name)
	s.metrics.RecordMutation("items", "remove")
	s.recordAudit(audit.OpRemove, name)
	return s.persist()
}

// removeLocked deletes an item and all hierarchy references to it;
// callers hold the write lock
func (s *Store) removeLocked(name string) {
	delete(s.items, name)
	delete(s.children, name)
	for parent, bucket := range s.children {
		delete(bucket, name)
		if len(bucket) == 0 {
			delete(s.children, parent)
		}
	}
}

// Clear drops every item and edge and persists
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]*rbac.Item)
	s.children = make(map[string]map[string]*rbac.Item)
	s.metrics.RecordMutation("items", "clear")
	s.recordAudit(audit.OpClear, "")
	return s.persist()
}

// ClearRoles removes every role, cascading through the hierarchy scrub
func (s *Store) ClearRoles() error {
	return s.clearByType(rbac.TypeRole)
}

// ClearPermissions removes every permission, cascading through the
// hierarchy scrub
func (s *Store) ClearPermissions() error {
	return s.clearByType(rbac.TypePermission)
}

func (s *Store) clearByType(t rbac.ItemType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doomed []string
	for name, item := range s.items {
		if item.Type == t {
			doomed = append(doomed, name)
		}
	}
	if len(doomed) == 0 {
		return nil
	}
	for _, name := range doomed {
		s.removeLocked(name)
	}
	s.metrics.RecordMutation("items", "clear_"+string(t))
	s.recordAudit(audit.OpClear, string(t))
	return s.persist()
}

func (s *Store) getByType(t rbac.ItemType) map[string]*rbac.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string]*rbac.Item)
	for name, item := range s.items {
		if item.Type == t {
			result[name] = item.Clone()
		}
	}
	return result
}

func (s *Store) getByTypeAndNames(t rbac.ItemType, names []string) map[string]*rbac.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string]*rbac.Item)
	for _, name := range names {
		if item, ok := s.items[name]; ok && item.Type == t {
			result[name] = item.Clone()
		}
	}
	return result
}

func (s *Store) getTyped(t rbac.ItemType, name string) *rbac.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if item, ok := s.items[name]; ok && item.Type == t {
		return item.Clone()
	}
	return nil
}

// persist writes the full item graph; callers hold the write lock.
// Child name lists are sorted so repeated saves of the same graph produce
// byte-identical files.
func (s *Store) persist() error {
	s.closurePurgeLocked()

	records := make(map[string]itemRecord, len(s.items))
	for name, item := range s.items {
		rec := itemRecord{
			Type:        string(item.Type),
			Name:        item.Name,
			Description: item.Description,
			RuleName:    item.RuleName,
			CreatedAt:   item.CreatedAt,
			UpdatedAt:   item.UpdatedAt,
		}
		if bucket := s.children[name]; len(bucket) > 0 {
			childNames := make([]string, 0, len(bucket))
			for childName := range bucket {
				childNames = append(childNames, childName)
			}
			sort.Strings(childNames)
			rec.Children = childNames
		}
		records[name] = rec
	}

	if err := s.codec.Save(s.file, records); err != nil {
		return fmt.Errorf("failed to save items: %w", err)
	}
	return nil
}

func (s *Store) purgeClosure() {
	if s.closure != nil {
		s.closure.Purge()
	}
}

// closurePurgeLocked exists so persist, which already holds the write
// lock, can purge without re-entering helper paths
func (s *Store) closurePurgeLocked() {
	if s.closure != nil {
		s.closure.Purge()
	}
}

func (s *Store) recordAudit(op audit.Op, name string) {
	if s.trail == nil {
		return
	}
	if err := s.trail.Record(audit.Event{Store: "items", Op: op, Name: name}); err != nil {
		s.logger.WithError(err).Warn("failed to record audit event")
	}
}

func itemTypeFromTag(tag string) rbac.ItemType {
	if tag == string(rbac.TypePermission) {
		return rbac.TypePermission
	}
	return rbac.TypeRole
}

func cloneItems(in map[string]*rbac.Item) map[string]*rbac.Item {
	out := make(map[string]*rbac.Item, len(in))
	for name, item := range in {
		out[name] = item.Clone()
	}
	return out
}
