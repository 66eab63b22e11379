package assignments

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rolevault/rolevault/pkg/audit"
	"github.com/rolevault/rolevault/pkg/filestore"
	"github.com/rolevault/rolevault/pkg/observability"
	"github.com/rolevault/rolevault/pkg/rbac"
)

// DefaultFileName is the assignments file name inside the storage directory
const DefaultFileName = "assignments.yml"

// assignmentRecord is the on-disk shape of one grant under a user's key
type assignmentRecord struct {
	ItemName  string `yaml:"item_name"`
	CreatedAt int64  `yaml:"created_at,omitempty"`
}

// Store keeps user assignments in memory and persists them to a single
// flat file after every mutation. State is a two-level index,
// userID -> itemName -> assignment.
type Store struct {
	file    string
	codec   *filestore.Codec
	logger  *logrus.Logger
	metrics *observability.Metrics
	trail   audit.Recorder

	mu          sync.RWMutex
	assignments map[string]map[string]*rbac.Assignment
}

// Option configures an assignment store
type Option func(*Store)

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

// NewStore creates an assignment store backed by fileName inside dir and
// loads any existing data. A missing file starts the store empty.
func NewStore(dir, fileName string, codec *filestore.Codec, opts ...Option) (*Store, error) {
	if fileName == "" {
		fileName = DefaultFileName
	}
	s := &Store{
		file:        filepath.Join(dir, fileName),
		codec:       codec,
		assignments: make(map[string]map[string]*rbac.Assignment),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = observability.NewNopLogger()
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the assignments file path
func (s *Store) Path() string {
	return s.file
}

// FileUpdatedAt returns the assignments file's modification timestamp
func (s *Store) FileUpdatedAt() (int64, error) {
	return s.codec.ModifiedAt(s.file)
}

// Load re-parses the assignments file, replacing in-memory state. Grants
// missing their own timestamp inherit the file's modification time.
func (s *Store) Load() error {
	var records map[string][]assignmentRecord
	if err := s.codec.Load(s.file, &records); err != nil {
		return fmt.Errorf("failed to load assignments: %w", err)
	}

	mtime, _ := s.codec.ModifiedAt(s.file)

	byUser := make(map[string]map[string]*rbac.Assignment, len(records))
	for userID, recs := range records {
		if len(recs) == 0 {
			continue
		}
		bucket := make(map[string]*rbac.Assignment, len(recs))
		for _, rec := range recs {
			createdAt := rec.CreatedAt
			if createdAt == 0 {
				createdAt = mtime
			}
			bucket[rec.ItemName] = rbac.NewAssignment(userID, rec.ItemName, createdAt)
		}
		byUser[userID] = bucket
	}

	s.mu.Lock()
	s.assignments = byUser
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"users": len(byUser),
		"path":  s.file,
	}).Debug("loaded assignments file")
	return nil
}

// GetAll returns every assignment keyed by user ID and item name
func (s *Store) GetAll() (map[string]map[string]*rbac.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string]map[string]*rbac.Assignment, len(s.assignments))
	for userID, bucket := range s.assignments {
		result[userID] = cloneBucket(bucket)
	}
	return result, nil
}

// GetByUserID returns the user's assignments keyed by item name, empty
// when the user has none
func (s *Store) GetByUserID(userID string) (map[string]*rbac.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneBucket(s.assignments[userID]), nil
}

// GetByItemNames returns every assignment, across all users, whose item
// name is in names
func (s *Store) GetByItemNames(names []string) ([]*rbac.Assignment, error) {
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*rbac.Assignment
	for _, bucket := range s.assignments {
		for itemName, a := range bucket {
			if wanted[itemName] {
				result = append(result, a.Clone())
			}
		}
	}
	return result, nil
}

// Get returns the assignment of itemName to userID, or nil when absent
func (s *Store) Get(itemName, userID string) (*rbac.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.assignments[userID][itemName]; ok {
		return a.Clone(), nil
	}
	return nil, nil
}

// Exists reports whether itemName is assigned to userID
func (s *Store) Exists(itemName, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.assignments[userID][itemName]
	return ok, nil
}

// UserHasItem reports whether the user holds at least one of the given
// item names
func (s *Store) UserHasItem(userID string, names []string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bucket := s.assignments[userID]
	if len(bucket) == 0 {
		return false, nil
	}
	for _, name := range names {
		if _, ok := bucket[name]; ok {
			return true, nil
		}
	}
	return false, nil
}

// FilterUserItemNames returns the subset of names assigned to the user,
// in the order given
func (s *Store) FilterUserItemNames(userID string, names []string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bucket := s.assignments[userID]
	var result []string
	for _, name := range names {
		if _, ok := bucket[name]; ok {
			result = append(result, name)
		}
	}
	return result, nil
}

// HasItem reports whether any user holds the given item name
func (s *Store) HasItem(name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, bucket := range s.assignments {
		if _, ok := bucket[name]; ok {
			return true, nil
		}
	}
	return false, nil
}

// Add upserts an assignment and persists. A zero CreatedAt is stamped
// with the current time.
func (s *Store) Add(assignment *rbac.Assignment) error {
	a := assignment.Clone()
	if a.CreatedAt == 0 {
		a.CreatedAt = time.Now().Unix()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	bucket := s.assignments[a.UserID]
	if bucket == nil {
		bucket = make(map[string]*rbac.Assignment)
		s.assignments[a.UserID] = bucket
	}
	bucket[a.ItemName] = a
	s.metrics.RecordMutation("assignments", "add")
	s.recordAudit(audit.OpAdd, a.ItemName, a.UserID)
	return s.persist()
}

// RenameItem rewrites every grant of oldName to newName, keeping the
// original grant times. Equal names or an unassigned oldName are no-ops
// and do not touch the file.
func (s *Store) RenameItem(oldName, newName string) error {
	if oldName == newName {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	changed := false
	for _, bucket := range s.assignments {
		a, ok := bucket[oldName]
		if !ok {
			continue
		}
		bucket[newName] = a.WithItemName(newName)
		delete(bucket, oldName)
		changed = true
	}
	if !changed {
		return nil
	}
	s.metrics.RecordMutation("assignments", "rename_item")
	s.recordAudit(audit.OpRenameItem, oldName+" -> "+newName, "")
	return s.persist()
}

// Remove revokes itemName from userID and persists. A missing grant is a
// no-op and does not touch the file.
func (s *Store) Remove(itemName, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket, ok := s.assignments[userID]
	if !ok {
		return nil
	}
	if _, ok := bucket[itemName]; !ok {
		return nil
	}

	delete(bucket, itemName)
	if len(bucket) == 0 {
		delete(s.assignments, userID)
	}
	s.metrics.RecordMutation("assignments", "remove")
	s.recordAudit(audit.OpRemove, itemName, userID)
	return s.persist()
}

// RemoveByUserID revokes every grant held by userID and persists. A user
// with no grants is a no-op and does not touch the file.
func (s *Store) RemoveByUserID(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assignments[userID]; !ok {
		return nil
	}
	delete(s.assignments, userID)
	s.metrics.RecordMutation("assignments", "remove_by_user")
	s.recordAudit(audit.OpRemove, "", userID)
	return s.persist()
}

// RemoveByItemName revokes itemName from every user and persists. An
// unassigned name is a no-op and does not touch the file.
func (s *Store) RemoveByItemName(itemName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := false
	for userID, bucket := range s.assignments {
		if _, ok := bucket[itemName]; !ok {
			continue
		}
		delete(bucket, itemName)
		if len(bucket) == 0 {
			delete(s.assignments, userID)
		}
		changed = true
	}
	if !changed {
		return nil
	}
	s.metrics.RecordMutation("assignments", "remove_by_item")
	s.recordAudit(audit.OpRemove, itemName, "")
	return s.persist()
}

// Clear drops every assignment and persists
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments = make(map[string]map[string]*rbac.Assignment)
	s.metrics.RecordMutation("assignments", "clear")
	s.recordAudit(audit.OpClear, "", "")
	return s.persist()
}

// persist writes all assignments; callers hold the write lock. Per-user
// grant lists are sorted by item name so repeated saves of the same state
// produce byte-identical files.
func (s *Store) persist() error {
	records := make(map[string][]assignmentRecord, len(s.assignments))
	for userID, bucket := range s.assignments {
		recs := make([]assignmentRecord, 0, len(bucket))
		for _, a := range bucket {
			recs = append(recs, assignmentRecord{ItemName: a.ItemName, CreatedAt: a.CreatedAt})
		}
		sort.Slice(recs, func(i, j int) bool { return recs[i].ItemName < recs[j].ItemName })
		records[userID] = recs
	}

	if err := s.codec.Save(s.file, records); err != nil {
		return fmt.Errorf("failed to save assignments: %w", err)
	}
	return nil
}

func (s *Store) recordAudit(op audit.Op, itemName, userID string) {
	if s.trail == nil {
		return
	}
	if err := s.trail.Record(audit.Event{Store: "assignments", Op: op, Name: itemName, UserID: userID}); err != nil {
		s.logger.WithError(err).Warn("failed to record audit event")
	}
}

func cloneBucket(in map[string]*rbac.Assignment) map[string]*rbac.Assignment {
	out := make(map[string]*rbac.Assignment, len(in))
	for name, a := range in {
		out[name] = a.Clone()
	}
	return out
}
