package rules

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/rolevault/rolevault/pkg/audit"
	"github.com/rolevault/rolevault/pkg/filestore"
	"github.com/rolevault/rolevault/pkg/observability"
	"github.com/rolevault/rolevault/pkg/rbac"
)

// DefaultFileName is the rules file name inside the storage directory
const DefaultFileName = "rules.yml"

// Store persists named rule payloads in a single flat file, keyed by rule
// name. Payloads are opaque: they pass through a RuleCodec on the way to
// and from disk and are never interpreted here.
//
// Rules ride along with the items file semantically (an item references a
// rule by name); the cross-store cascade of removing a rule lives in
// pkg/items, which owns the referencing side.
type Store struct {
	file      string
	codec     *filestore.Codec
	ruleCodec rbac.RuleCodec
	logger    *logrus.Logger
	metrics   *observability.Metrics
	trail     audit.Recorder

	mu    sync.RWMutex
	rules map[string][]byte
}

// Option configures a rule store
type Option func(*Store)

// WithRuleCodec replaces the default base64 payload codec
func WithRuleCodec(rc rbac.RuleCodec) Option {
	return func(s *Store) {
		s.ruleCodec = rc
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

// NewStore creates a rule store backed by fileName inside dir and loads
// any existing data. A missing file starts the store empty.
func NewStore(dir, fileName string, codec *filestore.Codec, opts ...Option) (*Store, error) {
	if fileName == "" {
		fileName = DefaultFileName
	}
	s := &Store{
		file:      filepath.Join(dir, fileName),
		codec:     codec,
		ruleCodec: rbac.Base64RuleCodec{},
		rules:     make(map[string][]byte),
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

// Path returns the rules file path
func (s *Store) Path() string {
	return s.file
}

// Load re-parses the rules file, replacing in-memory state
func (s *Store) Load() error {
	var encoded map[string]string
	if err := s.codec.Load(s.file, &encoded); err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}

	rules := make(map[string][]byte, len(encoded))
	for name, data := range encoded {
		payload, err := s.ruleCodec.Decode(data)
		if err != nil {
			return fmt.Errorf("failed to decode rule %q: %w", name, err)
		}
		rules[name] = payload
	}

	s.mu.Lock()
	s.rules = rules
	s.mu.Unlock()
	return nil
}

// FileUpdatedAt returns the rules file's modification timestamp
func (s *Store) FileUpdatedAt() (int64, error) {
	return s.codec.ModifiedAt(s.file)
}

// Get returns the named rule, or nil when unknown
func (s *Store) Get(name string) *rbac.Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payload, ok := s.rules[name]
	if !ok {
		return nil
	}
	return rbac.NewRule(name, payload).Clone()
}

// Exists reports whether the named rule is stored
func (s *Store) Exists(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rules[name]
	return ok
}

// GetAll returns every stored rule keyed by name
func (s *Store) GetAll() map[string]*rbac.Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string]*rbac.Rule, len(s.rules))
	for name, payload := range s.rules {
		result[name] = rbac.NewRule(name, payload).Clone()
	}
	return result
}

// Names returns the stored rule names, sorted
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.rules))
	for name := range s.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Add upserts a rule and persists
func (s *Store) Add(rule *rbac.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[rule.Name] = rule.Clone().Payload
	s.metrics.RecordMutation("rules", "add")
	s.recordAudit(audit.OpAdd, rule.Name)
	return s.persist()
}

// Remove deletes the named rule and persists. Removing an unknown rule is
// a no-op and does not touch the file.
func (s *Store) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[name]; !ok {
		return nil
	}
	delete(s.rules, name)
	s.metrics.RecordMutation("rules", "remove")
	s.recordAudit(audit.OpRemove, name)
	return s.persist()
}

// Clear drops every rule and persists
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = make(map[string][]byte)
	s.metrics.RecordMutation("rules", "clear")
	s.recordAudit(audit.OpClear, "")
	return s.persist()
}

func (s *Store) recordAudit(op audit.Op, name string) {
	if s.trail == nil {
		return
	}
	if err := s.trail.Record(audit.Event{Store: "rules", Op: op, Name: name}); err != nil {
		s.logger.WithError(err).Warn("failed to record audit event")
	}
}

// persist writes the full rule set; callers hold the write lock
func (s *Store) persist() error {
	encoded := make(map[string]string, len(s.rules))
	for name, payload := range s.rules {
		data, err := s.ruleCodec.Encode(payload)
		if err != nil {
			return fmt.Errorf("failed to encode rule %q: %w", name, err)
		}
		encoded[name] = data
	}
	if err := s.codec.Save(s.file, encoded); err != nil {
		return fmt.Errorf("failed to save rules: %w", err)
	}
	s.logger.WithField("rules", len(encoded)).Debug("persisted rules file")
	return nil
}
