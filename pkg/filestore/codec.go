package filestore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/rolevault/rolevault/pkg/observability"
)

var (
	// ErrDirectoryCreate indicates the directory holding a data file could
	// not be created. This is a deployment problem and is never retried.
	ErrDirectoryCreate = errors.New("failed to create storage directory")

	// ErrInvalidTimestampProbe indicates a custom modification time probe
	// returned something that is not a usable UNIX timestamp.
	ErrInvalidTimestampProbe = errors.New("modification time probe must return a UNIX timestamp")
)

// Probe reports the last modification time of a file. A custom probe lets
// callers substitute clock sources in tests or on filesystems with coarse
// mtime resolution. Returning the zero time for an existing file is a
// configuration error, not a transient failure.
type Probe func(path string) (time.Time, error)

// Codec reads and writes the flat YAML files backing the rolevault stores.
//
// Writes go through a temp-file-then-rename sequence so a concurrent reader
// never observes a half-written file. After every successful save the codec
// runs its registered invalidation hooks, the in-process substitute for a
// compiled-script cache flush: stores hook their derived caches here.
type Codec struct {
	probe   Probe
	logger  *logrus.Logger
	metrics *observability.Metrics

	mu    sync.Mutex
	hooks []func(path string)
}

// CodecOption configures a Codec
type CodecOption func(*Codec)

// WithProbe replaces the default stat-based modification time probe
func WithProbe(probe Probe) CodecOption {
	return func(c *Codec) {
		c.probe = probe
	}
}

// WithLogger sets the logger used for save/load diagnostics
func WithLogger(logger *logrus.Logger) CodecOption {
	return func(c *Codec) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics collector for file operations
func WithMetrics(m *observability.Metrics) CodecOption {
	return func(c *Codec) {
		c.metrics = m
	}
}

// NewCodec creates a flat-file codec
func NewCodec(opts ...CodecOption) *Codec {
	c := &Codec{}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.SetOutput(os.Stderr)
		c.logger.SetLevel(logrus.WarnLevel)
	}
	return c
}

// AddInvalidationHook registers a function run after every successful save.
// Hooks receive the path that was written.
func (c *Codec) AddInvalidationHook(hook func(path string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, hook)
}

// Load decodes the file at path into out. A missing file is not an error:
// out is left untouched, matching first-run behavior on an empty dataset.
func (c *Codec) Load(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}

	c.metrics.RecordFileLoad(filepath.Base(path))
	return nil
}

// Save serializes data into the file at path, creating missing parent
// directories with 0775 permissions. The write is atomic: data lands in a
// temp file in the same directory and is renamed over the target.
func (c *Codec) Save(path string, data any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o775); err != nil {
		// Tolerate creation races: another process winning the mkdir is
		// success as long as the directory is there now.
		if info, statErr := os.Stat(dir); statErr != nil || !info.IsDir() {
			return fmt.Errorf("%w: %q: %s", ErrDirectoryCreate, dir, err)
		}
	}

	encoded, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(encoded); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	// CreateTemp uses 0600; the files are meant to be human-editable.
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	c.logger.WithFields(logrus.Fields{
		"path":  path,
		"bytes": len(encoded),
	}).Debug("saved data file")
	c.metrics.RecordFileSave(filepath.Base(path))

	c.invalidate(path)
	return nil
}

// ModifiedAt returns the file's last modification time as a UNIX timestamp.
// With a custom probe installed its result is validated: a zero time is a
// fatal configuration error, never silently coerced.
func (c *Codec) ModifiedAt(path string) (int64, error) {
	if c.probe != nil {
		ts, err := c.probe(path)
		if err != nil {
			return 0, fmt.Errorf("modification time probe failed for %s: %w", path, err)
		}
		if ts.IsZero() {
			return 0, fmt.Errorf("%w (path %s)", ErrInvalidTimestampProbe, path)
		}
		return ts.Unix(), nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return info.ModTime().Unix(), nil
}

func (c *Codec) invalidate(path string) {
	c.mu.Lock()
	hooks := make([]func(string), len(c.hooks))
	copy(hooks, c.hooks)
	c.mu.Unlock()

	for _, hook := range hooks {
		hook(path)
	}
}
