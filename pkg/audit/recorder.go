package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Recorder receives mutation events. Recording is best-effort from the
// stores' point of view: a failing recorder must not block mutations, so
// callers log and continue on error.
type Recorder interface {
	Record(event Event) error
	Close() error
}

// FileRecorderConfig configures a FileRecorder
type FileRecorderConfig struct {
	Dir      string // directory for trail files
	Rotate   bool   // rotate when the trail exceeds MaxSize
	MaxSize  int64  // bytes, default 10MB
	MaxFiles int    // rotated files to keep, default 5
}

// FileRecorder appends events to a newline-delimited JSON trail file,
// rotating by size.
type FileRecorder struct {
	dir      string
	rotate   bool
	maxSize  int64
	maxFiles int

	mu      sync.Mutex
	file    *os.File
	encoder *json.Encoder
}

const trailFileName = "trail.jsonl"

// NewFileRecorder creates the trail directory if needed and opens the
// current trail file for appending.
func NewFileRecorder(config FileRecorderConfig) (*FileRecorder, error) {
	if err := os.MkdirAll(config.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit trail directory: %w", err)
	}

	r := &FileRecorder{
		dir:      config.Dir,
		rotate:   config.Rotate,
		maxSize:  config.MaxSize,
		maxFiles: config.MaxFiles,
	}
	if r.maxSize == 0 {
		r.maxSize = 10 * 1024 * 1024
	}
	if r.maxFiles == 0 {
		r.maxFiles = 5
	}

	if err := r.openTrail(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *FileRecorder) openTrail() error {
	filename := filepath.Join(r.dir, trailFileName)

	if r.rotate {
		if info, err := os.Stat(filename); err == nil && info.Size() >= r.maxSize {
			if err := r.rotateTrail(); err != nil {
				return fmt.Errorf("failed to rotate audit trail: %w", err)
			}
		}
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit trail: %w", err)
	}
	r.file = file
	r.encoder = json.NewEncoder(file)
	return nil
}

func (r *FileRecorder) rotateTrail() error {
	current := filepath.Join(r.dir, trailFileName)
	if r.file != nil {
		r.file.Close()
		r.file = nil
	}

	stamp := time.Now().Format("2006-01-02-15-04-05")
	rotated := filepath.Join(r.dir, fmt.Sprintf("trail-%s.jsonl", stamp))
	if err := os.Rename(current, rotated); err != nil {
		return fmt.Errorf("failed to rename audit trail: %w", err)
	}

	r.cleanupRotated()
	return nil
}

// cleanupRotated removes rotated trails beyond the retention count. The
// timestamped names sort chronologically, so a lexical sort suffices.
func (r *FileRecorder) cleanupRotated() {
	files, err := filepath.Glob(filepath.Join(r.dir, "trail-*.jsonl"))
	if err != nil || len(files) <= r.maxFiles {
		return
	}
	for _, file := range files[:len(files)-r.maxFiles] {
		os.Remove(file)
	}
}

// Record appends one event, stamping ID and Time when unset
func (r *FileRecorder) Record(event Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rotate && r.file != nil {
		if info, err := r.file.Stat(); err == nil && info.Size() >= r.maxSize {
			if err := r.openTrail(); err != nil {
				return err
			}
		}
	}

	if err := r.encoder.Encode(&event); err != nil {
		return fmt.Errorf("failed to write audit trail: %w", err)
	}
	return nil
}

// Close closes the current trail file
func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file != nil {
		err := r.file.Close()
		r.file = nil
		return err
	}
	return nil
}

// ReadEvents returns up to count events from the current trail, oldest
// first. Zero count reads everything.
func (r *FileRecorder) ReadEvents(count int) ([]Event, error) {
	file, err := os.Open(filepath.Join(r.dir, trailFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to open audit trail: %w", err)
	}
	defer file.Close()

	var events []Event
	decoder := json.NewDecoder(file)
	for {
		var event Event
		if err := decoder.Decode(&event); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to decode audit trail entry: %w", err)
		}
		events = append(events, event)
		if count > 0 && len(events) >= count {
			break
		}
	}
	return events, nil
}

// NopRecorder discards every event
type NopRecorder struct{}

// Record implements Recorder
func (NopRecorder) Record(Event) error { return nil }

// Close implements Recorder
func (NopRecorder) Close() error { return nil }
