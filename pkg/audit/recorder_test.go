package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileRecorder(t *testing.T) {
	t.Run("records and reads back events", func(t *testing.T) {
		dir := t.TempDir()
		r, err := NewFileRecorder(FileRecorderConfig{Dir: dir})
		require.NoError(t, err)
		defer r.Close()

		require.NoError(t, r.Record(Event{Store: "items", Op: OpAdd, Name: "admin"}))
		require.NoError(t, r.Record(Event{Store: "assignments", Op: OpRemove, Name: "reader", UserID: "alice"}))

		events, err := r.ReadEvents(0)
		require.NoError(t, err)
		require.Len(t, events, 2)

		assert.Equal(t, "items", events[0].Store)
		assert.Equal(t, OpAdd, events[0].Op)
		assert.NotEmpty(t, events[0].ID, "missing IDs are stamped")
		assert.False(t, events[0].Time.IsZero(), "missing times are stamped")

		assert.Equal(t, "alice", events[1].UserID)
	})

	t.Run("keeps caller-provided identifiers", func(t *testing.T) {
		r, err := NewFileRecorder(FileRecorderConfig{Dir: t.TempDir()})
		require.NoError(t, err)
		defer r.Close()

		require.NoError(t, r.Record(Event{ID: "fixed-id", Store: "rules", Op: OpClear}))

		events, err := r.ReadEvents(1)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "fixed-id", events[0].ID)
	})

	t.Run("count limits the read", func(t *testing.T) {
		r, err := NewFileRecorder(FileRecorderConfig{Dir: t.TempDir()})
		require.NoError(t, err)
		defer r.Close()

		for i := 0; i < 5; i++ {
			require.NoError(t, r.Record(Event{Store: "items", Op: OpAdd}))
		}

		events, err := r.ReadEvents(3)
		require.NoError(t, err)
		assert.Len(t, events, 3)
	})

	t.Run("rotates when the trail grows past the limit", func(t *testing.T) {
		dir := t.TempDir()
		r, err := NewFileRecorder(FileRecorderConfig{Dir: dir, Rotate: true, MaxSize: 64})
		require.NoError(t, err)
		defer r.Close()

		for i := 0; i < 10; i++ {
			require.NoError(t, r.Record(Event{Store: "items", Op: OpAdd, Name: "some-item-name"}))
		}

		rotated, err := filepath.Glob(filepath.Join(dir, "trail-*.jsonl"))
		require.NoError(t, err)
		assert.NotEmpty(t, rotated)
	})

	t.Run("creates the trail directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "audit")
		_, err := NewFileRecorder(FileRecorderConfig{Dir: dir})
		require.NoError(t, err)

		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})
}

func TestNopRecorder(t *testing.T) {
	var r Recorder = NopRecorder{}
	assert.NoError(t, r.Record(Event{Store: "items", Op: OpAdd}))
	assert.NoError(t, r.Close())
}

func TestEventToJSON(t *testing.T) {
	event := Event{
		ID:     "11111111-2222-3333-4444-555555555555",
		Time:   time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
		Store:  "assignments",
		Op:     OpAdd,
		Name:   "admin",
		UserID: "alice",
	}

	encoded, err := event.ToJSON()
	require.NoError(t, err)

	var decoded Event
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, event, decoded)

	t.Run("empty identifiers are omitted", func(t *testing.T) {
		encoded, err := (&Event{Store: "items", Op: OpClear}).ToJSON()
		require.NoError(t, err)
		assert.NotContains(t, string(encoded), "name")
		assert.NotContains(t, string(encoded), "user_id")
	})
}
