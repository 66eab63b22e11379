package filestore

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher pushes filesystem change notifications for the data files in a
// storage directory. It complements the mtime-based Guard: polling setups
// use the guard alone, long-lived processes can wire watcher callbacks to
// Guard.Invalidate and skip the stat on unchanged files entirely.
type Watcher struct {
	fw     *fsnotify.Watcher
	files  map[string]struct{}
	onEach func(path string)
	logger *logrus.Logger
	done   chan struct{}
}

// NewWatcher watches dir and invokes onChange with the full path of any
// configured file that is written, created or renamed. fileNames are base
// names inside dir; events for other files are ignored. Rename events
// matter because Codec.Save replaces files via rename.
func NewWatcher(dir string, fileNames []string, onChange func(path string), logger *logrus.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem watcher: %w", err)
	}

	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}

	w := &Watcher{
		fw:     fw,
		files:  make(map[string]struct{}, len(fileNames)),
		onEach: onChange,
		logger: logger,
		done:   make(chan struct{}),
	}
	for _, name := range fileNames {
		w.files[name] = struct{}{}
	}

	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if _, watched := w.files[filepath.Base(event.Name)]; !watched {
				continue
			}
			w.logger.WithFields(logrus.Fields{
				"path": event.Name,
				"op":   event.Op.String(),
			}).Debug("data file changed")
			w.onEach(event.Name)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Warn("filesystem watcher error")
		}
	}
}

// Close stops the watcher and waits for the event loop to drain
func (w *Watcher) Close() error {
	err := w.fw.Close()
	<-w.done
	return err
}
