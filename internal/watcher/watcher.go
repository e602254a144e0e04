// Package watcher monitors a drop folder for incoming barcode images.
//
// Files are reported only once they have been stable for the debounce
// interval, so half-written uploads are never handed to the decode
// pipeline.
package watcher

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event represents an image file that is ready to scan.
type Event struct {
	Path      string
	Size      int64
	Timestamp time.Time
}

// Watcher monitors a directory for new image files.
type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	dir        string
	debounce   time.Duration
	extensions map[string]bool

	// State tracking: path -> last modification time
	state   map[string]time.Time
	stateMu sync.RWMutex

	events chan Event
	errors chan error

	done chan struct{}
	wg   sync.WaitGroup
}

// New creates a watcher for dir. Only files whose extension appears in
// extensions (case-insensitive, with leading dot) are reported.
func New(dir string, debounce time.Duration, extensions []string) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	exts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		exts[strings.ToLower(ext)] = true
	}

	w := &Watcher{
		fsWatcher:  fsWatcher,
		dir:        dir,
		debounce:   debounce,
		extensions: exts,
		state:      make(map[string]time.Time),
		events:     make(chan Event, 100),
		errors:     make(chan error, 10),
		done:       make(chan struct{}),
	}

	return w, nil
}

// Events returns the channel of ready-to-scan files.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel of errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Start begins watching the drop folder. Files already present in the
// folder are picked up as if they had just arrived.
func (w *Watcher) Start() error {
	absDir, err := filepath.Abs(w.dir)
	if err != nil {
		return err
	}
	w.dir = absDir

	info, err := os.Stat(absDir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return &os.PathError{Op: "watch", Path: absDir, Err: os.ErrInvalid}
	}

	if err := w.fsWatcher.Add(absDir); err != nil {
		return err
	}

	entries, err := os.ReadDir(absDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			w.trackFile(filepath.Join(absDir, entry.Name()))
		}
	}

	w.wg.Add(2)
	go w.eventLoop()
	go w.debounceLoop()

	return nil
}

// Stop gracefully shuts down the watcher.
func (w *Watcher) Stop() error {
	close(w.done)
	w.wg.Wait()
	close(w.events)
	close(w.errors)
	return w.fsWatcher.Close()
}

// wants reports whether the file matches the extension filter.
func (w *Watcher) wants(path string) bool {
	if len(w.extensions) == 0 {
		return true
	}
	return w.extensions[strings.ToLower(filepath.Ext(path))]
}

// trackFile adds a file to state tracking.
func (w *Watcher) trackFile(path string) {
	if !w.wants(path) {
		return
	}
	info, err := os.Stat(path)
	if err != nil {
		return
	}

	w.stateMu.Lock()
	w.state[path] = info.ModTime()
	w.stateMu.Unlock()
}

// eventLoop handles fsnotify events.
func (w *Watcher) eventLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !w.wants(event.Name) {
				continue
			}

			info, err := os.Stat(event.Name)
			if err != nil || info.IsDir() {
				continue
			}

			w.stateMu.Lock()
			w.state[event.Name] = time.Now()
			w.stateMu.Unlock()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

// debounceLoop checks for stable files and emits scan events.
func (w *Watcher) debounceLoop() {
	defer w.wg.Done()

	tick := w.debounce / 4
	if tick < 50*time.Millisecond {
		tick = 50 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return

		case now := <-ticker.C:
			w.checkStableFiles(now)
		}
	}
}

// checkStableFiles finds files that haven't changed for the debounce
// interval and emits them.
func (w *Watcher) checkStableFiles(now time.Time) {
	threshold := now.Add(-w.debounce)

	type stableFile struct {
		path    string
		lastMod time.Time
	}

	var stable []stableFile
	w.stateMu.RLock()
	for path, lastMod := range w.state {
		if lastMod.Before(threshold) {
			stable = append(stable, stableFile{path: path, lastMod: lastMod})
		}
	}
	w.stateMu.RUnlock()

	if len(stable) == 0 {
		return
	}

	w.stateMu.Lock()
	defer w.stateMu.Unlock()

	for _, sf := range stable {
		// Skip files touched again since the snapshot.
		if lastMod, ok := w.state[sf.path]; !ok || lastMod != sf.lastMod {
			continue
		}

		info, err := os.Stat(sf.path)
		if err != nil {
			// Deleted before stabilizing.
			delete(w.state, sf.path)
			continue
		}

		event := Event{
			Path:      sf.path,
			Size:      info.Size(),
			Timestamp: now,
		}

		select {
		case w.events <- event:
			// Emitted once; re-tracked only on the next write.
			delete(w.state, sf.path)
		default:
			// Event channel full, try again next tick.
		}
	}
}

// TrackedFiles returns the current number of tracked files.
func (w *Watcher) TrackedFiles() int {
	w.stateMu.RLock()
	defer w.stateMu.RUnlock()
	return len(w.state)
}
