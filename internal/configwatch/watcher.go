// Package configwatch watches the resolved psmux config file for edits and
// triggers an automatic reload, the ambient convenience spec.md's "config
// ingestion is delegated to the external CLI" leaves implicit: once psmux
// has source-file'd the config once at startup, a save in the operator's
// editor should take effect without a manual source-file rerun.
//
// Grounded on gastownhall-tmux-adapter's internal/conv.ConversationWatcher:
// the same fsnotify.NewWatcher-plus-directory-Add shape (conv/watcher.go's
// watchDirectories/watchDirectoryLoop watch a conversation directory and
// filter events down to ".jsonl" creations; this package watches one
// directory and filters down to one file's Write/Create/Rename), and the
// same single-purpose timer idiom conv/watcher.go's retryDiscovery uses for
// its own delayed retry, repurposed here as a debounce so a burst of saves
// in an editor triggers one reload rather than several.
package configwatch

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow coalesces the multiple fsnotify events a single editor save
// often produces (truncate, write, rename-into-place) into one reload.
const debounceWindow = 250 * time.Millisecond

// Watcher watches a single config file path and calls its reload callback
// after edits settle.
type Watcher struct {
	path   string
	reload func()
	fw     *fsnotify.Watcher
	done   chan struct{}
	closed chan struct{}
}

// New starts watching path's containing directory (fsnotify has no
// single-file watch; editors commonly replace a file via rename, which a
// watch on the file's own inode would miss) and calls reload whenever path
// itself is written, created, or renamed into place. reload runs on the
// watcher's own goroutine; callers that touch shared state should
// synchronize internally.
func New(path string, reload func()) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		path:   path,
		reload: reload,
		fw:     fw,
		done:   make(chan struct{}),
		closed: make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer close(w.closed)

	var timer *time.Timer
	var timerC <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounceWindow)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			w.reload()

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			slog.Warn("[configwatch] watch error", "path", w.path, "error", err)
		}
	}
}

// Close stops the watcher and releases its directory handle. It waits for
// the watch loop to exit, so a reload already running finishes first.
func (w *Watcher) Close() error {
	close(w.done)
	<-w.closed
	return w.fw.Close()
}
