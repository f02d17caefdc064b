package backend

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchDir watches a directory tree for changes to files with the given
// suffix, emitting debounced thread events. New subdirectories are
// added to the watch as they appear (some backends nest sessions by
// date).
func WatchDir(root, suffix string) (<-chan Event, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := addWatchTree(watcher, root); err != nil {
		watcher.Close()
		return nil, err
	}

	events := make(chan Event, 32)

	go func() {
		defer watcher.Close()
		defer close(events)

		var debounce *time.Timer
		const debounceDelay = 100 * time.Millisecond

		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&fsnotify.Create != 0 {
					if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
						_ = addWatchTree(watcher, ev.Name)
						continue
					}
				}
				if !strings.HasSuffix(ev.Name, suffix) {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				// ev is captured by value: the timer callback runs on
				// its own goroutine and must not share loop state.
				debounce = time.AfterFunc(debounceDelay, func() {
					if ev.Op&fsnotify.Remove != 0 {
						return
					}
					threadID := strings.TrimSuffix(filepath.Base(ev.Name), suffix)
					eventType := EventThreadUpdated
					if ev.Op&fsnotify.Create != 0 {
						eventType = EventThreadCreated
					}
					select {
					case events <- Event{Type: eventType, ThreadID: threadID}:
					default:
					}
				})
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return events, nil
}

func addWatchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
