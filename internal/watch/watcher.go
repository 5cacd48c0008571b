package watch

import (
	"context"
	"log"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors the data directory for CSV changes and requests a
// pipeline re-run. Requests are coalesced: a burst of file events while
// a run is pending collapses into one.
type Watcher struct {
	dir      string
	requests chan<- struct{}
}

func New(dir string, requests chan<- struct{}) *Watcher {
	return &Watcher{dir: dir, requests: requests}
}

func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case evt := <-watcher.Events:
				if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 && isCSV(evt.Name) {
					select {
					case w.requests <- struct{}{}:
					default:
					}
				}
			case err := <-watcher.Errors:
				log.Printf("watcher error: %v", err)
			}
		}
	}()
	return watcher.Add(w.dir)
}

func isCSV(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".csv"
}
