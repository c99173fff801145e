package scanner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher rescans files as they change on disk. Events are debounced and
// batched; a batch only reports files whose content hash actually changed,
// so editor save storms do not produce duplicate reports.
type Watcher struct {
	watcher  *fsnotify.Watcher
	scanner  *Scanner
	root     string
	debounce time.Duration
	onResult func(*Result)

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	hashes map[string]uint64
}

// NewWatcher creates a watcher over root. onResult receives the result of
// each rescan batch.
func NewWatcher(s *Scanner, root string, debounce time.Duration, onResult func(*Result)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:  fsw,
		scanner:  s,
		root:     root,
		debounce: debounce,
		onResult: onResult,
		hashes:   make(map[string]uint64),
	}, nil
}

// Start seeds the hash state with an initial full scan, then begins
// watching. The initial result is delivered through onResult like any batch.
func (w *Watcher) Start(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)

	initial, err := w.scanner.ScanRoot(ctx, w.root)
	if err != nil {
		return err
	}
	w.recordHashes(initial.FileResults)
	w.onResult(initial)

	if err := w.addWatches(); err != nil {
		return err
	}

	w.wg.Add(1)
	go w.loop(ctx)
	return nil
}

// Stop ends watching and waits for the event loop to drain.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.watcher.Close()
	w.wg.Wait()
}

// addWatches registers every non-excluded directory under root. fsnotify
// watches are per-directory, not recursive.
func (w *Watcher) addWatches() error {
	exclude := w.scanner.cfg.Scan.Exclude
	return filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(w.root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if rel != "." && excludesDir(exclude, rel) {
			return fs.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// loop collects events into a debounced batch and rescans when quiet.
func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event, pending)
			if len(pending) > 0 {
				timer.Reset(w.debounce)
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for path := range pending {
				batch = append(batch, path)
			}
			sort.Strings(batch)
			clear(pending)
			w.rescan(ctx, batch)
		}
	}
}

// handleEvent filters one fsnotify event into the pending batch. New
// directories start being watched; removed files drop their hash state.
func (w *Watcher) handleEvent(event fsnotify.Event, pending map[string]struct{}) {
	if event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
		w.mu.Lock()
		delete(w.hashes, event.Name)
		w.mu.Unlock()
		return
	}
	if event.Op.Has(fsnotify.Create) {
		// A freshly created directory needs its own watch.
		if w.isWatchableDir(event.Name) {
			_ = w.watcher.Add(event.Name)
			return
		}
	}
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
		return
	}
	if w.matchesScan(event.Name) {
		pending[event.Name] = struct{}{}
	}
}

// rescan analyzes a batch and reports only files whose content changed.
func (w *Watcher) rescan(ctx context.Context, paths []string) {
	result, err := w.scanner.ScanFiles(ctx, paths)
	if err != nil {
		return
	}

	changed := &Result{}
	for _, fr := range result.FileResults {
		if fr.Err == nil && !w.hashChanged(fr.Path, fr.ContentHash) {
			continue
		}
		changed.FileResults = append(changed.FileResults, fr)
		if fr.Err != nil {
			changed.FilesFailed++
			continue
		}
		changed.FilesScanned++
		changed.Findings = append(changed.Findings, fr.Findings...)
	}
	if len(changed.FileResults) > 0 {
		w.onResult(changed)
	}
}

func (w *Watcher) recordHashes(results []FileResult) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, fr := range results {
		if fr.Err == nil {
			w.hashes[fr.Path] = fr.ContentHash
		}
	}
}

// hashChanged updates the stored hash and reports whether it differed.
func (w *Watcher) hashChanged(path string, hash uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if previous, ok := w.hashes[path]; ok && previous == hash {
		return false
	}
	w.hashes[path] = hash
	return true
}

// matchesScan applies the scan globs to an absolute event path.
func (w *Watcher) matchesScan(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	cfg := w.scanner.cfg.Scan
	return !matchesAny(cfg.Exclude, rel) && matchesAny(cfg.Include, rel)
}

func (w *Watcher) isWatchableDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir() && !w.excludedDir(path)
}

func (w *Watcher) excludedDir(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return true
	}
	return excludesDir(w.scanner.cfg.Scan.Exclude, filepath.ToSlash(rel))
}
