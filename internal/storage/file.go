package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const fileSuffix = ".json"

// FileMedium stores each key as one file in a directory. Writes go through a
// temporary file and a rename so a reader never sees a half-written value.
type FileMedium struct {
	dir string
	mu  sync.RWMutex
}

// NewFileMedium creates the medium, creating dir if needed
func NewFileMedium(dir string) (*FileMedium, error) {
	if dir == "" {
		return nil, fmt.Errorf("file storage requires a directory")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileMedium{dir: dir}, nil
}

// Dir returns the directory backing the medium
func (f *FileMedium) Dir() string {
	return f.dir
}

func (f *FileMedium) path(key string) string {
	return filepath.Join(f.dir, url.PathEscape(key)+fileSuffix)
}

// keyForPath maps a file in the directory back to its key
func (f *FileMedium) keyForPath(path string) (string, bool) {
	if filepath.Dir(path) != filepath.Clean(f.dir) {
		return "", false
	}
	name := filepath.Base(path)
	if !strings.HasSuffix(name, fileSuffix) || strings.HasPrefix(name, ".") {
		return "", false
	}
	key, err := url.PathUnescape(strings.TrimSuffix(name, fileSuffix))
	if err != nil {
		return "", false
	}
	return key, true
}

func (f *FileMedium) GetItem(key string) (string, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return string(data), true, nil
}

func (f *FileMedium) SetItem(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := os.Rename(tmpName, f.path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", key, err)
	}
	return nil
}

func (f *FileMedium) RemoveItem(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := os.Remove(f.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

func (f *FileMedium) Close() error {
	return nil
}

// ChangeHandler is called with the key whose file changed on disk
type ChangeHandler func(key string)

// Watch reports changes made to the medium's files, including ones made by other
// processes, until ctx is cancelled. Bursts of events for one key are debounced.
func (f *FileMedium) Watch(ctx context.Context, debounce time.Duration, handler ChangeHandler) error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsWatcher.Add(f.dir); err != nil {
		fsWatcher.Close()
		return fmt.Errorf("failed to watch %s: %w", f.dir, err)
	}

	var (
		mu     sync.Mutex
		timers = make(map[string]*time.Timer)
	)
	schedule := func(key string) {
		mu.Lock()
		defer mu.Unlock()
		if timer, exists := timers[key]; exists {
			timer.Stop()
		}
		timers[key] = time.AfterFunc(debounce, func() {
			mu.Lock()
			delete(timers, key)
			mu.Unlock()
			handler(key)
		})
	}

	slog.Debug("storage watcher started", "dir", f.dir, "debounce_ms", debounce.Milliseconds())

	defer func() {
		mu.Lock()
		for _, timer := range timers {
			timer.Stop()
		}
		mu.Unlock()
		fsWatcher.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Debug("storage watcher stopped", "dir", f.dir)
			return nil

		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			key, ok := f.keyForPath(event.Name)
			if !ok {
				continue
			}
			slog.Debug("storage file event", "event", event.Op.String(), "key", key)
			schedule(key)

		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("storage watcher error", "error", err)
		}
	}
}
