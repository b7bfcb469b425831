package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// File keeps every key in one JSON object file. The whole object is
// rewritten atomically on each change.
type File struct {
	path string

	mu   sync.RWMutex
	data map[string]string
}

// OpenFile loads path, creating its directory. A missing file is an empty store.
func OpenFile(path string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	f := &File{path: path}
	data, err := f.read()
	if err != nil {
		return nil, err
	}
	f.data = data
	return f, nil
}

func (f *File) Path() string { return f.path }

func (f *File) read() (map[string]string, error) {
	b, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read storage file: %w", err)
	}
	data := map[string]string{}
	if len(b) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("parse storage file %s: %w", f.path, err)
	}
	return data, nil
}

// caller holds f.mu
func (f *File) flush() error {
	return writeJSONAtomic(f.path, f.data)
}

func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *File) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return f.flush()
}

func (f *File) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; !ok {
		return nil
	}
	delete(f.data, key)
	return f.flush()
}

func (f *File) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = map[string]string{}
	return f.flush()
}

func (f *File) Close() error { return nil }

// Reload re-reads the file and returns the keys whose values changed.
func (f *File) Reload() ([]string, error) {
	next, err := f.read()
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	var changed []string
	for k, v := range next {
		if old, ok := f.data[k]; !ok || old != v {
			changed = append(changed, k)
		}
	}
	for k := range f.data {
		if _, ok := next[k]; !ok {
			changed = append(changed, k)
		}
	}
	f.data = next
	return changed, nil
}

// Watch reloads the cache whenever another process rewrites the file and
// sends each changed key on the returned channel. The channel is closed
// when ctx is done.
func (f *File) Watch(ctx context.Context) (<-chan string, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	// Atomic renames replace the inode, so watch the directory.
	if err := w.Add(filepath.Dir(f.path)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(f.path), err)
	}

	out := make(chan string, 16)
	name := filepath.Clean(f.path)
	go func() {
		defer close(out)
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != name {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
					continue
				}
				changed, err := f.Reload()
				if err != nil {
					continue
				}
				for _, k := range changed {
					select {
					case out <- k:
					case <-ctx.Done():
						return
					}
				}
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return out, nil
}

func writeJSONAtomic(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, b, 0o600)
}

// WriteFileAtomic writes b to a temp file in path's directory and renames it
// over path, so readers see either the old or the new content.
func WriteFileAtomic(path string, b []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	err = os.Rename(tmp.Name(), path)
	if err != nil && runtime.GOOS == "windows" {
		// Rename does not replace an open target on windows.
		_ = os.Remove(path)
		err = os.Rename(tmp.Name(), path)
	}
	return err
}
