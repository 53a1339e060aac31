package project

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"datapresso/internal/capability"
	"datapresso/internal/codec"
	"datapresso/pkg/logging"
)

// DefaultWatchDebounce is how long Watch waits for further changes before reloading.
const DefaultWatchDebounce = 300 * time.Millisecond

// Watch reloads the config file of the active project when another program
// changes it. Writes made by this Manager are recognised and ignored.
//
// Watch blocks until ctx is cancelled. It returns ErrNoActiveProject if no
// project is open, and ErrAccessDenied if the directory is not readable.
func (m *Manager) Watch(ctx context.Context, debounce time.Duration) error {
	active, ok := m.Active()
	if !ok {
		return ErrNoActiveProject
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}

	state, err := m.broker.Check(ctx, active.Directory, capability.ModeRead)
	if err != nil && !errors.Is(err, capability.ErrQueryUnsupported) {
		return translate("watch", err)
	}
	if err == nil && state != capability.StateGranted {
		return fmt.Errorf("watch %s: %w", active.Name, ErrAccessDenied)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(active.Directory.Path()); err != nil {
		return translate("watch "+active.Name, err)
	}
	logging.Info("Project", "Watching %s for changes to %s", active.Directory.Path(), m.fileName)

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != m.fileName {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				m.reloadExternal(ctx, active.Directory)
			})
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Error("Project", err, "File watcher error")
		}
	}
}

// reloadExternal reloads the config file if it differs from what this
// Manager last read or wrote. It never prompts: without a standing grant the
// change is skipped. A file that does not parse leaves the tree as it is.
func (m *Manager) reloadExternal(ctx context.Context, dir *capability.Directory) {
	if err := m.acquire(ctx); err != nil {
		return
	}
	defer m.release()

	active, ok := m.Active()
	if !ok || active.Directory != dir {
		return
	}

	state, err := m.broker.Check(ctx, dir, capability.ModeRead)
	switch {
	case errors.Is(err, capability.ErrQueryUnsupported):
	case err != nil:
		logging.Warn("Project", "Cannot check access to %s: %v", dir.Name(), err)
		return
	case state != capability.StateGranted:
		logging.Debug("Project", "Ignoring change to %s, no access grant for %s", m.fileName, dir.Name())
		return
	}

	var data []byte
	err = m.broker.Do(ctx, dir, capability.ModeRead, func(root *os.Root) error {
		var err error
		data, err = root.ReadFile(m.fileName)
		return err
	})
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logging.Warn("Project", "Failed to read changed %s: %v", m.fileName, err)
		}
		return
	}

	m.mu.RLock()
	unchanged := bytes.Equal(data, m.lastSync)
	m.mu.RUnlock()
	if unchanged {
		return
	}

	cfg, err := codec.Decode(data)
	if err != nil {
		var fe *codec.FormatError
		if errors.As(err, &fe) {
			fe.Source = filepath.Join(dir.Path(), m.fileName)
		}
		m.notify(LevelWarning, KindFormatError, err, "%s was changed but is not a valid workflow configuration, keeping the current one", m.fileName)
		return
	}

	m.store.Replace(cfg)
	m.mu.Lock()
	m.lastSync = data
	m.mu.Unlock()
	m.notify(LevelInfo, KindReloaded, nil, "Reloaded %s after an external change", m.fileName)
}
