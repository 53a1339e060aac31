package project

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"datapresso/internal/capability"
	"datapresso/internal/codec"
	"datapresso/internal/recent"
	"datapresso/internal/workflow"
	"datapresso/pkg/logging"
)

// DefaultFileName is the config file looked up inside a project directory.
const DefaultFileName = "config.yaml"

// State is the lifecycle state of the Manager.
type State int

const (
	StateClosed State = iota
	StateOpening
	StateOpen
	StateSaving
)

func (s State) String() string {
	switch s {
	case StateOpening:
		return "Opening"
	case StateOpen:
		return "Open"
	case StateSaving:
		return "Saving"
	default:
		return "Closed"
	}
}

// ActiveProject is the project currently bound to a directory.
type ActiveProject struct {
	Name      string
	Directory *capability.Directory
}

// LoadResult describes how a project was opened.
type LoadResult struct {
	// Name is the display name chosen for the project.
	Name string
	// Fresh is set when the directory had no config file; the tree was left as it was.
	Fresh bool
	// FormatErr is set when the config file could not be parsed; the tree was reset to defaults.
	FormatErr *codec.FormatError
	// Entries lists the immediate children of the directory.
	Entries []Entry
}

// Options configures a Manager.
type Options struct {
	Broker   *capability.Broker
	Registry *recent.Registry
	Store    *workflow.Store
	// Picker is used by SelectDirectory.
	Picker   capability.Picker
	Notifier Notifier
	// FileName overrides DefaultFileName.
	FileName string
	// Now overrides time.Now for notification timestamps.
	Now func() time.Time
}

// Manager owns the active project and moves it through its lifecycle.
//
// Every operation that touches the active project or the config file holds a
// weight-1 semaphore, so a second call waits until the first has finished.
type Manager struct {
	sem *semaphore.Weighted

	mu       sync.RWMutex
	state    State
	active   *ActiveProject
	lastSync []byte

	broker   *capability.Broker
	registry *recent.Registry
	store    *workflow.Store
	picker   capability.Picker
	notifier Notifier
	fileName string
	now      func() time.Time
}

// NewManager creates a Manager in the Closed state.
func NewManager(opts Options) *Manager {
	m := &Manager{
		sem:      semaphore.NewWeighted(1),
		state:    StateClosed,
		broker:   opts.Broker,
		registry: opts.Registry,
		store:    opts.Store,
		picker:   opts.Picker,
		notifier: opts.Notifier,
		fileName: opts.FileName,
		now:      opts.Now,
	}
	if m.broker == nil {
		m.broker = capability.NewBroker(nil)
	}
	if m.store == nil {
		m.store = workflow.NewStore()
	}
	if m.notifier == nil {
		m.notifier = discardNotifier{}
	}
	if m.fileName == "" {
		m.fileName = DefaultFileName
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Store returns the configuration store the Manager loads into.
func (m *Manager) Store() *workflow.Store {
	return m.store
}

// Broker returns the permission broker used for all directory access.
func (m *Manager) Broker() *capability.Broker {
	return m.broker
}

// FileName returns the name of the config file inside a project directory.
func (m *Manager) FileName() string {
	return m.fileName
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Active returns a copy of the active project, if any.
func (m *Manager) Active() (ActiveProject, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active == nil {
		return ActiveProject{}, false
	}
	return *m.active, true
}

// SetProjectName renames the active project for display. The name is recorded
// in the registry the next time the project is opened.
func (m *Manager) SetProjectName(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return ErrNoActiveProject
	}
	m.active.Name = name
	return nil
}

// SelectDirectory asks the configured Picker for a directory and opens it.
// A dismissed picker returns (nil, nil) and leaves everything unchanged.
func (m *Manager) SelectDirectory(ctx context.Context, preferredName string) (*capability.Directory, error) {
	if m.picker == nil {
		return nil, fmt.Errorf("no directory picker configured")
	}
	return m.SelectDirectoryWith(ctx, m.picker, preferredName)
}

// SelectDirectoryWith is SelectDirectory with an explicit Picker.
func (m *Manager) SelectDirectoryWith(ctx context.Context, picker capability.Picker, preferredName string) (*capability.Directory, error) {
	if err := m.acquire(ctx); err != nil {
		return nil, err
	}
	defer m.release()

	dir, err := picker.Pick(ctx, preferredName)
	if errors.Is(err, ErrUserCancelled) {
		logging.Debug("Project", "Directory selection cancelled")
		return nil, nil
	}
	if err != nil {
		return nil, translate("select directory", err)
	}

	if _, err := m.openLocked(ctx, dir, preferredName); err != nil {
		return nil, err
	}
	return dir, nil
}

// LoadConfig binds the Manager to dir and reads its config file.
//
// A missing file opens a fresh project and leaves the tree untouched. A file
// that cannot be parsed still opens the project, with the default tree and one
// warning notification; the parse error is reported in LoadResult.FormatErr.
// Any other failure restores the previous project and state.
func (m *Manager) LoadConfig(ctx context.Context, dir *capability.Directory, preferredName string) (LoadResult, error) {
	if err := m.acquire(ctx); err != nil {
		return LoadResult{}, err
	}
	defer m.release()
	return m.openLocked(ctx, dir, preferredName)
}

// OpenRecent reopens a project from the registry. If access is refused, the
// registry and the active project are left as they were.
func (m *Manager) OpenRecent(ctx context.Context, rec recent.Record) (LoadResult, error) {
	if err := m.acquire(ctx); err != nil {
		return LoadResult{}, err
	}
	defer m.release()

	state, err := m.broker.Check(ctx, rec.Directory, capability.ModeReadWrite)
	switch {
	case errors.Is(err, capability.ErrQueryUnsupported):
		logging.Warn("Project", "Cannot query permission for %s, trying to open it anyway", rec.Name)
		state = capability.StateGranted
	case err != nil:
		return LoadResult{}, translate("open recent project", err)
	}

	if state == capability.StateUnknown {
		if state, err = m.broker.Request(ctx, rec.Directory, capability.ModeReadWrite); err != nil {
			return LoadResult{}, translate("open recent project", err)
		}
	}
	if state != capability.StateGranted {
		return LoadResult{}, fmt.Errorf("open recent project %q: %w", rec.Name, ErrAccessDenied)
	}

	return m.openLocked(ctx, rec.Directory, rec.Name)
}

// Close forgets the active project. The tree and the registry are kept.
func (m *Manager) Close() {
	_ = m.sem.Acquire(context.Background(), 1)
	defer m.release()

	m.mu.Lock()
	wasOpen := m.active != nil
	m.active = nil
	m.state = StateClosed
	m.lastSync = nil
	m.mu.Unlock()

	if wasOpen {
		m.notify(LevelInfo, KindClosed, nil, "Project closed")
	}
}

// SaveConfig writes the current tree to the active project's config file.
// The file is replaced in full; concurrent saves are applied one after the other.
func (m *Manager) SaveConfig(ctx context.Context) error {
	if err := m.acquire(ctx); err != nil {
		return err
	}
	defer m.release()

	active, ok := m.Active()
	if !ok {
		return ErrNoActiveProject
	}

	m.setState(StateSaving)
	defer m.setState(StateOpen)

	data, err := codec.Encode(m.store.Get())
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	err = m.broker.Do(ctx, active.Directory, capability.ModeReadWrite, func(root *os.Root) error {
		return writeFile(root, m.fileName, data)
	})
	if err != nil {
		return translate("save "+m.fileName, err)
	}

	m.mu.Lock()
	m.lastSync = data
	m.mu.Unlock()

	m.notify(LevelInfo, KindSaved, nil, "Saved %s to %s", m.fileName, active.Directory.Name())
	return nil
}

// Export writes the encoded tree to w. It does not need an open project.
func (m *Manager) Export(w io.Writer) error {
	data, err := codec.Encode(m.store.Get())
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// Import replaces the tree with the configuration in text.
// The active project, if any, is not written to; call SaveConfig for that.
func (m *Manager) Import(ctx context.Context, text []byte) error {
	if err := m.acquire(ctx); err != nil {
		return err
	}
	defer m.release()

	cfg, err := codec.Decode(text)
	if err != nil {
		return err
	}
	m.store.Replace(cfg)
	logging.Info("Project", "Imported configuration %q", cfg.WorkflowName)
	return nil
}

// CreateDirectory creates a subdirectory in the active project. An existing
// directory with that name is not an error.
func (m *Manager) CreateDirectory(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := m.acquire(ctx); err != nil {
		return err
	}
	defer m.release()

	active, ok := m.Active()
	if !ok {
		return ErrNoActiveProject
	}

	err := m.broker.Do(ctx, active.Directory, capability.ModeReadWrite, func(root *os.Root) error {
		if err := root.Mkdir(name, 0o755); err != nil {
			if errors.Is(err, fs.ErrExist) {
				if info, serr := root.Stat(name); serr == nil && info.IsDir() {
					return nil
				}
			}
			return err
		}
		return nil
	})
	if err != nil {
		return translate("create directory "+name, err)
	}

	m.notify(LevelInfo, KindCreated, nil, "Created directory %s in %s", name, active.Name)
	return nil
}

// CreateFile creates or replaces a file in the active project.
func (m *Manager) CreateFile(ctx context.Context, name string, content []byte) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := m.acquire(ctx); err != nil {
		return err
	}
	defer m.release()

	active, ok := m.Active()
	if !ok {
		return ErrNoActiveProject
	}

	err := m.broker.Do(ctx, active.Directory, capability.ModeReadWrite, func(root *os.Root) error {
		return writeFile(root, name, content)
	})
	if err != nil {
		return translate("create file "+name, err)
	}

	if name == m.fileName {
		m.mu.Lock()
		m.lastSync = bytes.Clone(content)
		m.mu.Unlock()
	}
	m.notify(LevelInfo, KindCreated, nil, "Wrote file %s in %s", name, active.Name)
	return nil
}

// openLocked runs the Opening transition. The caller holds the semaphore.
func (m *Manager) openLocked(ctx context.Context, dir *capability.Directory, preferredName string) (LoadResult, error) {
	if dir == nil {
		return LoadResult{}, fmt.Errorf("open project: %w", capability.ErrInvalidReference)
	}

	m.mu.Lock()
	prevState, prevActive, prevSync := m.state, m.active, m.lastSync
	m.state = StateOpening
	m.mu.Unlock()

	res, data, err := m.readConfig(ctx, dir, preferredName)
	if err != nil {
		m.mu.Lock()
		m.state, m.active, m.lastSync = prevState, prevActive, prevSync
		m.mu.Unlock()
		return LoadResult{}, err
	}

	res.Entries = m.collectEntries(ctx, dir)

	m.mu.Lock()
	m.active = &ActiveProject{Name: res.Name, Directory: dir}
	m.state = StateOpen
	m.lastSync = data
	m.mu.Unlock()

	if m.registry != nil {
		if _, err := m.registry.Upsert(res.Name, dir); err != nil {
			m.notify(LevelWarning, KindStorageFailure, err, "Could not update recent projects: %v", err)
		}
	}

	if !res.Fresh && res.FormatErr == nil {
		m.notify(LevelInfo, KindOpened, nil, "Opened project %s", res.Name)
	}
	return res, nil
}

// readConfig reads and decodes the config file of dir and updates the store.
// It returns the raw file content, nil for a fresh project.
func (m *Manager) readConfig(ctx context.Context, dir *capability.Directory, preferredName string) (LoadResult, []byte, error) {
	var data []byte
	err := m.broker.Do(ctx, dir, capability.ModeRead, func(root *os.Root) error {
		var err error
		data, err = root.ReadFile(m.fileName)
		return err
	})

	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist) && !errors.Is(err, ErrAccessDenied):
		res := LoadResult{Name: firstNonEmpty(preferredName, dir.Name()), Fresh: true}
		m.notify(LevelInfo, KindNewProject, nil, "No %s in %s, starting a new project", m.fileName, dir.Name())
		return res, nil, nil
	default:
		return LoadResult{}, nil, translate("load "+m.fileName, err)
	}

	cfg, err := codec.Decode(data)
	if err != nil {
		var fe *codec.FormatError
		if !errors.As(err, &fe) {
			return LoadResult{}, nil, translate("load "+m.fileName, err)
		}
		fe.Source = filepath.Join(dir.Path(), m.fileName)
		m.store.Reset()
		res := LoadResult{Name: firstNonEmpty(preferredName, dir.Name()), FormatErr: fe}
		m.notify(LevelWarning, KindFormatError, fe, "%s is not a valid workflow configuration, using defaults", m.fileName)
		return res, data, nil
	}

	m.store.Replace(cfg)
	return LoadResult{Name: firstNonEmpty(preferredName, cfg.WorkflowName, dir.Name())}, data, nil
}

func (m *Manager) collectEntries(ctx context.Context, dir *capability.Directory) []Entry {
	var entries []Entry
	for entry, err := range m.Entries(ctx, dir) {
		if err != nil {
			logging.Warn("Project", "Failed to list %s: %v", dir.Name(), err)
			break
		}
		entries = append(entries, entry)
	}
	return entries
}

func (m *Manager) acquire(ctx context.Context) error {
	if err := m.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("waiting for project operation: %w", err)
	}
	return nil
}

func (m *Manager) release() {
	m.sem.Release(1)
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

// writeFile opens name for writing inside root, replaces its content and
// closes it on every path. A failed close is reported.
func writeFile(root *os.Root, name string, data []byte) (err error) {
	f, err := root.OpenFile(name, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	_, err = f.Write(data)
	return err
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
