package capability

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"datapresso/pkg/logging"
)

var (
	// ErrAccessDenied is returned when access to a directory was refused by the user or the OS.
	ErrAccessDenied = errors.New("access denied")
	// ErrUserCancelled is returned when the user dismissed a directory picker.
	ErrUserCancelled = errors.New("selection cancelled")
	// ErrQueryUnsupported is returned by Check on platforms that cannot query permissions.
	ErrQueryUnsupported = errors.New("permission query not supported on this platform")
)

// State is the result of a permission check.
type State int

const (
	// StateUnknown means access is possible but has not been granted yet; a Request would prompt.
	StateUnknown State = iota
	StateGranted
	StateDenied
)

func (s State) String() string {
	switch s {
	case StateGranted:
		return "granted"
	case StateDenied:
		return "denied"
	default:
		return "prompt"
	}
}

// Mode is the kind of access asked for.
type Mode int

const (
	ModeRead Mode = iota
	ModeReadWrite
)

func (m Mode) String() string {
	if m == ModeReadWrite {
		return "read/write"
	}
	return "read"
}

// covers reports whether a grant of m satisfies a request for want.
func (m Mode) covers(want Mode) bool {
	return m >= want
}

// Broker decides whether the process may use a directory.
//
// It combines what the OS allows with a per-process grant table filled by
// user selection or by an explicit confirmation through the Prompter.
type Broker struct {
	mu       sync.Mutex
	grants   map[string]Mode
	prompter Prompter
}

// NewBroker creates a Broker that asks prompter before granting access to
// restored references.
func NewBroker(prompter Prompter) *Broker {
	if prompter == nil {
		prompter = StaticPrompter(false)
	}
	return &Broker{
		grants:   make(map[string]Mode),
		prompter: prompter,
	}
}

// Select turns a user-chosen path into a reference and grants read/write
// access to it for the lifetime of the process.
func (b *Broker) Select(path string) (*Directory, error) {
	dir, err := newDirectory(path)
	if err != nil {
		return nil, err
	}
	b.grant(dir, ModeReadWrite)
	logging.Debug("Broker", "Selected %s", dir.path)
	return dir, nil
}

// Check reports the access state of dir without prompting.
func (b *Broker) Check(ctx context.Context, dir *Directory, mode Mode) (State, error) {
	if dir == nil {
		return StateDenied, fmt.Errorf("%w: no directory", ErrInvalidReference)
	}
	if err := probe(dir, mode); err != nil {
		if errors.Is(err, ErrQueryUnsupported) {
			return StateUnknown, ErrQueryUnsupported
		}
		logging.Debug("Broker", "OS refuses %s access to %s: %v", mode, dir.path, err)
		return StateDenied, nil
	}
	if b.granted(dir, mode) {
		return StateGranted, nil
	}
	return StateUnknown, nil
}

// Request obtains access to dir, prompting the user at most once.
// An existing grant is returned as-is, and a directory the OS refuses is
// denied without asking.
func (b *Broker) Request(ctx context.Context, dir *Directory, mode Mode) (State, error) {
	state, err := b.Check(ctx, dir, mode)
	if err != nil && !errors.Is(err, ErrQueryUnsupported) {
		return StateDenied, err
	}
	if state != StateUnknown {
		return state, nil
	}

	ok, err := b.prompter.Confirm(ctx, dir, mode)
	if err != nil {
		return StateDenied, fmt.Errorf("failed to ask for %s access to %s: %w", mode, dir.name, err)
	}
	if !ok {
		logging.Info("Broker", "User declined %s access to %s", mode, dir.path)
		return StateDenied, nil
	}
	b.grant(dir, mode)
	return StateGranted, nil
}

// Revoke drops any grant held for dir.
func (b *Broker) Revoke(dir *Directory) {
	if dir == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.grants, dir.path)
}

// Do runs fn with an os.Root confined to dir once access in the given mode is
// established. Without access it returns ErrAccessDenied and performs no I/O.
// The root is closed before Do returns.
//
// When the platform cannot query permissions, fn is attempted directly and
// permission failures are reported as ErrAccessDenied.
func (b *Broker) Do(ctx context.Context, dir *Directory, mode Mode, fn func(root *os.Root) error) error {
	state, err := b.Check(ctx, dir, mode)
	switch {
	case errors.Is(err, ErrQueryUnsupported):
		logging.Debug("Broker", "Permission query unsupported, attempting %s access to %s directly", mode, dir.path)
		return run(dir, fn)
	case err != nil:
		return err
	}

	if state == StateUnknown {
		if state, err = b.Request(ctx, dir, mode); err != nil {
			return err
		}
	}
	if state != StateGranted {
		return fmt.Errorf("%s access to %s: %w", mode, dir.name, ErrAccessDenied)
	}
	return run(dir, fn)
}

func run(dir *Directory, fn func(root *os.Root) error) error {
	root, err := os.OpenRoot(dir.path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) || errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %w", ErrAccessDenied, err)
		}
		return fmt.Errorf("failed to open %s: %w", dir.path, err)
	}
	defer root.Close()

	if err := fn(root); err != nil {
		if errors.Is(err, fs.ErrPermission) && !errors.Is(err, ErrAccessDenied) {
			return fmt.Errorf("%w: %w", ErrAccessDenied, err)
		}
		return err
	}
	return nil
}

func (b *Broker) grant(dir *Directory, mode Mode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if current, ok := b.grants[dir.path]; ok && current.covers(mode) {
		return
	}
	b.grants[dir.path] = mode
}

func (b *Broker) granted(dir *Directory, mode Mode) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	current, ok := b.grants[dir.path]
	return ok && current.covers(mode)
}
