package project

import (
	"context"
	"errors"
	"io"
	"iter"
	"os"

	"datapresso/internal/capability"
)

// EntryKind distinguishes files from directories.
type EntryKind int

const (
	KindFile EntryKind = iota
	KindDirectory
)

func (k EntryKind) String() string {
	if k == KindDirectory {
		return "directory"
	}
	return "file"
}

// Entry is an immediate child of a project directory.
type Entry struct {
	Name string
	Kind EntryKind
}

const readDirBatch = 64

// Entries returns the immediate children of dir as a lazy sequence.
//
// Each range over the sequence opens the directory again through the broker,
// so the sequence can be reused and always reflects the current contents.
// A failure is yielded once as the error value and ends the sequence.
func (m *Manager) Entries(ctx context.Context, dir *capability.Directory) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		stopped := false
		err := m.broker.Do(ctx, dir, capability.ModeRead, func(root *os.Root) error {
			f, err := root.Open(".")
			if err != nil {
				return err
			}
			defer f.Close()

			for {
				batch, err := f.ReadDir(readDirBatch)
				for _, d := range batch {
					entry := Entry{Name: d.Name(), Kind: KindFile}
					if d.IsDir() {
						entry.Kind = KindDirectory
					}
					if !yield(entry, nil) {
						stopped = true
						return nil
					}
				}
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return err
				}
				if err := ctx.Err(); err != nil {
					return err
				}
			}
		})
		if err != nil && !stopped {
			yield(Entry{}, translate("list "+dir.Name(), err))
		}
	}
}

// ActiveEntries is Entries for the active project.
func (m *Manager) ActiveEntries(ctx context.Context) iter.Seq2[Entry, error] {
	active, ok := m.Active()
	if !ok {
		return func(yield func(Entry, error) bool) {
			yield(Entry{}, ErrNoActiveProject)
		}
	}
	return m.Entries(ctx, active.Directory)
}
