package capability

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Prompter asks the user to confirm access to a restored directory.
type Prompter interface {
	Confirm(ctx context.Context, dir *Directory, mode Mode) (bool, error)
}

// PrompterFunc adapts a function to the Prompter interface.
type PrompterFunc func(ctx context.Context, dir *Directory, mode Mode) (bool, error)

func (f PrompterFunc) Confirm(ctx context.Context, dir *Directory, mode Mode) (bool, error) {
	return f(ctx, dir, mode)
}

// StaticPrompter answers every confirmation with the same value.
// StaticPrompter(true) backs --yes; StaticPrompter(false) is for
// non-interactive use.
type StaticPrompter bool

func (p StaticPrompter) Confirm(context.Context, *Directory, Mode) (bool, error) {
	return bool(p), nil
}

// lineReader shares one buffered reader per input so that consecutive
// prompts on the same stream do not lose buffered bytes.
type lineReader struct {
	once sync.Once
	in   io.Reader
	r    *bufio.Reader
}

func (l *lineReader) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	l.once.Do(func() {
		if l.in == nil {
			l.in = os.Stdin
		}
		l.r = bufio.NewReader(l.in)
	})
	line, err := l.r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// TerminalPrompter asks a [y/N] question on Out and reads the answer from In.
// Anything other than y or yes, including end of input, is a refusal.
type TerminalPrompter struct {
	Out   io.Writer
	lines lineReader
}

// NewTerminalPrompter creates a TerminalPrompter over the given streams.
func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{Out: out, lines: lineReader{in: in}}
}

func (p *TerminalPrompter) Confirm(ctx context.Context, dir *Directory, mode Mode) (bool, error) {
	fmt.Fprintf(p.Out, "Allow %s access to %q (%s)? [y/N] ", mode, dir.Name(), dir.Path())

	response, err := p.lines.readLine(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	response = strings.ToLower(response)
	return response == "y" || response == "yes", nil
}

// Picker lets the user choose a directory.
// Implementations return ErrUserCancelled when the user backs out.
type Picker interface {
	Pick(ctx context.Context, preferredName string) (*Directory, error)
}

// PathPicker picks a path that was already chosen, for example on the command line.
type PathPicker struct {
	Broker *Broker
	Path   string
}

func (p PathPicker) Pick(ctx context.Context, _ string) (*Directory, error) {
	if p.Path == "" {
		return nil, ErrUserCancelled
	}
	return p.Broker.Select(expandHome(p.Path))
}

// PromptPicker reads a directory path from a terminal.
// An empty line or end of input cancels.
type PromptPicker struct {
	Broker *Broker
	Out    io.Writer
	lines  lineReader
}

// NewPromptPicker creates a PromptPicker over the given streams.
func NewPromptPicker(b *Broker, in io.Reader, out io.Writer) *PromptPicker {
	return &PromptPicker{Broker: b, Out: out, lines: lineReader{in: in}}
}

func (p *PromptPicker) Pick(ctx context.Context, preferredName string) (*Directory, error) {
	if preferredName != "" {
		fmt.Fprintf(p.Out, "Project directory for %q: ", preferredName)
	} else {
		fmt.Fprint(p.Out, "Project directory: ")
	}

	path, err := p.lines.readLine(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrUserCancelled
		}
		return nil, err
	}
	if path == "" {
		return nil, ErrUserCancelled
	}
	return p.Broker.Select(expandHome(path))
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
