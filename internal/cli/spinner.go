package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Progress runs fn while showing a spinner with the given message on w.
// In quiet mode fn runs without any progress output.
func Progress(w io.Writer, quiet bool, message string, fn func() error) error {
	if quiet {
		return fn()
	}

	opt := spinner.WithWriter(w)
	if f, ok := w.(*os.File); ok {
		// Lets the spinner stay silent when f is not a terminal.
		opt = spinner.WithWriterFile(f)
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, opt)
	s.Suffix = " " + message
	s.Start()

	err := fn()
	if err != nil {
		s.FinalMSG = fmt.Sprintf("%s\n", text.FgRed.Sprint("❌ "+message+" failed"))
	}
	s.Stop()
	return err
}
