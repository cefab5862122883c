package progress

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
)

// Display renders step progress to a writer, usually stderr, so that command
// output on stdout stays machine readable.
type Display struct {
	out          io.Writer
	capabilities TerminalCapabilities
	symbols      Symbols
	spinner      *spinner.Spinner
}

// NewDisplay creates a display writing to out.
func NewDisplay(out io.Writer, caps TerminalCapabilities) *Display {
	return &Display{
		out:          out,
		capabilities: caps,
		symbols:      SelectSymbols(caps),
	}
}

// StartStep begins a step. On a terminal a spinner runs until the step ends.
func (d *Display) StartStep(step StepInfo) error {
	if err := step.Validate(); err != nil {
		return err
	}
	d.Stop()

	msg := buildStepMessage(step)
	if !d.capabilities.IsTTY {
		_, err := fmt.Fprintln(d.out, msg)
		return err
	}
	opt := spinner.WithWriter(d.out)
	if f, ok := d.out.(*os.File); ok {
		opt = spinner.WithWriterFile(f)
	}
	d.spinner = spinner.New(spinner.CharSets[d.symbols.SpinnerSet], 100*time.Millisecond, opt)
	d.spinner.Suffix = " " + msg
	d.spinner.Start()
	return nil
}

// CompleteStep ends the current step successfully.
func (d *Display) CompleteStep(step StepInfo) error {
	d.Stop()
	mark := checkmark(d.symbols, d.capabilities.SupportsColor)
	_, err := fmt.Fprintf(d.out, "%s %s\n", mark, buildStepMessage(step))
	return err
}

// FailStep ends the current step with an error.
func (d *Display) FailStep(step StepInfo, cause error) error {
	d.Stop()
	mark := failureMark(d.symbols, d.capabilities.SupportsColor)
	_, err := fmt.Fprintf(d.out, "%s %s: %v\n", mark, buildStepMessage(step), cause)
	return err
}

// Run wraps fn in StartStep and CompleteStep or FailStep.
func (d *Display) Run(step StepInfo, fn func() error) error {
	if err := d.StartStep(step); err != nil {
		return err
	}
	if err := fn(); err != nil {
		_ = d.FailStep(step, err)
		return err
	}
	return d.CompleteStep(step)
}

// Stop halts a running spinner without printing a status line.
func (d *Display) Stop() {
	if d.spinner != nil {
		d.spinner.Stop()
		d.spinner = nil
	}
}
