package output

import (
	"bufio"
	"context"
	"errors"
	"io"
)

// StepPrompt is written before waiting for the user
const StepPrompt = "==>..\n"

// Stepper pauses between file blocks until a line is read from its input.
// Once the input is exhausted stepping turns itself off.
type Stepper struct {
	in      *bufio.Reader
	out     io.Writer
	enabled bool
}

// NewStepper creates an enabled stepper prompting on out and reading from in
func NewStepper(in io.Reader, out io.Writer) *Stepper {
	return &Stepper{
		in:      bufio.NewReader(in),
		out:     out,
		enabled: true,
	}
}

// Enabled reports whether Step still pauses
func (s *Stepper) Enabled() bool {
	return s != nil && s.enabled
}

// Step writes the prompt and blocks until a line is entered or ctx is done.
// After ctx is done the pending read still owns the input, so stepping is
// turned off.
func (s *Stepper) Step(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}

	if _, err := io.WriteString(s.out, StepPrompt); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.in.ReadString('\n')
		done <- err
	}()

	select {
	case <-ctx.Done():
		s.enabled = false
		return ctx.Err()
	case err := <-done:
		if errors.Is(err, io.EOF) {
			s.enabled = false
			return nil
		}
		return err
	}
}
