package log

import (
	"io"
	"os"
	"sync"
)

// ConsoleOutput writes formatted entries to stderr, or to W when set.
type ConsoleOutput struct {
	mu sync.Mutex
	W  io.Writer
}

// NewConsoleOutput returns an output bound to stderr.
func NewConsoleOutput() *ConsoleOutput { return &ConsoleOutput{W: os.Stderr} }

// Write implements Output.
func (o *ConsoleOutput) Write(_ *Entry, formatted []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	w := o.W
	if w == nil {
		w = os.Stderr
	}
	_, err := w.Write(formatted)
	return err
}

// Close implements Output.
func (o *ConsoleOutput) Close() error { return nil }

// NullOutput discards everything. Useful in tests.
type NullOutput struct{}

// NewNullOutput returns an output that drops entries.
func NewNullOutput() *NullOutput { return &NullOutput{} }

// Write implements Output.
func (NullOutput) Write(*Entry, []byte) error { return nil }

// Close implements Output.
func (NullOutput) Close() error { return nil }

// NewNopLogger returns a logger that formats nothing and writes nowhere.
func NewNopLogger() Logger {
	return NewLogger(WithLevel(ErrorLevel+1), WithOutput(NewNullOutput()))
}
