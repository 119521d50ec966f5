package prismlog

import (
	"io"
	"os"

	"golang.org/x/term"
)

// consoleSink mirrors formatted lines to stdout or stderr. It is
// independent of file rotation state and never fails the delivery path:
// write errors are reported to the caller but carry no retry semantics.
type consoleSink struct {
	w       io.Writer
	colored bool
}

// newConsoleSink builds the console sink for the configured target stream.
// Color is applied only when requested and the stream is an interactive
// terminal.
func newConsoleSink(cfg *Config) *consoleSink {
	var w *os.File
	if cfg.ConsoleTarget == "stderr" {
		w = os.Stderr
	} else {
		w = os.Stdout
	}
	return &consoleSink{
		w:       w,
		colored: cfg.ColoredConsole && term.IsTerminal(int(w.Fd())),
	}
}

func (c *consoleSink) Write(line []byte) error {
	_, err := c.w.Write(line)
	return err
}

// Flush is a no-op; the console streams are unbuffered at this layer.
func (c *consoleSink) Flush() error {
	return nil
}

func (c *consoleSink) Close() error {
	return nil
}
