package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCancelled marks a job that ended because the user asked it to.
var ErrCancelled = errors.New("operation cancelled")

// SpawnError is returned when the executable cannot be started at all.
// No job events are ever produced for it.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("cannot start %s: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// RuntimeError carries the exit code and the verbatim output of a failed job.
type RuntimeError struct {
	Code   int
	Output []string
}

func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("command exited with code %d", e.Code)
	for i := len(e.Output) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(e.Output[i]); line != "" {
			return msg + ": " + line
		}
	}
	return msg
}

// ParseWarning describes one listing block that could not be structured.
// It never fails a refresh.
type ParseWarning struct {
	Category Category
	Block    int
	Text     string
	Reason   string
}

func (w ParseWarning) String() string {
	return fmt.Sprintf("%s block %d: %s (%q)", w.Category, w.Block, w.Reason, w.Text)
}
