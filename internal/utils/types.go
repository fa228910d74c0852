package utils

import (
	"fmt"
	"strings"
)

// Mode selects how a single item is transferred.
type Mode string

const (
	ModeRange  Mode = "range"
	ModeStream Mode = "stream"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeRange, "concurrent", "":
		return ModeRange, nil
	case ModeStream, "sequential":
		return ModeStream, nil
	}
	return "", fmt.Errorf("%w: unknown mode %q (want %q or %q)", ErrInvalidConfig, s, ModeRange, ModeStream)
}

// ProgressObserver receives per-item progress. Implementations must be safe
// for concurrent use since range fetches report from several goroutines.
type ProgressObserver interface {
	Start(id, label string, total int64)
	Add(id string, n int64)
	Finish(id string, err error)
}

type NopObserver struct{}

func (NopObserver) Start(string, string, int64) {}
func (NopObserver) Add(string, int64)           {}
func (NopObserver) Finish(string, error)        {}

// Outcome is the result of one item download.
type Outcome struct {
	ID    string
	URI   string // list fragment, empty for single-URL downloads
	URL   string
	Path  string
	Name  string
	Bytes int64
	Err   error
}

func (o *Outcome) Succeeded() bool {
	return o != nil && o.Err == nil
}
