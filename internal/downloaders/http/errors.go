package danzohttp

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidURL       = errors.New("invalid URL")
	ErrNotFound         = errors.New("resource not found (404)")
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrMissingLength    = errors.New("server didn't provide a usable Content-Length header")
	ErrNoName           = errors.New("no file name in Content-Disposition or URL path")
	ErrRangeNotHonored  = errors.New("server ignored the range request")
	ErrMissingChunk     = errors.New("missing chunk")
	ErrSizeMismatch     = errors.New("size mismatch")
)

// Stage names the step of a single download that failed.
type Stage string

const (
	StageResolve  Stage = "resolve"
	StagePlan     Stage = "plan"
	StageFetch    Stage = "fetch"
	StageAssemble Stage = "assemble"
)

// StageError tags a failure with the stage it happened in. Callers that only
// care whether an item made it use errors.Is on the wrapped cause.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}

func checkStatusCode(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, code)
	}
}
