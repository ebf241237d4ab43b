package orchestrator

import (
	"errors"
	"fmt"
)

// Stage identifies the pipeline stage a turn failed in. The distinction
// is internal: callers see a single opaque turn failure and should not
// branch on the stage at the public boundary.
type Stage string

const (
	StageTranscription Stage = "transcription"
	StageGeneration    Stage = "generation"
	StageSynthesis     Stage = "synthesis"
)

// ErrUnavailable is returned when one or more provider clients failed to
// initialize at startup and turns cannot be attempted at all.
var ErrUnavailable = errors.New("assistant services unavailable")

// TurnError wraps a stage failure. It unwraps to the underlying provider
// error for log attribution.
type TurnError struct {
	Stage Stage
	Err   error
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("turn failed at %s: %v", e.Stage, e.Err)
}

func (e *TurnError) Unwrap() error {
	return e.Err
}
