package history

import (
	"errors"
	"time"
)

// Status is the lifecycle state of a recorded render.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

// ErrNotFound reports an unknown run.
var ErrNotFound = errors.New("render run not found")

// Run is one render attempt.
type Run struct {
	ID            int64
	RunID         string
	ConfigPath    string
	OutputPath    string
	Mode          string
	Title         string
	Width         int
	Height        int
	FrameRate     float64
	TotalFrames   int
	FramesWritten int
	EncoderExit   *int
	EarlyStop     bool
	Status        Status
	ErrorMessage  string
	StartedAt     time.Time
	FinishedAt    *time.Time
}

// Outcome is written when a run ends.
type Outcome struct {
	Status        Status
	FramesWritten int
	EncoderExit   *int
	EarlyStop     bool
	Err           error
}

// Elapsed returns the run duration, or zero while it is still running.
func (r Run) Elapsed() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
