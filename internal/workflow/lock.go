package workflow

import (
	"errors"
	"fmt"
	"os"

	"github.com/gofrs/flock"
)

var errOutputBusy = errors.New("output is being rendered by another process")

// outputLock guards one output path against concurrent renders.
type outputLock struct {
	lock *flock.Flock
}

func lockOutput(outputPath string) (*outputLock, error) {
	lock := flock.New(outputPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", lock.Path(), err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", errOutputBusy, outputPath)
	}
	return &outputLock{lock: lock}, nil
}

func (l *outputLock) release() error {
	if l == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("unlock %s: %w", l.lock.Path(), err)
	}
	if err := os.Remove(l.lock.Path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", l.lock.Path(), err)
	}
	return nil
}
