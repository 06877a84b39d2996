package history

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

const runColumns = "id, run_id, config_path, output_path, mode, title, width, height, frame_rate, total_frames, frames_written, encoder_exit_code, early_stop, status, error_message, started_at, finished_at"

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run         Run
		title       sql.NullString
		exitCode    sql.NullInt64
		earlyStop   sql.NullInt64
		status      string
		errMessage  sql.NullString
		startedRaw  string
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&run.RunID,
		&run.ConfigPath,
		&run.OutputPath,
		&run.Mode,
		&title,
		&run.Width,
		&run.Height,
		&run.FrameRate,
		&run.TotalFrames,
		&run.FramesWritten,
		&exitCode,
		&earlyStop,
		&status,
		&errMessage,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}
	run.Title = title.String
	run.Status = Status(status)
	run.ErrorMessage = errMessage.String
	run.EarlyStop = earlyStop.Valid && earlyStop.Int64 != 0
	if exitCode.Valid {
		code := int(exitCode.Int64)
		run.EncoderExit = &code
	}
	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	return &run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
