// Package workflow runs one render end to end.
//
// Runner.Render loads and validates the song configuration, runs preflight,
// takes an exclusive lock on the output path, publishes the configuration as
// a temporary asset, launches the browser session and the encoder, and drives
// the frame loop. Every resource is released by a deferred close on every
// path: the encoder is finished, the browser closed, and the published assets
// removed, whether the run succeeds, fails, or is interrupted.
//
// Each run carries a run id in its context so every log line of the render
// can be correlated, and is recorded in the history ledger when one is
// configured.
package workflow
