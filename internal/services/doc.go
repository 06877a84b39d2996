// Package services defines shared utilities consumed by the render workflow
// and the packages that wrap external tools.
//
// Key responsibilities:
//   - Context helpers that stamp render run IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     into consistent CLI exit codes.
//
// Use these helpers when wiring new workflow steps so operational behaviour
// (error classification, observability) stays uniform across the pipeline.
package services
