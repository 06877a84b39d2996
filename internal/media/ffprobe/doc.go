// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video stream properties
//   - Format: container-level metadata (duration, size, bitrate, tags)
//
// Inspect runs ffprobe; Parse decodes output captured elsewhere. Helper
// methods on Result read song metadata tags from audio files and verify the
// geometry and duration of rendered videos.
package ffprobe
