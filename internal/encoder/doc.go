// Package encoder streams rendered frames into a long-running ffmpeg process.
//
// Start launches ffmpeg reading fixed-size frames from its stdin and writing
// the finished video. Submit writes one frame; a blocking pipe write is the
// only backpressure. When ffmpeg stops reading, Submit reports
// ErrChannelClosed, which callers treat as an early stop rather than a
// failure. Finish closes stdin and waits for ffmpeg to finalize the container,
// interrupting and then killing it if the deadline passes.
package encoder
