// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Kind: the capability probe answer (video, audio-only, or no audio)
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns parsed Result
//
// Helper methods on Result provide stream counts and duration parsing that
// tolerates containers without duration metadata.
package ffprobe
