// Package services defines shared plumbing consumed by the splitter, the batch
// runner, and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp source paths, run identifiers, and stage names
//     for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent per-file outcomes (failed, undecodable, not ready).
//
// Use these helpers when wiring new processing steps so error classification
// and observability stay uniform across the tool.
package services
