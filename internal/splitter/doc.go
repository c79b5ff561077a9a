// Package splitter runs detection and clip rendering for a single source
// file and reports what happened to it.
//
// A Splitter owns no batch state: scan drives many of them through
// internal/batch, split and detect call one directly.
package splitter
