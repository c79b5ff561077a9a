// Package batch discovers media files in a folder and runs one splitter per
// file on a bounded worker pool.
//
// Each path is submitted at most once: the in-memory Registry guards a single
// run, and the optional ledger carries the guarantee across runs. A failure in
// one file never stops the others; every file ends with its own Result.
package batch
