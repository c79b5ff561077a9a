// Package logs finds and tails the per-run log files quietcut writes.
//
// Reads are bounded: Last keeps a ring of the final lines and From resumes at
// a byte offset, optionally polling until new lines arrive. Offsets always
// point at the end of what was returned so callers can loop.
package logs
