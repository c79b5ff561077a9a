// Package preflight provides readiness checks for the binaries, directories,
// and storage quietcut depends on.
//
// The CLI "quietcut doctor" command prints every result; split and scan run
// the same checks first and refuse to start when a required one fails.
package preflight
