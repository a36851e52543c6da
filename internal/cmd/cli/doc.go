// Package cli contains the Cobra commands of the seqid operator tool.
//
// Every command that touches the counter store opens a runtime from the
// config file, SEQID_* variables and the persistent flags, in that order
// of precedence (flags win).
package cli
