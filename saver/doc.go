// Package saver posts allocation state back to the tournament backend over
// HTTP, separate from the live broadcast channel. Saves are best-effort and
// never auto-retried: a failed save is surfaced to the caller, which decides
// whether to resubmit.
package saver
