// Package flock provides exclusive, non-blocking file locks on Unix and
// Windows, plus Acquire, which polls for a lock until a deadline.
//
// The file remote backend holds a lock on "<data file>.lock" around every
// read-modify-write so that two taskflow processes sharing a data file do
// not overwrite each other.
package flock
