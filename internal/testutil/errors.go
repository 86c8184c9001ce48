// Package testutil holds test doubles shared by the taskflow packages:
// a step clock, a recording remote and canned errors. Only tests import it.
package testutil

import "errors"

// Canned failures for remote and generator doubles.
var (
	ErrMockAPIError          = errors.New("API error")
	ErrMockNetwork           = errors.New("network error")
	ErrMockRemoteUnavailable = errors.New("remote store unavailable")
)
