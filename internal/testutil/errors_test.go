package testutil

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMockErrorsAreDistinct(t *testing.T) {
	t.Parallel()

	all := []error{ErrMockAPIError, ErrMockNetwork, ErrMockRemoteUnavailable}
	for i, a := range all {
		for j, b := range all {
			if i != j {
				assert.NotErrorIs(t, a, b)
			}
		}
	}
	assert.ErrorIs(t, fmt.Errorf("dispatch: %w", ErrMockNetwork), ErrMockNetwork)
}
