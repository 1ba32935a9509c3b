package access_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/catedeguzman-it/finmark-sub001/pkg/accesssdk"
)

// TestRateLimitTokenLookup verifies that guessing invitation tokens is
// throttled per IP (strict profile, 10 req/min).
func TestRateLimitTokenLookup(t *testing.T) {
	c := setupAccessContainerWithDefaultRateLimits(t)
	ctx := t.Context()
	anon := c.anonymous()

	var lastErr error
	for i := range 11 {
		_, err := anon.LookupInvitation(ctx, strings.Repeat("f", 64))
		if i < 10 {
			assertAPIError(t, err, http.StatusNotFound, accesssdk.ErrorCodeInvitationNotFound)
		} else {
			lastErr = err
		}
	}

	var apiErr *accesssdk.APIError
	require.True(t, errors.As(lastErr, &apiErr))
	require.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	require.Equal(t, accesssdk.ErrorCodeRateLimitExceeded, apiErr.Code)
}
