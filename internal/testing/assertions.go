package testing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goLSKd/internal/core/processor"
	"github.com/LeJamon/goLSKd/internal/testing/builders"
)

// RequireAccepted asserts that a submission succeeded.
func RequireAccepted(t *testing.T, resp processor.Response) {
	t.Helper()
	require.True(t, resp.Success, "Expected transaction to be accepted, got: %s", resp.Message)
	require.NotEmpty(t, resp.TransactionID)
}

// RequireRejected asserts that a submission failed with exactly msg.
func RequireRejected(t *testing.T, resp processor.Response, msg string) {
	t.Helper()
	require.False(t, resp.Success, "Expected transaction to be rejected with %q", msg)
	require.Equal(t, msg, resp.Message)
}

// RequireRejectedPrefix asserts that a submission failed with a message
// starting with prefix.
func RequireRejectedPrefix(t *testing.T, resp processor.Response, prefix string) {
	t.Helper()
	require.False(t, resp.Success, "Expected transaction to be rejected with %q...", prefix)
	require.True(t, strings.HasPrefix(resp.Message, prefix), "Message %q does not start with %q", resp.Message, prefix)
}

// RequireBalance asserts that an account has the expected balance in base units.
func RequireBalance(t *testing.T, env *TestEnv, acc *builders.Account, expected uint64) {
	t.Helper()
	actual := env.Balance(acc)
	require.Equal(t, expected, actual,
		"Account %s balance mismatch: expected %d, got %d", acc.Name, expected, actual)
}
