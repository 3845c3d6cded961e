package env

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFirstSkipsBlankValues(t *testing.T) {
	t.Setenv("SF_TEST_A", "   ")
	t.Setenv("SF_TEST_B", " value ")

	v, ok := First("SF_TEST_UNSET", "SF_TEST_A", "SF_TEST_B")
	require.True(t, ok)
	require.Equal(t, "value", v)

	_, ok = First("SF_TEST_UNSET", "SF_TEST_A")
	require.False(t, ok)
	require.Equal(t, "fallback", Get("SF_TEST_A", "fallback"))
}
