package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	// Register restoration of the current value first
	t.Setenv(key, os.Getenv(key))
	require.NoError(t, os.Unsetenv(key))
}
