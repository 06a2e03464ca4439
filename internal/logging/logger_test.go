package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	for _, development := range []bool{false, true} {
		logger, err := New(development)
		require.NoError(t, err)
		require.NotNil(t, logger)
		_ = logger.Sync()
	}
}
