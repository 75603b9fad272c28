package instance

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIDPrefersExplicitSetting(t *testing.T) {
	t.Setenv("RENTWISE_INSTANCE_ID", "cron-1")
	t.Setenv("DYNO", "web.1")
	require.Equal(t, "cron-1", ID())

	t.Setenv("RENTWISE_INSTANCE_ID", "")
	require.Equal(t, "web.1", ID())

	t.Setenv("DYNO", "")
	require.NotEmpty(t, ID())
}
