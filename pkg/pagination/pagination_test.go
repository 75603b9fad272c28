package pagination

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeLimit(t *testing.T) {
	require.Equal(t, DefaultLimit, NormalizeLimit(0))
	require.Equal(t, MaxLimit, NormalizeLimit(1000))
	require.Equal(t, 10, NormalizeLimit(10))
}

func TestFromQuery(t *testing.T) {
	p, err := FromQuery(url.Values{"limit": {"500"}, "offset": {"20"}})
	require.NoError(t, err)
	require.Equal(t, Params{Limit: MaxLimit, Offset: 20}, p)

	p, err = FromQuery(url.Values{})
	require.NoError(t, err)
	require.Equal(t, Params{Limit: DefaultLimit}, p)

	_, err = FromQuery(url.Values{"limit": {"ten"}})
	require.Error(t, err)
	_, err = FromQuery(url.Values{"offset": {"-1"}})
	require.Error(t, err)
}
