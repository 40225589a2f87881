package ulid_test

import (
	"testing"
	"time"

	"github.com/cddsproject/cdds/backend/pkg/ulid"
	"github.com/stretchr/testify/require"
)

func TestNewTime(t *testing.T) {
	before := time.Now().Add(-time.Second)
	id, err := ulid.New()
	require.NoError(t, err)
	require.NotEqual(t, ulid.Nil, id)
	require.True(t, ulid.Time(id).After(before))

	parsed, err := ulid.Parse(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)
	require.Equal(t, ulid.Time(id).Format(ulid.RFC3339Milli), ulid.TimeString(id))
}
