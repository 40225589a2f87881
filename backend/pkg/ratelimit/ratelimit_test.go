package ratelimit_test

import (
	"bytes"
	"io/ioutil"
	"strings"
	"testing"

	"github.com/cddsproject/cdds/backend/pkg/ratelimit"
	"github.com/stretchr/testify/require"
)

func TestNewReaderPassesData(t *testing.T) {
	data := strings.Repeat("x", 1000)

	r := ratelimit.NewReader(bytes.NewBufferString(data), 1e6)
	got, err := ioutil.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, data, string(got))

	src := bytes.NewBufferString(data)
	require.True(t, ratelimit.NewReader(src, 0) == src)
}
