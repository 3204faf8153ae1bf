package cidutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSumAndValidate(t *testing.T) {
	s, err := Sum([]byte("some image bytes"))
	require.NoError(t, err)
	require.NoError(t, Validate(s))

	again, err := Sum([]byte("some image bytes"))
	require.NoError(t, err)
	require.Equal(t, s, again)
}

func TestValidateGarbage(t *testing.T) {
	require.Error(t, Validate(""))
	require.Error(t, Validate("not a cid"))
	require.Error(t, Validate("0xdeadbeef"))
}
