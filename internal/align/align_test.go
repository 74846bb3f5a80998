package align

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Up(t *testing.T) {
	require.Equal(t, Word, Up(1))
	require.Equal(t, Word, Up(Word))
	require.Equal(t, 2*Word, Up(Word+1))
	require.Equal(t, uintptr(0), Up(0))
}

func Test_Up_Idempotent(t *testing.T) {
	for n := uintptr(0); n < 4*Word; n++ {
		a := Up(n)
		require.GreaterOrEqual(t, a, n)
		require.Zero(t, a%Word)
		require.Equal(t, a, Up(a))
	}
}

func Test_Page(t *testing.T) {
	require.Equal(t, uintptr(4096), Page(1, 4096))
	require.Equal(t, uintptr(4096), Page(4096, 4096))
	require.Equal(t, uintptr(8192), Page(4097, 4096))
	require.Equal(t, uintptr(0), Page(0, 4096))
}
