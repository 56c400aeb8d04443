package allocutils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckPow2(t *testing.T) {
	cases := map[string]struct {
		Value   int
		WantErr bool
	}{
		"zero":       {Value: 0, WantErr: true},
		"one":        {Value: 1, WantErr: false},
		"two":        {Value: 2, WantErr: false},
		"three":      {Value: 3, WantErr: true},
		"4096":       {Value: 4096, WantErr: false},
		"4097":       {Value: 4097, WantErr: true},
		"big-pow2":   {Value: 1 << 20, WantErr: false},
		"big-nonpow": {Value: (1 << 20) + 3, WantErr: true},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := CheckPow2(tc.Value, "align")
			if tc.WantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestAlignUpDown(t *testing.T) {
	require.Equal(t, 16, AlignUp(9, 8))
	require.Equal(t, 16, AlignUp(16, 8))
	require.Equal(t, 8, AlignDown(9, 8))
	require.Equal(t, 0, AlignDown(0, 8))
	require.Equal(t, 4096, AlignUp(1, 4096))
}
