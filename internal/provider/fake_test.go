package provider

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFakeProviderAcquireRoundsUpToPages(t *testing.T) {
	p := NewFakeProvider(1<<20, 4096)

	base, actual, err := p.Acquire(10)
	require.NoError(t, err)
	require.NotNil(t, base)
	require.Equal(t, 4096, actual)
}

func TestFakeProviderExhausts(t *testing.T) {
	p := NewFakeProvider(8192, 4096)

	_, _, err := p.Acquire(4096)
	require.NoError(t, err)
	_, _, err = p.Acquire(4096)
	require.NoError(t, err)

	_, _, err = p.Acquire(1)
	require.ErrorIs(t, err, ErrOutOfMemory)
}

func TestFakeProviderSuccessiveAcquisitionsDisjoint(t *testing.T) {
	p := NewFakeProvider(1<<16, 4096)

	a, _, err := p.Acquire(100)
	require.NoError(t, err)
	b, _, err := p.Acquire(100)
	require.NoError(t, err)

	require.NotEqual(t, a, b)
}
