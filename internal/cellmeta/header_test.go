package cellmeta

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeaderSizeAndFlagsIndependent(t *testing.T) {
	base := testArena(256)
	h := HeaderAt(base)
	h.Init(64, false)

	require.Equal(t, 64, h.Size())
	require.False(t, h.IsAllocated())
	require.False(t, h.NextIsFree())

	h.SetAllocated(true)
	require.True(t, h.IsAllocated())
	require.Equal(t, 64, h.Size(), "setting a flag must preserve size")

	h.SetNextIsFree(true)
	require.True(t, h.NextIsFree())
	require.True(t, h.IsAllocated(), "setting one flag must preserve the other")
	require.Equal(t, 64, h.Size())

	h.SetSize(128)
	require.Equal(t, 128, h.Size())
	require.True(t, h.IsAllocated(), "setting size must preserve flags")
	require.True(t, h.NextIsFree())
}

func TestHeaderPhysSuccessor(t *testing.T) {
	base := testArena(256)
	h := HeaderAt(base)
	h.Init(64, false)

	succ := h.PhysSuccessor()
	wantAddr := uintptr(base) + uintptr(HeaderSize) + 64
	require.Equal(t, wantAddr, uintptr(succ.Addr()))
}

func TestHeaderPayloadBytesRoundTrip(t *testing.T) {
	base := testArena(256)
	h := HeaderAt(base)
	h.Init(32, true)

	payload := h.PayloadBytes()
	require.Len(t, payload, 32)
	for i := range payload {
		payload[i] = byte(i)
	}

	for i, b := range h.PayloadBytes() {
		require.Equal(t, byte(i), b)
	}
}
