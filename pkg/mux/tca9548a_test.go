package mux

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

func TestSelectWritesBitmask(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: DefaultAddress, W: []byte{0x04}},
			{Addr: DefaultAddress, W: []byte{0x01}},
			{Addr: DefaultAddress, W: []byte{0x00}},
		},
		DontPanic: true,
	}
	m := New(bus, DefaultAddress, []int{0, 2}, zerolog.Nop())
	require.NoError(t, m.Select(2))
	require.NoError(t, m.Select(0))
	require.NoError(t, m.DeselectAll())
	require.NoError(t, bus.Close())
}

func TestSelectIgnoresUnconfiguredChannels(t *testing.T) {
	// zero ops recorded: any transaction would fail the playback
	bus := &i2ctest.Playback{DontPanic: true}
	m := New(bus, DefaultAddress, []int{0, 1, 2}, zerolog.Nop())
	require.NoError(t, m.Select(5))  // valid mux channel, not configured
	require.NoError(t, m.Select(9))  // outside mux range
	require.NoError(t, m.Select(-7)) // negative, not the sentinel
	require.NoError(t, bus.Close())
}

func TestSelectReportsBusError(t *testing.T) {
	// playback with no ops makes the first transaction fail
	bus := &i2ctest.Playback{DontPanic: true}
	m := New(bus, DefaultAddress, []int{3}, zerolog.Nop())
	err := m.Select(3)
	require.ErrorIs(t, err, ErrBus)
}
