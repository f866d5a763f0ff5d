// Package mux drives the TCA9548A I2C multiplexer that puts one AS7341 per
// downstream channel on the shared bus.
package mux

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/i2c"
)

// DefaultAddress is the TCA9548A base address with A0..A2 grounded.
const DefaultAddress = 0x70

// ChannelNone deselects all downstream channels.
const ChannelNone = -1

const numChannels = 8

// ErrBus wraps failed control-register transactions.
var ErrBus = errors.New("mux bus transaction failed")

// TCA9548A selects exactly one configured channel at a time, or none. The
// control register is a bitmask with one bit per downstream channel.
type TCA9548A struct {
	dev        *i2c.Dev
	configured map[int]struct{}
	log        zerolog.Logger
}

// New returns a selector restricted to the given channel set. Channels
// outside 0-7 are dropped from the set at construction time.
func New(bus i2c.Bus, addr uint16, channels []int, log zerolog.Logger) *TCA9548A {
	configured := make(map[int]struct{}, len(channels))
	for _, ch := range channels {
		if ch >= 0 && ch < numChannels {
			configured[ch] = struct{}{}
		}
	}
	return &TCA9548A{
		dev:        &i2c.Dev{Addr: addr, Bus: bus},
		configured: configured,
		log:        log.With().Str("component", "mux").Logger(),
	}
}

// Select routes the bus to a single channel, or to none for ChannelNone.
// Any other value outside the configured set is ignored without touching the
// bus. A failed transaction leaves the channel state undefined for this
// cycle; the caller proceeds regardless.
func (m *TCA9548A) Select(channel int) error {
	var mask byte
	switch {
	case channel == ChannelNone:
		mask = 0
	default:
		if _, ok := m.configured[channel]; !ok {
			m.log.Debug().Int("channel", channel).Msg("ignoring unconfigured channel")
			return nil
		}
		mask = 1 << uint(channel)
	}
	if err := m.dev.Tx([]byte{mask}, nil); err != nil {
		return fmt.Errorf("%w: select %d: %v", ErrBus, channel, err)
	}
	return nil
}

// DeselectAll disconnects every downstream channel.
func (m *TCA9548A) DeselectAll() error {
	return m.Select(ChannelNone)
}
