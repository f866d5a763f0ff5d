package sensor

import "errors"

// NumChannels is the width of one spectral reading: 8 bands, clear, NIR.
const NumChannels = 10

// Sample holds one successful read in band order F1..F8, Clear, NIR.
type Sample [NumChannels]uint16

var (
	// ErrInit means the device behind the selected mux channel did not
	// acknowledge initialization or configuration.
	ErrInit = errors.New("sensor init failed")
	// ErrRead means the channel data transfer failed after a successful init.
	ErrRead = errors.New("sensor read failed")
)

// Sensor reads whatever device is behind the currently selected mux channel.
// Multiplexed instances share one logical handle, so implementations must not
// keep per-channel session state between reads.
type Sensor interface {
	Read() (Sample, error)
	Close() error
}
