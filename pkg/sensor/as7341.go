package sensor

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"
)

// DefaultAddress is the fixed I2C address of the AS7341.
const DefaultAddress = 0x39

const (
	regSMUXRAM  = 0x00
	regEnable   = 0x80
	regATime    = 0x81
	regWhoAmI   = 0x92
	regCH0DataL = 0x95
	regCFG1     = 0xAA
	regCFG6     = 0xAF
	regAStepL   = 0xCA

	enablePON    = 0x01
	enableSpEn   = 0x02
	enableSMUXEn = 0x10

	chipIDMask = 0xFC
	chipID     = 0x24

	smuxCmdWrite = 0x10
)

// Fixed acquisition settings. (atime+1)*(astep+1)*2.78us ~= 50ms integration.
const (
	atime    = 29
	astep    = 599
	gainCode = 0x04 // 8x
)

const (
	smuxSettle      = time.Millisecond
	integrationWait = 60 * time.Millisecond
)

// SMUX pixel maps routing the photodiodes onto the six ADCs. The AS7341 has
// more bands than ADCs, so a full sample takes two bank reads.
var (
	smuxF1F4ClearNIR = [20]byte{
		0x30, 0x01, 0x00, 0x00, 0x00, 0x42, 0x00, 0x00, 0x50, 0x00,
		0x00, 0x00, 0x20, 0x04, 0x00, 0x30, 0x01, 0x50, 0x00, 0x06,
	}
	smuxF5F8ClearNIR = [20]byte{
		0x00, 0x00, 0x00, 0x40, 0x02, 0x00, 0x10, 0x03, 0x50, 0x10,
		0x03, 0x00, 0x00, 0x00, 0x50, 0x00, 0x00, 0x00, 0x00, 0x06,
	}
)

// AS7341 reads one spectral sensor over periph.io I2C. Read performs a full
// re-init on every call because the instances behind the mux all answer on
// the same address.
type AS7341 struct {
	dev *i2c.Dev

	// overridable in tests
	smuxWait time.Duration
	waitTime time.Duration
}

func NewAS7341(bus i2c.Bus, addr uint16) *AS7341 {
	return &AS7341{
		dev:      &i2c.Dev{Addr: addr, Bus: bus},
		smuxWait: smuxSettle,
		waitTime: integrationWait,
	}
}

func (s *AS7341) Close() error { return nil }

// Read re-initializes the sensor, applies the fixed acquisition settings and
// returns all ten channels. Both SMUX banks share one integration wait each.
func (s *AS7341) Read() (Sample, error) {
	if err := s.init(); err != nil {
		return Sample{}, err
	}
	if err := s.configure(); err != nil {
		return Sample{}, err
	}
	var sample Sample
	low, err := s.readBank(smuxF1F4ClearNIR)
	if err != nil {
		return Sample{}, err
	}
	high, err := s.readBank(smuxF5F8ClearNIR)
	if err != nil {
		return Sample{}, err
	}
	copy(sample[0:4], low[0:4])
	copy(sample[4:8], high[0:4])
	sample[8] = high[4] // Clear
	sample[9] = high[5] // NIR
	return sample, nil
}

func (s *AS7341) init() error {
	id := make([]byte, 1)
	if err := s.dev.Tx([]byte{regWhoAmI}, id); err != nil {
		return fmt.Errorf("%w: whoami: %v", ErrInit, err)
	}
	if id[0]&chipIDMask != chipID {
		return fmt.Errorf("%w: unexpected chip id %#02x", ErrInit, id[0])
	}
	if err := s.dev.Tx([]byte{regEnable, enablePON}, nil); err != nil {
		return fmt.Errorf("%w: power on: %v", ErrInit, err)
	}
	return nil
}

func (s *AS7341) configure() error {
	if err := s.dev.Tx([]byte{regATime, atime}, nil); err != nil {
		return fmt.Errorf("%w: atime: %v", ErrInit, err)
	}
	if err := s.dev.Tx([]byte{regAStepL, byte(astep & 0xFF), byte(astep >> 8)}, nil); err != nil {
		return fmt.Errorf("%w: astep: %v", ErrInit, err)
	}
	if err := s.dev.Tx([]byte{regCFG1, gainCode}, nil); err != nil {
		return fmt.Errorf("%w: gain: %v", ErrInit, err)
	}
	return nil
}

// readBank loads one SMUX configuration, integrates and reads the six ADC
// channels (little endian). The integration wait is a fixed delay; the sensor
// boundary offers no conversion-complete signal.
func (s *AS7341) readBank(pixels [20]byte) ([6]uint16, error) {
	var out [6]uint16
	if err := s.dev.Tx([]byte{regEnable, enablePON}, nil); err != nil {
		return out, fmt.Errorf("%w: spectral off: %v", ErrRead, err)
	}
	if err := s.dev.Tx([]byte{regCFG6, smuxCmdWrite}, nil); err != nil {
		return out, fmt.Errorf("%w: smux command: %v", ErrRead, err)
	}
	if err := s.dev.Tx(append([]byte{regSMUXRAM}, pixels[:]...), nil); err != nil {
		return out, fmt.Errorf("%w: smux config: %v", ErrRead, err)
	}
	if err := s.dev.Tx([]byte{regEnable, enablePON | enableSMUXEn}, nil); err != nil {
		return out, fmt.Errorf("%w: smux load: %v", ErrRead, err)
	}
	time.Sleep(s.smuxWait)
	if err := s.dev.Tx([]byte{regEnable, enablePON | enableSpEn}, nil); err != nil {
		return out, fmt.Errorf("%w: spectral on: %v", ErrRead, err)
	}
	time.Sleep(s.waitTime)
	raw := make([]byte, 12)
	if err := s.dev.Tx([]byte{regCH0DataL}, raw); err != nil {
		return out, fmt.Errorf("%w: channel data: %v", ErrRead, err)
	}
	for i := range out {
		out[i] = uint16(raw[2*i]) | uint16(raw[2*i+1])<<8
	}
	return out, nil
}
