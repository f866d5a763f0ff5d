package sensor

import (
	"math/rand"
	"sync"
)

// FakeSensor produces plausible spectral counts without hardware. Used by the
// simulation sensor type so the whole pipeline can run on a desk.
type FakeSensor struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewFakeSensor(seed int64) *FakeSensor {
	return &FakeSensor{rnd: rand.New(rand.NewSource(seed))}
}

func (f *FakeSensor) Read() (Sample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var s Sample
	for i := range s {
		// mid-range counts with some spread, like an indoor reading at 8x gain
		s[i] = uint16(2000 + f.rnd.Intn(20000))
	}
	return s, nil
}

func (f *FakeSensor) Close() error { return nil }
