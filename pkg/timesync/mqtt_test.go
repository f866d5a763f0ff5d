package timesync

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/openfield/as7341-logger/pkg/telemetry"
)

type fakeSyncer struct {
	messages []string
	accept   bool
}

func (f *fakeSyncer) TrySync(msg string) bool {
	f.messages = append(f.messages, msg)
	return f.accept
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 1 }
func (m *fakeMessage) Retained() bool    { return true }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 1 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

type syncCounter struct {
	telemetry.Collector
	accepted int
	rejected int
}

func (c *syncCounter) IncTimeSync(accepted bool) {
	if accepted {
		c.accepted++
	} else {
		c.rejected++
	}
}

func TestHandlerForwardsPayloadToSyncer(t *testing.T) {
	syncer := &fakeSyncer{accept: true}
	metrics := &syncCounter{Collector: telemetry.Noop()}
	handler := newHandler(syncer, zerolog.Nop(), metrics)

	handler(nil, &fakeMessage{topic: "as7341/timesync", payload: []byte("2025-02-26 14:15:30|UTC0")})

	require.Equal(t, []string{"2025-02-26 14:15:30|UTC0"}, syncer.messages)
	require.Equal(t, 1, metrics.accepted)
	require.Zero(t, metrics.rejected)
}

func TestHandlerCountsRejectedMessages(t *testing.T) {
	syncer := &fakeSyncer{accept: false}
	metrics := &syncCounter{Collector: telemetry.Noop()}
	handler := newHandler(syncer, zerolog.Nop(), metrics)

	handler(nil, &fakeMessage{topic: "as7341/timesync", payload: []byte("garbage")})
	handler(nil, &fakeMessage{topic: "as7341/timesync", payload: []byte("2025-13-01 00:00:00|UTC")})

	require.Len(t, syncer.messages, 2)
	require.Zero(t, metrics.accepted)
	require.Equal(t, 2, metrics.rejected)
}
