// Package acquisition runs the select-read-buffer-flush cycle over all
// configured mux channels, gated on a valid clock.
package acquisition

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/openfield/as7341-logger/pkg/record"
	"github.com/openfield/as7341-logger/pkg/sensor"
	"github.com/openfield/as7341-logger/pkg/telemetry"
)

// ChannelSelector routes the bus to one mux channel, or to none.
type ChannelSelector interface {
	Select(channel int) error
	DeselectAll() error
}

// Clock gates acquisition and stamps records.
type Clock interface {
	IsValid() bool
	Now() string
}

// Sink receives drained record batches.
type Sink interface {
	Append(b []byte) error
}

// Delays are the fixed pauses of the cycle. They are the only suspension
// points; none is a retry or backoff mechanism beyond the cycle cadence
// itself.
type Delays struct {
	WaitPoll    time.Duration // re-check interval while the clock is invalid
	Settle      time.Duration // after a channel select, before the read
	InterSensor time.Duration // between channels within a cycle
	InterCycle  time.Duration // after deselect-all, before the next cycle
}

func DefaultDelays() Delays {
	return Delays{
		WaitPoll:    2 * time.Second,
		Settle:      10 * time.Millisecond,
		InterSensor: 50 * time.Millisecond,
		InterCycle:  time.Second,
	}
}

// Loop is the orchestrator. Single goroutine; the only other control path is
// the time-sync handler, which it observes through the Clock interface.
type Loop struct {
	selector ChannelSelector
	sensor   sensor.Sensor
	clock    Clock
	buffer   *record.Buffer
	sink     Sink
	channels []int
	delays   Delays
	log      zerolog.Logger
	metrics  telemetry.Collector
}

func New(selector ChannelSelector, sens sensor.Sensor, clk Clock, buf *record.Buffer, sink Sink, channels []int, delays Delays, log zerolog.Logger, metrics telemetry.Collector) *Loop {
	return &Loop{
		selector: selector,
		sensor:   sens,
		clock:    clk,
		buffer:   buf,
		sink:     sink,
		channels: channels,
		delays:   delays,
		log:      log.With().Str("component", "acquisition").Logger(),
		metrics:  metrics,
	}
}

// Run blocks until the context is cancelled. While the clock is invalid it
// only polls; once a sync arrives it cycles until process termination. A
// re-sync mid-cycle never pauses or resets the cycle.
func (l *Loop) Run(ctx context.Context) {
	l.log.Info().Ints("channels", l.channels).Msg("waiting for time sync")
	waiting := true
	for {
		if ctx.Err() != nil {
			return
		}
		if !l.clock.IsValid() {
			if !sleep(ctx, l.delays.WaitPoll) {
				return
			}
			continue
		}
		if waiting {
			l.log.Info().Msg("clock valid, starting acquisition")
			waiting = false
		}
		l.cycle(ctx)
	}
}

// cycle runs one pass over all configured channels. Failures on one channel
// never prevent the remaining channels from being attempted.
func (l *Loop) cycle(ctx context.Context) {
	for i, ch := range l.channels {
		if ctx.Err() != nil {
			return
		}
		if err := l.selector.Select(ch); err != nil {
			// channel state undefined for this cycle; attempt the read anyway
			l.log.Warn().Err(err).Int("channel", ch).Msg("channel select failed")
			l.metrics.IncBusError()
		}
		if !sleep(ctx, l.delays.Settle) {
			return
		}
		sample, err := l.sensor.Read()
		if err != nil {
			stage := "read"
			if errors.Is(err, sensor.ErrInit) {
				stage = "init"
			}
			l.log.Warn().Err(err).Int("channel", ch).Msg("skipping channel")
			l.metrics.IncSensorError(ch, stage)
		} else {
			rec := record.Format(l.clock.Now(), i+1, sample)
			l.buffer.Append(rec)
			l.metrics.IncSample(ch)
			if l.buffer.ShouldFlush() {
				l.flush()
			}
		}
		if !sleep(ctx, l.delays.InterSensor) {
			return
		}
	}
	if err := l.selector.DeselectAll(); err != nil {
		l.log.Warn().Err(err).Msg("deselect all failed")
		l.metrics.IncBusError()
	}
	sleep(ctx, l.delays.InterCycle)
}

// flush drains the buffer into the sink and resets it whether or not the
// write succeeded. A failed write loses the batch; the log line and dropped
// counter are the only trace.
func (l *Loop) flush() {
	n := l.buffer.Len()
	batch := l.buffer.Drain()
	if err := l.sink.Append(batch); err != nil {
		l.log.Error().Err(err).Int("records", n).Msg("flush failed, records dropped")
		l.metrics.IncDropped(n)
	} else {
		l.log.Debug().Int("records", n).Msg("flushed records")
		l.metrics.IncFlush(n)
	}
	l.buffer.Reset()
}

// sleep waits for d or until the context is cancelled; it returns false on
// cancellation.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
