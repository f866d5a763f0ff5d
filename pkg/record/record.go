// Package record defines the CSV line format of the log file and the
// in-memory buffer that batches lines between flushes.
package record

import (
	"strconv"
	"strings"

	"github.com/openfield/as7341-logger/pkg/sensor"
)

// Header is the first line of every log file and the single source of truth
// for the column layout.
const Header = "DateTime,SensorNumber,F1 (415nm),F2 (445nm),F3 (480nm),F4 (515nm),F5 (555nm),F6 (590nm),F7 (630nm),F8 (680nm),Clear,NIR\n"

// FlushThreshold is the number of buffered records that triggers a flush.
const FlushThreshold = 10

// Format serializes one sample. sensorNumber is the 1-based position within
// the configured channel list, not the raw mux channel.
func Format(timestamp string, sensorNumber int, s sensor.Sample) string {
	var b strings.Builder
	b.Grow(len(timestamp) + 2 + sensor.NumChannels*6)
	b.WriteString(timestamp)
	b.WriteByte(',')
	b.WriteString(strconv.Itoa(sensorNumber))
	for _, v := range s {
		b.WriteByte(',')
		b.WriteString(strconv.FormatUint(uint64(v), 10))
	}
	b.WriteByte('\n')
	return b.String()
}
