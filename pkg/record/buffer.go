package record

import "strings"

// Buffer accumulates formatted records as concatenated text. It is used from
// the acquisition loop only and needs no locking. Count and content are
// always cleared together: the loop drains, hands the bytes to the sink and
// resets regardless of the write outcome.
type Buffer struct {
	text strings.Builder
	n    int
}

func NewBuffer() *Buffer { return &Buffer{} }

// Append adds one formatted record.
func (b *Buffer) Append(rec string) {
	b.text.WriteString(rec)
	b.n++
}

// Len returns the number of records appended since the last reset.
func (b *Buffer) Len() int { return b.n }

// ShouldFlush reports whether the buffer has reached the flush threshold.
func (b *Buffer) ShouldFlush() bool { return b.n >= FlushThreshold }

// Drain returns the accumulated bytes. Always paired with Reset by the
// caller.
func (b *Buffer) Drain() []byte { return []byte(b.text.String()) }

// Reset clears content and count together.
func (b *Buffer) Reset() {
	b.text.Reset()
	b.n = 0
}
