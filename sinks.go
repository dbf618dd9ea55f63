package sketchvm

import (
	"encoding/json"
	"io"
)

// JSONLSink writes one JSON object per line (spec §4.3: "transport
// framing ... is a host choice"), the newline-delimited choice —
// grounded on the teacher's query subsystem, which streams JSON lines
// over stdout for the lsp/query CLI commands.
type JSONLSink struct {
	w io.Writer
}

func NewJSONLSink(w io.Writer) *JSONLSink {
	return &JSONLSink{w: w}
}

func (s *JSONLSink) Emit(rec Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = s.w.Write(b)
	return err
}

// ChannelSink delivers records over a Go channel, for in-process hosts
// (the bubbletea monitor TUI, unit tests asserting on the record
// sequence). The channel is buffered; Emit blocks if the consumer
// falls behind, matching spec §9's preference for backpressure over
// silently dropping records.
type ChannelSink struct {
	ch chan Record
}

func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{ch: make(chan Record, buffer)}
}

func (s *ChannelSink) Emit(rec Record) error {
	s.ch <- rec
	return nil
}

func (s *ChannelSink) Records() <-chan Record { return s.ch }

func (s *ChannelSink) Close() { close(s.ch) }

// CollectingSink accumulates every record in memory, used by tests
// that assert on the full emitted sequence.
type CollectingSink struct {
	Records []Record
}

func NewCollectingSink() *CollectingSink { return &CollectingSink{} }

func (s *CollectingSink) Emit(rec Record) error {
	s.Records = append(s.Records, rec)
	return nil
}
