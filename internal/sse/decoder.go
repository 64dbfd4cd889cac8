// Package sse implements an incremental decoder for the line-delimited
// event framing used by the run stream: blocks separated by a blank line,
// each block carrying an "event: <type>" line and a "data: <json>" line.
//
// The decoder owns a held-remainder buffer so that a chunk boundary may
// split an event across two reads without loss: Feed returns only fully
// terminated blocks and keeps the trailing fragment for the next call.
package sse

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Event is one decoded stream event. When a block cannot be parsed, Err is
// set and the other fields are empty; callers log and skip such events
// without aborting the stream.
type Event struct {
	Type string
	Data json.RawMessage
	Err  error
}

// Decoder incrementally splits a byte stream into events.
type Decoder struct {
	buf strings.Builder
}

// NewDecoder returns a decoder with an empty held buffer.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends a chunk to the held buffer and returns every event whose
// terminating blank line has arrived, in stream order. Malformed blocks
// yield an Event with Err set.
func (d *Decoder) Feed(chunk []byte) []Event {
	d.buf.Write(chunk)
	raw := d.buf.String()

	blocks := strings.Split(raw, "\n\n")
	rest := blocks[len(blocks)-1]
	blocks = blocks[:len(blocks)-1]

	d.buf.Reset()
	d.buf.WriteString(rest)

	var events []Event
	for _, block := range blocks {
		if strings.TrimSpace(block) == "" {
			continue
		}
		events = append(events, parseBlock(block))
	}
	return events
}

// Rest returns the undelivered remainder. A non-empty rest at end of
// stream means the final block was never terminated; it is diagnostic
// only and is discarded by callers.
func (d *Decoder) Rest() string {
	return d.buf.String()
}

// parseBlock extracts the type/data pair from a complete block.
func parseBlock(block string) Event {
	var evType, data string
	var haveType, haveData bool
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSuffix(line, "\r")
		switch {
		case strings.HasPrefix(line, "event: "):
			evType = strings.TrimPrefix(line, "event: ")
			haveType = true
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
			haveData = true
		}
	}
	if !haveType || !haveData {
		return Event{Err: fmt.Errorf("sse: block missing event/data lines: %q", block)}
	}
	if !json.Valid([]byte(data)) {
		return Event{Err: fmt.Errorf("sse: event %q carries invalid JSON payload", evType)}
	}
	return Event{Type: evType, Data: json.RawMessage(data)}
}
