package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedAll(d *Decoder, chunks ...string) []Event {
	var out []Event
	for _, c := range chunks {
		out = append(out, d.Feed([]byte(c))...)
	}
	return out
}

func TestFeedSingleEvent(t *testing.T) {
	d := NewDecoder()
	events := d.Feed([]byte("event: start\ndata: {}\n\n"))
	require.Len(t, events, 1)
	require.NoError(t, events[0].Err)
	assert.Equal(t, "start", events[0].Type)
	assert.JSONEq(t, "{}", string(events[0].Data))
	assert.Empty(t, d.Rest())
}

func TestFeedMultipleEventsInOneChunk(t *testing.T) {
	d := NewDecoder()
	chunk := "event: start\ndata: {}\n\nevent: progress\ndata: {\"agent\":\"warren_buffett_agent\"}\n\n"
	events := d.Feed([]byte(chunk))
	require.Len(t, events, 2)
	assert.Equal(t, "start", events[0].Type)
	assert.Equal(t, "progress", events[1].Type)
}

func TestChunkBoundarySplitsEvent(t *testing.T) {
	t.Run("mid data line", func(t *testing.T) {
		d := NewDecoder()
		events := feedAll(d,
			"event: progress\ndata: {\"agent\":\"ben_g",
			"raham_agent\",\"status\":\"Done\"}\n\n",
		)
		require.Len(t, events, 1)
		require.NoError(t, events[0].Err)
		assert.Equal(t, "progress", events[0].Type)
		assert.Contains(t, string(events[0].Data), "ben_graham_agent")
	})

	t.Run("mid separator", func(t *testing.T) {
		d := NewDecoder()
		first := d.Feed([]byte("event: start\ndata: {}\n"))
		assert.Empty(t, first)
		assert.NotEmpty(t, d.Rest())

		second := d.Feed([]byte("\n"))
		require.Len(t, second, 1)
		assert.Equal(t, "start", second[0].Type)
		assert.Empty(t, d.Rest())
	})

	t.Run("byte at a time", func(t *testing.T) {
		d := NewDecoder()
		payload := "event: complete\ndata: {\"data\":null}\n\n"
		var events []Event
		for i := 0; i < len(payload); i++ {
			events = append(events, d.Feed([]byte{payload[i]})...)
		}
		require.Len(t, events, 1)
		assert.Equal(t, "complete", events[0].Type)
	})
}

func TestCRLFTolerated(t *testing.T) {
	d := NewDecoder()
	events := d.Feed([]byte("event: start\r\ndata: {}\r\n\n"))
	require.Len(t, events, 1)
	require.NoError(t, events[0].Err)
	assert.Equal(t, "start", events[0].Type)
}

func TestMalformedBlocks(t *testing.T) {
	t.Run("missing data line", func(t *testing.T) {
		d := NewDecoder()
		events := d.Feed([]byte("event: progress\n\n"))
		require.Len(t, events, 1)
		assert.Error(t, events[0].Err)
	})

	t.Run("invalid json payload", func(t *testing.T) {
		d := NewDecoder()
		events := d.Feed([]byte("event: progress\ndata: {not json\n\n"))
		require.Len(t, events, 1)
		assert.Error(t, events[0].Err)
	})

	t.Run("garbage block does not poison later events", func(t *testing.T) {
		d := NewDecoder()
		events := d.Feed([]byte("complete nonsense\n\nevent: start\ndata: {}\n\n"))
		require.Len(t, events, 2)
		assert.Error(t, events[0].Err)
		require.NoError(t, events[1].Err)
		assert.Equal(t, "start", events[1].Type)
	})
}

func TestBlankBlocksSkipped(t *testing.T) {
	d := NewDecoder()
	events := d.Feed([]byte("\n\n\n\nevent: start\ndata: {}\n\n"))
	require.Len(t, events, 1)
	assert.Equal(t, "start", events[0].Type)
}

func TestRestExposesUnterminatedTail(t *testing.T) {
	d := NewDecoder()
	events := d.Feed([]byte("event: progress\ndata: {\"agent\":\"x\"}"))
	assert.Empty(t, events)
	assert.Equal(t, "event: progress\ndata: {\"agent\":\"x\"}", d.Rest())
}
