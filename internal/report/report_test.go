package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *OutputNodeData {
	price := 892.51
	return &OutputNodeData{
		Decisions: map[string]Decision{
			"NVDA": {Action: "buy", Quantity: 10, Confidence: 72.5, Reasoning: json.RawMessage(`"Strong datacenter demand"`)},
			"AAPL": {Action: "hold", Quantity: 0, Confidence: 51, Reasoning: json.RawMessage(`{"valuation":"stretched"}`)},
		},
		AnalystSignals: map[string]map[string]Signal{
			"warren_buffett_agent": {
				"NVDA": {Signal: "bullish", Confidence: 80, Reasoning: json.RawMessage(`"Wide moat"`)},
			},
			"ben_graham_agent": {
				"NVDA": {Signal: "neutral", Confidence: 40},
			},
			RiskManagementAgent: {
				"NVDA": {CurrentPrice: &price},
			},
		},
	}
}

func TestAccessors(t *testing.T) {
	data := sample()

	assert.Equal(t, []string{"AAPL", "NVDA"}, data.Tickers())
	assert.Equal(t, []string{"ben_graham_agent", "warren_buffett_agent"}, data.Agents(),
		"risk management entry must be excluded")

	p, ok := data.CurrentPrice("NVDA")
	require.True(t, ok)
	assert.InDelta(t, 892.51, p, 0.001)

	_, ok = data.CurrentPrice("AAPL")
	assert.False(t, ok)
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "买入", ActionLabel("buy"))
	assert.Equal(t, "做空", ActionLabel("short"))
	assert.Equal(t, "看涨", SignalLabel("bullish"))
	// unrecognized values pass through verbatim
	assert.Equal(t, "yolo", ActionLabel("yolo"))
	assert.Equal(t, "mixed", SignalLabel("mixed"))
}

func TestReasoningText(t *testing.T) {
	assert.Equal(t, "plain", ReasoningText(json.RawMessage(`"plain"`)))
	assert.Equal(t, "", ReasoningText(nil))
	structured := ReasoningText(json.RawMessage(`{"a":1}`))
	assert.Contains(t, structured, `"a": 1`)
	assert.Equal(t, "not json", ReasoningText(json.RawMessage("not json")))
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, sample()))
	out := buf.String()

	assert.Contains(t, out, "NVDA")
	assert.Contains(t, out, "$892.51")
	assert.Contains(t, out, "买入 (buy)")
	assert.Contains(t, out, "持有 (hold)")
	assert.Contains(t, out, "Strong datacenter demand")
	// AAPL has no risk management price
	assert.Contains(t, out, "N/A")
}

func TestWriteSignals(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSignals(&buf, sample()))
	out := buf.String()

	assert.Contains(t, out, "Warren Buffett")
	assert.Contains(t, out, "看涨 (bullish)")
	assert.NotContains(t, out, "risk_management")
}

// rawJSONEqual compares raw fragments by value, since the pretty-printing
// encoder reformats the whitespace inside them.
var rawJSONEqual = cmp.Comparer(func(a, b json.RawMessage) bool {
	if len(a) == 0 || len(b) == 0 {
		return string(a) == string(b)
	}
	var ca, cb bytes.Buffer
	if json.Compact(&ca, a) != nil || json.Compact(&cb, b) != nil {
		return string(a) == string(b)
	}
	return ca.String() == cb.String()
})

func TestFirstLineRuneSafe(t *testing.T) {
	// The leading ASCII byte puts the byte limit in the middle of a rune.
	long := "A" + strings.Repeat("估值过高，", 40)
	got := firstLine(long)
	assert.True(t, utf8.ValidString(got), "truncation must not split a rune")
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.LessOrEqual(t, len(got), 120+len("…"))

	assert.Equal(t, "first …", firstLine("first\nsecond"))
	assert.Equal(t, "short", firstLine("short"))
}

func TestExportJSONRoundTrip(t *testing.T) {
	data := sample()
	var buf bytes.Buffer
	require.NoError(t, ExportJSON(&buf, data))

	var back OutputNodeData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	if diff := cmp.Diff(data, &back, rawJSONEqual); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestExportJSONFile(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	path, err := ExportJSONFile(dir, sample(), now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "output-2026-03-01T10-30-00.json"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var back OutputNodeData
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Len(t, back.Decisions, 2)
}

func TestExportImage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportImage(&buf, sample()))
	// PNG magic header
	require.Greater(t, buf.Len(), 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, buf.Bytes()[:4])
}
