package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeID(t *testing.T) {
	assert.Equal(t, "warren_buffett", NodeID("warren_buffett_agent"))
	// Aliased event names resolve to the flow node id, not the bare stem.
	assert.Equal(t, KeyRiskManager, NodeID("risk_management_agent"))
	assert.Equal(t, "sentiment_analyst", NodeID("sentiment_agent"))
	// Identifiers without the suffix pass through unchanged.
	assert.Equal(t, "warren_buffett", NodeID("warren_buffett"))
}

func TestEventName(t *testing.T) {
	assert.Equal(t, "warren_buffett_agent", EventName("warren_buffett"))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Warren Buffett", DisplayName("warren_buffett_agent"))
	assert.Equal(t, "Risk Manager", DisplayName("risk_management_agent"))
	assert.Equal(t, "Sentiment Analyst", DisplayName("sentiment_agent"))
	// Unknown keys fall back to a readable form of the raw key.
	assert.Equal(t, "mystery agent", DisplayName("mystery_agent"))
}

func TestAllOrderedAndExcludesRiskManager(t *testing.T) {
	all := All()
	require.NotEmpty(t, all)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Order, all[i].Order)
	}
	for _, a := range all {
		assert.NotEqual(t, KeyRiskManager, a.Key)
	}
}
