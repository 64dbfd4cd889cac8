package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	f := Default()

	nodes := f.Nodes()
	// manager + 15 analysts + risk manager + report
	assert.Len(t, nodes, 18)

	start, ok := f.StartNode()
	require.True(t, ok)
	assert.Equal(t, StartNodeID, start)

	agents := f.ConnectedAgents(start)
	assert.Len(t, agents, 16)
	assert.Contains(t, agents, "warren_buffett")
	assert.Contains(t, agents, "risk_manager")
}

func TestAddComponent(t *testing.T) {
	t.Run("single component", func(t *testing.T) {
		f := New()
		ids, err := f.AddComponent("warren_buffett", Position{X: 10, Y: 20})
		require.NoError(t, err)
		require.Len(t, ids, 1)

		n, ok := f.Node(ids[0])
		require.True(t, ok)
		assert.Equal(t, "warren_buffett", n.ID)
		assert.Equal(t, KindAgent, n.Kind)
		assert.Equal(t, "Warren Buffett", n.Name)
		assert.Equal(t, Position{X: 10, Y: 20}, n.Position)
	})

	t.Run("unknown key", func(t *testing.T) {
		f := New()
		_, err := f.AddComponent("elvis_presley", Position{})
		assert.ErrorContains(t, err, "unknown component")
	})

	t.Run("duplicate insertion gets a fresh id", func(t *testing.T) {
		f := New()
		first, err := f.AddComponent("ben_graham", Position{})
		require.NoError(t, err)
		second, err := f.AddComponent("ben_graham", Position{})
		require.NoError(t, err)
		assert.Equal(t, "ben_graham", first[0])
		assert.NotEqual(t, first[0], second[0])
		assert.Len(t, f.Nodes(), 2)
	})
}

func TestConnect(t *testing.T) {
	f := New()
	_, err := f.AddComponent(KeyPortfolioManager, Position{})
	require.NoError(t, err)
	_, err = f.AddComponent("cathie_wood", Position{})
	require.NoError(t, err)

	e := f.Connect(StartNodeID, "cathie_wood")
	assert.NotEmpty(t, e.ID)
	assert.True(t, e.ArrowClosed)
	require.Len(t, f.Edges(), 1)

	// no duplicate-edge validation: a second identical connection is kept
	e2 := f.Connect(StartNodeID, "cathie_wood")
	assert.NotEqual(t, e.ID, e2.ID)
	assert.Len(t, f.Edges(), 2)
}

func TestConnectedAgents(t *testing.T) {
	t.Run("one hop only", func(t *testing.T) {
		f := New()
		for _, key := range []string{KeyPortfolioManager, "ben_graham", "warren_buffett", KeyInvestmentReport} {
			_, err := f.AddComponent(key, Position{})
			require.NoError(t, err)
		}
		f.Connect(StartNodeID, "ben_graham")
		f.Connect("ben_graham", "warren_buffett") // agent→agent chain is not followed
		f.Connect("ben_graham", ReportNodeID)

		assert.Equal(t, []string{"ben_graham"}, f.ConnectedAgents(StartNodeID))
	})

	t.Run("non-agent targets are skipped", func(t *testing.T) {
		f := New()
		for _, key := range []string{KeyPortfolioManager, KeyInvestmentReport} {
			_, err := f.AddComponent(key, Position{})
			require.NoError(t, err)
		}
		f.Connect(StartNodeID, ReportNodeID)
		assert.Empty(t, f.ConnectedAgents(StartNodeID))
	})

	t.Run("duplicate edges dedupe", func(t *testing.T) {
		f := New()
		for _, key := range []string{KeyPortfolioManager, "ben_graham"} {
			_, err := f.AddComponent(key, Position{})
			require.NoError(t, err)
		}
		f.Connect(StartNodeID, "ben_graham")
		f.Connect(StartNodeID, "ben_graham")
		assert.Equal(t, []string{"ben_graham"}, f.ConnectedAgents(StartNodeID))
	})
}

func TestReset(t *testing.T) {
	f := Default()
	_, err := f.AddComponent("value_investing_team", Position{X: 1000})
	require.NoError(t, err)
	f.Connect("warren_buffett", "ben_graham")

	f.Reset()

	assert.Len(t, f.Nodes(), 18)
	assert.Len(t, f.ConnectedAgents(StartNodeID), 16)
}

func TestSetAgentModel(t *testing.T) {
	f := Default()
	require.NoError(t, f.SetAgentModel("warren_buffett", &ModelConfig{ModelName: "gpt-4o", Provider: "OpenAI"}))

	n, ok := f.Node("warren_buffett")
	require.True(t, ok)
	require.NotNil(t, n.Model)
	assert.Equal(t, "gpt-4o", n.Model.ModelName)

	assert.ErrorContains(t, f.SetAgentModel(StartNodeID, nil), "not an agent")
	assert.ErrorContains(t, f.SetAgentModel("nope", nil), "not found")
}
