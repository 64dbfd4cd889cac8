package flowfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantflow/quantflow/internal/flow"
)

func writeFlow(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestLoadAgentsAutoWired(t *testing.T) {
	path := writeFlow(t, "flow.hcl", `
run {
  tickers    = ["AAPL", "NVDA"]
  start_date = "2026-06-01"
  end_date   = "2026-09-01"

  model {
    name     = "gpt-4o"
    provider = "OpenAI"
  }
}

agent "warren_buffett" {
  model    = "gpt-4o"
  provider = "OpenAI"
}

agent "ben_graham" {}
`)

	file, err := Load(context.Background(), path)
	require.NoError(t, err)

	f := file.Flow
	startID, ok := f.StartNode()
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"warren_buffett", "ben_graham"}, f.ConnectedAgents(startID))

	// Each agent feeds the report sink.
	var toReport int
	for _, e := range f.Edges() {
		if e.Target == flow.ReportNodeID {
			toReport++
		}
	}
	assert.Equal(t, 2, toReport)

	wb, ok := f.Node("warren_buffett")
	require.True(t, ok)
	require.NotNil(t, wb.Model)
	assert.Equal(t, "gpt-4o", wb.Model.ModelName)

	assert.Equal(t, []string{"AAPL", "NVDA"}, file.Defaults.Tickers)
	assert.Equal(t, "2026-06-01", file.Defaults.StartDate)
	require.NotNil(t, file.Defaults.Model)
	assert.Equal(t, "OpenAI", file.Defaults.Model.Provider)
}

func TestLoadAgentPositions(t *testing.T) {
	path := writeFlow(t, "flow.hcl", `
agent "warren_buffett" {}
agent "ben_graham" {}
agent "charlie_munger" {}
`)

	file, err := Load(context.Background(), path)
	require.NoError(t, err)

	// Declared agents fan out down one column, one row step apart.
	for i, key := range []string{"warren_buffett", "ben_graham", "charlie_munger"} {
		n, ok := file.Flow.Node(key)
		require.True(t, ok)
		assert.Equal(t, flow.Position{X: agentColumnX, Y: float64(i) * agentRowStep}, n.Position)
	}
}

func TestLoadExplicitEdges(t *testing.T) {
	path := writeFlow(t, "flow.hcl", `
agent "warren_buffett" {}
agent "ben_graham" {}

edge {
  from = start
  to   = warren_buffett
}

edge {
  from = warren_buffett
  to   = report
}
`)

	file, err := Load(context.Background(), path)
	require.NoError(t, err)

	f := file.Flow
	startID, _ := f.StartNode()
	// ben_graham was declared but never wired to the manager.
	assert.Equal(t, []string{"warren_buffett"}, f.ConnectedAgents(startID))
	assert.Len(t, f.Edges(), 2)
}

func TestLoadTeam(t *testing.T) {
	path := writeFlow(t, "flow.hcl", `
team "value_investing_team" {}
`)

	file, err := Load(context.Background(), path)
	require.NoError(t, err)

	f := file.Flow
	startID, ok := f.StartNode()
	require.True(t, ok)
	assert.ElementsMatch(t,
		[]string{"ben_graham", "charlie_munger", "warren_buffett"},
		f.ConnectedAgents(startID))
}

func TestLoadDirectoryMergesFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "agents.hcl"),
		[]byte("agent \"warren_buffett\" {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run.hcl"),
		[]byte("run {\n  tickers = [\"TSLA\"]\n}\n"), 0o644))

	file, err := Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"TSLA"}, file.Defaults.Tickers)
	startID, _ := file.Flow.StartNode()
	assert.Equal(t, []string{"warren_buffett"}, file.Flow.ConnectedAgents(startID))
}

func TestLoadErrors(t *testing.T) {
	t.Run("unknown agent", func(t *testing.T) {
		path := writeFlow(t, "flow.hcl", `agent "nonexistent_person" {}`)
		_, err := Load(context.Background(), path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "nonexistent_person")
	})

	t.Run("unknown team", func(t *testing.T) {
		path := writeFlow(t, "flow.hcl", `team "imaginary_team" {}`)
		_, err := Load(context.Background(), path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "imaginary_team")
	})

	t.Run("unresolvable edge endpoint", func(t *testing.T) {
		path := writeFlow(t, "flow.hcl", `
agent "warren_buffett" {}

edge {
  from = start
  to   = somebody_else
}
`)
		_, err := Load(context.Background(), path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "edge endpoint")
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := Load(context.Background(), filepath.Join(t.TempDir(), "absent.hcl"))
		require.Error(t, err)
	})

	t.Run("syntax error carries location", func(t *testing.T) {
		path := writeFlow(t, "flow.hcl", "agent \"warren_buffett\" {\n")
		_, err := Load(context.Background(), path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "flow.hcl")
	})
}
