package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mchain/internal/planner"
)

// seedStore plans the gram specs twice into a fresh store and returns its
// path.
func seedStore(t *testing.T) string {
	t.Helper()
	specs := gramSpecDir(t)
	db := filepath.Join(t.TempDir(), "plans.db")
	for _, id := range []string{"run-1", "run-2"} {
		opts := &OptimizeOptions{
			RootOptions: &RootOptions{Format: "text"},
			Database:    db,
			RunIDs:      planner.NewFixedGenerator(id),
		}
		_, _, err := execute(t, newOptimizeCommand(opts), specs)
		require.NoError(t, err)
	}
	return db
}

func TestHistoryListsRuns(t *testing.T) {
	db := seedStore(t)

	out, _, err := execute(t, NewHistoryCommand(&RootOptions{Format: "text"}), "--db", db)
	require.NoError(t, err)
	assert.Regexp(t, `1\s+run-1`, out)
	assert.Regexp(t, `6\s+run-2`, out)
}

func TestHistoryShowsRun(t *testing.T) {
	db := seedStore(t)

	out, _, err := execute(t, NewHistoryCommand(&RootOptions{Format: "text"}), "--db", db, "run-2")
	require.NoError(t, err)
	assert.Contains(t, out, "run run-2 (seq 6)")
	assert.Regexp(t, `gram\s+cached\s+22000\s+\(\(A\^T A\) B\)`, out)
	assert.Regexp(t, `flat\s+cached\s+12000`, out)
}

func TestHistoryShowsRunJSON(t *testing.T) {
	db := seedStore(t)

	out, _, err := execute(t, NewHistoryCommand(&RootOptions{Format: "json"}), "--db", db, "run-1")
	require.NoError(t, err)

	var resp struct {
		Status string    `json:"status"`
		Data   RunDetail `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "run-1", resp.Data.Run.ID)
	require.Len(t, resp.Data.Entries, 2)

	gram := resp.Data.Entries[0]
	assert.Equal(t, "gram", gram.Chain)
	assert.False(t, gram.Cached)
	assert.Equal(t, int64(3), gram.Seq)
	require.NotNil(t, gram.Plan)
	assert.Equal(t, gram.PlanID, gram.Plan.ID)
	assert.Equal(t, int64(22000), gram.Plan.Cost)
}

func TestHistoryUnknownRun(t *testing.T) {
	db := seedStore(t)

	_, _, err := execute(t, NewHistoryCommand(&RootOptions{Format: "text"}), "--db", db, "run-9")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeRunNotFound)
}

func TestHistoryMissingDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "absent.db")

	out, _, err := execute(t, NewHistoryCommand(&RootOptions{Format: "text"}), "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "database not found")
	assert.NoFileExists(t, db)
}

func TestHistoryRequiresDB(t *testing.T) {
	_, _, err := execute(t, NewHistoryCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "db" not set`)
}
