package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func sampleRun(id, fp, verdict string) Run {
	return Run{
		RunID:       id,
		Fingerprint: fp,
		Verdict:     verdict,
		SchemaSQL:   "CREATE TABLE t (id INT);",
		Query1:      "SELECT t.id FROM t",
		Query2:      "SELECT t.id FROM t WHERE t.id > 1",
		DurationMS:  12,
	}
}

func TestOpen_Pragmas(t *testing.T) {
	st := openTestStore(t)

	assert.NoError(t, st.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, st.verifyPragma("synchronous", "1"))
	assert.NoError(t, st.verifyPragma("busy_timeout", "5000"))
	assert.NoError(t, st.verifyPragma("user_version", fmt.Sprint(currentSchemaVersion)))
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	st, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, st.RecordRun(ctx, sampleRun("r1", "fp", "equivalent")))
	require.NoError(t, st.Close())

	st, err = Open(path)
	require.NoError(t, err)
	defer st.Close()

	runs, err := st.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "r1", runs[0].RunID)
}

func TestRecordRun_RoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	in := sampleRun("r1", "abc", "not_equivalent")
	in.Direction = "query1_only"
	in.Detail = "Counterexample:\n  Table t: (id=2)\n"
	require.NoError(t, st.RecordRun(ctx, in))

	got, err := st.GetRun(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Seq)
	in.Seq = 1
	assert.Equal(t, in, got)
}

func TestRecordRun_DuplicateIgnored(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.RecordRun(ctx, sampleRun("r1", "fp", "equivalent")))
	require.NoError(t, st.RecordRun(ctx, sampleRun("r1", "fp", "unknown")))

	runs, err := st.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "equivalent", runs[0].Verdict)
}

func TestGetRun_Missing(t *testing.T) {
	st := openTestStore(t)

	_, err := st.GetRun(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestListRuns_LimitKeepsNewestInSeqOrder(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, st.RecordRun(ctx, sampleRun(fmt.Sprintf("r%d", i), "fp", "equivalent")))
	}

	runs, err := st.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "r4", runs[0].RunID)
	assert.Equal(t, "r5", runs[1].RunID)
	assert.Less(t, runs[0].Seq, runs[1].Seq)

	all, err := st.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestListRuns_Empty(t *testing.T) {
	st := openTestStore(t)

	runs, err := st.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
	assert.NotNil(t, runs)
}

func TestRunsByFingerprint(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.RecordRun(ctx, sampleRun("a1", "fa", "equivalent")))
	require.NoError(t, st.RecordRun(ctx, sampleRun("b1", "fb", "not_equivalent")))
	require.NoError(t, st.RecordRun(ctx, sampleRun("a2", "fa", "unknown")))

	runs, err := st.RunsByFingerprint(ctx, "fa")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "a1", runs[0].RunID)
	assert.Equal(t, "a2", runs[1].RunID)
}

func TestClose_NilDB(t *testing.T) {
	var st Store
	assert.NoError(t, st.Close())
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestOpen_MigratesOldDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	// A database from before the fingerprint index existed.
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(schemaSQL)
	require.NoError(t, err)
	_, err = db.Exec("PRAGMA user_version = 0")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	st, err := Open(path)
	require.NoError(t, err)
	defer st.Close()

	assert.NoError(t, st.verifyPragma("user_version", fmt.Sprint(currentSchemaVersion)))
	var name string
	err = st.db.QueryRow(
		`SELECT name FROM sqlite_master WHERE type = 'index' AND name = 'idx_runs_fingerprint'`,
	).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "idx_runs_fingerprint", name)
}
