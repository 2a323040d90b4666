// SPDX-License-Identifier: Apache-2.0

package history_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathkitproj/mathsolver-mcp/internal/history"
)

func openStore(t *testing.T) *history.SQLStore {
	t.Helper()
	s, err := history.Open(context.Background(), history.DriverSQLite, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// ---------------------------------------------------------------------------
// Record / Recent
// ---------------------------------------------------------------------------

func TestRecord_AssignsIDAndTime(t *testing.T) {
	s := openStore(t)
	e, err := s.Record(context.Background(), history.Entry{Problem: "2 + 2", Subject: "arithmetic", SolverUsed: "arithmetic", Success: true})
	require.NoError(t, err)
	assert.Len(t, e.ID, 36)
	assert.False(t, e.CreatedAt.IsZero())
}

func TestRecent(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	for i, p := range []string{"first", "second", "third"} {
		errText := ""
		if i == 1 {
			errText = "algebra solver: cannot parse"
		}
		_, err := s.Record(ctx, history.Entry{
			Problem:      p,
			Subject:      "algebra",
			SolverUsed:   "algebra",
			Success:      i != 1,
			Error:        errText,
			ProcessingMS: float64(i + 1),
			CreatedAt:    base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{name: "newest first", limit: 2, want: []string{"third", "second"}},
		{name: "default limit", limit: 0, want: []string{"third", "second", "first"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := s.Recent(ctx, tt.limit)
			require.NoError(t, err)
			got := make([]string, 0, len(entries))
			for _, e := range entries {
				got = append(got, e.Problem)
			}
			assert.Equal(t, tt.want, got)
		})
	}

	entries, err := s.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.False(t, entries[1].Success)
	assert.Equal(t, "algebra solver: cannot parse", entries[1].Error)
	assert.True(t, entries[2].CreatedAt.Equal(base))
}

func TestRecent_Empty(t *testing.T) {
	entries, err := openStore(t).Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

// ---------------------------------------------------------------------------
// Stats
// ---------------------------------------------------------------------------

func TestStats(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	empty, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalRequests)
	assert.Zero(t, empty.AverageProcessingMS)
	assert.NotNil(t, empty.SolverUsage)

	for _, e := range []history.Entry{
		{Problem: "2x = 4", Subject: "algebra", SolverUsed: "algebra", Success: true, ProcessingMS: 2},
		{Problem: "1 + 1", Subject: "arithmetic", SolverUsed: "arithmetic", Success: true, ProcessingMS: 1},
		{Problem: "nonsense =", Subject: "algebra", SolverUsed: "none", Success: false, ProcessingMS: 3.5},
	} {
		_, err := s.Record(ctx, e)
		require.NoError(t, err)
	}

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), st.TotalRequests)
	assert.Equal(t, int64(2), st.SuccessfulRequests)
	assert.Equal(t, int64(1), st.FailedRequests)
	assert.InDelta(t, 2.167, st.AverageProcessingMS, 1e-9)
	assert.Equal(t, map[string]int64{"algebra": 1, "arithmetic": 1, "none": 1}, st.SolverUsage)
	assert.Equal(t, map[string]int64{"algebra": 2, "arithmetic": 1}, st.SubjectDistribution)
}

// ---------------------------------------------------------------------------
// Open
// ---------------------------------------------------------------------------

func TestOpen_Memory(t *testing.T) {
	s, err := history.Open(context.Background(), "SQLite", ":memory:")
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Record(context.Background(), history.Entry{Problem: "p", Subject: "s", SolverUsed: "x"})
	require.NoError(t, err)
	st, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.TotalRequests)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := history.Open(context.Background(), "mysql", "dsn")
	assert.ErrorIs(t, err, history.ErrUnknownDriver)
}

func TestRebind(t *testing.T) {
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", history.Rebind("SELECT * FROM t WHERE a = ? AND b = ?"))
	assert.Equal(t, "SELECT 1", history.Rebind("SELECT 1"))
}
