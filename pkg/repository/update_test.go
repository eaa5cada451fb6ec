package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateRecordsSuccessAndFailure(t *testing.T) {
	adminDir := t.TempDir()

	sources := []Source{
		{Type: "http", URI: "http://ok.test", Distribution: "stable", Components: []string{"main"}},
		{Type: "http", URI: "http://fail.test", Distribution: "stable", Components: []string{"main"}},
	}
	require.NoError(t, WriteSources(adminDir, sources))

	fetch := func(_ context.Context, src Source) error {
		if src.URI == "http://fail.test" {
			return assert.AnError
		}

		return nil
	}

	entries, err := Update(context.Background(), adminDir, fetch)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, StatusOK, entries[0].Status)
	assert.False(t, entries[0].FirstSuccess.IsZero())

	assert.Equal(t, StatusFailed, entries[1].Status)
	assert.True(t, entries[1].FirstSuccess.IsZero())
	assert.False(t, entries[1].LastFailure.IsZero())
}

func TestUpdatePersistsAcrossRuns(t *testing.T) {
	adminDir := t.TempDir()

	require.NoError(t, WriteSources(adminDir, []Source{
		{Type: "http", URI: "http://flaky.test", Distribution: "stable", Components: []string{"main"}},
	}))

	failing := func(_ context.Context, _ Source) error { return assert.AnError }
	_, err := Update(context.Background(), adminDir, failing)
	require.NoError(t, err)

	succeeding := func(_ context.Context, _ Source) error { return nil }
	entries, err := Update(context.Background(), adminDir, succeeding)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	assert.Equal(t, StatusOK, entries[0].Status)
	assert.False(t, entries[0].FirstTry.IsZero())
	assert.False(t, entries[0].LastFailure.IsZero(), "first failed attempt should still be remembered")
}
