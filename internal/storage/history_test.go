// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/txexport/internal/export"
)

func openTestStore(t *testing.T) *HistoryStore {
	t.Helper()
	store, err := OpenHistoryStore(filepath.Join(t.TempDir(), "db", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestHistoryStore_RecordExport(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	started := time.Date(2024, 5, 17, 14, 30, 0, 0, time.UTC)

	err := store.RecordExport(ctx, export.Attempt{
		Started:  started,
		Finished: started.Add(3 * time.Second),
		Target:   export.Target{Slug: "acme", HostSlug: "host", Accounts: []string{"a", "b"}},
		URL:      "https://rest.example.org/v2/host/hostTransactions.txt?fetchAll=1",
		Path:     "/tmp/host-host-transactions.csv",
		Rows:     420,
		Bytes:    9001,
		Outcome:  export.OutcomeSuccess,
	})
	require.NoError(t, err)

	entries, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	_, err = uuid.Parse(e.ID)
	assert.NoError(t, err, "ids are UUIDs")
	assert.Equal(t, "host", e.Slug)
	assert.Equal(t, KindHost, e.Kind)
	assert.Equal(t, []string{"a", "b"}, e.Accounts)
	assert.Equal(t, 420, e.Rows)
	assert.Equal(t, int64(9001), e.Bytes)
	assert.Equal(t, export.OutcomeSuccess, e.Outcome)
	assert.Empty(t, e.Error)
	assert.True(t, e.StartedAt.Equal(started))
	assert.Equal(t, 3*time.Second, e.Duration())

	got, err := store.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.URL, got.URL)
}

func TestHistoryStore_RecordFailure(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	err := store.RecordExport(ctx, export.Attempt{
		Started: time.Now(),
		Target:  export.Target{Slug: "acme"},
		URL:     "https://rest.example.org/v2/acme/transactions.txt",
		Rows:    150000,
		Outcome: export.OutcomeTooLarge,
		Err:     &export.RowLimitError{Rows: 150000, Limit: export.MaxRows},
	})
	require.NoError(t, err)

	entries, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, KindAccount, entries[0].Kind)
	assert.Nil(t, entries[0].Accounts)
	assert.Equal(t, export.OutcomeTooLarge, entries[0].Outcome)
	assert.Contains(t, entries[0].Error, "150000")
}

func TestHistoryStore_ListNewestFirstAndLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Add(ctx, &HistoryEntry{
			StartedAt: base.Add(time.Duration(i) * time.Hour),
			Slug:      fmt.Sprintf("acct-%d", i),
			Kind:      KindAccount,
			URL:       "u",
			Outcome:   export.OutcomeSuccess,
		}))
	}

	entries, err := store.List(ctx, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "acct-4", entries[0].Slug)
	assert.Equal(t, "acct-2", entries[2].Slug)
}

func TestHistoryStore_Prune(t *testing.T) {
	store := openTestStore(t)
	store.MaxEntries = 0
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Add(ctx, &HistoryEntry{
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			Slug:      fmt.Sprintf("acct-%d", i),
			Kind:      KindAccount,
			URL:       "u",
			Outcome:   export.OutcomeSuccess,
		}))
	}
	entries, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 5, "zero keeps everything")

	require.NoError(t, store.Prune(ctx, 2))
	entries, err = store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "acct-4", entries[0].Slug)
	assert.Equal(t, "acct-3", entries[1].Slug)

	require.NoError(t, store.Close())
	assert.ErrorIs(t, store.Prune(ctx, 1), ErrClosed)
}

func TestHistoryStore_MaxEntries(t *testing.T) {
	store := openTestStore(t)
	store.MaxEntries = 2
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		require.NoError(t, store.Add(ctx, &HistoryEntry{
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			Slug:      fmt.Sprintf("acct-%d", i),
			Kind:      KindAccount,
			URL:       "u",
			Outcome:   export.OutcomeFailed,
		}))
	}

	entries, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "acct-3", entries[0].Slug)
	assert.Equal(t, "acct-2", entries[1].Slug)
}

func TestHistoryStore_GetNotFoundAndClear(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.True(t, errors.Is(err, ErrEntryNotFound))

	require.NoError(t, store.Add(ctx, &HistoryEntry{Slug: "a", Kind: KindAccount, URL: "u", Outcome: export.OutcomeSuccess}))
	require.NoError(t, store.Clear(ctx))

	entries, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHistoryStore_ReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	store, err := OpenHistoryStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Add(ctx, &HistoryEntry{Slug: "acme", Kind: KindAccount, URL: "u", Outcome: export.OutcomeSuccess}))
	require.NoError(t, store.Close())
	require.NoError(t, store.Close(), "closing twice is fine")

	store, err = OpenHistoryStore(path)
	require.NoError(t, err)
	defer store.Close()

	entries, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "acme", entries[0].Slug)
}

func TestHistoryStore_AddAfterClose(t *testing.T) {
	store, err := OpenHistoryStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	err = store.Add(context.Background(), &HistoryEntry{Slug: "a", Kind: KindAccount, URL: "u"})
	assert.Error(t, err)
}
