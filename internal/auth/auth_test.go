// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// FILE TOKEN STORE TESTS
// =============================================================================

func TestFileTokenStore_RoundTrip(t *testing.T) {
	store := NewFileTokenStore(filepath.Join(t.TempDir(), "nested", "token"))

	assert.False(t, store.Exists())
	_, err := store.Retrieve()
	assert.ErrorIs(t, err, ErrNoToken)

	require.NoError(t, store.Store("  tok-123  \n"))
	assert.True(t, store.Exists())

	token, err := store.Retrieve()
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)

	require.NoError(t, store.Delete())
	assert.False(t, store.Exists())
	require.NoError(t, store.Delete(), "deleting twice is fine")
}

func TestFileTokenStore_Permissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX permissions only")
	}
	store := NewFileTokenStore(filepath.Join(t.TempDir(), "token"))
	require.NoError(t, store.Store("tok"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileTokenStore_RejectsEmpty(t *testing.T) {
	store := NewFileTokenStore(filepath.Join(t.TempDir(), "token"))
	assert.Error(t, store.Store("   "))
	assert.False(t, store.Exists())
}

func TestMask(t *testing.T) {
	assert.Equal(t, "****", Mask("abcd"))
	assert.Equal(t, "abcd**wxyz", Mask("abcdefwxyz"))
}

// =============================================================================
// PROVIDER TESTS
// =============================================================================

type errProvider struct{}

func (errProvider) AccessToken(context.Context) (string, error) {
	return "", errors.New("boom")
}

func TestChain(t *testing.T) {
	ctx := context.Background()
	store := NewFileTokenStore(filepath.Join(t.TempDir(), "token"))

	t.Setenv("TXEXPORT_TEST_TOKEN", "")
	chain := Chain{EnvProvider{Name: "TXEXPORT_TEST_TOKEN"}, StoreProvider{Store: store}}

	token, err := chain.AccessToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, token, "nothing configured means signed out")

	require.NoError(t, store.Store("from-file"))
	token, err = chain.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "from-file", token)

	t.Setenv("TXEXPORT_TEST_TOKEN", "from-env")
	token, err = chain.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "from-env", token)

	_, err = Chain{errProvider{}, StoreProvider{Store: store}}.AccessToken(ctx)
	assert.Error(t, err)
}

// =============================================================================
// WATCHER TESTS
// =============================================================================

func TestWatchedStore_ReloadsOnWrite(t *testing.T) {
	store := NewFileTokenStore(filepath.Join(t.TempDir(), "token"))
	require.NoError(t, store.Store("first"))

	ws, err := NewWatchedStore(store, nil)
	require.NoError(t, err)
	defer ws.Close()

	token, _ := ws.AccessToken(context.Background())
	assert.Equal(t, "first", token)

	changes := make(chan bool, 4)
	ws.OnChange(func(present bool) { changes <- present })
	require.NoError(t, ws.Watch())

	require.NoError(t, store.Store("second"))
	assert.Eventually(t, func() bool {
		token, _ := ws.AccessToken(context.Background())
		return token == "second"
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, store.Delete())
	assert.Eventually(t, func() bool {
		token, _ := ws.AccessToken(context.Background())
		return token == ""
	}, 2*time.Second, 20*time.Millisecond)

	assert.NotEmpty(t, changes)
}

func TestWatchedStore_CloseWithoutWatch(t *testing.T) {
	store := NewFileTokenStore(filepath.Join(t.TempDir(), "token"))
	ws, err := NewWatchedStore(store, nil)
	require.NoError(t, err)
	assert.NoError(t, ws.Close())
}
