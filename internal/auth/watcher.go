// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/jeranaias/txexport/internal/logging"
)

// =============================================================================
// WATCHED TOKEN FILE
// =============================================================================

// WatchedStore caches the token from a FileTokenStore and reloads it when the
// file changes on disk, so a token written by `txexport token set` in another
// terminal is used by a running dialog.
type WatchedStore struct {
	store   *FileTokenStore
	watcher *fsnotify.Watcher
	logger  *log.Logger

	mu       sync.RWMutex
	token    string
	onChange func(present bool)

	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// NewWatchedStore loads the current token and prepares a watcher on the
// token file's directory. Call Watch to start receiving updates.
func NewWatchedStore(store *FileTokenStore, logger *log.Logger) (*WatchedStore, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	dir := filepath.Dir(store.Path())
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create token directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	ws := &WatchedStore{
		store:   store,
		watcher: watcher,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	ws.reload()
	return ws, nil
}

// OnChange registers a callback run after every reload that changed the token.
func (ws *WatchedStore) OnChange(fn func(present bool)) {
	ws.mu.Lock()
	ws.onChange = fn
	ws.mu.Unlock()
}

// Watch starts the event loop. The directory is watched rather than the file
// because atomic writes replace the file by rename.
func (ws *WatchedStore) Watch() error {
	if err := ws.watcher.Add(filepath.Dir(ws.store.Path())); err != nil {
		return fmt.Errorf("watch token directory: %w", err)
	}
	ws.started = true
	go ws.processEvents()
	return nil
}

// Close stops watching and releases resources.
func (ws *WatchedStore) Close() error {
	ws.cancel()
	err := ws.watcher.Close()
	if ws.started {
		<-ws.done
	}
	return err
}

// AccessToken implements Provider from the cache.
func (ws *WatchedStore) AccessToken(context.Context) (string, error) {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.token, nil
}

func (ws *WatchedStore) processEvents() {
	defer close(ws.done)

	target := filepath.Clean(ws.store.Path())
	for {
		select {
		case <-ws.ctx.Done():
			return

		case event, ok := <-ws.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				ws.reload()
			}

		case err, ok := <-ws.watcher.Errors:
			if !ok {
				return
			}
			ws.logger.Warn("token watcher error", "err", err)
		}
	}
}

func (ws *WatchedStore) reload() {
	token, err := ws.store.Retrieve()
	if err != nil && !errors.Is(err, ErrNoToken) {
		ws.logger.Warn("reload token", "err", err)
		return
	}

	ws.mu.Lock()
	changed := token != ws.token
	ws.token = token
	fn := ws.onChange
	ws.mu.Unlock()

	if changed {
		ws.logger.Info("access token reloaded", "present", token != "")
		if fn != nil {
			fn(token != "")
		}
	}
}
