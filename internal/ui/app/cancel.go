// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"sync"
)

// cancelManager owns the context of the export in flight. Commands run on
// their own goroutines, so access is guarded. Use it through a pointer so
// Bubble Tea's model copies never copy the mutex.
type cancelManager struct {
	mu     sync.Mutex
	cancel context.CancelFunc
}

func newCancelManager() *cancelManager {
	return &cancelManager{}
}

// begin returns a fresh context for an export, cancelling any previous one.
func (cm *cancelManager) begin(parent context.Context) context.Context {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.cancel != nil {
		cm.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	cm.cancel = cancel
	return ctx
}

// clear cancels the current context, if any. Safe to call repeatedly.
func (cm *cancelManager) clear() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.cancel != nil {
		cm.cancel()
		cm.cancel = nil
	}
}
