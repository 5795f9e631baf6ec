// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/txexport/internal/util"
)

// =============================================================================
// TOKEN STORE INTERFACE
// =============================================================================

// TokenStore persists the REST access token between runs.
type TokenStore interface {
	// Store saves the token, replacing any previous one.
	Store(token string) error
	// Retrieve returns the stored token, or ErrNoToken.
	Retrieve() (string, error)
	// Delete removes the token. Deleting a missing token is not an error.
	Delete() error
	// Exists reports whether a token is stored.
	Exists() bool
}

// ErrNoToken is returned by Retrieve when nothing is stored.
var ErrNoToken = errors.New("no token stored")

// =============================================================================
// FILE-BASED TOKEN STORE
// =============================================================================

// FileTokenStore keeps the token in a single file readable only by its owner.
type FileTokenStore struct {
	path string
}

// NewFileTokenStore creates a store backed by path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Path returns the token file location.
func (f *FileTokenStore) Path() string {
	return f.path
}

// Store writes the token with 0600 permissions.
func (f *FileTokenStore) Store(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("refusing to store an empty token")
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	// RELIABILITY: Atomic write with fsync prevents a half-written token
	if err := util.AtomicWriteFile(f.path, []byte(token+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// Retrieve reads the token from the file.
func (f *FileTokenStore) Retrieve() (string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token file: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// Delete removes the token file.
func (f *FileTokenStore) Delete() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	return nil
}

// Exists checks if the token file exists.
func (f *FileTokenStore) Exists() bool {
	_, err := os.Stat(f.path)
	return err == nil
}

// DefaultTokenPath returns ~/.txexport/token.
func DefaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".txexport", "token")
	}
	return filepath.Join(home, ".txexport", "token")
}

// Mask shows the first and last four characters of a token.
func Mask(token string) string {
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}
