// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"os"
	"strings"
)

// EnvVar holds a token that overrides the stored one.
const EnvVar = "TXEXPORT_ACCESS_TOKEN"

// Provider returns the current access token. An empty token with a nil
// error means no one is signed in.
type Provider interface {
	AccessToken(ctx context.Context) (string, error)
}

// EnvProvider reads the token from an environment variable.
type EnvProvider struct {
	Name string
}

// AccessToken implements Provider.
func (p EnvProvider) AccessToken(context.Context) (string, error) {
	name := p.Name
	if name == "" {
		name = EnvVar
	}
	return strings.TrimSpace(os.Getenv(name)), nil
}

// StoreProvider reads the token from a TokenStore on every call.
type StoreProvider struct {
	Store TokenStore
}

// AccessToken implements Provider.
func (p StoreProvider) AccessToken(context.Context) (string, error) {
	token, err := p.Store.Retrieve()
	if errors.Is(err, ErrNoToken) {
		return "", nil
	}
	return token, err
}

// Chain returns the first non-empty token from its providers.
type Chain []Provider

// AccessToken implements Provider.
func (c Chain) AccessToken(ctx context.Context) (string, error) {
	for _, p := range c {
		token, err := p.AccessToken(ctx)
		if err != nil {
			return "", err
		}
		if token != "" {
			return token, nil
		}
	}
	return "", nil
}
