// Package auth mediates access to the Gemini API credential.
//
// A Gate resolves the key through an ordered chain of sources (environment
// first, then the integration token store) and caches the winner. When an
// upstream call is rejected for authentication reasons the studio invalidates
// the gate; it then reports as disconnected until Connect succeeds again.
package auth

import (
	"context"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"fitstudio/internal/domain"
	"fitstudio/internal/infra"
)

// Source yields an API key, or an empty string when it has none to offer.
type Source interface {
	APIKey(ctx context.Context) (string, error)
}

// SourceFunc adapts a plain function to the Source interface.
type SourceFunc func(ctx context.Context) (string, error)

func (f SourceFunc) APIKey(ctx context.Context) (string, error) { return f(ctx) }

// StaticSource returns a Source that always yields the given key. An empty
// key is treated as "nothing to offer" during resolution.
func StaticSource(key string) Source {
	return SourceFunc(func(context.Context) (string, error) { return key, nil })
}

// Gate guards the credential used for upstream Gemini calls.
type Gate struct {
	mu      sync.Mutex
	sources []Source
	key     string
	revoked bool
	logger  *infra.Logger
}

func NewGate(logger *infra.Logger, sources ...Source) *Gate {
	if logger == nil {
		l := zerolog.New(io.Discard)
		logger = &l
	}
	return &Gate{sources: sources, logger: logger}
}

// Check reports whether a credential is currently available. A gate that was
// invalidated stays disconnected until Connect succeeds.
func (g *Gate) Check(ctx context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.key != "" {
		return true
	}
	if g.revoked {
		return false
	}
	return g.resolveLocked(ctx) == nil
}

// Connect re-resolves the credential chain, clearing any prior invalidation.
func (g *Gate) Connect(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.revoked = false
	g.key = ""
	if err := g.resolveLocked(ctx); err != nil {
		return domain.ErrConnectUnavailable
	}
	g.logger.Info().Msg("auth: credential connected")
	return nil
}

// Invalidate drops the cached credential after an upstream auth failure.
func (g *Gate) Invalidate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.key = ""
	g.revoked = true
	g.logger.Warn().Msg("auth: credential invalidated")
}

// APIKey returns the active credential, resolving it on first use.
func (g *Gate) APIKey(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.key != "" {
		return g.key, nil
	}
	if g.revoked {
		return "", domain.ErrNoCredential
	}
	if err := g.resolveLocked(ctx); err != nil {
		return "", err
	}
	return g.key, nil
}

func (g *Gate) resolveLocked(ctx context.Context) error {
	for i, src := range g.sources {
		key, err := src.APIKey(ctx)
		if err != nil {
			g.logger.Debug().Err(err).Int("source", i).Msg("auth: credential source failed")
			continue
		}
		if key == "" {
			continue
		}
		g.key = key
		return nil
	}
	return domain.ErrNoCredential
}
