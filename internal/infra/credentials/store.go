// Package credentials persists the upstream API key in Postgres so a key
// rotated through the CLI reaches the service without a redeploy.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"fitstudio/internal/infra"
	"fitstudio/internal/sqlinline"
)

const providerGemini = "gemini"

// ErrEmptyKey rejects attempts to store a blank credential.
var ErrEmptyKey = errors.New("credentials: api key is empty")

// Store reads and writes the Gemini key row. A missing row is reported as
// an empty string, not an error, so the auth gate can fall through to its
// next source.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// GeminiAPIKey loads the stored key, empty when none has been set.
func (s *Store) GeminiAPIKey(ctx context.Context) (string, error) {
	var token string
	err := s.sql.QueryRow(ctx, sqlinline.QSelectProviderKey, providerGemini).Scan(&token)
	switch {
	case infra.IsNoRows(err):
		return "", nil
	case err != nil:
		return "", fmt.Errorf("credentials: load key: %w", err)
	}
	return strings.TrimSpace(token), nil
}

// SetGeminiAPIKey stores or rotates the key and records when it changed.
func (s *Store) SetGeminiAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}
	props, err := json.Marshal(map[string]string{
		"rotated_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	if _, err := s.sql.Exec(ctx, sqlinline.QUpsertProviderKey, providerGemini, key, props); err != nil {
		return fmt.Errorf("credentials: store key: %w", err)
	}
	return nil
}
