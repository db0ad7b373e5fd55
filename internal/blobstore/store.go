package blobstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrConflict is returned by Write when the token is stale or, on create,
// when the key already exists. Callers must surface it rather than retry blindly.
var ErrConflict = errors.New("blobstore: write conflict")

// Well-known keys of the fund store
const (
	KeyFunds      = "funds.json"
	KeySnapshots  = "history.json"
	KeyFactors    = "factor_history.json"
	KeyNavHistory = "nav_history.json"
	KeyNightly    = "nightly_state.json"
)

// Store is a key-value JSON blob store with optimistic concurrency
// ⭐ SSOT: the system of record for funds and every date-keyed log
type Store interface {
	// Read returns the stored bytes and a concurrency token.
	// A missing key returns (nil, "", nil).
	Read(ctx context.Context, key string) ([]byte, string, error)

	// Write creates the key when token is empty, otherwise updates it only if
	// token still matches. It returns the new token.
	Write(ctx context.Context, key string, value []byte, token, message string) (string, error)
}

// ReadJSON reads key into dest. dest is left untouched when the key is missing.
func ReadJSON(ctx context.Context, s Store, key string, dest interface{}) (string, error) {
	data, token, err := s.Read(ctx, key)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return token, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return "", fmt.Errorf("decode %s: %w", key, err)
	}
	return token, nil
}

// WriteJSON encodes v (indented, non-ASCII kept verbatim) and writes it under key
func WriteJSON(ctx context.Context, s Store, key string, v interface{}, token, message string) (string, error) {
	data, err := Encode(v)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", key, err)
	}
	newToken, err := s.Write(ctx, key, data, token, message)
	if err != nil {
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	return newToken, nil
}

// Encode renders v the way the stored files are laid out
func Encode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
