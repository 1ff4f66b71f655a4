package memory

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/erp-inventory/internal/domain/auth"
)

var _ auth.Repository = (*APIKeyRepository)(nil)

// APIKeyRepository keeps API keys in memory.
type APIKeyRepository struct {
	view
}

// Upsert registers a key by its hash, replacing an existing entry.
func (r *APIKeyRepository) Upsert(ctx context.Context, info auth.APIKeyInfo) error {
	return r.write(ctx, func(st *state) error {
		st.apiKeys[info.KeyHash] = info
		return nil
	})
}

// FindByHash looks up a key by its HMAC-SHA256 hash.
func (r *APIKeyRepository) FindByHash(_ context.Context, hash string) (*auth.APIKeyInfo, error) {
	info, ok := r.read().apiKeys[hash]
	if !ok {
		return nil, errors.New("api key not found")
	}
	return &info, nil
}
