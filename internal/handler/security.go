package handler

import (
	"context"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/erp-inventory/internal/api"
	"github.com/xenking/erp-inventory/internal/domain/auth"
)

// APIKeyHeader carries the API key.
const APIKeyHeader = "api_key"

type apiKeyCtxKey struct{}

// APIKeyFromContext returns the key that authenticated the request.
func APIKeyFromContext(ctx context.Context) (*auth.APIKeyInfo, bool) {
	info, ok := ctx.Value(apiKeyCtxKey{}).(*auth.APIKeyInfo)
	return info, ok
}

// SecurityHandler authenticates requests by HMAC-SHA256 hashed API keys.
type SecurityHandler struct {
	apikeys auth.Repository
	pepper  []byte
}

// NewSecurityHandler creates a SecurityHandler with the given API key
// repository and HMAC pepper.
func NewSecurityHandler(apikeys auth.Repository, pepper []byte) *SecurityHandler {
	return &SecurityHandler{
		apikeys: apikeys,
		pepper:  pepper,
	}
}

// Authenticate resolves the key of a request. The stored hash is compared in
// constant time with the computed one.
func (s *SecurityHandler) Authenticate(ctx context.Context, key string) (*auth.APIKeyInfo, bool) {
	if key == "" {
		return nil, false
	}
	hexHash := auth.HashKey(s.pepper, key)
	info, err := s.apikeys.FindByHash(ctx, hexHash)
	if err != nil {
		return nil, false
	}
	hash, _ := hex.DecodeString(hexHash)
	stored, err := hex.DecodeString(info.KeyHash)
	if err != nil || subtle.ConstantTimeCompare(hash, stored) != 1 {
		return nil, false
	}
	return info, true
}

// Require rejects requests without a valid key holding the write scope.
func (s *SecurityHandler) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, ok := s.Authenticate(r.Context(), r.Header.Get(APIKeyHeader))
		if !ok {
			writeErrorBody(w, http.StatusUnauthorized, api.KindUnauthorized, "missing or invalid api key", nil)
			return
		}
		if !info.HasScope(auth.ScopeWrite) {
			writeErrorBody(w, http.StatusForbidden, api.KindUnauthorized, "api key lacks the write scope", nil)
			return
		}
		ctx := context.WithValue(r.Context(), apiKeyCtxKey{}, info)
		ctx = zctx.With(ctx, zap.String("api_key_id", info.ID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
