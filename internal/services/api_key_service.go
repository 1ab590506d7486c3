package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gestly/internal/caching"
	"gestly/internal/common"
	"gestly/internal/models"
	"gestly/internal/repositories"

	"github.com/google/uuid"
	"github.com/labstack/gommon/random"
	"go.uber.org/zap"
)

const (
	apiKeyPrefix   = "gst_"
	apiKeyCacheTTL = 5 * time.Minute
)

// APIKeyService issues and resolves server-to-server credentials
type APIKeyService interface {
	Create(ctx context.Context, businessID uuid.UUID, name string) (*models.CreatedAPIKey, error)
	List(ctx context.Context, businessID uuid.UUID) ([]*models.APIKey, error)
	Revoke(ctx context.Context, businessID, id uuid.UUID) (*models.APIKey, error)
	// Authenticate resolves a raw key to its stored record. It returns
	// (nil, nil) for unknown or revoked keys.
	Authenticate(ctx context.Context, rawKey string) (*models.APIKey, error)
}

type cachedAPIKey struct {
	ID         uuid.UUID `json:"id"`
	BusinessID uuid.UUID `json:"business_id"`
}

type apiKeyService struct {
	keys     repositories.APIKeyRepository
	cacheSvc caching.CacheService
	logger   *zap.Logger
}

func NewAPIKeyService(keys repositories.APIKeyRepository, cacheSvc caching.CacheService, logger *zap.Logger) APIKeyService {
	return &apiKeyService{keys: keys, cacheSvc: cacheSvc, logger: logger}
}

func (s *apiKeyService) Create(ctx context.Context, businessID uuid.UUID, name string) (*models.CreatedAPIKey, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, common.FieldError("name", "Nome é obrigatório")
	}

	raw := apiKeyPrefix + random.String(40, random.Alphanumeric)
	key := &models.APIKey{
		ID:         uuid.New(),
		BusinessID: businessID,
		Name:       name,
		Prefix:     raw[:len(apiKeyPrefix)+6],
		KeyHash:    hashToken(raw),
	}
	if err := s.keys.Create(ctx, key); err != nil {
		return nil, fmt.Errorf("create api key: %w", err)
	}

	s.logger.Info("api key created", zap.String("business_id", businessID.String()), zap.String("prefix", key.Prefix))
	return &models.CreatedAPIKey{APIKey: *key, Key: raw}, nil
}

func (s *apiKeyService) List(ctx context.Context, businessID uuid.UUID) ([]*models.APIKey, error) {
	keys, err := s.keys.List(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	return keys, nil
}

func (s *apiKeyService) Revoke(ctx context.Context, businessID, id uuid.UUID) (*models.APIKey, error) {
	key, err := s.keys.Revoke(ctx, businessID, id)
	if err != nil {
		return nil, notFoundOr(err, msgAPIKeyNotFound, "revoke api key")
	}
	if err := s.cacheSvc.Delete(ctx, caching.APIKeyKey(key.KeyHash)); err != nil {
		s.logger.Warn("failed to evict revoked api key", zap.Error(err))
	}
	return key, nil
}

func (s *apiKeyService) Authenticate(ctx context.Context, rawKey string) (*models.APIKey, error) {
	if !strings.HasPrefix(rawKey, apiKeyPrefix) {
		return nil, nil
	}
	hash := hashToken(rawKey)
	cacheKey := caching.APIKeyKey(hash)

	var cached cachedAPIKey
	found, err := s.cacheSvc.GetJSON(ctx, cacheKey, &cached)
	if err != nil {
		s.logger.Warn("api key cache lookup failed", zap.Error(err))
	}
	if found {
		return &models.APIKey{ID: cached.ID, BusinessID: cached.BusinessID, KeyHash: hash}, nil
	}

	key, err := s.keys.GetActiveByHash(ctx, hash)
	if err != nil {
		if repositories.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve api key: %w", err)
	}

	if err := s.cacheSvc.SetJSON(ctx, cacheKey, cachedAPIKey{ID: key.ID, BusinessID: key.BusinessID}, apiKeyCacheTTL); err != nil {
		s.logger.Warn("failed to cache api key", zap.Error(err))
	}
	if err := s.keys.TouchLastUsed(ctx, key.ID); err != nil {
		s.logger.Warn("failed to update api key last use", zap.Error(err))
	}
	return key, nil
}
