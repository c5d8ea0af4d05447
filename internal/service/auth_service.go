package service

import (
	"database/sql"
	"errors"

	"github.com/shelfline/marketsync/internal/models"
	"github.com/shelfline/marketsync/internal/utils"
)

type tenantKeyStore interface {
	GetByAPIKey(apiKey string) (*models.Tenant, error)
}

// AuthService resolves API keys to tenants for the integration surface.
type AuthService struct {
	tenants tenantKeyStore
}

// NewAuthService creates a new AuthService.
func NewAuthService(tenants tenantKeyStore) *AuthService {
	return &AuthService{tenants: tenants}
}

// ValidateAPIKey returns the active tenant owning the key.
func (s *AuthService) ValidateAPIKey(apiKey string) (*models.Tenant, error) {
	if apiKey == "" {
		return nil, utils.ErrInvalidToken
	}
	tenant, err := s.tenants.GetByAPIKey(apiKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrInvalidToken
		}
		return nil, err
	}
	if !tenant.IsActive {
		return nil, utils.ErrInvalidTenant
	}
	return tenant, nil
}
