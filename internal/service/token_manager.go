package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shelfline/marketsync/internal/models"
	"github.com/shelfline/marketsync/internal/utils"
	"github.com/shelfline/marketsync/pkg/ebay"
)

// tokenSafetyWindow is how close to expiry an access token may get before it
// is refreshed proactively, so a token cannot expire mid-batch.
const tokenSafetyWindow = 5 * time.Minute

type credentialStore interface {
	Get(tenantID int64) (*models.Credential, error)
	Upsert(c *models.Credential) error
	Delete(tenantID int64) error
}

type tokenRefresher interface {
	RefreshAccessToken(ctx context.Context, refreshToken string) (*ebay.Token, error)
}

// TokenManager owns the per-tenant marketplace credential lifecycle: it hands
// out valid access tokens, refreshes them proactively, and recovers once from
// a mid-call token rejection before declaring the connection dead.
type TokenManager struct {
	creds credentialStore
	oauth tokenRefresher
}

// NewTokenManager creates a new TokenManager.
func NewTokenManager(creds credentialStore, oauth tokenRefresher) *TokenManager {
	return &TokenManager{creds: creds, oauth: oauth}
}

// Connect stores the tokens obtained from a completed consent flow.
func (m *TokenManager) Connect(tenantID int64, tok *ebay.Token) error {
	cred := &models.Credential{
		TenantID:         tenantID,
		AccessToken:      tok.AccessToken,
		RefreshToken:     tok.RefreshToken,
		AccessExpiresAt:  tok.AccessExpiresAt,
		RefreshExpiresAt: tok.RefreshExpiresAt,
	}
	return m.creds.Upsert(cred)
}

// Disconnect drops the stored credential of a tenant.
func (m *TokenManager) Disconnect(tenantID int64) error {
	return m.creds.Delete(tenantID)
}

// Status reports the stored credential without token values, or
// ErrNotConnected when the tenant never connected.
func (m *TokenManager) Status(tenantID int64) (*models.Credential, error) {
	cred, err := m.creds.Get(tenantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrNotConnected
		}
		return nil, err
	}
	cred.AccessToken = ""
	cred.RefreshToken = ""
	return cred, nil
}

// AccessToken returns a valid access token for the tenant, refreshing it
// first when it is inside the safety window.
func (m *TokenManager) AccessToken(ctx context.Context, tenantID int64) (string, error) {
	cred, err := m.creds.Get(tenantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", utils.ErrNotConnected
		}
		return "", fmt.Errorf("failed to load credential: %w", err)
	}
	if time.Until(cred.AccessExpiresAt) > tokenSafetyWindow {
		return cred.AccessToken, nil
	}
	return m.refresh(ctx, cred)
}

// WithAuthRetry runs call with a valid access token. When the marketplace
// rejects the token mid-call the token is refreshed once and call runs a
// second time. A second rejection, or a failing refresh, is terminal: the
// tenant must re-run the consent flow.
func (m *TokenManager) WithAuthRetry(ctx context.Context, tenantID int64, call func(token string) error) error {
	token, err := m.AccessToken(ctx, tenantID)
	if err != nil {
		return err
	}

	err = call(token)
	if err == nil || !ebay.IsAuthError(err) {
		return err
	}

	log.Warn().Int64("tenant_id", tenantID).Msg("access token rejected, refreshing once")
	cred, getErr := m.creds.Get(tenantID)
	if getErr != nil {
		if errors.Is(getErr, sql.ErrNoRows) {
			return utils.ErrNotConnected
		}
		return fmt.Errorf("failed to load credential: %w", getErr)
	}
	token, refreshErr := m.refresh(ctx, cred)
	if refreshErr != nil {
		return refreshErr
	}

	err = call(token)
	if ebay.IsAuthError(err) {
		return fmt.Errorf("%w: token rejected again after refresh", utils.ErrReconnectRequired)
	}
	return err
}

// refresh performs one refresh grant and persists both tokens and both
// expiries atomically before handing the new access token out.
func (m *TokenManager) refresh(ctx context.Context, cred *models.Credential) (string, error) {
	if cred.RefreshToken == "" {
		return "", utils.ErrReconnectRequired
	}
	if !cred.RefreshExpiresAt.IsZero() && time.Now().After(cred.RefreshExpiresAt) {
		return "", fmt.Errorf("%w: refresh token expired", utils.ErrReconnectRequired)
	}

	tok, err := m.oauth.RefreshAccessToken(ctx, cred.RefreshToken)
	if err != nil {
		log.Error().Err(err).Int64("tenant_id", cred.TenantID).Msg("refresh grant rejected")
		return "", fmt.Errorf("%w: %v", utils.ErrReconnectRequired, err)
	}

	cred.AccessToken = tok.AccessToken
	cred.RefreshToken = tok.RefreshToken
	cred.AccessExpiresAt = tok.AccessExpiresAt
	if !tok.RefreshExpiresAt.IsZero() {
		cred.RefreshExpiresAt = tok.RefreshExpiresAt
	}
	if err := m.creds.Upsert(cred); err != nil {
		return "", fmt.Errorf("failed to persist refreshed credential: %w", err)
	}
	return cred.AccessToken, nil
}
