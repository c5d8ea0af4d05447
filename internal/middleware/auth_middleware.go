package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/shelfline/marketsync/internal/models"
	"github.com/shelfline/marketsync/internal/service"
	"github.com/shelfline/marketsync/internal/utils"
)

// AuthMiddleware handles API key authentication for the integration surface.
type AuthMiddleware struct {
	authService *service.AuthService
	rateLimiter *InvalidAuthRateLimiter
}

// NewAuthMiddleware constructs a new AuthMiddleware.
func NewAuthMiddleware(authService *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		rateLimiter: NewInvalidAuthRateLimiter(),
	}
}

// Handle returns a Gin middleware function that enforces authentication.
func (m *AuthMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Extract Bearer token
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			m.handleAuthError(c, "INVALID_TOKEN", "Missing or invalid authorization header")
			return
		}
		apiKey := strings.TrimPrefix(authHeader, "Bearer ")

		// 2. Validate API key
		tenant, err := m.authService.ValidateAPIKey(apiKey)
		if err != nil || tenant == nil {
			if err == utils.ErrInvalidTenant {
				m.handleAuthError(c, "INVALID_TENANT", "Tenant is not active")
				return
			}
			m.handleAuthError(c, "INVALID_TOKEN", "Invalid API token")
			return
		}

		// 3. Set context values
		c.Set("tenant", tenant)
		c.Set("tenant_id", tenant.ID)

		c.Next()
	}
}

func (m *AuthMiddleware) handleAuthError(c *gin.Context, code, message string) {
	// Apply rate limit for invalid auth attempts
	ip := c.ClientIP()
	if !m.rateLimiter.Allow(ip) {
		utils.Error(c, 429, "TOO_MANY_REQUESTS", "Too many invalid authentication attempts")
		c.Abort()
		return
	}

	utils.Error(c, 401, code, message)
	c.Abort()
}

// GetTenant returns the authenticated tenant from context.
func GetTenant(c *gin.Context) *models.Tenant {
	tenant, _ := c.Get("tenant")
	if tenant == nil {
		return nil
	}
	return tenant.(*models.Tenant)
}

// GetTenantID returns the authenticated tenant id from context. Works for
// both the API key surface and the console JWT surface.
func GetTenantID(c *gin.Context) int64 {
	id, _ := c.Get("tenant_id")
	if id == nil {
		return 0
	}
	return id.(int64)
}
