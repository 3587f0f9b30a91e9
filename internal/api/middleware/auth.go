package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"wcperfit/internal/models"
	"wcperfit/internal/services/woocommerce"

	"github.com/gin-gonic/gin"
)

// APIKeyContextKey is where ConsumerAuth stores the authenticated credential.
const APIKeyContextKey = "wcperfit.api_key"

type Authenticator interface {
	Authenticate(ctx context.Context, consumerKey, consumerSecret string) (*models.APIKey, error)
}

// RequireAdmin guards the settings endpoints with a static bearer token.
// An empty token locks the endpoints entirely.
func RequireAdmin(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token == "" || !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "You do not have permission to manage this integration"})
			return
		}
		c.Next()
	}
}

// ConsumerAuth authenticates store REST API credentials, given either as
// HTTP basic auth or as consumer_key/consumer_secret query parameters, and
// requires read access.
func ConsumerAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, secret, ok := c.Request.BasicAuth()
		if !ok {
			key, secret = c.Query("consumer_key"), c.Query("consumer_secret")
		}

		apiKey, err := auth.Authenticate(c.Request.Context(), key, secret)
		if err != nil || !apiKey.Permissions.CanRead() {
			if err != nil && !errors.Is(err, woocommerce.ErrInvalidCredentials) {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to authenticate"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, CannotView(http.StatusUnauthorized))
			return
		}

		c.Set(APIKeyContextKey, apiKey)
		c.Next()
	}
}

// CannotView is the REST error body for a caller lacking read access.
func CannotView(status int) gin.H {
	return gin.H{
		"code":    "woocommerce_rest_cannot_view",
		"message": "Sorry, you cannot view this resource.",
		"data":    gin.H{"status": status},
	}
}
