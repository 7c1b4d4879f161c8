package middleware

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"username_wallet/internal/ledger" // Caller identity type
	"username_wallet/internal/utils"  // JWT utility functions

	"github.com/gin-gonic/gin" // Gin web framework
)

// Context keys set by the auth middleware.
const (
	ContextUserID = "userID" // Signer account ID (uint)
	ContextCaller = "caller" // ledger.Identity of the caller
)

// JWTAuthMiddleware validates JWT tokens and extracts the caller identity
func JWTAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization") // Get Authorization header
		// Check if the Authorization header is present and properly formatted
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			// If not, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ") // Extract the token string and parse it
		claims, err := utils.ParseJWT(tokenStr, secret)       // Parse the JWT token
		if err != nil {
			// If parsing fails, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		// The public key claim is the identity every ledger operation runs as
		caller, err := ledger.ParseIdentity(claims.PublicKey)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid identity claim"})
			return
		}
		c.Set(ContextUserID, claims.UserID) // Store signer account ID in context
		c.Set(ContextCaller, caller)        // Store caller identity in context
		c.Next()                            // Proceed to the next handler
	}
}

// CallerIdentity pulls the ledger identity the middleware stored, aborting
// with 401 if it is missing.
func CallerIdentity(c *gin.Context) (ledger.Identity, bool) {
	v, exists := c.Get(ContextCaller)
	if !exists {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return ledger.Identity{}, false
	}
	caller, ok := v.(ledger.Identity)
	if !ok || caller.IsZero() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return ledger.Identity{}, false
	}
	return caller, true
}
